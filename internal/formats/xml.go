package formats

//
// xml.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"encoding/xml"
	"fmt"

	"gitlab.com/kabes/go-poddir/internal/model"
)

// XMLPodcasts is xml document with list of podcasts used by toplist,
// search and export endpoints.
type XMLPodcasts struct {
	XMLName  xml.Name     `xml:"podcasts"`
	Podcasts []xmlPodcast `xml:"podcast"`
}

type xmlPodcast struct {
	Title               string `xml:"title"`
	URL                 string `xml:"url"`
	Website             string `xml:"website,omitempty"`
	Description         string `xml:"description,omitempty"`
	Subscribers         int    `xml:"subscribers"`
	SubscribersLastWeek int    `xml:"subscribers_last_week"`
	LogoURL             string `xml:"logo_url,omitempty"`
}

func NewXMLPodcasts(podcasts model.Podcasts) XMLPodcasts {
	xmlpod := make([]xmlPodcast, len(podcasts))

	for i := range podcasts {
		p := &podcasts[i]
		xmlpod[i] = xmlPodcast{
			Title:               p.DisplayTitle(),
			URL:                 p.URL,
			Website:             p.Website,
			Description:         p.Description,
			Subscribers:         p.Subscribers,
			SubscribersLastWeek: p.SubscribersLastWeek,
			LogoURL:             p.LogoURL,
		}
	}

	return XMLPodcasts{Podcasts: xmlpod}
}

func (x *XMLPodcasts) XML() ([]byte, error) {
	b, err := xml.MarshalIndent(x, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("marshal podcasts error: %w", err)
	}

	return append([]byte(xml.Header), b...), nil
}
