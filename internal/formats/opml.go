// Package formats render podcast lists as OPML and XML documents.
package formats

// opml.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.

import (
	"encoding/xml"
	"fmt"

	"gitlab.com/kabes/go-poddir/internal/model"
)

type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

type Head struct {
	Title string `xml:"title"`
}

type Body struct {
	Outlines []Outline `xml:"outline"`
}

type Outline struct {
	Title  string `xml:"title,attr,omitempty"`
	Text   string `xml:"text,attr,omitempty"`
	Type   string `xml:"type,attr,omitempty"`
	XMLURL string `xml:"xmlUrl,attr,omitempty"`
}

func NewOPML(title string) OPML {
	return OPML{Version: "2.0", Head: Head{Title: title}}
}

// NewOPMLFromBytes parse OPML document.
func NewOPMLFromBytes(b []byte) (OPML, error) {
	var doc OPML
	if err := xml.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("unmarshal opml error: %w", err)
	}

	return doc, nil
}

// XML render document with xml header.
func (o *OPML) XML() ([]byte, error) {
	body, err := xml.MarshalIndent(o, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("marshal opml error: %w", err)
	}

	return append([]byte(xml.Header), body...), nil
}

func (o *OPML) AddRSS(url, title, text string) {
	o.Body.Outlines = append(o.Body.Outlines,
		Outline{Type: "rss", XMLURL: url, Title: title, Text: text})
}

// AddPodcasts append outline per podcast; feed url is used as title for
// placeholder entries without fetched metadata.
func (o *OPML) AddPodcasts(podcasts model.Podcasts) {
	for i := range podcasts {
		p := &podcasts[i]
		o.AddRSS(p.URL, p.DisplayTitle(), p.DisplayTitle())
	}
}

// FeedURLs return feed urls from all outlines, skipping entries without
// xmlUrl attribute.
func (o *OPML) FeedURLs() []string {
	urls := make([]string, 0, len(o.Body.Outlines))

	for _, outline := range o.Body.Outlines {
		if outline.XMLURL != "" {
			urls = append(urls, outline.XMLURL)
		}
	}

	return urls
}
