// Package search provide full text podcast index.
package search

//
// engine.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/config"
	"gitlab.com/kabes/go-poddir/internal/model"
)

// Engine index podcast metadata and search it. Documents are keyed by
// podcast xid; hits carry no fields and must be loaded from database.
type Engine struct {
	idx bleve.Index
}

func NewEngineI(i do.Injector) (*Engine, error) {
	conf := do.MustInvoke[config.SearchConf](i)

	if conf.InMemory() {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, aerr.Wrapf(err, "create in-memory index failed")
		}

		log.Logger.Info().Msg("search: using in-memory index")

		return &Engine{idx: idx}, nil
	}

	if err := os.MkdirAll(filepath.Dir(conf.IndexPath), 0o755); err != nil { //nolint:mnd
		return nil, aerr.Wrapf(err, "create index directory failed").WithMeta("path", conf.IndexPath)
	}

	idx, err := bleve.Open(conf.IndexPath)
	if err != nil {
		idx, err = bleve.New(conf.IndexPath, buildIndexMapping())
		if err != nil {
			return nil, aerr.Wrapf(err, "create index failed").WithMeta("path", conf.IndexPath)
		}
	}

	log.Logger.Info().Str("path", conf.IndexPath).Msg("search: index opened")

	return &Engine{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = false

	desc := bleve.NewTextFieldMapping()
	desc.Analyzer = standard.Name
	desc.Store = false

	url := bleve.NewTextFieldMapping()
	url.Analyzer = standard.Name
	url.Store = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("description", desc)
	dm.AddFieldMappingsAt("url", url)

	im.DefaultMapping = dm

	return im
}

// IndexPodcasts add or update podcasts in index.
func (e *Engine) IndexPodcasts(podcasts ...*model.Podcast) error {
	batch := e.idx.NewBatch()

	for _, podcast := range podcasts {
		err := batch.Index(podcast.XID, map[string]any{
			"title":       podcast.Title,
			"description": podcast.Description,
			"url":         podcast.URL,
		})
		if err != nil {
			return aerr.Wrapf(err, "index podcast failed").WithMeta("xid", podcast.XID)
		}
	}

	if err := e.idx.Batch(batch); err != nil {
		return aerr.Wrapf(err, "index batch failed")
	}

	return nil
}

// Delete remove podcast from index.
func (e *Engine) Delete(xid string) error {
	if err := e.idx.Delete(xid); err != nil {
		return aerr.Wrapf(err, "delete from index failed").WithMeta("xid", xid)
	}

	return nil
}

// Search return xids of matched podcasts and total number of hits.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]string, uint64, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, 0, nil
	}

	var queries []bleveQuery.Query

	for _, token := range tokens {
		qt := bleve.NewMatchQuery(token)
		qt.SetField("title")
		qt.SetBoost(4.0) //nolint:mnd
		queries = append(queries, qt)

		qtp := bleve.NewPrefixQuery(token)
		qtp.SetField("title")
		qtp.SetBoost(3.5) //nolint:mnd
		queries = append(queries, qtp)

		qd := bleve.NewMatchQuery(token)
		qd.SetField("description")
		qd.SetBoost(2.0) //nolint:mnd
		queries = append(queries, qd)

		qu := bleve.NewMatchQuery(token)
		qu.SetField("url")
		qu.SetBoost(0.5) //nolint:mnd
		queries = append(queries, qu)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(queries...), limit, 0, false)

	res, err := e.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, aerr.Wrapf(err, "search failed").WithMeta("query", query)
	}

	ids := make([]string, len(res.Hits))
	for i, hit := range res.Hits {
		ids[i] = hit.ID
	}

	return ids, res.Total, nil
}

// Count report number of indexed podcasts.
func (e *Engine) Count() (uint64, error) {
	cnt, err := e.idx.DocCount()
	if err != nil {
		return 0, aerr.Wrapf(err, "get doc count failed")
	}

	return cnt, nil
}

func (e *Engine) Shutdown() error {
	return e.idx.Close() //nolint:wrapcheck
}

func tokenize(query string) []string {
	const minTokenLen = 2

	var tokens []string

	for _, token := range strings.Fields(strings.ToLower(query)) {
		if len(token) >= minTokenLen {
			tokens = append(tokens, token)
		}
	}

	return tokens
}
