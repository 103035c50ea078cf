package srvsupport

//
// render.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"
)

// RenderJSON marshals 'v' to JSON, automatically escaping HTML and setting the
// Content-Type as application/json.
// based on go-chi/render but not use temporary buffer.
func RenderJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if status, ok := ctx.Value(render.StatusCtxKey).(int); ok {
		w.WriteHeader(status)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)

	if err := enc.Encode(v); err != nil {
		logger := zerolog.Ctx(ctx)
		logger.Error().Err(err).Msg("encode json failed")

		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// RenderXML write already rendered xml document with application/xml
// Content-Type.
func RenderXML(w http.ResponseWriter, r *http.Request, body []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")

	if status, ok := r.Context().Value(render.StatusCtxKey).(int); ok {
		w.WriteHeader(status)
	}

	if _, err := w.Write(body); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("write xml response failed")
	}
}
