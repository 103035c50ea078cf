// Package api handle request do api's endpoints.
package api

//
// api.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"github.com/go-chi/chi/v5"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-poddir/internal/server/srvsupport"
)

// API is handler for all api endpoints.
type API struct {
	router *chi.Mux
}

func New(i do.Injector) (API, error) {
	router := chi.NewRouter()

	router.Route("/subscriptions", func(r chi.Router) {
		simple := do.MustInvoke[simpleResource](i)
		r.Mount("/", simple.Routes())
	})

	directory := do.MustInvoke[directoryResource](i)
	router.Get(`/toplist.{format}`, srvsupport.WrapNamed(directory.toplist, "api_toplist"))
	router.Get(`/toplist/{count:[0-9]+}.{format}`, srvsupport.WrapNamed(directory.toplist, "api_toplist"))
	router.Get(`/search.{format}`, srvsupport.WrapNamed(directory.search, "api_search"))

	router.Route("/api/2", func(r chi.Router) {
		r.Mount("/data", do.MustInvoke[dataResource](i).Routes())
		r.Mount("/devices", do.MustInvoke[deviceResource](i).Routes())
		r.Mount("/subscriptions", do.MustInvoke[subscriptionsResource](i).Routes())
	})

	return API{router}, nil
}

func (a *API) Routes() *chi.Mux {
	return a.router
}
