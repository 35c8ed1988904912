// Package api wires the HTTP scan surface: a thin chi router in front
// of the classification engine, with no persistence of its own.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apicrafter/metacrafter/api/controllers"
	"github.com/apicrafter/metacrafter/cache/rediscache"
	"github.com/apicrafter/metacrafter/classifier/analyzer"
	"github.com/apicrafter/metacrafter/classifier/catalog"
	"github.com/apicrafter/metacrafter/classifier/engine"
)

// InitRoute mounts the health, scan, and metrics endpoints onto r.
// catalogFn is re-read on every request rather than captured once, so
// a catalog swap performed by a background reloader takes effect
// without restarting the server; engOpts and analyzerOpts carry the
// process-wide defaults (date parser, empty tokens, thresholds) every
// request starts from before request-level overrides apply; cache
// fronts repeat scans of the same records and options.
func InitRoute(r *chi.Mux, catalogFn func() *catalog.Catalog, engOpts engine.Options, analyzerOpts analyzer.Options, cache *rediscache.ReportCache) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthController := controllers.NewHealthController(catalogFn)
	r.Get("/healthz", healthController.Healthz)

	scanController := controllers.NewScanController(catalogFn, engOpts, analyzerOpts, cache)
	r.Post("/scan", scanController.Scan)

	r.Handle("/metrics", promhttp.Handler())
}
