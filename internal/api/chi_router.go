// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/feedgraph/internal/middleware"
)

// Router wires the handler into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil mw uses the default middleware config.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler
	mw := router.chiMiddleware

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(middleware.PrometheusMetrics)
	if h.perfMon != nil {
		r.Use(h.perfMon.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(mw.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	// Feed reads are the hot path: permissive limit, gzip.
	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimitCustom(RateLimitFeeds))
		r.Use(APISecurityHeaders())
		r.Use(middleware.Compression)

		r.Get("/api/v1/feeds", h.ListFeeds)
		r.Get("/api/v1/feeds/{feedID}", h.GetFeed)
		r.Get("/feed/{feedID}", h.GetFeedLegacy)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(APISecurityHeaders())

		r.Route("/ingest", func(r chi.Router) {
			r.With(mw.RateLimitCustom(RateLimitIngest)).Post("/", h.TriggerIngest)
			r.Get("/status", h.IngestStatus)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.With(mw.RateLimitCustom(RateLimitWrite)).Post("/", h.CreateItem)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetItem)
				r.With(mw.RateLimitCustom(RateLimitWrite)).Patch("/", h.UpdateItem)
				r.With(mw.RateLimitCustom(RateLimitWrite)).Delete("/", h.DeleteItem)
				r.Get("/outgoing", h.ListOutgoing)
				r.Get("/incoming", h.ListIncoming)
			})
		})

		r.Route("/edges", func(r chi.Router) {
			r.With(mw.RateLimitCustom(RateLimitIngest)).Delete("/", h.DeleteAllEdges)
			r.Route("/{from}/{to}", func(r chi.Router) {
				r.Get("/", h.GetEdge)
				r.Group(func(r chi.Router) {
					r.Use(mw.RateLimitCustom(RateLimitWrite))
					r.Put("/", h.PutEdge)
					r.Patch("/", h.PatchEdge)
					r.Delete("/", h.DeleteEdge)
				})
			})
		})

		r.Get("/rankings/top", h.TopRankings)
		r.Get("/stats/endpoints", h.EndpointStats)
	})

	return r
}
