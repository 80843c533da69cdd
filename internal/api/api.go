// Package api exposes the indexing service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/deidaraiorek/sitesearch/internal/service"
)

// Service is implemented by *service.Service.
type Service interface {
	StartCrawl() service.Response
	Stop() service.Response
	StartCrawlForURL(url string) service.Response
	Search(ctx context.Context, query, site string, offset, limit int) service.SearchResponse
	Statistics(ctx context.Context) service.StatisticsResponse
}

type handler struct {
	svc Service
}

func NewRouter(svc Service) http.Handler {
	h := &handler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/statistics", h.statistics)
		r.Get("/startIndexing", h.startIndexing)
		r.Get("/stopIndexing", h.stopIndexing)
		r.Post("/indexPage", h.indexPage)
		r.Get("/search", h.search)
	})
	return r
}

func (h *handler) statistics(w http.ResponseWriter, r *http.Request) {
	resp := h.svc.Statistics(r.Context())
	writeJSON(w, resp.Result, resp)
}

func (h *handler) startIndexing(w http.ResponseWriter, r *http.Request) {
	resp := h.svc.StartCrawl()
	writeJSON(w, resp.Result, resp)
}

func (h *handler) stopIndexing(w http.ResponseWriter, r *http.Request) {
	resp := h.svc.Stop()
	writeJSON(w, resp.Result, resp)
}

func (h *handler) indexPage(w http.ResponseWriter, r *http.Request) {
	url := r.FormValue("url")
	if url == "" {
		writeJSON(w, false, service.Response{Error: "url is required"})
		return
	}
	resp := h.svc.StartCrawlForURL(url)
	writeJSON(w, resp.Result, resp)
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	offset, err := intParam(q.Get("offset"))
	if err != nil {
		writeJSON(w, false, service.Response{Error: "invalid offset"})
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		writeJSON(w, false, service.Response{Error: "invalid limit"})
		return
	}

	resp := h.svc.Search(r.Context(), q.Get("query"), q.Get("site"), offset, limit)
	writeJSON(w, resp.Result, resp)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, success bool, body any) {
	status := http.StatusOK
	if !success {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
