package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"stockdash/internal/domain"
	"stockdash/internal/market"
	"stockdash/internal/store"
)

// BasePath is where the stocks routes are mounted.
const BasePath = "/api/stocks"

// Config holds server configuration.
type Config struct {
	Addr        string
	Service     *market.Service
	Log         *slog.Logger
	CORSOrigins []string
	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

// Server serves the stocks API.
type Server struct {
	router *chi.Mux
	server *http.Server
	svc    *market.Service
	log    *slog.Logger
	now    func() time.Time
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		router: chi.NewRouter(),
		svc:    cfg.Service,
		log:    log.With("component", "server"),
		now:    cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.setupMiddleware(cfg.CORSOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route(BasePath, func(r chi.Router) {
		r.Get("/", s.handleSymbols)
		r.Get("/{symbol}/prices", s.handlePrices)
		r.Get("/{symbol}/prices/{date}", s.handlePriceAt)
		r.Post("/{symbol}/returns", s.handleReturns)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.svc.Symbols(r.Context())
	if err != nil {
		s.internalError(w, "listing symbols", err)
		return
	}
	// The catalog rarely changes.
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, symbols)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	skip, err := intQuery(r, "skip", 0)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	limit, err := intQuery(r, "limit", market.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	series, err := s.svc.Prices(r.Context(), symbol, skip, limit)
	switch {
	case errors.Is(err, market.ErrInvalidParam):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.internalError(w, "getting stock prices", err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handlePriceAt(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	raw := pathParam(r, "date")
	date, err := domain.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid date %q", raw))
		return
	}

	p, err := s.svc.PriceAt(r.Context(), symbol, date)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.log.Debug("no price found", "symbol", symbol, "date", date.String())
		writeError(w, http.StatusNotFound, fmt.Sprintf("Price not found for %s at %s", symbol, date))
		return
	case err != nil:
		s.internalError(w, "getting price at date", err)
		return
	}
	if date.Before(domain.NewDate(s.now()).Time) {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleReturns(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	var req ReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid start_date %q", req.StartDate))
		return
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid end_date %q", req.EndDate))
		return
	}

	res, err := s.svc.CumulativeReturn(r.Context(), symbol, start, end)
	switch {
	case errors.Is(err, market.ErrInvalidRange), errors.Is(err, market.ErrInsufficientData):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.internalError(w, "calculating returns", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *Server) internalError(w http.ResponseWriter, what string, err error) {
	s.log.Error(what, "error", err)
	writeError(w, http.StatusInternalServerError, "Error: "+err.Error())
}

// pathParam returns the unescaped URL parameter.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Detail: msg})
}
