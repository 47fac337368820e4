package web

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/hpungsan/sparetime/internal/config"
	"github.com/hpungsan/sparetime/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewServer creates the HTTP server for the scoring API. Requests log through
// the logger carried by ctx.
func NewServer(ctx context.Context, db *sql.DB, cfg *config.Config, version string) *http.Server {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic("template sub-FS: " + err.Error())
	}

	h := &Handlers{
		db:       db,
		cfg:      cfg,
		renderer: NewRenderer(templateSub, version),
	}

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(h, cfg, *logger.From(ctx)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// newRouter wires middleware and routes.
func newRouter(h *Handlers, cfg *config.Config, log zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(hlog.NewHandler(log))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         60 * 15,
	}))

	r.Route("/matches", func(rr chi.Router) {
		rr.Post("/", h.HandleCreateMatch)
		rr.Get("/", h.HandleListMatches)
		rr.Get("/{id}", h.HandleFetchMatch)
		rr.Put("/{id}", h.HandleUpdateMatch)
		rr.Delete("/{id}", h.HandleDeleteMatch)
		rr.Get("/{id}/scorecard", h.HandleScorecard)
	})

	r.Route("/frames", func(rr chi.Router) {
		rr.Put("/", h.HandleRecordFrame)
		rr.Post("/key", h.HandleKey)
		rr.Get("/game/{id}", h.HandleGameFrames)
	})

	r.Post("/score", h.HandleScore)

	return r
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and shuts it down gracefully on SIGINT/SIGTERM
// or when ctx ends.
func Run(ctx context.Context, srv *http.Server) error {
	log := logger.From(ctx)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info().Str("addr", srv.Addr).Msg("sparetime API listening")
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, ":") || strings.Contains(srv.Addr, "[::]") {
		log.Warn().Str("addr", srv.Addr).Msg("server is binding to all interfaces and may be reachable from the network")
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
