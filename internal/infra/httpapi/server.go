// internal/infra/httpapi/server.go
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Config carries the server settings taken from the application config. An
// empty APIToken leaves the API unauthenticated.
type Config struct {
	Addr     string
	APIToken string
}

// Server is the HTTP host surface: entity states, the calendar, the history
// services and the operational endpoints.
type Server struct {
	httpServer *http.Server
	logger     *logrus.Entry
}

func NewServer(cfg Config, handler *Handler, registry *prometheus.Registry, logger *logrus.Entry) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	if registry != nil {
		router.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(api chi.Router) {
		if cfg.APIToken != "" {
			api.Use(bearerAuth(cfg.APIToken))
		} else {
			logger.Warn("API_TOKEN is not set, the HTTP API is unauthenticated.")
		}

		api.Get("/states", handler.listStates)
		api.Get("/states/{entityID}", handler.getState)
		api.Get("/calendar/events", handler.listCalendarEvents)
		api.Post("/calendar/events", handler.createCalendarEvent)
		api.Get("/history", handler.getHistory)

		api.Route("/services", func(services chi.Router) {
			services.Post("/record_event", handler.recordEvent)
			services.Post("/delete_event", handler.deleteEvent)
			services.Post("/import_history", handler.importHistory)
			services.Post("/export_history", handler.exportHistory)
			services.Post("/set_pregnancy_mode", handler.setPregnancyMode)
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves HTTP until Shutdown is called or the listener fails. A
// shutdown-triggered close is not reported as an error.
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s.", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
