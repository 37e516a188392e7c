package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sahistory/timeline/internal/aggregator"
	"github.com/sahistory/timeline/internal/auth"
	"github.com/sahistory/timeline/internal/logging"
)

type Server struct {
	agg            *aggregator.Aggregator
	authMiddleware *auth.Middleware
	logger         *logging.Logger
	server         *http.Server
}

func New(agg *aggregator.Aggregator, authMiddleware *auth.Middleware, logger *logging.Logger) *Server {
	return &Server{
		agg:            agg,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("HTTP API server starting", logging.WithField("addr", addr))
	return s.server.ListenAndServe()
}

// Handler builds the route table. Exposed separately so tests can drive the
// mux without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	timelineAPI := NewTimelineAPI(s.agg, s.authMiddleware, s.logger)
	timelineAPI.RegisterRoutes(mux, s.corsMiddleware)

	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
