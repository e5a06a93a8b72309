package web

import (
	"net/http"

	"unique-ue/internal/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Server struct {
	queueUC usecase.QueueUseCase
	log     *zerolog.Logger
}

func NewServer(queueUC usecase.QueueUseCase, logger *zerolog.Logger) *Server {
	return &Server{queueUC: queueUC, log: logger}
}

// RegisterRoutes sets up the routing for the chat API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/chat", chatHandler(s.queueUC, s.log))
	mux.Handle("/job-status/", jobStatusHandler(s.queueUC, s.log))
	mux.HandleFunc("/health", s.handleHealthCheck)
	mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
