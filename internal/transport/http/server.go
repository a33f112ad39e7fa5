// Package http exposes the quiz service over REST and a QA websocket.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"document-quiz/internal/app"
	"document-quiz/internal/config"
)

// requestTimeout bounds REST calls; generation on slow models is the long pole.
const requestTimeout = 5 * time.Minute

// Server is the HTTP front of the quiz service.
type Server struct {
	service *app.Service
	config  *config.ServerConfig
	ws      *WSHandler
	server  *http.Server
}

func NewServer(service *app.Service, cfg *config.ServerConfig) *Server {
	return &Server{
		service: service,
		config:  cfg,
		ws:      NewWSHandler(service),
	}
}

// Router builds the route table. The websocket route sits outside the
// timeout middleware so long lived connections are not cut.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.ws.ServeWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/document", s.handleUploadDocument)
			r.Post("/index", s.handleIndexDocument)
			r.Post("/quiz", s.handleGenerateQuiz)
			r.Get("/quiz", s.handleGetQuiz)
			r.Put("/answers/{index}", s.handleSelectAnswer)
			r.Delete("/answers/{index}", s.handleClearAnswer)
			r.Post("/answers/reset", s.handleResetAnswers)
			r.Post("/submit", s.handleSubmit)
			r.Post("/questions", s.handleAsk)
			r.Get("/history", s.handleHistory)
			r.Get("/export", s.handleExport)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 15 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("Starting server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("Handled request")
	})
}
