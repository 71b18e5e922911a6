// Package api provides the HTTP API server for NIRA.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nyralabs/nira/internal/admin"
	"github.com/nyralabs/nira/internal/chat"
	"github.com/nyralabs/nira/internal/identity"
	"github.com/nyralabs/nira/internal/logging"
	"github.com/nyralabs/nira/internal/tts"
	"github.com/nyralabs/nira/internal/vision"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	verifier identity.Verifier
	chatSvc  *chat.Service
	adminSvc *admin.Service
	visioner *vision.Service   // optional
	speaker  *tts.SarvamClient // optional
	hub      *EventHub

	opsPassphraseHash string
}

// Config for the server
type Config struct {
	Port           int
	AllowedOrigins []string
	Verifier       identity.Verifier
	Chat           *chat.Service
	Admin          *admin.Service
	Vision         *vision.Service
	TTS            *tts.SarvamClient

	// Hub carries dashboard events. Passing one in lets callers wire
	// it into other components before the server exists; nil means the
	// server creates its own.
	Hub *EventHub

	// Bcrypt hash gating destructive admin actions; empty disables
	// the extra check.
	OpsPassphraseHash string
}

// New creates a new API server
func New(cfg Config) *Server {
	hub := cfg.Hub
	if hub == nil {
		hub = NewEventHub()
	}

	s := &Server{
		verifier:          cfg.Verifier,
		chatSvc:           cfg.Chat,
		adminSvc:          cfg.Admin,
		visioner:          cfg.Vision,
		speaker:           cfg.TTS,
		hub:               hub,
		opsPassphraseHash: cfg.OpsPassphraseHash,
	}

	s.setupRouter(cfg.AllowedOrigins)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Hub exposes the event hub so other components can publish to it.
func (s *Server) Hub() *EventHub {
	return s.hub
}

// setupRouter configures all routes
func (s *Server) setupRouter(origins []string) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Ops-Passphrase"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health line for load balancers and uptime checks.
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("NIRA backend is running"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/tts-health", func(w http.ResponseWriter, _ *http.Request) {
			s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/chat", s.handleChat)
			r.Post("/vision", s.handleVision)
			r.Post("/tts", s.handleTTS)

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Get("/stats", s.handleAdminStats)
				r.Get("/users", s.handleAdminUsers)
				r.Post("/config", s.handleAdminConfig)
				r.Post("/kill-switch", s.handleAdminKillSwitch)
				r.Post("/user/moderate", s.handleAdminModerate)
			})
		})

		// JSON 404 for anything under /api.
		r.NotFound(func(w http.ResponseWriter, req *http.Request) {
			logging.Warn("404 - %s %s", req.Method, req.URL.Path)
			s.respondJSON(w, http.StatusNotFound, map[string]string{
				"error": "API Endpoint not found",
				"path":  req.URL.Path,
			})
		})
	})

	// Admin events stream for the dashboard.
	r.Get("/ws", s.handleWebSocket)

	s.router = r
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.hub.Run()

	logging.Info("API server listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
