package services

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/tradescreenhq/tradescreen/backend/repository"
	ws "github.com/tradescreenhq/tradescreen/backend/websocket"
	"gorm.io/gorm"
)

// Server holds all server dependencies
type Server struct {
	config                *Config
	gormDB                *repository.GORMRepository
	rawDB                 *gorm.DB
	vendorService         *VendorService
	evaluator             *AssessmentEvaluator
	monitor               *SessionMonitor
	websocketHandler      *WebSocketHandler
	authService           *AuthService
	authEndpoints         *AuthEndpoints
	candidateEndpoints    *CandidateEndpoints
	sessionEndpoints      *SessionEndpoints
	notificationEndpoints *NotificationEndpoints
	wsHub                 *ws.Hub
	upgrader              websocket.Upgrader
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return CheckOrigin(r, config.WebSocket.AllowedOrigins)
			},
		},
	}
}

// SetDatabase sets the database connection
func (s *Server) SetDatabase(db *repository.GORMRepository, rawDB *gorm.DB) {
	s.gormDB = db
	s.rawDB = rawDB
}

// InitializeServices wires the service graph. The database must be set first.
func (s *Server) InitializeServices() error {
	if s.gormDB == nil {
		slog.Warn("Database not configured, running without persistence")
		return nil
	}

	s.vendorService = NewVendorService(s.config.Vendor)

	if err := s.config.Scoring.Validate(); err != nil {
		return err
	}
	s.evaluator = NewAssessmentEvaluator(s.gormDB, NewLexiconStore(), s.config.Scoring)
	slog.Info("Assessment evaluator initialized", "pass_threshold", s.config.Scoring.PassThreshold)

	s.monitor = NewSessionMonitor(s.evaluator, s.config.Monitor)
	slog.Info("Session monitor initialized",
		"inactivity_timeout", s.config.Monitor.InactivityTimeout,
		"auto_trigger_exchanges", s.config.Monitor.AutoTriggerExchanges)

	s.websocketHandler = NewWebSocketHandler(s.gormDB, s.monitor, s.evaluator)

	if s.config.JWT.Secret != "" {
		s.authService = NewAuthService(s.gormDB, s.config.JWT.Secret)
		s.authEndpoints = NewAuthEndpoints(s.authService)
		slog.Info("Authentication service initialized")
	}

	s.candidateEndpoints = NewCandidateEndpoints(s.gormDB)
	s.sessionEndpoints = NewSessionEndpoints(s.gormDB, s.evaluator, s.vendorService, s.config.Vendor.WebhookSecret)
	s.notificationEndpoints = NewNotificationEndpoints(s.gormDB)

	s.wsHub = ws.NewHub()
	go s.wsHub.Run()

	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health endpoint
	r.Get("/health", s.healthHandler)

	// API v1 route group
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.apiV1Handler)

		// Voice relay WebSocket. Authenticated by session, not by HR token.
		r.Get("/ws", s.websocketHandlerFunc)

		// Vendor webhook, verified by shared secret
		if s.sessionEndpoints != nil {
			s.sessionEndpoints.RegisterWebhookRoutes(r)
		}

		// Public auth routes
		if s.authEndpoints != nil {
			s.authEndpoints.RegisterRoutes(r)
		}

		// Dashboard routes (protected)
		if s.authService != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.authService.Middleware)
				s.authEndpoints.RegisterProtectedRoutes(r)
				if s.candidateEndpoints != nil {
					s.candidateEndpoints.RegisterRoutes(r)
				}
				if s.sessionEndpoints != nil {
					s.sessionEndpoints.RegisterRoutes(r)
				}
				if s.notificationEndpoints != nil {
					s.notificationEndpoints.RegisterRoutes(r)
				}
			})
		}
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.SetupRoutes(),
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	if s.monitor != nil {
		s.monitor.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// CheckOrigin validates the origin of WebSocket connections to prevent CSRF attacks
func CheckOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")

	// If no allowed origins are configured, deny all requests for security
	if allowedOriginsStr == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	// Parse allowed origins (comma-separated list)
	allowedOrigins := strings.Split(allowedOriginsStr, ",")

	// Trim whitespace from origins
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	// Check if origin is in allowed list
	for _, allowed := range allowedOrigins {
		if allowed == origin {
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "not configured"

	if s.rawDB != nil {
		if sqlDB, err := s.rawDB.DB(); err == nil {
			if err := sqlDB.Ping(); err != nil {
				dbStatus = "down"
				status = "degraded"
			} else {
				dbStatus = "up"
			}
		} else {
			dbStatus = "down"
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"` + status + `","database":"` + dbStatus + `"}`))
}

func (s *Server) apiV1Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"TradeScreen API v1","version":"1.0.0"}`))
}

// websocketHandlerFunc upgrades the voice relay connection. The relay
// identifies the session and candidate through query parameters; both must
// reference an existing created session.
func (s *Server) websocketHandlerFunc(w http.ResponseWriter, r *http.Request) {
	if s.websocketHandler == nil {
		http.Error(w, "WebSocket not available", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	session, err := s.gormDB.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Failed to look up session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if session.Terminal() {
		http.Error(w, "Session already ended", http.StatusConflict)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	slog.Info("WebSocket connection established", "session_id", sessionID, "candidate_id", session.CandidateID)

	client := s.wsHub.RegisterClient(conn, session.CandidateID, sessionID)
	client.MessageHandler = func(c *ws.Client, messageBytes []byte) {
		s.websocketHandler.HandleMessage(c, messageBytes)
	}

	s.websocketHandler.HandleConnection(client)

	go client.WritePump()
	client.ReadPump()

	s.websocketHandler.HandleDisconnect(client)
}
