package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/cuidamed/internal/auth"
	"github.com/dukerupert/cuidamed/internal/handler"
	"github.com/dukerupert/cuidamed/internal/middleware"
	"github.com/dukerupert/cuidamed/internal/push"
	"github.com/dukerupert/cuidamed/internal/reminder"
	"github.com/dukerupert/cuidamed/internal/store"
	ws "github.com/dukerupert/cuidamed/internal/websocket"
)

// Rate limit for the unauthenticated auth endpoints, per client IP and route.
const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Config carries the settings the server needs beyond its collaborators.
type Config struct {
	JWTSecret        string
	JWTTTL           time.Duration
	AllowedOrigins   []string
	ReminderInterval time.Duration
	Location         *time.Location
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	issuer         *auth.Issuer
	authH          *handler.AuthHandler
	treatmentH     *handler.TreatmentHandler
	medicineH      *handler.MedicineHandler
	intakeH        *handler.IntakeHandler
	deviceH        *handler.DeviceHandler
	rateLimiter    *middleware.RateLimiter
	scheduler      *reminder.Scheduler
	allowedOrigins []string
	logger         *slog.Logger
}

// New wires stores, handlers and the reminder scheduler. pushClient may be nil
// when the push transport failed to initialize.
func New(db *sql.DB, cfg Config, pushClient *push.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger)

	userStore := store.NewUserStore(db)
	treatmentStore := store.NewTreatmentStore(db)
	medicineStore := store.NewMedicineStore(db)
	intakeStore := store.NewIntakeStore(db)
	deviceStore := store.NewDeviceStore(db)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	runner := reminder.NewRunner(intakeStore, deviceStore, pushClient, logger)
	scheduler := reminder.NewScheduler(runner, cfg.ReminderInterval, cfg.Location, logger)

	return &Server{
		db:             db,
		hub:            hub,
		issuer:         issuer,
		authH:          handler.NewAuthHandler(userStore, issuer, hub, logger.With("component", "auth")),
		treatmentH:     handler.NewTreatmentHandler(treatmentStore, hub, logger.With("component", "treatment")),
		medicineH:      handler.NewMedicineHandler(treatmentStore, medicineStore, hub, logger.With("component", "medicine")),
		intakeH:        handler.NewIntakeHandler(medicineStore, intakeStore, hub, logger.With("component", "intake")),
		deviceH:        handler.NewDeviceHandler(deviceStore, pushClient, hub, logger.With("component", "device")),
		rateLimiter:    middleware.NewRateLimiter(),
		scheduler:      scheduler,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Scheduler returns the reminder scheduler so main can start and stop it.
func (s *Server) Scheduler() *reminder.Scheduler {
	return s.scheduler
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /api/push/vapid-key", s.deviceH.VAPIDKey)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	outerMux.Handle("/", middleware.RequireAuth(s.issuer)(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(`{"status":"` + status + `"}`))
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.ByIP, authRateLimit, authRateWindow)
	return rl(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Account
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/me", s.authH.UpdateMe)
	mux.HandleFunc("DELETE /api/me", s.authH.DeleteMe)

	// Treatments
	mux.HandleFunc("GET /api/treatments", s.treatmentH.List)
	mux.HandleFunc("POST /api/treatments", s.treatmentH.Create)
	mux.HandleFunc("GET /api/treatments/{id}", s.treatmentH.Get)
	mux.HandleFunc("PUT /api/treatments/{id}", s.treatmentH.Update)
	mux.HandleFunc("DELETE /api/treatments/{id}", s.treatmentH.Delete)

	// Medicines
	mux.HandleFunc("GET /api/treatments/{id}/medicines", s.medicineH.List)
	mux.HandleFunc("POST /api/treatments/{id}/medicines", s.medicineH.Create)
	mux.HandleFunc("GET /api/medicines/{id}", s.medicineH.Get)
	mux.HandleFunc("PUT /api/medicines/{id}", s.medicineH.Update)
	mux.HandleFunc("DELETE /api/medicines/{id}", s.medicineH.Delete)

	// Intakes
	mux.HandleFunc("GET /api/medicines/{id}/intakes", s.intakeH.List)
	mux.HandleFunc("POST /api/medicines/{id}/intakes", s.intakeH.Create)
	mux.HandleFunc("PUT /api/intakes/{id}", s.intakeH.Update)
	mux.HandleFunc("DELETE /api/intakes/{id}", s.intakeH.Delete)

	// Devices
	mux.HandleFunc("GET /api/devices", s.deviceH.List)
	mux.HandleFunc("POST /api/devices", s.deviceH.Register)
	mux.HandleFunc("POST /api/devices/test", s.deviceH.Test)
	mux.HandleFunc("DELETE /api/devices/{id}", s.deviceH.Delete)

	// Realtime sync
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.allowedOrigins, s.logger.With("component", "websocket")))
}
