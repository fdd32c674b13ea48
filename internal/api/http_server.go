package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"seminar/internal/config"
	"seminar/internal/models"

	"github.com/rs/zerolog"
)

type ReservationLifecycle interface {
	Create(ctx context.Context, res *models.Reservation) (int64, error)
	Cancel(ctx context.Context, id int64, studentName string, studentID int64) error
	ForceDelete(ctx context.Context, id int64) error
}

type ReservationQueries interface {
	ListUpcomingForRoom(ctx context.Context, roomID int64) ([]*models.Reservation, error)
	ListAll(ctx context.Context) ([]*models.ReservationWithRoom, error)
}

type RoomDirectory interface {
	Create(ctx context.Context, room *models.Room, files []models.ImageFile) (*models.Room, error)
	Update(ctx context.Context, room *models.Room, files []models.ImageFile) (*models.Room, error)
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]*models.Room, error)
	ListAvailable(ctx context.Context) ([]*models.Room, error)
}

type AdminGate interface {
	Authenticate(candidate string) error
	ExportAccessLog(ctx context.Context, w io.Writer) (string, error)
}

// Pinger reports store readiness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Reservations ReservationLifecycle
	Queries      ReservationQueries
	Rooms        RoomDirectory
	Admin        AdminGate
	Store        Pinger
	Location     *time.Location
	Logger       *zerolog.Logger
	// AccessLog receives one audit line per mutating or admin request. May be nil.
	AccessLog *zerolog.Logger
}

// HTTPServer exposes the reservation API.
type HTTPServer struct {
	cfg         config.APIConfig
	adminHeader string
	deps        Deps
	loc         *time.Location
	logger      *zerolog.Logger
	limiter     *clientLimiter
	server      *http.Server
}

func NewHTTPServer(cfg config.APIConfig, admin config.AdminConfig, deps Deps) *HTTPServer {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	header := admin.Header
	if header == "" {
		header = "X-Admin-Password"
	}

	srv := &HTTPServer{
		cfg:         cfg,
		adminHeader: header,
		deps:        deps,
		loc:         loc,
		logger:      logger,
		limiter:     newClientLimiter(cfg.RateLimit),
	}

	mux := http.NewServeMux()
	srv.routes(mux)

	handler := srv.recoverMiddleware(requestIDMiddleware(srv.loggingMiddleware(corsMiddleware(srv.adminHeader, mux))))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	public := func(h http.HandlerFunc) http.HandlerFunc { return s.audit(s.rateLimit(h)) }
	admin := func(h http.HandlerFunc) http.HandlerFunc { return s.audit(s.adminGuard(h)) }

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/reservation", public(s.handleCreateReservation))
	mux.HandleFunc("DELETE /api/reservation", public(s.handleCancelReservation))
	mux.HandleFunc("GET /api/reservation/{roomId}", s.handleRoomReservations)
	mux.HandleFunc("GET /api/room", s.handleAvailableRooms)

	mux.HandleFunc("POST /api/admin/access", s.audit(s.rateLimit(s.handleAdminAccess)))
	mux.HandleFunc("GET /api/admin/room", s.adminGuard(s.handleAdminRooms))
	mux.HandleFunc("POST /api/admin/room", admin(s.handleCreateRoom))
	mux.HandleFunc("PATCH /api/admin/room", admin(s.handleUpdateRoom))
	mux.HandleFunc("DELETE /api/admin/room", admin(s.handleDeleteRoom))
	mux.HandleFunc("DELETE /api/admin/room/{roomId}", admin(s.handleDeleteRoom))
	mux.HandleFunc("GET /api/admin/reservation", s.adminGuard(s.handleAdminReservations))
	mux.HandleFunc("DELETE /api/admin/reservation", admin(s.handleForceDeleteReservation))
	mux.HandleFunc("GET /api/admin/log", admin(s.handleDownloadLog))
}

// Handler returns the fully wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.PingContext(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"message": message})
}
