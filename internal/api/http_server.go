package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"riverside/internal/booking"
	"riverside/internal/catalog"
	"riverside/internal/config"
	"riverside/internal/database"
	"riverside/internal/desk"
	"riverside/internal/metrics"
	"riverside/internal/models"
	"riverside/internal/service"
	"riverside/internal/validation"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking wizard as a JSON API.
type HTTPServer struct {
	cfg      *config.Config
	sessions *service.SessionService
	catalog  *catalog.Catalog
	db       *database.DB
	server   *http.Server
	auth     *HTTPAuth
	logger   *zerolog.Logger
}

func NewHTTPServer(
	cfg *config.Config,
	sessions *service.SessionService,
	cat *catalog.Catalog,
	db *database.DB,
	logger *zerolog.Logger,
) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:      cfg,
		sessions: sessions,
		catalog:  cat,
		db:       db,
		logger:   logger,
	}
	srv.auth = NewHTTPAuth(cfg.API)

	mux.HandleFunc("/api/v1/sessions", srv.handleCreateSession)
	mux.HandleFunc("/api/v1/sessions/", srv.handleSession)
	mux.HandleFunc("/api/v1/rooms", srv.handleRooms)
	mux.HandleFunc("/api/v1/rooms/", srv.handleRoom)
	mux.HandleFunc("/api/v1/extras", srv.handleExtras)
	mux.HandleFunc("/api/v1/reservations/", srv.handleReservations)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the configured handler chain, used by tests.
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

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_session")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snapshot, err := s.sessions.CreateSession(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, s.sessionView(snapshot))
}

// handleSession dispatches /api/v1/sessions/{id}[/{action}[/{arg}]].
func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/sessions/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "session id is required")
		return
	}
	sessionID := parts[0]

	if !s.allowSessionRequest(w, r, sessionID) {
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			metrics.IncHTTP("get_session")
			snapshot, err := s.sessions.GetSession(r.Context(), sessionID)
			if err != nil {
				s.writeSessionError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, s.sessionView(snapshot))
		case http.MethodDelete:
			metrics.IncHTTP("delete_session")
			if err := s.sessions.DeleteSession(r.Context(), sessionID); err != nil {
				writeError(w, http.StatusInternalServerError, "failed to delete session")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	action := parts[1]
	switch {
	case action == "dates" && r.Method == http.MethodPost:
		s.handleSetDates(w, r, sessionID)
	case action == "guests" && r.Method == http.MethodPost:
		s.handleSetGuests(w, r, sessionID)
	case action == "room" && r.Method == http.MethodPost:
		s.handleSelectRoom(w, r, sessionID)
	case action == "room" && r.Method == http.MethodDelete:
		s.handleClearRoom(w, r, sessionID)
	case action == "guest-info" && r.Method == http.MethodPost:
		s.handleGuestInfo(w, r, sessionID)
	case action == "extras" && r.Method == http.MethodPost:
		s.handleAddExtra(w, r, sessionID)
	case action == "extras" && r.Method == http.MethodDelete && len(parts) == 3:
		s.handleRemoveExtra(w, r, sessionID, parts[2])
	case action == "advance" && r.Method == http.MethodPost:
		s.handleAdvance(w, r, sessionID)
	case action == "back" && r.Method == http.MethodPost:
		s.handleBack(w, r, sessionID)
	case action == "step" && r.Method == http.MethodPost:
		s.handleGoToStep(w, r, sessionID)
	case action == "confirm" && r.Method == http.MethodPost:
		s.handleConfirm(w, r, sessionID)
	case action == "reset" && r.Method == http.MethodPost:
		s.handleReset(w, r, sessionID)
	default:
		writeError(w, http.StatusNotFound, "unknown session action")
	}
}

// allowSessionRequest enforces the per-session fixed-window limit stored in
// the session repository. The per-key token bucket in HTTPAuth still applies
// on top.
func (s *HTTPServer) allowSessionRequest(w http.ResponseWriter, r *http.Request, sessionID string) bool {
	limit := s.cfg.Sessions.RateLimitRequests
	window := time.Duration(s.cfg.Sessions.RateLimitWindow) * time.Second
	if limit <= 0 || window <= 0 {
		return true
	}
	allowed, err := s.sessions.CheckRateLimit(r.Context(), sessionID, limit, window)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("rate limit check failed")
		return true
	}
	if !allowed {
		writeError(w, http.StatusTooManyRequests, "too many requests for this session")
		return false
	}
	return true
}

func (s *HTTPServer) handleSetDates(w http.ResponseWriter, r *http.Request, sessionID string) {
	metrics.IncHTTP("set_dates")
	var body struct {
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	checkIn, errIn := parseDate(body.CheckIn)
	checkOut, errOut := parseDate(body.CheckOut)
	if errIn != nil || errOut != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	snapshot, err := s.sessions.SetDates(r.Context(), sessionID, checkIn, checkOut)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}

	if result := validation.ValidateDates(snapshot.State.CheckIn, snapshot.State.CheckOut); !result.IsValid {
		writeValidationErrors(w, result.Errors, s.sessionView(snapshot))
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(snapshot))
}

func (s *HTTPServer) handleSetGuests(w http.ResponseWriter, r *http.Request, sessionID string) {
	metrics.IncHTTP("set_guests")
	var body models.GuestsPatch
	if !decodeBody(w, r, &body) {
		return
	}

	snapshot, err := s.sessions.SetGuests(r.Context(), sessionID, body)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(snapshot))
}

func (s *HTTPServer) handleSelectRoom(w http.ResponseWriter, r *http.Request, sessionID string) {
	metrics.IncHTTP("select_room")
	var body struct {
		RoomID string `json:"room_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.RoomID) == "" {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}

	snapshot, err := s.sessions.SelectRoom(r.Context(), sessionID, body.RoomID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(snapshot))
}

func (s *HTTPServer) handleClearRoom(w http.ResponseWriter, r *http.Request, sessionID string) {
	metrics.IncHTTP("clear_room")
	snapshot, err := s.sessions.ClearRoom(r.Context(), sessionID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(snapshot))
}

func (s *HTTPServer) handleGuestInfo(w http.ResponseWriter, r *http.Request, sessionID string) {
	metrics.IncHTTP("set_guest_info")
	var body models.GuestInfoPatch
	if !decodeBody(w, r, &body) {
		return
	}

	snapshot, err := s.sessions.SetGuestInfo(r.Context(), sessionID, body)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}

	if result := validation.ValidateGuestInfo(snapshot.State.GuestInfo); !result.IsValid {
		writeValidationErrors(w, result.Errors, s.sessionView(snapshot))
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(snapshot))
}

func (s *HTTPServer) handleAddExtra(w http.ResponseWriter, r *http.Request, sessionID string) {
	metrics.IncHTTP("add_extra")
	var body struct {
		ExtraID string `json:"extra_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.ExtraID) == "" {
		writeError(w, http.StatusBadRequest, "extra_id is required")
		return
	}

	snapshot, err := s.sessions.AddExtra(r.Context(), sessionID, body.ExtraID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(snapshot))
}

func (s *HTTPServer) handleRemoveExtra(w http.ResponseWriter, r *http.Request, sessionID, extraID string) {
	metrics.IncHTTP("remove_extra")
	snapshot, err := s.sessions.RemoveExtra(r.Context(), sessionID, extraID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(snapshot))
}

func (s *HTTPServer) handleAdvance(w http.ResponseWriter, r *http.Request, sessionID string) {
	metrics.IncHTTP("advance")
	snapshot, err := s.sessions.Advance(r.Context(), sessionID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(snapshot))
}

func (s *HTTPServer) handleBack(w http.ResponseWriter, r *http.Request, sessionID string) {
	metrics.IncHTTP("back")
	snapshot, err := s.sessions.Back(r.Context(), sessionID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(snapshot))
}

func (s *HTTPServer) handleGoToStep(w http.ResponseWriter, r *http.Request, sessionID string) {
	metrics.IncHTTP("go_to_step")
	var body struct {
		Step int `json:"step"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	snapshot, err := s.sessions.GoToStep(r.Context(), sessionID, body.Step)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(snapshot))
}

func (s *HTTPServer) handleConfirm(w http.ResponseWriter, r *http.Request, sessionID string) {
	metrics.IncHTTP("confirm")
	snapshot, err := s.sessions.Confirm(r.Context(), sessionID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(snapshot))
}

func (s *HTTPServer) handleReset(w http.ResponseWriter, r *http.Request, sessionID string) {
	metrics.IncHTTP("reset")
	snapshot, err := s.sessions.Reset(r.Context(), sessionID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(snapshot))
}

// writeSessionError maps service and store errors onto HTTP statuses.
func (s *HTTPServer) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrExtraNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrNoAdults),
		errors.Is(err, booking.ErrOverCapacity),
		errors.Is(err, booking.ErrRoomUnavailable),
		errors.Is(err, booking.ErrStepIncomplete),
		errors.Is(err, desk.ErrUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "reservation desk timed out")
	default:
		s.logger.Error().Err(err).Msg("session handler error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(models.DateLayout, strings.TrimSpace(raw))
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func writeValidationErrors(w http.ResponseWriter, fieldErrors map[string]string, session any) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"errors":  fieldErrors,
		"session": session,
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
