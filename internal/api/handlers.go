package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"riverside/internal/booking"
	"riverside/internal/catalog"
	"riverside/internal/database"
	"riverside/internal/export"
	"riverside/internal/metrics"
	"riverside/internal/models"

	"github.com/rs/zerolog"
)

// sessionView is the wire shape of a wizard session: the raw state plus the
// computed block the site derives from it.
type sessionView struct {
	ID        string              `json:"id"`
	State     models.BookingState `json:"state"`
	Computed  computedView        `json:"computed"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type computedView struct {
	TotalGuests       int          `json:"total_guests"`
	CanProceed        bool         `json:"can_proceed"`
	StepValidity      map[int]bool `json:"step_validity"`
	FormattedCheckIn  string       `json:"formatted_check_in,omitempty"`
	FormattedCheckOut string       `json:"formatted_check_out,omitempty"`
	MinCheckIn        string       `json:"min_check_in"`
	MinCheckOut       string       `json:"min_check_out"`
}

func (s *HTTPServer) sessionView(snapshot *models.SessionSnapshot) sessionView {
	sess := booking.Restore(snapshot.State, nil, zerolog.Nop())
	return sessionView{
		ID:    snapshot.ID,
		State: sess.State(),
		Computed: computedView{
			TotalGuests:       sess.TotalGuests(),
			CanProceed:        sess.CanProceed(),
			StepValidity:      sess.StepValidity(),
			FormattedCheckIn:  sess.FormattedCheckIn(),
			FormattedCheckOut: sess.FormattedCheckOut(),
			MinCheckIn:        booking.MinCheckInDate().Format(models.DateLayout),
			MinCheckOut:       booking.MinCheckOutDate(snapshot.State.CheckIn).Format(models.DateLayout),
		},
		CreatedAt: snapshot.CreatedAt,
		UpdatedAt: snapshot.UpdatedAt,
	}
}

func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rooms")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()

	var rooms []models.Room
	switch {
	case q.Get("featured") == "true":
		rooms = s.catalog.FeaturedRooms()
	case q.Get("available") == "true":
		rooms = s.catalog.AvailableRooms()
	default:
		rooms = s.catalog.RoomsByCategory(categoryOrAll(q.Get("category")))
	}

	filters, err := filtersFromQuery(q.Get("min_price"), q.Get("max_price"), q.Get("min_guests"), q.Get("amenities"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rooms = catalog.FilterRooms(rooms, filters)

	if sortKey := strings.TrimSpace(q.Get("sort")); sortKey != "" {
		rooms = catalog.SortRooms(rooms, sortKey)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rooms":      rooms,
		"categories": s.catalog.Categories(),
	})
}

func (s *HTTPServer) handleRoom(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("room")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/rooms/"
	slug := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, prefix))
	if slug == "" || strings.Contains(slug, "/") {
		writeError(w, http.StatusBadRequest, "room slug is required")
		return
	}

	room, ok := s.catalog.RoomBySlug(slug)
	if !ok {
		room, ok = s.catalog.RoomByID(slug)
	}
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *HTTPServer) handleExtras(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("extras")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"extras": s.catalog.Extras()})
}

// handleReservations serves /api/v1/reservations/export and
// /api/v1/reservations/{reference}.
func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/reservations/"
	rest := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, prefix))
	if rest == "export" {
		s.handleReservationsExport(w, r)
		return
	}

	metrics.IncHTTP("reservation_lookup")
	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, http.StatusBadRequest, "reservation reference is required")
		return
	}

	res, err := s.sessions.LookupReservation(r.Context(), rest)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		s.logger.Error().Err(err).Str("reference", rest).Msg("reservation lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleReservationsExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations_export")

	start, err := parseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start is required as YYYY-MM-DD")
		return
	}
	end, err := parseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end is required as YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end must not be before start")
		return
	}

	reservations, err := s.db.GetReservationsByDateRange(r.Context(), start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("reservations export query failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	path, err := export.WriteRange(s.cfg.Exports.Path, reservations, start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("reservations export write failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"file_path": path,
		"count":     len(reservations),
	})
}

func categoryOrAll(raw string) string {
	category := strings.TrimSpace(raw)
	if category == "" {
		return models.CategoryAll
	}
	return category
}

func filtersFromQuery(minPrice, maxPrice, minGuests, amenities string) (catalog.Filters, error) {
	var filters catalog.Filters
	var err error

	if raw := strings.TrimSpace(minPrice); raw != "" {
		if filters.MinPrice, err = strconv.ParseFloat(raw, 64); err != nil {
			return filters, errors.New("invalid min_price")
		}
	}
	if raw := strings.TrimSpace(maxPrice); raw != "" {
		if filters.MaxPrice, err = strconv.ParseFloat(raw, 64); err != nil {
			return filters, errors.New("invalid max_price")
		}
	}
	if raw := strings.TrimSpace(minGuests); raw != "" {
		if filters.MinGuests, err = strconv.Atoi(raw); err != nil {
			return filters, errors.New("invalid min_guests")
		}
	}
	filters.Amenities = splitCSV(amenities)
	return filters, nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
