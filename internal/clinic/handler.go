package clinic

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

// CalendarStore is the persistence used by Handler.
type CalendarStore interface {
	Get(ctx context.Context, clinicID string) (*Calendar, error)
	Set(ctx context.Context, cal *Calendar) error
}

// Handler provides HTTP endpoints for clinic calendar management.
type Handler struct {
	store  CalendarStore
	logger *logging.Logger
}

// NewHandler creates a new clinic calendar HTTP handler.
func NewHandler(store CalendarStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Routes returns a chi router with clinic admin routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{clinicID}/calendar", h.GetCalendar)
	r.Put("/{clinicID}/calendar", h.UpdateCalendar)
	r.Post("/{clinicID}/calendar", h.UpdateCalendar)
	return r
}

// GetCalendar returns the calendar for a clinic.
// GET /admin/clinics/{clinicID}/calendar
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")
	if clinicID == "" {
		http.Error(w, `{"error": "clinic_id required"}`, http.StatusBadRequest)
		return
	}

	cal, err := h.store.Get(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to get clinic calendar", "clinic_id", clinicID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cal); err != nil {
		h.logger.Error("failed to encode clinic calendar", "clinic_id", clinicID, "error", err)
	}
}

// UpdateCalendarRequest is the request body for updating a calendar.
type UpdateCalendarRequest struct {
	Timezone string      `json:"timezone,omitempty"`
	Hours    WeeklyHours `json:"hours,omitempty"`
	Holidays []string    `json:"holidays,omitempty"`
}

// UpdateCalendar applies a partial update to a clinic calendar.
// PUT /admin/clinics/{clinicID}/calendar
func (h *Handler) UpdateCalendar(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")
	if clinicID == "" {
		http.Error(w, `{"error": "clinic_id required"}`, http.StatusBadRequest)
		return
	}

	var req UpdateCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if err := req.Hours.Validate(); err != nil {
		http.Error(w, `{"error": "hours must use weekday names and HH:MM times"}`, http.StatusBadRequest)
		return
	}
	for _, day := range req.Holidays {
		if _, err := parseHoliday(day); err != nil {
			http.Error(w, `{"error": "holidays must be YYYY-MM-DD"}`, http.StatusBadRequest)
			return
		}
	}

	cal, err := h.store.Get(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to get clinic calendar", "clinic_id", clinicID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	if tz := strings.TrimSpace(req.Timezone); tz != "" {
		cal.Timezone = tz
	}
	if req.Hours != nil {
		cal.Hours = req.Hours
	}
	if req.Holidays != nil {
		cal.Holidays = req.Holidays
	}

	if err := h.store.Set(r.Context(), cal); err != nil {
		h.logger.Error("failed to save clinic calendar", "clinic_id", clinicID, "error", err)
		http.Error(w, `{"error": "failed to save calendar"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("clinic calendar updated", "clinic_id", clinicID, "holidays", len(cal.Holidays))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cal); err != nil {
		h.logger.Error("failed to encode clinic calendar", "clinic_id", clinicID, "error", err)
	}
}
