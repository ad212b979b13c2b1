package reservations

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

// OptionsResponse lists what a patient can book.
type OptionsResponse struct {
	Departments []string `json:"departments"`
	Doctors     []Doctor `json:"doctors"`
	Source      string   `json:"source"`
}

// OptionsHandler serves GET /api/reservation/options/.
type OptionsHandler struct {
	directory Directory
	logger    *logging.Logger
}

func NewOptionsHandler(directory Directory, logger *logging.Logger) *OptionsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &OptionsHandler{directory: directory, logger: logger}
}

func (h *OptionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h.load(r)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode reservation options", "error", err)
	}
}

func (h *OptionsHandler) load(r *http.Request) OptionsResponse {
	fallback := OptionsResponse{Departments: FallbackDepartments(), Doctors: []Doctor{}, Source: "fallback"}
	if h.directory == nil {
		return fallback
	}
	ctx := r.Context()
	departments, err := h.directory.Departments(ctx)
	if err != nil {
		h.logger.Warn("reservation options: departments unavailable", "error", err)
		return fallback
	}
	doctors, err := h.directory.ListDoctors(ctx, "")
	if err != nil {
		h.logger.Warn("reservation options: doctors unavailable", "error", err)
		return fallback
	}
	if len(departments) == 0 {
		return fallback
	}
	if doctors == nil {
		doctors = []Doctor{}
	}
	return OptionsResponse{Departments: departments, Doctors: doctors, Source: "directory"}
}
