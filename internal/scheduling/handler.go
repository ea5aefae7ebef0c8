package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dentalis/clinic-platform/internal/catalog"
	"github.com/dentalis/clinic-platform/internal/clinic"
	httpmiddleware "github.com/dentalis/clinic-platform/internal/http/middleware"
	"github.com/dentalis/clinic-platform/pkg/logging"
)

// Handler serves the appointment endpoints.
type Handler struct {
	svc    *Service
	avail  *Calculator
	hours  *clinic.Hours
	logger *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(svc *Service, avail *Calculator, hours *clinic.Hours, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, avail: avail, hours: hours, logger: logger}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, reason string) {
	writeJSON(w, code, map[string]string{"error": reason})
}

// FreeSlots handles GET /api/v1/appointments/slots?worker_id=...&date=YYYY-MM-DD.
func (h *Handler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	workerIDStr := r.URL.Query().Get("worker_id")
	dateStr := r.URL.Query().Get("date")
	if workerIDStr == "" || dateStr == "" {
		writeError(w, http.StatusBadRequest, "worker_id and date are required")
		return
	}

	workerID, err := uuid.Parse(workerIDStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "worker_id must be a UUID")
		return
	}

	date, err := time.ParseInLocation("2006-01-02", dateStr, h.hours.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
		return
	}

	slots, err := h.avail.FreeSlots(r.Context(), workerID, date)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, "worker not found")
		case errors.Is(err, catalog.ErrMissingDuration):
			writeError(w, http.StatusBadRequest, "no procedure duration configured for this worker")
		default:
			h.logger.Error("failed to compute free slots", "error", err, "worker_id", workerID)
			writeError(w, http.StatusInternalServerError, "failed to compute free slots")
		}
		return
	}

	formatted := make([]string, 0, len(slots))
	for _, s := range slots {
		formatted = append(formatted, s.Format(time.RFC3339))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"worker_id": workerID,
		"date":      dateStr,
		"slots":     formatted,
	})
}

// CreateAppointmentRequest is the booking request body.
type CreateAppointmentRequest struct {
	WorkerID  uuid.UUID `json:"worker_id"`
	ServiceID uuid.UUID `json:"service_id"`
	Start     time.Time `json:"start"`
}

// Create handles POST /api/v1/appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	patientID, ok := httpmiddleware.PatientIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing patient session")
		return
	}

	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WorkerID == uuid.Nil || req.ServiceID == uuid.Nil || req.Start.IsZero() {
		writeError(w, http.StatusBadRequest, "worker_id, service_id and start are required")
		return
	}

	appt, err := h.svc.Book(r.Context(), BookingRequest{
		WorkerID:  req.WorkerID,
		ServiceID: req.ServiceID,
		PatientID: patientID,
		Start:     req.Start,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotConflict):
			writeError(w, http.StatusConflict, "slot already taken, refresh free slots and retry")
		case errors.Is(err, ErrOutsideHours):
			writeError(w, http.StatusBadRequest, "requested time is outside clinic working hours")
		case errors.Is(err, ErrPastStart):
			writeError(w, http.StatusBadRequest, "requested time has already passed")
		case errors.Is(err, catalog.ErrMissingDuration):
			writeError(w, http.StatusBadRequest, "no procedure duration configured for this service")
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, "worker or service not found")
		default:
			h.logger.Error("failed to create appointment", "error", err, "worker_id", req.WorkerID)
			writeError(w, http.StatusInternalServerError, "failed to create appointment")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"appointment_id": appt.ID})
}

// ChangeStatusRequest is the status transition body.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// ChangeStatus handles PATCH /api/v1/appointments/{id}/status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "appointment id must be a UUID")
		return
	}

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	next, err := ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appt, err := h.svc.ChangeStatus(r.Context(), id, next)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "appointment not found")
		case errors.Is(err, ErrIllegalTransition):
			writeError(w, http.StatusBadRequest, "illegal status transition")
		default:
			h.logger.Error("failed to change appointment status", "error", err, "appointment_id", id)
			writeError(w, http.StatusInternalServerError, "failed to change status")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "status updated",
		"status":  appt.Status,
	})
}

// ListMine handles GET /api/v1/appointments for the authenticated patient.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	patientID, ok := httpmiddleware.PatientIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing patient session")
		return
	}

	appts, err := h.svc.PatientAppointments(r.Context(), patientID)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "patient_id", patientID)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	if appts == nil {
		appts = []Appointment{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}
