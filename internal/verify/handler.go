package verify

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dentalis/clinic-platform/pkg/logging"
)

// Handler serves the registration endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a registration handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, reason string) {
	writeJSON(w, code, map[string]string{"error": reason})
}

type requestCodeBody struct {
	Email string `json:"email"`
}

// RequestCode handles POST /api/v1/auth/request-code.
func (h *Handler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var body requestCodeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.svc.RequestCode(r.Context(), body.Email); err != nil {
		h.logger.Error("failed to issue verification code", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send verification code")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "verification code sent"})
}

type confirmBody struct {
	Email     string `json:"email"`
	Code      string `json:"code"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

// Confirm handles POST /api/v1/auth/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var body confirmBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Email == "" || body.Code == "" {
		writeError(w, http.StatusBadRequest, "email and code are required")
		return
	}

	token, patientID, err := h.svc.Confirm(r.Context(), ConfirmRequest{
		Email:     body.Email,
		Code:      body.Code,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Phone:     body.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCodeExpired):
			writeError(w, http.StatusBadRequest, "code expired, request a new one")
		case errors.Is(err, ErrCodeMismatch):
			writeError(w, http.StatusBadRequest, "wrong code")
		case errors.Is(err, ErrTooManyAttempts):
			writeError(w, http.StatusTooManyRequests, "too many attempts, request a new code")
		default:
			h.logger.Error("failed to confirm registration", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to confirm registration")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":      token,
		"patient_id": patientID.String(),
	})
}
