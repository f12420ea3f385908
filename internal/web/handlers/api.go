package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/znz-systems/leadform/internal/lead"
	"github.com/znz-systems/leadform/internal/models"
	"github.com/znz-systems/leadform/internal/validate"
)

// Error strings returned to the browser.
const (
	errInvalidInput = "Invalid input"
	errInputTooLong = "Input too long"
	errInternal     = "Internal server error"
)

// APIHandler serves the public form API.
type APIHandler struct {
	leads        *lead.Service
	maxBodyBytes int64
}

// NewAPIHandler creates a new APIHandler. Request bodies larger than
// maxBodyBytes are refused with 413.
func NewAPIHandler(leads *lead.Service, maxBodyBytes int64) *APIHandler {
	return &APIHandler{
		leads:        leads,
		maxBodyBytes: maxBodyBytes,
	}
}

// HandlePreflight answers a cross-origin probe with an empty 204.
func (h *APIHandler) HandlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// HandleContact accepts a generic contact submission.
//
// Expected JSON fields:
//
//	name     (required, up to 120 characters)
//	email    (required, loose address pattern, up to 200 characters)
//	message  (required, up to 5000 characters)
func (h *APIHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !h.decode(w, r, &req, http.StatusRequestEntityTooLarge, errInputTooLong) {
		return
	}

	res, err := h.leads.SubmitContact(r.Context(), req.Name, req.Email, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: errInvalidInput})
		case errors.Is(err, validate.ErrInputTooLong):
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: errInputTooLong})
		default:
			slog.ErrorContext(r.Context(), "failed to save contact lead", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errInternal})
		}
		return
	}

	writeJSON(w, http.StatusOK, newSubmitResponse(res))
}

type inquiryRequest struct {
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Company        string             `json:"company"`
	Phone          looseString        `json:"phone"`
	SanctionedLoad looseString        `json:"sanctioned_load"`
	MonthlyKWh     looseString        `json:"monthly_kwh"`
	Callback       looseBool          `json:"callback"`
	EBBill         *models.Attachment `json:"eb_bill"`
}

// HandleInquiry accepts an open-access inquiry with an optional EB bill.
// Every rejection, including over-length fields, is a 400.
func (h *APIHandler) HandleInquiry(w http.ResponseWriter, r *http.Request) {
	var req inquiryRequest
	if !h.decode(w, r, &req, http.StatusBadRequest, errInvalidInput) {
		return
	}

	res, err := h.leads.SubmitInquiry(r.Context(), validate.InquiryInput{
		Name:           req.Name,
		Email:          req.Email,
		Company:        req.Company,
		Phone:          string(req.Phone),
		SanctionedLoad: string(req.SanctionedLoad),
		MonthlyKWh:     string(req.MonthlyKWh),
		Callback:       bool(req.Callback),
		EBBill:         req.EBBill,
	})
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrInvalidInput), errors.Is(err, validate.ErrInputTooLong):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: errInvalidInput})
		default:
			slog.ErrorContext(r.Context(), "failed to save inquiry lead", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errInternal})
		}
		return
	}

	writeJSON(w, http.StatusOK, newSubmitResponse(res))
}

// decode reads the JSON body into v. A body that is not a JSON object leaves
// v empty, so validation rejects it. An oversize body is answered with the
// endpoint's own status and message, and decode returns false.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}, oversizeStatus int, oversizeMsg string) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, oversizeStatus, errorResponse{Error: oversizeMsg})
			return false
		}
		slog.WarnContext(r.Context(), "failed to read request body", "error", err)
		return true
	}

	if err := json.Unmarshal(body, v); err != nil {
		slog.DebugContext(r.Context(), "ignoring malformed JSON body", "error", err)
	}
	return true
}

// looseString accepts a JSON string or number; anything else is empty.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*s = looseString(n.String())
		return nil
	}
	*s = ""
	return nil
}

// looseBool coerces JSON booleans, numbers and common strings to a bool.
type looseBool bool

func (v *looseBool) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		*v = false
		return nil
	}
	switch x := raw.(type) {
	case bool:
		*v = looseBool(x)
	case float64:
		*v = x != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "on", "1":
			*v = true
		default:
			*v = false
		}
	default:
		*v = false
	}
	return nil
}

// submitResponse is the envelope for an accepted submission.
type submitResponse struct {
	OK        bool   `json:"ok"`
	ID        int64  `json:"id"`
	CreatedAt string `json:"created_at"`
	EmailSent bool   `json:"email_sent"`
}

func newSubmitResponse(res *lead.Result) submitResponse {
	return submitResponse{
		OK:        true,
		ID:        res.Lead.ID,
		CreatedAt: res.Lead.CreatedAt,
		EmailSent: res.EmailSent,
	}
}

// errorResponse is the envelope for every refused request.
type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// WriteError writes an {ok:false,error} envelope.
func WriteError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeJSON serialises v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}
