package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kkfinancial/loan-consult/internal/calculator"
	"github.com/kkfinancial/loan-consult/internal/leads"
	"github.com/kkfinancial/loan-consult/pkg/emi"
	"github.com/kkfinancial/loan-consult/pkg/tenure"
	"github.com/kkfinancial/loan-consult/pkg/validation"
	"go.uber.org/zap"
)

// envelope is the shape of every JSON API response.
type envelope struct {
	Success   bool                    `json:"success"`
	ID        string                  `json:"id,omitempty"`
	Data      interface{}             `json:"data,omitempty"`
	Count     *int                    `json:"count,omitempty"`
	Message   string                  `json:"message,omitempty"`
	Errors    []validation.FieldError `json:"errors,omitempty"`
	Mailto    string                  `json:"mailto,omitempty"`
	Timestamp string                  `json:"timestamp,omitempty"`
}

// consultationPayload accepts a consultation request whose consent flag
// defaults to true when omitted.
type consultationPayload struct {
	leads.ConsultationRequest
	Consent *bool `json:"consent"`
}

func (p consultationPayload) request() leads.ConsultationRequest {
	req := p.ConsultationRequest
	req.Consent = p.Consent == nil || *p.Consent
	return req
}

type statusPayload struct {
	Status string `json:"status"`
}

// flexValue accepts a JSON number or string.
type flexValue string

func (f *flexValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*f = ""
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexValue(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected a number or string, got %s", trimmed)
		}
		*f = flexValue(n.String())
	}
	return nil
}

type emiPayload struct {
	Principal  flexValue `json:"principal"`
	Rate       flexValue `json:"rate"`
	Tenure     flexValue `json:"tenure"`
	TenureUnit string    `json:"tenureUnit"`
	Schedule   bool      `json:"schedule"`
}

type emiResponse struct {
	Success bool `json:"success"`
	calculator.Snapshot
	Schedule []emi.Installment `json:"schedule,omitempty"`
	Yearly   []emi.YearSummary `json:"yearly,omitempty"`
}

// parameters resolves the payload into calculator inputs. Without a unit the
// tenure may carry its own ("20y", "1y6m"); a bare number is months.
func (p emiPayload) parameters() (calculator.Inputs, emi.Parameters) {
	in := calculator.Inputs{
		Principal: string(p.Principal),
		Rate:      string(p.Rate),
		Tenure:    string(p.Tenure),
		Unit:      emi.ParseTenureUnit(p.TenureUnit),
	}
	if strings.TrimSpace(p.TenureUnit) != "" {
		return in, emi.ParseParameters(in.Principal, in.Rate, in.Tenure, in.Unit)
	}

	in.Unit = emi.Months
	months, err := tenure.Parse(in.Tenure)
	if err != nil {
		months = 0
	}
	return in, emi.ParseParameters(in.Principal, in.Rate, strconv.Itoa(months), emi.Months)
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeJSON(w, http.StatusRequestEntityTooLarge, envelope{
				Message: fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize),
			})
			return false
		}
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "Invalid request body"})
		return false
	}
	return true
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Message:   "API is running",
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleCreateConsultation(w http.ResponseWriter, r *http.Request) {
	var payload consultationPayload
	if !h.decodeJSON(w, r, &payload) {
		return
	}

	sub, err := h.leads.Submit(r.Context(), payload.request())
	if err != nil {
		if verrs, ok := validation.AsErrors(err); ok {
			h.writeJSON(w, http.StatusBadRequest, envelope{
				Errors:  verrs.Fields,
				Message: "Validation failed",
			})
			return
		}
		h.logger.Error("failed to submit consultation request",
			zap.String("op", "server.handleCreateConsultation"),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusInternalServerError, envelope{
			Message: "Failed to submit consultation request",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		ID:      sub.Lead.ID,
		Message: "Consultation request submitted successfully",
		Mailto:  sub.Draft.Link(),
	})
}

func (h *handler) handleListConsultations(w http.ResponseWriter, r *http.Request) {
	list, err := h.leads.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list consultation requests",
			zap.String("op", "server.handleListConsultations"),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusInternalServerError, envelope{
			Message: "Failed to retrieve consultation requests",
		})
		return
	}

	count := len(list)
	h.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    list,
		Count:   &count,
	})
}

func (h *handler) handleGetConsultation(w http.ResponseWriter, r *http.Request) {
	lead, err := h.leads.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, envelope{Message: "Consultation request not found"})
			return
		}
		h.logger.Error("failed to load consultation request",
			zap.String("op", "server.handleGetConsultation"),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusInternalServerError, envelope{
			Message: "Failed to retrieve consultation request",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: lead})
}

func (h *handler) handleUpdateConsultationStatus(w http.ResponseWriter, r *http.Request) {
	var payload statusPayload
	if !h.decodeJSON(w, r, &payload) {
		return
	}

	lead, err := h.leads.UpdateStatus(r.Context(), chi.URLParam(r, "id"), payload.Status)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, envelope{
			Success: true,
			Data:    lead,
			Message: "Status updated successfully",
		})
	case errors.Is(err, leads.ErrInvalidStatus):
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "Invalid status value"})
	case errors.Is(err, leads.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, envelope{Message: "Consultation request not found"})
	default:
		h.logger.Error("failed to update consultation status",
			zap.String("op", "server.handleUpdateConsultationStatus"),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusInternalServerError, envelope{
			Message: "Failed to update consultation status",
		})
	}
}

func (h *handler) handleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	var payload leads.Feedback
	if !h.decodeJSON(w, r, &payload) {
		return
	}

	draft, err := h.leads.SubmitFeedback(r.Context(), payload)
	if err != nil {
		if verrs, ok := validation.AsErrors(err); ok {
			h.writeJSON(w, http.StatusBadRequest, envelope{
				Errors:  verrs.Fields,
				Message: "Validation failed",
			})
			return
		}
		h.logger.Error("failed to submit feedback",
			zap.String("op", "server.handleCreateFeedback"),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusInternalServerError, envelope{Message: "Failed to submit feedback"})
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Thank you for your feedback",
		Mailto:  draft.Link(),
	})
}

func (h *handler) handleEMI(w http.ResponseWriter, r *http.Request) {
	var payload emiPayload
	if !h.decodeJSON(w, r, &payload) {
		return
	}

	in, params := payload.parameters()
	resp := emiResponse{
		Success:  true,
		Snapshot: calculator.EvaluateParameters(in, params, h.grouping),
	}
	if payload.Schedule && resp.Computable {
		if schedule, ok := emi.Schedule(params); ok {
			resp.Schedule = schedule
			resp.Yearly = emi.Yearly(schedule)
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, envelope{Message: "Not found"})
}
