package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/roascalc/internal/analysis"
	"github.com/leeaandrob/roascalc/internal/apperr"
	"github.com/leeaandrob/roascalc/internal/auth"
	"github.com/leeaandrob/roascalc/internal/storage"
)

const maxBodyBytes = 1 << 20

// Handlers holds the API handlers.
type Handlers struct {
	analysis *analysis.Service
	accounts *auth.Service
	store    storage.Store
}

// NewHandlers creates new API handlers.
func NewHandlers(svc *analysis.Service, accounts *auth.Service, store storage.Store) *Handlers {
	return &Handlers{analysis: svc, accounts: accounts, store: store}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

func respondError(w http.ResponseWriter, status int, kind apperr.Kind, message string) {
	respondJSON(w, status, map[string]errorBody{"error": {Kind: kind, Message: message}})
}

// respondAppError maps an error's kind to its HTTP status. Upstream causes
// are logged and never echoed to the client.
func respondAppError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	default:
		log.Error().Err(err).Msg("Request failed")
	}
	respondError(w, status, kind, apperr.MessageOf(err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperr.Validation("request body too large")
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is required")
		default:
			return apperr.Validation("invalid JSON body")
		}
	}
	return nil
}

// ============================================================================
// LEAD & COMPUTE HANDLERS
// ============================================================================

// SaveLead captures a lead and returns its id.
func (h *Handlers) SaveLead(w http.ResponseWriter, r *http.Request) {
	var req analysis.LeadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondAppError(w, err)
		return
	}

	id, err := h.analysis.SaveLead(r.Context(), req)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"lead_id": id})
}

// ComputeROAS runs one analysis.
func (h *Handlers) ComputeROAS(w http.ResponseWriter, r *http.Request) {
	var req analysis.ComputeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondAppError(w, err)
		return
	}

	result, err := h.analysis.Compute(r.Context(), req)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ============================================================================
// DASHBOARD HANDLERS
// ============================================================================

// GetDashboard returns the caller's history, monthly buckets and summary.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.analysis.Dashboard(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// GetComparativeReport returns the caller's multi-month document as a data URI.
func (h *Handlers) GetComparativeReport(w http.ResponseWriter, r *http.Request) {
	ref, err := h.analysis.ComparativeReport(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"report_url": ref})
}

// DownloadAnalysisReport serves one stored document as an HTML attachment.
func (h *Handlers) DownloadAnalysisReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondAppError(w, apperr.Validation("analysis id is required"))
		return
	}

	doc, filename, err := h.analysis.AnalysisReport(r.Context(), auth.UserIDFromContext(r.Context()), id)
	if err != nil {
		respondAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, doc)
}

// ============================================================================
// ACCOUNT HANDLERS
// ============================================================================

// Register creates an account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondAppError(w, err)
		return
	}

	session, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// Login exchanges credentials for a token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondAppError(w, err)
		return
	}

	session, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// Me returns the authenticated account.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.CurrentUser(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// ============================================================================
// HEALTH
// ============================================================================

// HealthCheck reports whether the store is reachable.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Health check: store unreachable")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC(),
	})
}
