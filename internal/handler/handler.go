// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the ledger layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kaizenhq/event-ledger/internal/ledger"
	"github.com/kaizenhq/event-ledger/internal/model"
)

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func pathID(r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

// writeLedgerError maps the ledger error taxonomy onto HTTP status codes.
func writeLedgerError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidState),
		errors.Is(err, ledger.ErrCapacityExceeded),
		errors.Is(err, ledger.ErrDuplicateTicket),
		errors.Is(err, ledger.ErrAlreadyClaimed),
		errors.Is(err, ledger.ErrAlreadyInitialized):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrNoRewardConfigured),
		errors.Is(err, ledger.ErrInsufficientPool),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInvalidAmount):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, err.Error())
}

// requirePrincipal extracts the authenticated principal or rejects the
// request. Mutating endpoints name the principal acting on their behalf.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := r.Header.Get(principalHeader)
	if p == "" {
		writeError(w, http.StatusUnauthorized, "missing "+principalHeader+" header")
		return "", false
	}
	return p, true
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
