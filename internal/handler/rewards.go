package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaizenhq/event-ledger/internal/ledger"
	"github.com/kaizenhq/event-ledger/internal/model"
)

// RewardHandler exposes the RewardLedger over HTTP.
type RewardHandler struct {
	ledger *ledger.RewardLedger
}

// NewRewardHandler constructs a RewardHandler.
func NewRewardHandler(l *ledger.RewardLedger) *RewardHandler {
	return &RewardHandler{ledger: l}
}

// Routes mounts the reward endpoints.
func (h *RewardHandler) Routes(r chi.Router) {
	r.Get("/info", h.TokenInfo)
	r.Get("/admin", h.GetAdmin)
	r.Post("/mint", h.Mint)
	r.Post("/transfers", h.Transfer)
	r.Get("/balances/{principal}", h.Balance)
	r.Route("/events/{id}", func(r chi.Router) {
		r.Get("/", h.GetEventReward)
		r.Put("/", h.SetEventReward)
		r.Post("/claims", h.Claim)
		r.Post("/distribute", h.Distribute)
		r.Get("/claims/{principal}", h.HasClaimed)
	})
}

// SetEventReward handles PUT /rewards/events/{id}
func (h *RewardHandler) SetEventReward(w http.ResponseWriter, r *http.Request) {
	admin, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	var req model.SetEventRewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.ledger.SetEventReward(r.Context(), admin, id, req.Amount); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": req.Amount})
}

// GetEventReward handles GET /rewards/events/{id}
func (h *RewardHandler) GetEventReward(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	amount, err := h.ledger.GetEventReward(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": amount})
}

// Claim handles POST /rewards/events/{id}/claims
func (h *RewardHandler) Claim(w http.ResponseWriter, r *http.Request) {
	user, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	amount, err := h.ledger.ClaimEventReward(r.Context(), user, id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"amount": amount})
}

// Distribute handles POST /rewards/events/{id}/distribute
func (h *RewardHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	admin, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	var req model.DistributeRewardsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	amounts, err := h.ledger.BatchDistributeRewards(r.Context(), admin, id, req.Recipients)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"amounts": amounts})
}

// HasClaimed handles GET /rewards/events/{id}/claims/{principal}
func (h *RewardHandler) HasClaimed(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	principal := chi.URLParam(r, "principal")

	claimed, err := h.ledger.HasClaimedReward(r.Context(), principal, id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"claimed": claimed})
}

// Transfer handles POST /rewards/transfers
func (h *RewardHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	from, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.TransferRewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.ledger.Transfer(r.Context(), from, req.To, req.Amount); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Mint handles POST /rewards/mint
func (h *RewardHandler) Mint(w http.ResponseWriter, r *http.Request) {
	admin, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.MintRewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.ledger.Mint(r.Context(), admin, req.Amount); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"amount": req.Amount})
}

// Balance handles GET /rewards/balances/{principal}
func (h *RewardHandler) Balance(w http.ResponseWriter, r *http.Request) {
	principal := chi.URLParam(r, "principal")
	balance, err := h.ledger.Balance(r.Context(), principal)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

// TokenInfo handles GET /rewards/info
func (h *RewardHandler) TokenInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.ledger.TokenInfo(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GetAdmin handles GET /rewards/admin
func (h *RewardHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := h.ledger.GetAdmin(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"admin": admin})
}
