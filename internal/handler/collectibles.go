package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaizenhq/event-ledger/internal/ledger"
	"github.com/kaizenhq/event-ledger/internal/model"
)

// CollectibleHandler exposes the CollectibleRegistry over HTTP.
type CollectibleHandler struct {
	registry *ledger.CollectibleRegistry
}

// NewCollectibleHandler constructs a CollectibleHandler.
func NewCollectibleHandler(r *ledger.CollectibleRegistry) *CollectibleHandler {
	return &CollectibleHandler{registry: r}
}

// Routes mounts the collectible endpoints.
func (h *CollectibleHandler) Routes(r chi.Router) {
	r.Post("/", h.Mint)
	r.Post("/batch", h.BatchMint)
	r.Get("/supply", h.TotalSupply)
	r.Get("/admin", h.GetAdmin)
	r.Put("/admin", h.UpdateAdmin)
	r.Get("/{id}", h.GetToken)
	r.Post("/{id}/transfer", h.Transfer)
}

// Mint handles POST /collectibles
func (h *CollectibleHandler) Mint(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	var req model.MintCollectibleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tokenID, err := h.registry.MintEventNFT(r.Context(), req.To, req.EventID, req.Name, req.Description, req.Image)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"token_id": tokenID})
}

// BatchMint handles POST /collectibles/batch
func (h *CollectibleHandler) BatchMint(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	var req model.BatchMintCollectiblesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tokenIDs, err := h.registry.BatchMintEventNFTs(r.Context(), req.Recipients, req.EventID, req.Name, req.Description, req.Image)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string][]uint64{"token_ids": tokenIDs})
}

// GetToken handles GET /collectibles/{id}, returning owner plus metadata.
func (h *CollectibleHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}
	owner, err := h.registry.OwnerOf(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	meta, err := h.registry.TokenMetadata(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token_id": id,
		"owner":    owner,
		"metadata": meta,
	})
}

// Transfer handles POST /collectibles/{id}/transfer
func (h *CollectibleHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	from, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}
	var req model.TransferCollectibleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.registry.Transfer(r.Context(), from, req.To, id); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TotalSupply handles GET /collectibles/supply
func (h *CollectibleHandler) TotalSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := h.registry.TotalSupply(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"total_supply": supply})
}

// GetAdmin handles GET /collectibles/admin
func (h *CollectibleHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := h.registry.GetAdmin(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"admin": admin})
}

// UpdateAdmin handles PUT /collectibles/admin
func (h *CollectibleHandler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	current, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.UpdateAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.registry.UpdateAdmin(r.Context(), current, req.NewAdmin); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TokensOfOwner handles GET /owners/{principal}/collectibles
func (h *CollectibleHandler) TokensOfOwner(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "principal")
	tokens, err := h.registry.TokensOfOwner(r.Context(), owner)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// EventNFTs handles GET /events/{id}/collectibles
func (h *CollectibleHandler) EventNFTs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	tokens, err := h.registry.EventNFTs(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
