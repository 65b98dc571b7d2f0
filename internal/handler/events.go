package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaizenhq/event-ledger/internal/ledger"
	"github.com/kaizenhq/event-ledger/internal/model"
)

// EventHandler exposes the EventLedger over HTTP.
type EventHandler struct {
	ledger *ledger.EventLedger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(l *ledger.EventLedger) *EventHandler {
	return &EventHandler{ledger: l}
}

// Routes mounts the event endpoints.
func (h *EventHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateEvent)
	r.Get("/count", h.GetEventCount)
	r.Get("/{id}", h.GetEvent)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Put("/{id}/collectible-contract", h.SetCollectibleContract)
	r.Post("/{id}/tickets", h.PurchaseTicket)
	r.Get("/{id}/attendees", h.GetAttendees)
	r.Get("/{id}/tickets/{principal}", h.GetTicket)
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	organizer, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id, err := h.ledger.CreateEvent(r.Context(), organizer, req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"event_id": id})
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	event, err := h.ledger.GetEvent(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// GetEventCount handles GET /events/count
func (h *EventHandler) GetEventCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.ledger.GetEventCount(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"count": count})
}

// PurchaseTicket handles POST /events/{id}/tickets
func (h *EventHandler) PurchaseTicket(w http.ResponseWriter, r *http.Request) {
	attendee, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	ticketID, err := h.ledger.PurchaseTicket(r.Context(), attendee, id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"ticket_id": ticketID})
}

// UpdateStatus handles PATCH /events/{id}/status
func (h *EventHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	organizer, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	var req model.UpdateEventStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.ledger.UpdateEventStatus(r.Context(), organizer, id, req.IsActive); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_active": req.IsActive})
}

// SetCollectibleContract handles PUT /events/{id}/collectible-contract
func (h *EventHandler) SetCollectibleContract(w http.ResponseWriter, r *http.Request) {
	organizer, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	var req model.SetCollectibleContractRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.ledger.SetEventCollectibleContract(r.Context(), organizer, id, req.Contract); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAttendees handles GET /events/{id}/attendees
func (h *EventHandler) GetAttendees(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	attendees, err := h.ledger.GetEventAttendees(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attendees)
}

// GetTicket handles GET /events/{id}/tickets/{principal}
func (h *EventHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	principal := chi.URLParam(r, "principal")

	ticket, err := h.ledger.GetTicket(r.Context(), id, principal)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// GetUserTickets handles GET /users/{principal}/tickets
func (h *EventHandler) GetUserTickets(w http.ResponseWriter, r *http.Request) {
	principal := chi.URLParam(r, "principal")
	tickets, err := h.ledger.GetUserTickets(r.Context(), principal)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}
