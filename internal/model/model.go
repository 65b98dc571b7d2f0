// Package model defines the persisted entities and HTTP payload types for
// the event-attendance ledgers.
package model

import "time"

// Event is a bookable event created by an organizer.
type Event struct {
	ID                  uint64 `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	Organizer           string `json:"organizer"`
	Date                int64  `json:"date"`
	Location            string `json:"location"`
	Price               int64  `json:"price"`
	MaxAttendees        uint32 `json:"max_attendees"`
	CurrentAttendees    uint32 `json:"current_attendees"`
	IsActive            bool   `json:"is_active"`
	CollectibleContract string `json:"collectible_contract,omitempty"`
	RewardAmount        int64  `json:"reward_amount"`
}

// Remaining returns the number of tickets still available.
func (e *Event) Remaining() uint32 {
	return e.MaxAttendees - e.CurrentAttendees
}

// IsFull returns true when no tickets remain.
func (e *Event) IsFull() bool {
	return e.CurrentAttendees >= e.MaxAttendees
}

// Ticket records one attendee's admission to one event. At most one ticket
// ever exists per (event, attendee) pair and it is immutable after purchase.
type Ticket struct {
	EventID           uint64    `json:"event_id"`
	Attendee          string    `json:"attendee"`
	PurchaseTimestamp time.Time `json:"purchase_timestamp"`
	TicketID          uint64    `json:"ticket_id"`
}

// CollectibleMetadata is the immutable descriptive record attached to a
// minted collectible token.
type CollectibleMetadata struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Image         string    `json:"image"`
	EventID       uint64    `json:"event_id"`
	MintTimestamp time.Time `json:"mint_timestamp"`
}

// RewardTokenInfo is the singleton describing the fungible reward token.
// TotalSupply changes only through mint.
type RewardTokenInfo struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint32 `json:"decimals"`
	TotalSupply int64  `json:"total_supply"`
}

// ─── HTTP payloads ────────────────────────────────────────────────────────────

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Date         int64  `json:"date"`
	Location     string `json:"location"`
	Price        int64  `json:"price"`
	MaxAttendees uint32 `json:"max_attendees"`
	RewardAmount int64  `json:"reward_amount"`
}

// UpdateEventStatusRequest flips an event's active flag.
type UpdateEventStatusRequest struct {
	IsActive bool `json:"is_active"`
}

// SetCollectibleContractRequest attaches an external collectible contract
// reference to an event.
type SetCollectibleContractRequest struct {
	Contract string `json:"contract"`
}

// MintCollectibleRequest is the payload for minting one collectible.
type MintCollectibleRequest struct {
	To          string `json:"to"`
	EventID     uint64 `json:"event_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// BatchMintCollectiblesRequest mints one collectible per recipient.
type BatchMintCollectiblesRequest struct {
	Recipients  []string `json:"recipients"`
	EventID     uint64   `json:"event_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
}

// TransferCollectibleRequest moves a token to a new owner.
type TransferCollectibleRequest struct {
	To string `json:"to"`
}

// UpdateAdminRequest hands admin rights to a new principal.
type UpdateAdminRequest struct {
	NewAdmin string `json:"new_admin"`
}

// SetEventRewardRequest sets the per-claim reward for an event.
type SetEventRewardRequest struct {
	Amount int64 `json:"amount"`
}

// DistributeRewardsRequest pays the configured event reward to each
// recipient that has not yet claimed it.
type DistributeRewardsRequest struct {
	Recipients []string `json:"recipients"`
}

// TransferRewardRequest moves reward tokens between principals.
type TransferRewardRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// MintRewardRequest grows the reward supply into the admin balance.
type MintRewardRequest struct {
	Amount int64 `json:"amount"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
