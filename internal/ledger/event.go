package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kaizenhq/event-ledger/internal/model"
	"github.com/kaizenhq/event-ledger/internal/notify"
	"github.com/kaizenhq/event-ledger/internal/store"
)

// maxAttendeesCeiling is imposed by the ticket-id encoding: ticket ids are
// event_id*10000 + ordinal + 1, so ordinals above 9999 would collide with
// the next event's id range. External consumers parse this encoding, so it
// is kept and the ceiling enforced at event creation.
const maxAttendeesCeiling = 9999

// EventLedger owns Event and Ticket records. It enforces capacity,
// activity-state, and one-ticket-per-attendee rules; every mutation runs in
// a single store transaction so failures leave no trace.
type EventLedger struct {
	store  store.Store
	gate   Gate
	clock  Clock
	pub    notify.Publisher
	log    *zap.Logger
	events store.Counter
}

// NewEventLedger constructs an EventLedger with its dependencies.
func NewEventLedger(st store.Store, gate Gate, clock Clock, pub notify.Publisher, log *zap.Logger) *EventLedger {
	return &EventLedger{
		store:  st,
		gate:   gate,
		clock:  clock,
		pub:    pub,
		log:    log.Named("event"),
		events: store.NewCounter(KeyEventCounter),
	}
}

// CreateEvent allocates a new event id and persists the event with zero
// attendees and is_active=true. Requires organizer authorization.
func (l *EventLedger) CreateEvent(ctx context.Context, organizer string, req model.CreateEventRequest) (uint64, error) {
	if !l.gate.Authorized(ctx, organizer) {
		return 0, fmt.Errorf("create event: %w", ErrUnauthorized)
	}
	if req.MaxAttendees > maxAttendeesCeiling {
		return 0, fmt.Errorf("max_attendees %d exceeds ticket-id ceiling %d: %w",
			req.MaxAttendees, maxAttendeesCeiling, ErrInvalidAmount)
	}

	var id uint64
	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if id, err = l.events.Next(ctx, tx); err != nil {
			return err
		}
		event := model.Event{
			ID:           id,
			Title:        req.Title,
			Description:  req.Description,
			Organizer:    organizer,
			Date:         req.Date,
			Location:     req.Location,
			Price:        req.Price,
			MaxAttendees: req.MaxAttendees,
			IsActive:     true,
			RewardAmount: req.RewardAmount,
		}
		if err := tx.Put(ctx, eventKey(id), event); err != nil {
			return err
		}
		return tx.Put(ctx, attendeesKey(id), []string{})
	})
	if err != nil {
		return 0, err
	}

	l.log.Info("event created",
		zap.Uint64("event_id", id),
		zap.String("organizer", organizer),
		zap.String("title", req.Title),
	)
	l.pub.Publish(ctx, "event.created", map[string]any{"event_id": id, "organizer": organizer})
	return id, nil
}

// PurchaseTicket issues a ticket to attendee for the given event. The
// ticket id encodes the event id and the attendee's ordinal position:
// attendee #1 of event 7 gets 70001. All touched records (event counter,
// ticket, both relation lists) commit together or not at all.
func (l *EventLedger) PurchaseTicket(ctx context.Context, attendee string, eventID uint64) (uint64, error) {
	if !l.gate.Authorized(ctx, attendee) {
		return 0, fmt.Errorf("purchase ticket: %w", ErrUnauthorized)
	}

	var ticketID uint64
	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		var event model.Event
		ok, err := tx.Get(ctx, eventKey(eventID), &event)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("event %d: %w", eventID, ErrNotFound)
		}
		if !event.IsActive {
			return fmt.Errorf("event %d: %w", eventID, ErrInvalidState)
		}
		if event.IsFull() {
			return fmt.Errorf("event %d: %w", eventID, ErrCapacityExceeded)
		}
		if ok, err := hasKey(ctx, tx, ticketKey(eventID, attendee)); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("event %d attendee %s: %w", eventID, attendee, ErrDuplicateTicket)
		}

		// Ordinal is the pre-increment attendee count.
		ticketID = eventID*10000 + uint64(event.CurrentAttendees) + 1
		event.CurrentAttendees++

		ticket := model.Ticket{
			EventID:           eventID,
			Attendee:          attendee,
			PurchaseTimestamp: l.clock.Now(),
			TicketID:          ticketID,
		}
		if err := tx.Put(ctx, eventKey(eventID), event); err != nil {
			return err
		}
		if err := tx.Put(ctx, ticketKey(eventID, attendee), ticket); err != nil {
			return err
		}
		if err := store.IndexAppend(ctx, tx, attendeesKey(eventID), attendee); err != nil {
			return err
		}
		return store.IndexAppend(ctx, tx, userTicketsKey(attendee), ticketID)
	})
	if err != nil {
		return 0, err
	}

	l.log.Info("ticket purchased",
		zap.Uint64("ticket_id", ticketID),
		zap.Uint64("event_id", eventID),
		zap.String("attendee", attendee),
	)
	l.pub.Publish(ctx, "ticket.purchased", map[string]any{
		"ticket_id": ticketID, "event_id": eventID, "attendee": attendee,
	})
	return ticketID, nil
}

// UpdateEventStatus flips the active flag. Only the stored organizer may
// call it.
func (l *EventLedger) UpdateEventStatus(ctx context.Context, organizer string, eventID uint64, isActive bool) error {
	if !l.gate.Authorized(ctx, organizer) {
		return fmt.Errorf("update event status: %w", ErrUnauthorized)
	}

	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		var event model.Event
		ok, err := tx.Get(ctx, eventKey(eventID), &event)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("event %d: %w", eventID, ErrNotFound)
		}
		if event.Organizer != organizer {
			return fmt.Errorf("only organizer may update event %d: %w", eventID, ErrUnauthorized)
		}
		event.IsActive = isActive
		return tx.Put(ctx, eventKey(eventID), event)
	})
	if err != nil {
		return err
	}

	l.log.Info("event status updated",
		zap.Uint64("event_id", eventID),
		zap.Bool("is_active", isActive),
	)
	l.pub.Publish(ctx, "event.status", map[string]any{"event_id": eventID, "is_active": isActive})
	return nil
}

// SetEventCollectibleContract attaches an external collectible contract
// reference to the event. The reference is advisory and not validated.
func (l *EventLedger) SetEventCollectibleContract(ctx context.Context, organizer string, eventID uint64, contract string) error {
	if !l.gate.Authorized(ctx, organizer) {
		return fmt.Errorf("set collectible contract: %w", ErrUnauthorized)
	}

	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		var event model.Event
		ok, err := tx.Get(ctx, eventKey(eventID), &event)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("event %d: %w", eventID, ErrNotFound)
		}
		if event.Organizer != organizer {
			return fmt.Errorf("only organizer may set collectible contract on event %d: %w", eventID, ErrUnauthorized)
		}
		event.CollectibleContract = contract
		return tx.Put(ctx, eventKey(eventID), event)
	})
	if err != nil {
		return err
	}

	l.log.Info("collectible contract set",
		zap.Uint64("event_id", eventID),
		zap.String("contract", contract),
	)
	return nil
}

// GetEvent returns the event or ErrNotFound.
func (l *EventLedger) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	var event model.Event
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		ok, err := tx.Get(ctx, eventKey(eventID), &event)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("event %d: %w", eventID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetUserTickets returns the ticket ids held by a principal, oldest first.
func (l *EventLedger) GetUserTickets(ctx context.Context, principal string) ([]uint64, error) {
	var tickets []uint64
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		tickets, err = store.IndexList[uint64](ctx, tx, userTicketsKey(principal))
		return err
	})
	return tickets, err
}

// GetEventAttendees returns the attendees of an event in purchase order.
func (l *EventLedger) GetEventAttendees(ctx context.Context, eventID uint64) ([]string, error) {
	var attendees []string
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		attendees, err = store.IndexList[string](ctx, tx, attendeesKey(eventID))
		return err
	})
	return attendees, err
}

// GetEventCount returns the total number of events ever created.
func (l *EventLedger) GetEventCount(ctx context.Context) (uint64, error) {
	var count uint64
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		count, err = l.events.Current(ctx, tx)
		return err
	})
	return count, err
}

// HasTicket reports whether the principal holds a ticket for the event.
func (l *EventLedger) HasTicket(ctx context.Context, principal string, eventID uint64) (bool, error) {
	var has bool
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		has, err = hasKey(ctx, tx, ticketKey(eventID, principal))
		return err
	})
	return has, err
}

// GetTicket returns the ticket record for (event, attendee) or ErrNotFound.
func (l *EventLedger) GetTicket(ctx context.Context, eventID uint64, attendee string) (*model.Ticket, error) {
	var ticket model.Ticket
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		ok, err := tx.Get(ctx, ticketKey(eventID, attendee), &ticket)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("ticket for event %d attendee %s: %w", eventID, attendee, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// hasKey reports key presence without decoding the value.
func hasKey(ctx context.Context, tx store.Tx, key string) (bool, error) {
	var raw any
	return tx.Get(ctx, key, &raw)
}
