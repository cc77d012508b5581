package service

import (
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/google/uuid"
)

// Routing keys published on the studio exchange.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventWaitlistPromoted = "waitlist.promoted"
	EventWaitlistExpired  = "waitlist.expired"
)

// EventPublisher is satisfied by rabbitmq.Publisher. Delivery is best effort.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

type Notification struct {
	Type             string     `json:"type"`
	SessionID        uuid.UUID  `json:"session_id"`
	UserID           uuid.UUID  `json:"user_id"`
	BookingID        *uuid.UUID `json:"booking_id,omitempty"`
	WaitlistEntryID  *uuid.UUID `json:"waitlist_entry_id,omitempty"`
	Outcome          Outcome    `json:"outcome,omitempty"`
	Position         int        `json:"position,omitempty"`
	ResponseDeadline *time.Time `json:"response_deadline,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	OccurredAt       time.Time  `json:"occurred_at"`
}

func bookingNotification(kind string, b *models.Booking, at time.Time) Notification {
	id := b.ID
	return Notification{
		Type:       kind,
		SessionID:  b.SessionID,
		UserID:     b.UserID,
		BookingID:  &id,
		Reason:     b.CancellationReason,
		OccurredAt: at,
	}
}

func waitlistNotification(kind string, e *models.WaitlistEntry, at time.Time) Notification {
	id := e.ID
	return Notification{
		Type:             kind,
		SessionID:        e.SessionID,
		UserID:           e.UserID,
		WaitlistEntryID:  &id,
		Position:         e.Position,
		ResponseDeadline: e.ResponseDeadline,
		OccurredAt:       at,
	}
}
