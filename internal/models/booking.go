package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusPending   BookingStatus = "pending"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "no_show"
	StatusCompleted BookingStatus = "completed"
)

// ActiveBookingStatuses count against a session's capacity.
var ActiveBookingStatuses = []BookingStatus{StatusConfirmed, StatusPending}

func (s BookingStatus) Active() bool {
	return s == StatusConfirmed || s == StatusPending
}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled, StatusNoShow, StatusCompleted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

type Booking struct {
	ID                 uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID          uuid.UUID     `gorm:"type:uuid;not null;index" json:"session_id"`
	UserID             uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	Status             BookingStatus `gorm:"type:varchar(20);not null;default:'confirmed'" json:"status"`
	PaymentStatus      PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaymentMethod      string        `gorm:"type:varchar(50)" json:"payment_method,omitempty"`
	Amount             float64       `gorm:"not null;default:0" json:"amount"`
	SpecialRequests    string        `json:"special_requests,omitempty"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`
	BookedAt           time.Time     `gorm:"not null" json:"booked_at"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`
	CheckedInAt        *time.Time    `json:"checked_in_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`

	Session *ClassSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"session,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
