package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "waiting"
	WaitlistNotified  WaitlistStatus = "notified"
	WaitlistBooked    WaitlistStatus = "booked"
	WaitlistCancelled WaitlistStatus = "cancelled"
	WaitlistExpired   WaitlistStatus = "expired"
)

// QueuedWaitlistStatuses hold a position in the queue.
var QueuedWaitlistStatuses = []WaitlistStatus{WaitlistWaiting, WaitlistNotified}

func (s WaitlistStatus) Queued() bool {
	return s == WaitlistWaiting || s == WaitlistNotified
}

func (s WaitlistStatus) Valid() bool {
	switch s {
	case WaitlistWaiting, WaitlistNotified, WaitlistBooked, WaitlistCancelled, WaitlistExpired:
		return true
	}
	return false
}

// WaitlistEntry positions are 1-based and dense among queued entries of a session.
type WaitlistEntry struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_waitlist_session_status_position,priority:1" json:"session_id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Position         int            `gorm:"not null;index:idx_waitlist_session_status_position,priority:3" json:"position"`
	Status           WaitlistStatus `gorm:"type:varchar(20);not null;default:'waiting';index:idx_waitlist_session_status_position,priority:2" json:"status"`
	JoinedAt         time.Time      `gorm:"not null" json:"joined_at"`
	NotifiedAt       *time.Time     `json:"notified_at,omitempty"`
	ResponseDeadline *time.Time     `gorm:"index" json:"response_deadline,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	Session *ClassSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"session,omitempty"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}

func (w *WaitlistEntry) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
