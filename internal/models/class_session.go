package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCancelled SessionStatus = "cancelled"
	SessionCompleted SessionStatus = "completed"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionCancelled, SessionCompleted:
		return true
	}
	return false
}

// ClassSession is one scheduled occurrence of a class. CurrentBookings is the
// stored capacity counter; it is only ever rewritten from a recount taken
// while the session row is locked.
type ClassSession struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ClassName       string        `gorm:"not null" json:"class_name"`
	InstructorName  string        `json:"instructor_name"`
	Room            string        `gorm:"type:varchar(100)" json:"room"`
	StartsAt        time.Time     `gorm:"not null;index" json:"starts_at"`
	EndsAt          time.Time     `gorm:"not null" json:"ends_at"`
	MaxCapacity     int           `gorm:"not null" json:"max_capacity"`
	CurrentBookings int           `gorm:"not null;default:0" json:"current_bookings"`
	Price           float64       `gorm:"not null;default:0" json:"price"`
	Status          SessionStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (s *ClassSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SessionScheduled
	}
	return nil
}

func (s *ClassSession) Bookable() bool {
	return s.Status == SessionScheduled
}

// OpenAt reports whether seats can still be handed out at now: the session is
// scheduled and has not started.
func (s *ClassSession) OpenAt(now time.Time) bool {
	return s.Bookable() && now.Before(s.StartsAt)
}
