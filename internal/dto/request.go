package dto

import (
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
)

type CreateBookingRequest struct {
	PaymentMethod   string `json:"payment_method" validate:"omitempty,oneof=card cash transfer pass"`
	SpecialRequests string `json:"special_requests" validate:"max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type AttendanceRequest struct {
	Status string `json:"status" validate:"required,oneof=completed no_show"`
}

type CreateSessionRequest struct {
	ClassName      string    `json:"class_name" validate:"required"`
	InstructorName string    `json:"instructor_name"`
	Room           string    `json:"room"`
	StartsAt       time.Time `json:"starts_at" validate:"required"`
	EndsAt         time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	MaxCapacity    int       `json:"max_capacity" validate:"required,gt=0"`
	Price          float64   `json:"price" validate:"gte=0"`
	Notes          string    `json:"notes"`
}

type UpdateSessionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled cancelled completed"`
}

func (r CreateSessionRequest) ToModel() *models.ClassSession {
	return &models.ClassSession{
		ClassName:      r.ClassName,
		InstructorName: r.InstructorName,
		Room:           r.Room,
		StartsAt:       r.StartsAt,
		EndsAt:         r.EndsAt,
		MaxCapacity:    r.MaxCapacity,
		Price:          r.Price,
		Notes:          r.Notes,
	}
}
