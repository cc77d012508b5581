package dto

import (
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/google/uuid"
)

type BookingResponse struct {
	ID                 uuid.UUID            `json:"id"`
	SessionID          uuid.UUID            `json:"session_id"`
	UserID             uuid.UUID            `json:"user_id"`
	Status             models.BookingStatus `json:"status"`
	PaymentStatus      models.PaymentStatus `json:"payment_status"`
	PaymentMethod      string               `json:"payment_method,omitempty"`
	Amount             float64              `json:"amount"`
	SpecialRequests    string               `json:"special_requests,omitempty"`
	CancellationReason string               `json:"cancellation_reason,omitempty"`
	BookedAt           time.Time            `json:"booked_at"`
	CancelledAt        *time.Time           `json:"cancelled_at,omitempty"`
	CheckedInAt        *time.Time           `json:"checked_in_at,omitempty"`
}

type WaitlistEntryResponse struct {
	ID               uuid.UUID             `json:"id"`
	SessionID        uuid.UUID             `json:"session_id"`
	UserID           uuid.UUID             `json:"user_id"`
	Position         int                   `json:"position"`
	Status           models.WaitlistStatus `json:"status"`
	JoinedAt         time.Time             `json:"joined_at"`
	NotifiedAt       *time.Time            `json:"notified_at,omitempty"`
	ResponseDeadline *time.Time            `json:"response_deadline,omitempty"`
}

// BookingOutcomeResponse carries exactly one of Booking or WaitlistEntry.
type BookingOutcomeResponse struct {
	Outcome       service.Outcome        `json:"outcome"`
	Booking       *BookingResponse       `json:"booking,omitempty"`
	WaitlistEntry *WaitlistEntryResponse `json:"waitlist_entry,omitempty"`
}

type CancelBookingResponse struct {
	Booking  BookingResponse        `json:"booking"`
	Promoted *WaitlistEntryResponse `json:"promoted,omitempty"`
}

type SessionResponse struct {
	ID              uuid.UUID            `json:"id"`
	ClassName       string               `json:"class_name"`
	InstructorName  string               `json:"instructor_name,omitempty"`
	Room            string               `json:"room,omitempty"`
	StartsAt        time.Time            `json:"starts_at"`
	EndsAt          time.Time            `json:"ends_at"`
	MaxCapacity     int                  `json:"max_capacity"`
	CurrentBookings int                  `json:"current_bookings"`
	Price           float64              `json:"price"`
	Status          models.SessionStatus `json:"status"`
	Notes           string               `json:"notes,omitempty"`
}

type SessionStatusResponse struct {
	SessionResponse
	ActiveBookings int64 `json:"active_bookings"`
	Waiting        int64 `json:"waiting_count"`
	SeatsAvailable int   `json:"seats_available"`
}

type PageResponse[T any] struct {
	Data  []T   `json:"data"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		SessionID:          b.SessionID,
		UserID:             b.UserID,
		Status:             b.Status,
		PaymentStatus:      b.PaymentStatus,
		PaymentMethod:      b.PaymentMethod,
		Amount:             b.Amount,
		SpecialRequests:    b.SpecialRequests,
		CancellationReason: b.CancellationReason,
		BookedAt:           b.BookedAt,
		CancelledAt:        b.CancelledAt,
		CheckedInAt:        b.CheckedInAt,
	}
}

func ToBookingResponses(bs []models.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bs))
	for i := range bs {
		out[i] = ToBookingResponse(&bs[i])
	}
	return out
}

func ToWaitlistEntryResponse(e *models.WaitlistEntry) WaitlistEntryResponse {
	return WaitlistEntryResponse{
		ID:               e.ID,
		SessionID:        e.SessionID,
		UserID:           e.UserID,
		Position:         e.Position,
		Status:           e.Status,
		JoinedAt:         e.JoinedAt,
		NotifiedAt:       e.NotifiedAt,
		ResponseDeadline: e.ResponseDeadline,
	}
}

func ToWaitlistEntryResponses(es []models.WaitlistEntry) []WaitlistEntryResponse {
	out := make([]WaitlistEntryResponse, len(es))
	for i := range es {
		out[i] = ToWaitlistEntryResponse(&es[i])
	}
	return out
}

func ToBookingOutcomeResponse(r *service.BookingResult) BookingOutcomeResponse {
	resp := BookingOutcomeResponse{Outcome: r.Outcome}
	if r.Booking != nil {
		b := ToBookingResponse(r.Booking)
		resp.Booking = &b
	}
	if r.WaitlistEntry != nil {
		w := ToWaitlistEntryResponse(r.WaitlistEntry)
		resp.WaitlistEntry = &w
	}
	return resp
}

func ToCancelBookingResponse(r *service.CancelResult) CancelBookingResponse {
	resp := CancelBookingResponse{Booking: ToBookingResponse(r.Booking)}
	if r.Promoted != nil {
		w := ToWaitlistEntryResponse(r.Promoted)
		resp.Promoted = &w
	}
	return resp
}

func ToSessionResponse(s *models.ClassSession) SessionResponse {
	return SessionResponse{
		ID:              s.ID,
		ClassName:       s.ClassName,
		InstructorName:  s.InstructorName,
		Room:            s.Room,
		StartsAt:        s.StartsAt,
		EndsAt:          s.EndsAt,
		MaxCapacity:     s.MaxCapacity,
		CurrentBookings: s.CurrentBookings,
		Price:           s.Price,
		Status:          s.Status,
		Notes:           s.Notes,
	}
}

func ToSessionResponses(ss []models.ClassSession) []SessionResponse {
	out := make([]SessionResponse, len(ss))
	for i := range ss {
		out[i] = ToSessionResponse(&ss[i])
	}
	return out
}

func ToSessionStatusResponse(st *service.CapacityStatus) SessionStatusResponse {
	return SessionStatusResponse{
		SessionResponse: ToSessionResponse(st.Session),
		ActiveBookings:  st.ActiveBookings,
		Waiting:         st.Waiting,
		SeatsAvailable:  st.SeatsAvailable,
	}
}
