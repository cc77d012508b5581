package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/studio-booking/internal/auth"
	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Outcome string

const (
	OutcomeConfirmed  Outcome = "confirmed"
	OutcomeWaitlisted Outcome = "waitlisted"
)

type BookingRequest struct {
	SessionID       uuid.UUID
	UserID          uuid.UUID
	PaymentMethod   string
	SpecialRequests string
}

// BookingResult carries exactly one of Booking (confirmed) or WaitlistEntry
// (waitlisted).
type BookingResult struct {
	Outcome       Outcome
	Booking       *models.Booking
	WaitlistEntry *models.WaitlistEntry
}

type CancelResult struct {
	Booking  *models.Booking
	Promoted *models.WaitlistEntry
}

// CapacityStatus is the ledger view of one session.
type CapacityStatus struct {
	Session        *models.ClassSession
	ActiveBookings int64
	Waiting        int64
	SeatsAvailable int
}

type BookingService interface {
	CreateBooking(ctx context.Context, req BookingRequest) (*BookingResult, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, actor auth.Principal, reason string) (*CancelResult, error)
	GetBooking(ctx context.Context, id uuid.UUID, actor auth.Principal) (*models.Booking, error)
	ListBookings(ctx context.Context, actor auth.Principal, filter repository.BookingFilter) ([]models.Booking, int64, error)
	RecordAttendance(ctx context.Context, bookingID uuid.UUID, actor auth.Principal, status models.BookingStatus) (*models.Booking, error)
	SessionStatus(ctx context.Context, sessionID uuid.UUID) (*CapacityStatus, error)
}

type bookingService struct {
	*ledger
}

func NewBookingService(
	sessionRepo repository.SessionRepository,
	bookingRepo repository.BookingRepository,
	waitlistRepo repository.WaitlistRepository,
	publisher EventPublisher,
	opts Options,
) BookingService {
	return &bookingService{ledger: newLedger(sessionRepo, bookingRepo, waitlistRepo, publisher, opts)}
}

func (s *bookingService) CreateBooking(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	var result *BookingResult

	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the session row; serializes concurrent booking attempts
		session, err := s.lockSession(ctx, tx, req.SessionID)
		if err != nil {
			return err
		}
		if !session.OpenAt(s.now()) {
			return ErrSessionNotAvailable
		}

		// 2. Check double-booking
		_, err = s.bookings.FindActiveByUserAndSession(ctx, tx, req.UserID, req.SessionID)
		if err == nil {
			return ErrAlreadyBooked
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find active booking: %w", err)
		}

		queued, err := s.waitlist.FindQueuedByUserAndSession(ctx, tx, req.UserID, req.SessionID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find waitlist entry: %w", err)
		}

		// 3. Count seats taken
		active, err := s.bookings.CountActive(ctx, tx, req.SessionID)
		if err != nil {
			return fmt.Errorf("count active bookings: %w", err)
		}

		// 4. Seat available → confirmed
		if int(active) < session.MaxCapacity {
			booking := &models.Booking{
				SessionID:       req.SessionID,
				UserID:          req.UserID,
				Status:          models.StatusConfirmed,
				PaymentStatus:   models.PaymentPending,
				PaymentMethod:   req.PaymentMethod,
				Amount:          session.Price,
				SpecialRequests: req.SpecialRequests,
				BookedAt:        s.now(),
			}
			if err := s.bookings.Create(ctx, tx, booking); err != nil {
				if database.IsUniqueViolation(err) {
					return ErrAlreadyBooked
				}
				return fmt.Errorf("create booking: %w", err)
			}
			if err := s.sessions.SetCurrentBookings(ctx, tx, req.SessionID, int(active)+1); err != nil {
				return fmt.Errorf("update booking counter: %w", err)
			}
			// A waitlisted user taking a seat leaves the queue.
			if queued != nil {
				if err := s.dequeue(ctx, tx, queued, models.WaitlistBooked); err != nil {
					return err
				}
			}
			result = &BookingResult{Outcome: OutcomeConfirmed, Booking: booking}
			return nil
		}

		// 5. Full → waitlist
		if queued != nil {
			return ErrAlreadyWaitlisted
		}
		ahead, err := s.waitlist.CountQueued(ctx, tx, req.SessionID)
		if err != nil {
			return fmt.Errorf("count waitlist: %w", err)
		}
		entry := &models.WaitlistEntry{
			SessionID: req.SessionID,
			UserID:    req.UserID,
			Position:  int(ahead) + 1,
			Status:    models.WaitlistWaiting,
			JoinedAt:  s.now(),
		}
		if err := s.waitlist.Create(ctx, tx, entry); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrAlreadyWaitlisted
			}
			return fmt.Errorf("create waitlist entry: %w", err)
		}
		result = &BookingResult{Outcome: OutcomeWaitlisted, WaitlistEntry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Booking != nil {
		n := bookingNotification(EventBookingCreated, result.Booking, s.now())
		n.Outcome = result.Outcome
		s.emit(n)
		s.log.Info("booking confirmed", "booking_id", result.Booking.ID, "session_id", req.SessionID, "user_id", req.UserID)
	} else {
		n := waitlistNotification(EventBookingCreated, result.WaitlistEntry, s.now())
		n.Outcome = result.Outcome
		s.emit(n)
		s.log.Info("user waitlisted", "entry_id", result.WaitlistEntry.ID, "session_id", req.SessionID, "position", result.WaitlistEntry.Position)
	}
	return result, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor auth.Principal, reason string) (*CancelResult, error) {
	var result *CancelResult

	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.findBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !actor.Owns(booking.UserID) && !actor.Can(auth.CapManageBookings) {
			return ErrUnauthorized
		}

		// Lock the session row to safely recount and promote
		session, err := s.lockSession(ctx, tx, booking.SessionID)
		if err != nil {
			return err
		}

		// Re-read under the lock; a concurrent cancel may have won.
		booking, err = s.findBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		switch booking.Status {
		case models.StatusCancelled:
			return ErrAlreadyCancelled
		case models.StatusCompleted:
			return ErrBookingImmutable
		}
		wasActive := booking.Status.Active()

		at := s.now()
		if err := s.bookings.Cancel(ctx, tx, booking.ID, reason, at); err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		booking.Status = models.StatusCancelled
		booking.CancellationReason = reason
		booking.CancelledAt = &at
		result = &CancelResult{Booking: booking}

		if _, err := s.syncCounter(ctx, tx, booking.SessionID); err != nil {
			return err
		}

		// A freed seat is only offered while the session still takes bookings.
		if !wasActive || !session.OpenAt(at) {
			return nil
		}
		promoted, err := s.promoteNext(ctx, tx, booking.SessionID)
		if err != nil {
			return err
		}
		result.Promoted = promoted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(bookingNotification(EventBookingCancelled, result.Booking, s.now()))
	if result.Promoted != nil {
		s.emit(waitlistNotification(EventWaitlistPromoted, result.Promoted, s.now()))
	}
	s.log.Info("booking cancelled", "booking_id", bookingID, "by", actor.UserID, "promoted", result.Promoted != nil)
	return result, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id uuid.UUID, actor auth.Principal) (*models.Booking, error) {
	booking, err := s.findBooking(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(booking.UserID) && !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	return booking, nil
}

// ListBookings restricts non-staff actors to their own bookings.
func (s *bookingService) ListBookings(ctx context.Context, actor auth.Principal, filter repository.BookingFilter) ([]models.Booking, int64, error) {
	if !actor.IsStaff() {
		own := actor.UserID
		filter.UserID = &own
	}
	return s.bookings.List(ctx, filter)
}

func (s *bookingService) RecordAttendance(ctx context.Context, bookingID uuid.UUID, actor auth.Principal, status models.BookingStatus) (*models.Booking, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	if status != models.StatusCompleted && status != models.StatusNoShow {
		return nil, ErrInvalidStatus
	}

	var booking *models.Booking
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.findBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		session, err := s.lockSession(ctx, tx, b.SessionID)
		if err != nil {
			return err
		}
		// Attendance releases the seat, so it is only taken once booking has closed.
		if session.OpenAt(s.now()) {
			return ErrSessionNotStarted
		}
		// Re-read under the lock.
		b, err = s.findBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		switch {
		case b.Status == models.StatusCompleted:
			return ErrBookingImmutable
		case b.Status == models.StatusCancelled:
			return ErrAlreadyCancelled
		case !b.Status.Active():
			return ErrInvalidStatus
		}

		var checkedIn *time.Time
		if status == models.StatusCompleted {
			at := s.now()
			checkedIn = &at
		}
		if err := s.bookings.UpdateAttendance(ctx, tx, b.ID, status, checkedIn); err != nil {
			return fmt.Errorf("record attendance: %w", err)
		}
		b.Status = status
		b.CheckedInAt = checkedIn
		booking = b

		_, err = s.syncCounter(ctx, tx, b.SessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) SessionStatus(ctx context.Context, sessionID uuid.UUID) (*CapacityStatus, error) {
	session, err := s.sessions.FindByID(ctx, nil, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	active, err := s.bookings.CountActive(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	waiting, err := s.waitlist.CountQueued(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	free := session.MaxCapacity - int(active)
	if free < 0 {
		free = 0
	}
	return &CapacityStatus{
		Session:        session,
		ActiveBookings: active,
		Waiting:        waiting,
		SeatsAvailable: free,
	}, nil
}

func (s *bookingService) findBooking(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return booking, nil
}
