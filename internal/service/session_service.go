package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/studio-booking/internal/auth"
	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionService interface {
	CreateSession(ctx context.Context, actor auth.Principal, session *models.ClassSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.ClassSession, error)
	ListSessions(ctx context.Context, filter repository.SessionFilter) ([]models.ClassSession, int64, error)
	UpdateStatus(ctx context.Context, actor auth.Principal, id uuid.UUID, status models.SessionStatus) (*models.ClassSession, error)
	DeleteSession(ctx context.Context, actor auth.Principal, id uuid.UUID) error
	SyncSession(ctx context.Context, session *models.ClassSession) error
}

type sessionService struct {
	sessions repository.SessionRepository
	bookings repository.BookingRepository
}

func NewSessionService(sessionRepo repository.SessionRepository, bookingRepo repository.BookingRepository) SessionService {
	return &sessionService{sessions: sessionRepo, bookings: bookingRepo}
}

func (s *sessionService) CreateSession(ctx context.Context, actor auth.Principal, session *models.ClassSession) error {
	if !actor.Can(auth.CapManageSessions) {
		return ErrUnauthorized
	}
	session.CurrentBookings = 0
	if session.Status == "" {
		session.Status = models.SessionScheduled
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *sessionService) GetSession(ctx context.Context, id uuid.UUID) (*models.ClassSession, error) {
	session, err := s.sessions.FindByID(ctx, nil, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

func (s *sessionService) ListSessions(ctx context.Context, filter repository.SessionFilter) ([]models.ClassSession, int64, error) {
	return s.sessions.List(ctx, filter)
}

func (s *sessionService) UpdateStatus(ctx context.Context, actor auth.Principal, id uuid.UUID, status models.SessionStatus) (*models.ClassSession, error) {
	if !actor.Can(auth.CapManageSessions) {
		return nil, ErrUnauthorized
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var result *models.ClassSession
	err := s.sessions.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.sessions.FindByIDForUpdate(ctx, tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		if err := s.sessions.UpdateStatus(ctx, tx, id, status); err != nil {
			return fmt.Errorf("update session status: %w", err)
		}
		session.Status = status
		result = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteSession refuses while any confirmed or pending booking exists.
// Cancelled bookings and waitlist entries go with the session.
func (s *sessionService) DeleteSession(ctx context.Context, actor auth.Principal, id uuid.UUID) error {
	if !actor.Can(auth.CapManageSessions) {
		return ErrUnauthorized
	}

	return s.sessions.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.sessions.FindByIDForUpdate(ctx, tx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		active, err := s.bookings.CountActive(ctx, tx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrSessionHasBookings
		}
		return s.sessions.Delete(ctx, tx, id)
	})
}

// SyncSession applies a snapshot received from the scheduling side.
func (s *sessionService) SyncSession(ctx context.Context, session *models.ClassSession) error {
	if session.ID == uuid.Nil {
		return errors.New("session snapshot without id")
	}
	if session.MaxCapacity <= 0 {
		return fmt.Errorf("session %s: max_capacity must be positive", session.ID)
	}
	if !session.Status.Valid() {
		session.Status = models.SessionScheduled
	}
	return s.sessions.Upsert(ctx, session)
}
