package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/studio-booking/internal/auth"
	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SweepResult struct {
	Expired  []models.WaitlistEntry
	Promoted []models.WaitlistEntry
}

type WaitlistService interface {
	CancelEntry(ctx context.Context, entryID uuid.UUID, actor auth.Principal) (*models.WaitlistEntry, error)
	NotifyEntry(ctx context.Context, entryID uuid.UUID, actor auth.Principal) (*models.WaitlistEntry, error)
	ListEntries(ctx context.Context, actor auth.Principal, filter repository.WaitlistFilter) ([]models.WaitlistEntry, int64, error)
	ListForUser(ctx context.Context, userID uuid.UUID, actor auth.Principal) ([]models.WaitlistEntry, error)
	ExpireOverdue(ctx context.Context) (*SweepResult, error)
}

type waitlistService struct {
	*ledger
}

func NewWaitlistService(
	sessionRepo repository.SessionRepository,
	bookingRepo repository.BookingRepository,
	waitlistRepo repository.WaitlistRepository,
	publisher EventPublisher,
	opts Options,
) WaitlistService {
	return &waitlistService{ledger: newLedger(sessionRepo, bookingRepo, waitlistRepo, publisher, opts)}
}

func (s *waitlistService) CancelEntry(ctx context.Context, entryID uuid.UUID, actor auth.Principal) (*models.WaitlistEntry, error) {
	var result *models.WaitlistEntry

	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.findEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if !actor.Owns(entry.UserID) && !actor.Can(auth.CapManageBookings) {
			return ErrUnauthorized
		}

		if _, err := s.lockSession(ctx, tx, entry.SessionID); err != nil {
			return err
		}
		entry, err = s.findEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		switch entry.Status {
		case models.WaitlistCancelled:
			return ErrAlreadyCancelled
		case models.WaitlistBooked, models.WaitlistExpired:
			return ErrAlreadyProcessed
		}

		if err := s.dequeue(ctx, tx, entry, models.WaitlistCancelled); err != nil {
			return err
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("waitlist entry cancelled", "entry_id", entryID, "by", actor.UserID)
	return result, nil
}

// NotifyEntry is the manual counterpart of the promotion done on cancellation.
func (s *waitlistService) NotifyEntry(ctx context.Context, entryID uuid.UUID, actor auth.Principal) (*models.WaitlistEntry, error) {
	if !actor.Can(auth.CapManageWaitlist) {
		return nil, ErrUnauthorized
	}

	var result *models.WaitlistEntry
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.findEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if _, err := s.lockSession(ctx, tx, entry.SessionID); err != nil {
			return err
		}
		entry, err = s.findEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != models.WaitlistWaiting {
			return ErrAlreadyProcessed
		}
		if err := s.notify(ctx, tx, entry); err != nil {
			return err
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(waitlistNotification(EventWaitlistPromoted, result, s.now()))
	s.log.Info("waitlist user notified", "entry_id", entryID, "by", actor.UserID)
	return result, nil
}

func (s *waitlistService) ListEntries(ctx context.Context, actor auth.Principal, filter repository.WaitlistFilter) ([]models.WaitlistEntry, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, ErrUnauthorized
	}
	return s.waitlist.List(ctx, filter)
}

func (s *waitlistService) ListForUser(ctx context.Context, userID uuid.UUID, actor auth.Principal) ([]models.WaitlistEntry, error) {
	if !actor.Owns(userID) && !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	return s.waitlist.ListQueuedByUser(ctx, userID)
}

// ExpireOverdue expires notified entries past their response deadline and, for
// each affected session that still has a free seat, promotes the next waiting
// entry. Sessions are processed one transaction at a time.
func (s *waitlistService) ExpireOverdue(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	sessionIDs, err := s.waitlist.SessionsWithOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("find overdue sessions: %w", err)
	}

	result := &SweepResult{}
	for _, sessionID := range sessionIDs {
		expired, promoted, err := s.expireSession(ctx, sessionID, now)
		if err != nil {
			return result, fmt.Errorf("expire waitlist for session %s: %w", sessionID, err)
		}
		result.Expired = append(result.Expired, expired...)
		result.Promoted = append(result.Promoted, promoted...)
	}

	for i := range result.Expired {
		s.emit(waitlistNotification(EventWaitlistExpired, &result.Expired[i], now))
	}
	for i := range result.Promoted {
		s.emit(waitlistNotification(EventWaitlistPromoted, &result.Promoted[i], now))
	}
	return result, nil
}

func (s *waitlistService) expireSession(ctx context.Context, sessionID uuid.UUID, now time.Time) ([]models.WaitlistEntry, []models.WaitlistEntry, error) {
	var expired, promoted []models.WaitlistEntry

	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}

		overdue, err := s.waitlist.FindOverdueNotified(ctx, tx, sessionID, now)
		if err != nil {
			return err
		}
		for i := range overdue {
			if err := s.dequeue(ctx, tx, &overdue[i], models.WaitlistExpired); err != nil {
				return err
			}
			expired = append(expired, overdue[i])
		}

		if !session.OpenAt(now) {
			return nil
		}
		active, err := s.bookings.CountActive(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		// One offer per seat that is free right now.
		for free := session.MaxCapacity - int(active); free > 0 && len(promoted) < len(expired); free-- {
			next, err := s.promoteNext(ctx, tx, sessionID)
			if err != nil {
				return err
			}
			if next == nil {
				break
			}
			promoted = append(promoted, *next)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return expired, promoted, nil
}

func (s *waitlistService) findEntry(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.WaitlistEntry, error) {
	entry, err := s.waitlist.FindByID(ctx, tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWaitlistEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find waitlist entry: %w", err)
	}
	return entry, nil
}
