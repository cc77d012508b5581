package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultResponseWindow is how long a promoted waitlist user has to book.
const DefaultResponseWindow = 2 * time.Hour

type Options struct {
	ResponseWindow time.Duration
	Now            func() time.Time
	Logger         *slog.Logger
}

// ledger holds the state shared by every operation that touches a session's
// capacity or waitlist. All of its tx-taking methods expect the session row to
// be locked already.
type ledger struct {
	sessions  repository.SessionRepository
	bookings  repository.BookingRepository
	waitlist  repository.WaitlistRepository
	publisher EventPublisher
	window    time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func newLedger(sessions repository.SessionRepository, bookings repository.BookingRepository, waitlist repository.WaitlistRepository, publisher EventPublisher, opts Options) *ledger {
	l := &ledger{
		sessions:  sessions,
		bookings:  bookings,
		waitlist:  waitlist,
		publisher: publisher,
		window:    opts.ResponseWindow,
		now:       opts.Now,
		log:       logger.Component(opts.Logger, "booking"),
	}
	if l.window <= 0 {
		l.window = DefaultResponseWindow
	}
	if l.now == nil {
		l.now = func() time.Time { return time.Now().UTC() }
	}
	return l
}

func (l *ledger) db(ctx context.Context) *gorm.DB {
	return l.sessions.GetDB().WithContext(ctx)
}

func (l *ledger) lockSession(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ClassSession, error) {
	session, err := l.sessions.FindByIDForUpdate(ctx, tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	return session, nil
}

// syncCounter rewrites the stored counter from the active-booking recount and
// returns the count.
func (l *ledger) syncCounter(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int, error) {
	count, err := l.bookings.CountActive(ctx, tx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("count active bookings: %w", err)
	}
	if err := l.sessions.SetCurrentBookings(ctx, tx, sessionID, int(count)); err != nil {
		return 0, fmt.Errorf("update booking counter: %w", err)
	}
	return int(count), nil
}

// promoteNext moves the lowest-position waiting entry of the session to
// notified. It returns nil when nobody is waiting.
func (l *ledger) promoteNext(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*models.WaitlistEntry, error) {
	entry, err := l.waitlist.FindFirstWaiting(ctx, tx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find first waiting: %w", err)
	}
	if err := l.notify(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (l *ledger) notify(ctx context.Context, tx *gorm.DB, entry *models.WaitlistEntry) error {
	at := l.now()
	deadline := at.Add(l.window)
	if err := l.waitlist.MarkNotified(ctx, tx, entry.ID, at, deadline); err != nil {
		return fmt.Errorf("mark waitlist entry notified: %w", err)
	}
	entry.Status = models.WaitlistNotified
	entry.NotifiedAt = &at
	entry.ResponseDeadline = &deadline
	return nil
}

// dequeue moves a queued entry to a terminal status and closes the gap it
// leaves in the session's positions.
func (l *ledger) dequeue(ctx context.Context, tx *gorm.DB, entry *models.WaitlistEntry, status models.WaitlistStatus) error {
	wasQueued := entry.Status.Queued()
	if err := l.waitlist.UpdateStatus(ctx, tx, entry.ID, status); err != nil {
		return fmt.Errorf("update waitlist entry: %w", err)
	}
	entry.Status = status
	if !wasQueued {
		return nil
	}
	if _, err := l.waitlist.ShiftPositionsAfter(ctx, tx, entry.SessionID, entry.Position); err != nil {
		return fmt.Errorf("reindex waitlist: %w", err)
	}
	return nil
}

// emit publishes outside the transaction. Failures are logged and dropped.
func (l *ledger) emit(n Notification) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(n.Type, n); err != nil {
		l.log.Warn("notification dropped", "type", n.Type, "session_id", n.SessionID, "err", err)
	}
}
