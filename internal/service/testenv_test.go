package service

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/studio-booking/internal/auth"
	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/pkg/database"
	"github.com/Eursukkul/studio-booking/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Notification
	err    error
}

func (p *recordingPublisher) Publish(routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	n, ok := payload.(Notification)
	if !ok {
		return errors.New("unexpected payload")
	}
	n.Type = routingKey
	p.events = append(p.events, n)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	clock     *testClock
	publisher *recordingPublisher
	bookings  BookingService
	waitlist  WaitlistService
	sessions  SessionService
	admin     auth.Principal
	coach     auth.Principal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "studio.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	clock := &testClock{now: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	pub := &recordingPublisher{}
	opts := Options{Now: clock.Now, Logger: logger.Nop()}

	sessionRepo := repository.NewSessionRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)

	return &testEnv{
		db:        db,
		clock:     clock,
		publisher: pub,
		bookings:  NewBookingService(sessionRepo, bookingRepo, waitlistRepo, pub, opts),
		waitlist:  NewWaitlistService(sessionRepo, bookingRepo, waitlistRepo, pub, opts),
		sessions:  NewSessionService(sessionRepo, bookingRepo),
		admin:     auth.NewPrincipal(uuid.New(), auth.RoleAdmin),
		coach:     auth.NewPrincipal(uuid.New(), auth.RoleCoach),
	}
}

func (e *testEnv) createSession(t *testing.T, capacity int) *models.ClassSession {
	t.Helper()
	start := e.clock.Now().Add(48 * time.Hour)
	s := &models.ClassSession{
		ClassName:      "Vinyasa Flow",
		InstructorName: "Mara",
		Room:           "Studio A",
		StartsAt:       start,
		EndsAt:         start.Add(time.Hour),
		MaxCapacity:    capacity,
		Price:          25,
	}
	require.NoError(t, e.sessions.CreateSession(t.Context(), e.admin, s))
	return s
}

func (e *testEnv) book(t *testing.T, sessionID, userID uuid.UUID) *BookingResult {
	t.Helper()
	res, err := e.bookings.CreateBooking(t.Context(), BookingRequest{SessionID: sessionID, UserID: userID})
	require.NoError(t, err)
	return res
}

func (e *testEnv) reloadSession(t *testing.T, id uuid.UUID) *models.ClassSession {
	t.Helper()
	var s models.ClassSession
	require.NoError(t, e.db.First(&s, "id = ?", id).Error)
	return &s
}

func (e *testEnv) reloadBooking(t *testing.T, id uuid.UUID) *models.Booking {
	t.Helper()
	var b models.Booking
	require.NoError(t, e.db.First(&b, "id = ?", id).Error)
	return &b
}

func (e *testEnv) reloadEntry(t *testing.T, id uuid.UUID) *models.WaitlistEntry {
	t.Helper()
	var w models.WaitlistEntry
	require.NoError(t, e.db.First(&w, "id = ?", id).Error)
	return &w
}

func client() auth.Principal {
	return auth.NewPrincipal(uuid.New(), auth.RoleClient)
}
