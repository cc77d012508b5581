package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/Eursukkul/studio-booking/internal/auth"
	"github.com/Eursukkul/studio-booking/internal/middleware"
	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// --- Mock BookingService ---

type mockBookingService struct {
	createFn     func(ctx context.Context, req service.BookingRequest) (*service.BookingResult, error)
	cancelFn     func(ctx context.Context, id uuid.UUID, actor auth.Principal, reason string) (*service.CancelResult, error)
	getFn        func(ctx context.Context, id uuid.UUID, actor auth.Principal) (*models.Booking, error)
	listFn       func(ctx context.Context, actor auth.Principal, filter repository.BookingFilter) ([]models.Booking, int64, error)
	attendanceFn func(ctx context.Context, id uuid.UUID, actor auth.Principal, status models.BookingStatus) (*models.Booking, error)
	statusFn     func(ctx context.Context, sessionID uuid.UUID) (*service.CapacityStatus, error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, req service.BookingRequest) (*service.BookingResult, error) {
	return m.createFn(ctx, req)
}
func (m *mockBookingService) CancelBooking(ctx context.Context, id uuid.UUID, actor auth.Principal, reason string) (*service.CancelResult, error) {
	return m.cancelFn(ctx, id, actor, reason)
}
func (m *mockBookingService) GetBooking(ctx context.Context, id uuid.UUID, actor auth.Principal) (*models.Booking, error) {
	return m.getFn(ctx, id, actor)
}
func (m *mockBookingService) ListBookings(ctx context.Context, actor auth.Principal, filter repository.BookingFilter) ([]models.Booking, int64, error) {
	return m.listFn(ctx, actor, filter)
}
func (m *mockBookingService) RecordAttendance(ctx context.Context, id uuid.UUID, actor auth.Principal, status models.BookingStatus) (*models.Booking, error) {
	return m.attendanceFn(ctx, id, actor, status)
}
func (m *mockBookingService) SessionStatus(ctx context.Context, sessionID uuid.UUID) (*service.CapacityStatus, error) {
	return m.statusFn(ctx, sessionID)
}

// --- Mock WaitlistService ---

type mockWaitlistService struct {
	cancelFn  func(ctx context.Context, id uuid.UUID, actor auth.Principal) (*models.WaitlistEntry, error)
	notifyFn  func(ctx context.Context, id uuid.UUID, actor auth.Principal) (*models.WaitlistEntry, error)
	listFn    func(ctx context.Context, actor auth.Principal, filter repository.WaitlistFilter) ([]models.WaitlistEntry, int64, error)
	forUserFn func(ctx context.Context, userID uuid.UUID, actor auth.Principal) ([]models.WaitlistEntry, error)
}

func (m *mockWaitlistService) CancelEntry(ctx context.Context, id uuid.UUID, actor auth.Principal) (*models.WaitlistEntry, error) {
	return m.cancelFn(ctx, id, actor)
}
func (m *mockWaitlistService) NotifyEntry(ctx context.Context, id uuid.UUID, actor auth.Principal) (*models.WaitlistEntry, error) {
	return m.notifyFn(ctx, id, actor)
}
func (m *mockWaitlistService) ListEntries(ctx context.Context, actor auth.Principal, filter repository.WaitlistFilter) ([]models.WaitlistEntry, int64, error) {
	return m.listFn(ctx, actor, filter)
}
func (m *mockWaitlistService) ListForUser(ctx context.Context, userID uuid.UUID, actor auth.Principal) ([]models.WaitlistEntry, error) {
	return m.forUserFn(ctx, userID, actor)
}
func (m *mockWaitlistService) ExpireOverdue(ctx context.Context) (*service.SweepResult, error) {
	return &service.SweepResult{}, nil
}

// --- Mock SessionService ---

type mockSessionService struct {
	createFn       func(ctx context.Context, actor auth.Principal, s *models.ClassSession) error
	getFn          func(ctx context.Context, id uuid.UUID) (*models.ClassSession, error)
	listFn         func(ctx context.Context, filter repository.SessionFilter) ([]models.ClassSession, int64, error)
	updateStatusFn func(ctx context.Context, actor auth.Principal, id uuid.UUID, status models.SessionStatus) (*models.ClassSession, error)
	deleteFn       func(ctx context.Context, actor auth.Principal, id uuid.UUID) error
}

func (m *mockSessionService) CreateSession(ctx context.Context, actor auth.Principal, s *models.ClassSession) error {
	return m.createFn(ctx, actor, s)
}
func (m *mockSessionService) GetSession(ctx context.Context, id uuid.UUID) (*models.ClassSession, error) {
	return m.getFn(ctx, id)
}
func (m *mockSessionService) ListSessions(ctx context.Context, filter repository.SessionFilter) ([]models.ClassSession, int64, error) {
	return m.listFn(ctx, filter)
}
func (m *mockSessionService) UpdateStatus(ctx context.Context, actor auth.Principal, id uuid.UUID, status models.SessionStatus) (*models.ClassSession, error) {
	return m.updateStatusFn(ctx, actor, id, status)
}
func (m *mockSessionService) DeleteSession(ctx context.Context, actor auth.Principal, id uuid.UUID) error {
	return m.deleteFn(ctx, actor, id)
}
func (m *mockSessionService) SyncSession(ctx context.Context, s *models.ClassSession) error {
	return nil
}

// --- Helpers ---

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = middleware.NewValidator()
	return e
}

// newContext builds a request context carrying p (when non-nil) and the
// given path params as name/value pairs.
func newContext(method, target, body string, p *auth.Principal, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := newEcho().NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	if p != nil {
		auth.WithPrincipal(c, *p)
	}
	return c, rec
}

func clientPrincipal() *auth.Principal {
	p := auth.NewPrincipal(uuid.New(), auth.RoleClient)
	return &p
}

func coachPrincipal() *auth.Principal {
	p := auth.NewPrincipal(uuid.New(), auth.RoleCoach)
	return &p
}

func adminPrincipal() *auth.Principal {
	p := auth.NewPrincipal(uuid.New(), auth.RoleAdmin)
	return &p
}

func newRecorder(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
