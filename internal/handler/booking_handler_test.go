package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Eursukkul/studio-booking/internal/auth"
	"github.com/Eursukkul/studio-booking/internal/dto"
	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	assert.Equal(t, code, he.Code)
}

func TestCreateBooking_Handler_Confirmed(t *testing.T) {
	sessionID := uuid.New()
	p := clientPrincipal()
	svc := &mockBookingService{
		createFn: func(ctx context.Context, req service.BookingRequest) (*service.BookingResult, error) {
			assert.Equal(t, sessionID, req.SessionID)
			assert.Equal(t, p.UserID, req.UserID, "user comes from the token, not the body")
			assert.Equal(t, "card", req.PaymentMethod)
			return &service.BookingResult{
				Outcome: service.OutcomeConfirmed,
				Booking: &models.Booking{
					ID:            uuid.New(),
					SessionID:     req.SessionID,
					UserID:        req.UserID,
					Status:        models.StatusConfirmed,
					PaymentStatus: models.PaymentPending,
					Amount:        25,
					BookedAt:      time.Now(),
				},
			}, nil
		},
	}

	c, rec := newContext(http.MethodPost, "/api/v1/sessions/"+sessionID.String()+"/bookings",
		`{"payment_method":"card"}`, p, "id", sessionID.String())

	err := NewBookingHandler(svc).CreateBooking(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.BookingOutcomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, service.OutcomeConfirmed, resp.Outcome)
	require.NotNil(t, resp.Booking)
	assert.Nil(t, resp.WaitlistEntry)
	assert.Equal(t, models.StatusConfirmed, resp.Booking.Status)
	assert.Equal(t, 25.0, resp.Booking.Amount)
}

func TestCreateBooking_Handler_Waitlisted(t *testing.T) {
	sessionID := uuid.New()
	svc := &mockBookingService{
		createFn: func(ctx context.Context, req service.BookingRequest) (*service.BookingResult, error) {
			return &service.BookingResult{
				Outcome: service.OutcomeWaitlisted,
				WaitlistEntry: &models.WaitlistEntry{
					ID:        uuid.New(),
					SessionID: req.SessionID,
					UserID:    req.UserID,
					Position:  3,
					Status:    models.WaitlistWaiting,
				},
			}, nil
		},
	}

	c, rec := newContext(http.MethodPost, "/", "", clientPrincipal(), "id", sessionID.String())

	err := NewBookingHandler(svc).CreateBooking(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.BookingOutcomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, service.OutcomeWaitlisted, resp.Outcome)
	require.NotNil(t, resp.WaitlistEntry)
	assert.Nil(t, resp.Booking)
	assert.Equal(t, 3, resp.WaitlistEntry.Position)
}

func TestCreateBooking_Handler_InvalidSessionID(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/", "", clientPrincipal(), "id", "abc")

	err := NewBookingHandler(nil).CreateBooking(c)

	assertHTTPError(t, err, http.StatusBadRequest)
}

func TestCreateBooking_Handler_Unauthenticated(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/", "", nil, "id", uuid.NewString())

	err := NewBookingHandler(nil).CreateBooking(c)

	assertHTTPError(t, err, http.StatusUnauthorized)
}

func TestCreateBooking_Handler_ValidationFails(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/", `{"payment_method":"bitcoin"}`, clientPrincipal(), "id", uuid.NewString())

	err := NewBookingHandler(nil).CreateBooking(c)

	var ve validator.ValidationErrors
	assert.ErrorAs(t, err, &ve)
}

func TestCreateBooking_Handler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"session not found", service.ErrSessionNotFound, http.StatusNotFound},
		{"session not available", service.ErrSessionNotAvailable, http.StatusUnprocessableEntity},
		{"already booked", service.ErrAlreadyBooked, http.StatusConflict},
		{"already waitlisted", service.ErrAlreadyWaitlisted, http.StatusConflict},
		{"infrastructure", errors.New("lock session: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockBookingService{
				createFn: func(ctx context.Context, req service.BookingRequest) (*service.BookingResult, error) {
					return nil, tc.err
				},
			}
			c, _ := newContext(http.MethodPost, "/", "", clientPrincipal(), "id", uuid.NewString())

			err := NewBookingHandler(svc).CreateBooking(c)

			assertHTTPError(t, err, tc.code)
		})
	}
}

func TestCancelBooking_Handler_Success(t *testing.T) {
	bookingID := uuid.New()
	p := clientPrincipal()
	svc := &mockBookingService{
		cancelFn: func(ctx context.Context, id uuid.UUID, actor auth.Principal, reason string) (*service.CancelResult, error) {
			assert.Equal(t, bookingID, id)
			assert.Equal(t, p.UserID, actor.UserID)
			assert.Equal(t, "injured", reason)
			return &service.CancelResult{
				Booking:  &models.Booking{ID: id, UserID: actor.UserID, Status: models.StatusCancelled, CancellationReason: reason},
				Promoted: &models.WaitlistEntry{ID: uuid.New(), Position: 1, Status: models.WaitlistNotified},
			}, nil
		},
	}

	c, rec := newContext(http.MethodPost, "/", `{"reason":"injured"}`, p, "id", bookingID.String())

	err := NewBookingHandler(svc).CancelBooking(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.CancelBookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusCancelled, resp.Booking.Status)
	require.NotNil(t, resp.Promoted)
	assert.Equal(t, models.WaitlistNotified, resp.Promoted.Status)
}

func TestCancelBooking_Handler_Errors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", service.ErrBookingNotFound, http.StatusNotFound},
		{"not owner", service.ErrUnauthorized, http.StatusForbidden},
		{"already cancelled", service.ErrAlreadyCancelled, http.StatusConflict},
		{"completed", service.ErrBookingImmutable, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockBookingService{
				cancelFn: func(context.Context, uuid.UUID, auth.Principal, string) (*service.CancelResult, error) {
					return nil, tc.err
				},
			}
			c, _ := newContext(http.MethodPost, "/", "", clientPrincipal(), "id", uuid.NewString())

			err := NewBookingHandler(svc).CancelBooking(c)

			assertHTTPError(t, err, tc.code)
		})
	}
}

func TestGetBooking_Handler(t *testing.T) {
	id := uuid.New()
	svc := &mockBookingService{
		getFn: func(ctx context.Context, got uuid.UUID, actor auth.Principal) (*models.Booking, error) {
			if got != id {
				return nil, service.ErrBookingNotFound
			}
			return &models.Booking{ID: id, Status: models.StatusConfirmed}, nil
		},
	}
	h := NewBookingHandler(svc)

	c, rec := newContext(http.MethodGet, "/", "", clientPrincipal(), "id", id.String())
	require.NoError(t, h.GetBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = newContext(http.MethodGet, "/", "", clientPrincipal(), "id", uuid.NewString())
	assertHTTPError(t, h.GetBooking(c), http.StatusNotFound)
}

func TestListBookings_Handler_Filters(t *testing.T) {
	sessionID := uuid.New()
	svc := &mockBookingService{
		listFn: func(ctx context.Context, actor auth.Principal, filter repository.BookingFilter) ([]models.Booking, int64, error) {
			require.NotNil(t, filter.SessionID)
			assert.Equal(t, sessionID, *filter.SessionID)
			require.NotNil(t, filter.Status)
			assert.Equal(t, models.StatusConfirmed, *filter.Status)
			assert.Equal(t, 2, filter.Page.Page)
			assert.Equal(t, 5, filter.Limit)
			return []models.Booking{{ID: uuid.New()}, {ID: uuid.New()}}, 7, nil
		},
	}

	c, rec := newContext(http.MethodGet, "/api/v1/bookings?session_id="+sessionID.String()+"&status=confirmed&page=2&limit=5", "", adminPrincipal())

	require.NoError(t, NewBookingHandler(svc).ListBookings(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.PageResponse[dto.BookingResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, int64(7), resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 5, resp.Limit)
}

func TestListBookings_Handler_BadQuery(t *testing.T) {
	h := NewBookingHandler(nil)

	c, _ := newContext(http.MethodGet, "/api/v1/bookings?status=lost", "", adminPrincipal())
	assertHTTPError(t, h.ListBookings(c), http.StatusBadRequest)

	c, _ = newContext(http.MethodGet, "/api/v1/bookings?page=x", "", adminPrincipal())
	assertHTTPError(t, h.ListBookings(c), http.StatusBadRequest)

	c, _ = newContext(http.MethodGet, "/api/v1/bookings?user_id=nope", "", adminPrincipal())
	assertHTTPError(t, h.ListBookings(c), http.StatusBadRequest)
}

func TestListSessionBookings_Handler(t *testing.T) {
	sessionID := uuid.New()
	svc := &mockBookingService{
		listFn: func(ctx context.Context, actor auth.Principal, filter repository.BookingFilter) ([]models.Booking, int64, error) {
			assert.Equal(t, sessionID, *filter.SessionID)
			assert.Equal(t, 20, filter.Limit)
			return nil, 0, nil
		},
	}

	c, rec := newContext(http.MethodGet, "/", "", coachPrincipal(), "id", sessionID.String())

	require.NoError(t, NewBookingHandler(svc).ListSessionBookings(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"page":1,"limit":20,"total":0}`, rec.Body.String())
}

func TestRecordAttendance_Handler(t *testing.T) {
	id := uuid.New()
	svc := &mockBookingService{
		attendanceFn: func(ctx context.Context, got uuid.UUID, actor auth.Principal, status models.BookingStatus) (*models.Booking, error) {
			assert.Equal(t, models.StatusNoShow, status)
			return &models.Booking{ID: got, Status: status}, nil
		},
	}
	h := NewBookingHandler(svc)

	c, rec := newContext(http.MethodPost, "/", `{"status":"no_show"}`, coachPrincipal(), "id", id.String())
	require.NoError(t, h.RecordAttendance(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = newContext(http.MethodPost, "/", `{"status":"cancelled"}`, coachPrincipal(), "id", id.String())
	var ve validator.ValidationErrors
	assert.ErrorAs(t, h.RecordAttendance(c), &ve)
}

func TestRecordAttendance_Handler_BeforeStart(t *testing.T) {
	svc := &mockBookingService{
		attendanceFn: func(ctx context.Context, got uuid.UUID, actor auth.Principal, status models.BookingStatus) (*models.Booking, error) {
			return nil, service.ErrSessionNotStarted
		},
	}
	c, _ := newContext(http.MethodPost, "/", `{"status":"completed"}`, coachPrincipal(), "id", uuid.NewString())

	assertHTTPError(t, NewBookingHandler(svc).RecordAttendance(c), http.StatusUnprocessableEntity)
}

func TestSessionStatus_Handler(t *testing.T) {
	sessionID := uuid.New()
	svc := &mockBookingService{
		statusFn: func(ctx context.Context, id uuid.UUID) (*service.CapacityStatus, error) {
			if id != sessionID {
				return nil, service.ErrSessionNotFound
			}
			return &service.CapacityStatus{
				Session:        &models.ClassSession{ID: id, ClassName: "Yin Yoga", MaxCapacity: 10, CurrentBookings: 10},
				ActiveBookings: 10,
				Waiting:        4,
				SeatsAvailable: 0,
			}, nil
		},
	}
	h := NewBookingHandler(svc)

	c, rec := newContext(http.MethodGet, "/", "", clientPrincipal(), "id", sessionID.String())
	require.NoError(t, h.SessionStatus(c))

	var resp dto.SessionStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Yin Yoga", resp.ClassName)
	assert.Equal(t, int64(4), resp.Waiting)
	assert.Equal(t, 0, resp.SeatsAvailable)

	c, _ = newContext(http.MethodGet, "/", "", clientPrincipal(), "id", uuid.NewString())
	assertHTTPError(t, h.SessionStatus(c), http.StatusNotFound)
}

// Routes wired through echo: staff-only endpoints reject clients before the
// handler runs.
func TestBookingRoutes_StaffOnly(t *testing.T) {
	e := newEcho()
	g := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth.WithPrincipal(c, *clientPrincipal())
			return next(c)
		}
	})
	NewBookingHandler(&mockBookingService{}).RegisterRoutes(g)

	rec := newRecorder(e, http.MethodGet, "/api/v1/sessions/"+uuid.NewString()+"/bookings", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = newRecorder(e, http.MethodPost, "/api/v1/bookings/"+uuid.NewString()+"/attendance", `{"status":"completed"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
