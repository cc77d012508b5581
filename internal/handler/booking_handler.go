package handler

import (
	"net/http"

	"github.com/Eursukkul/studio-booking/internal/auth"
	"github.com/Eursukkul/studio-booking/internal/dto"
	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// RegisterRoutes expects an authenticated /api/v1 group.
func (h *BookingHandler) RegisterRoutes(g *echo.Group) {
	staff := auth.Require(auth.CapManageWaitlist)

	g.GET("/sessions/:id/status", h.SessionStatus)
	g.POST("/sessions/:id/bookings", h.CreateBooking)
	g.GET("/sessions/:id/bookings", h.ListSessionBookings, staff)

	g.GET("/bookings", h.ListBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.POST("/bookings/:id/cancel", h.CancelBooking)
	g.POST("/bookings/:id/attendance", h.RecordAttendance, staff)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	sessionID, err := uuidParam(c, "id", "session")
	if err != nil {
		return err
	}

	var req dto.CreateBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.svc.CreateBooking(c.Request().Context(), service.BookingRequest{
		SessionID:       sessionID,
		UserID:          actor.UserID,
		PaymentMethod:   req.PaymentMethod,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToBookingOutcomeResponse(res))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	bookingID, err := uuidParam(c, "id", "booking")
	if err != nil {
		return err
	}

	var req dto.CancelRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.svc.CancelBooking(c.Request().Context(), bookingID, actor, req.Reason)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToCancelBookingResponse(res))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id", "booking")
	if err != nil {
		return err
	}

	booking, err := h.svc.GetBooking(c.Request().Context(), id, actor)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	filter, err := bookingFilter(c)
	if err != nil {
		return err
	}
	if filter.SessionID, err = optionalUUIDQuery(c, "session_id"); err != nil {
		return err
	}
	return h.list(c, filter)
}

func (h *BookingHandler) ListSessionBookings(c echo.Context) error {
	sessionID, err := uuidParam(c, "id", "session")
	if err != nil {
		return err
	}
	filter, err := bookingFilter(c)
	if err != nil {
		return err
	}
	filter.SessionID = &sessionID
	return h.list(c, filter)
}

func (h *BookingHandler) list(c echo.Context, filter repository.BookingFilter) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}

	bookings, total, err := h.svc.ListBookings(c.Request().Context(), actor, filter)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.PageResponse[dto.BookingResponse]{
		Data:  dto.ToBookingResponses(bookings),
		Page:  filter.Page.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

func bookingFilter(c echo.Context) (repository.BookingFilter, error) {
	var filter repository.BookingFilter
	page, err := pageParams(c)
	if err != nil {
		return filter, err
	}
	filter.Page = page

	if s := c.QueryParam("status"); s != "" {
		status := models.BookingStatus(s)
		if !status.Valid() {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		filter.Status = &status
	}
	if filter.UserID, err = optionalUUIDQuery(c, "user_id"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *BookingHandler) RecordAttendance(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id", "booking")
	if err != nil {
		return err
	}

	var req dto.AttendanceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	booking, err := h.svc.RecordAttendance(c.Request().Context(), id, actor, models.BookingStatus(req.Status))
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) SessionStatus(c echo.Context) error {
	sessionID, err := uuidParam(c, "id", "session")
	if err != nil {
		return err
	}

	st, err := h.svc.SessionStatus(c.Request().Context(), sessionID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToSessionStatusResponse(st))
}
