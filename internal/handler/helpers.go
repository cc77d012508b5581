package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Eursukkul/studio-booking/internal/auth"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// toHTTPError maps service errors onto status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAlreadyBooked),
		errors.Is(err, service.ErrAlreadyWaitlisted),
		errors.Is(err, service.ErrAlreadyCancelled),
		errors.Is(err, service.ErrAlreadyProcessed),
		errors.Is(err, service.ErrSessionHasBookings):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSessionNotAvailable),
		errors.Is(err, service.ErrSessionNotStarted),
		errors.Is(err, service.ErrBookingImmutable):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}

func principal(c echo.Context) (auth.Principal, error) {
	p, ok := auth.FromContext(c)
	if !ok {
		return auth.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return p, nil
}

func uuidParam(c echo.Context, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+what+" id")
	}
	return id, nil
}

// bindAndValidate binds the request body (empty bodies are allowed) and runs
// the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(req)
}

func pageParams(c echo.Context) (repository.Page, error) {
	var p repository.Page
	err := echo.QueryParamsBinder(c).
		Int("page", &p.Page).
		Int("limit", &p.Limit).
		BindError()
	if err != nil {
		return p, echo.NewHTTPError(http.StatusBadRequest, "invalid pagination parameters")
	}
	return p.Normalize(), nil
}

func optionalUUIDQuery(c echo.Context, name string) (*uuid.UUID, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

func optionalTimeQuery(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+", expected RFC3339")
	}
	return &t, nil
}
