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

type SessionHandler struct {
	svc service.SessionService
}

func NewSessionHandler(svc service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) RegisterRoutes(g *echo.Group) {
	admin := auth.Require(auth.CapManageSessions)

	g.POST("/sessions", h.CreateSession, admin)
	g.GET("/sessions", h.ListSessions)
	g.GET("/sessions/:id", h.GetSession)
	g.PATCH("/sessions/:id/status", h.UpdateStatus, admin)
	g.DELETE("/sessions/:id", h.DeleteSession, admin)
}

func (h *SessionHandler) CreateSession(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session := req.ToModel()
	if err := h.svc.CreateSession(c.Request().Context(), actor, session); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToSessionResponse(session))
}

func (h *SessionHandler) GetSession(c echo.Context) error {
	id, err := uuidParam(c, "id", "session")
	if err != nil {
		return err
	}

	session, err := h.svc.GetSession(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

func (h *SessionHandler) ListSessions(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}
	filter := repository.SessionFilter{Page: page}
	if s := c.QueryParam("status"); s != "" {
		status := models.SessionStatus(s)
		if !status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		filter.Status = &status
	}
	if filter.From, err = optionalTimeQuery(c, "from"); err != nil {
		return err
	}
	if filter.To, err = optionalTimeQuery(c, "to"); err != nil {
		return err
	}

	sessions, total, err := h.svc.ListSessions(c.Request().Context(), filter)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.PageResponse[dto.SessionResponse]{
		Data:  dto.ToSessionResponses(sessions),
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
	})
}

func (h *SessionHandler) UpdateStatus(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id", "session")
	if err != nil {
		return err
	}

	var req dto.UpdateSessionStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.svc.UpdateStatus(c.Request().Context(), actor, id, models.SessionStatus(req.Status))
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

func (h *SessionHandler) DeleteSession(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id", "session")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteSession(c.Request().Context(), actor, id); err != nil {
		return toHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
