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

type WaitlistHandler struct {
	svc service.WaitlistService
}

func NewWaitlistHandler(svc service.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{svc: svc}
}

func (h *WaitlistHandler) RegisterRoutes(g *echo.Group) {
	staff := auth.Require(auth.CapManageWaitlist)

	g.GET("/waitlist", h.ListEntries, staff)
	g.GET("/users/:userId/waitlist", h.ListForUser)
	g.POST("/waitlist/:id/cancel", h.CancelEntry)
	g.POST("/waitlist/:id/notify", h.NotifyEntry, staff)
}

func (h *WaitlistHandler) ListEntries(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}

	page, err := pageParams(c)
	if err != nil {
		return err
	}
	filter := repository.WaitlistFilter{Page: page}
	if filter.SessionID, err = optionalUUIDQuery(c, "session_id"); err != nil {
		return err
	}
	if s := c.QueryParam("status"); s != "" {
		status := models.WaitlistStatus(s)
		if !status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		filter.Status = &status
	}

	entries, total, err := h.svc.ListEntries(c.Request().Context(), actor, filter)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.PageResponse[dto.WaitlistEntryResponse]{
		Data:  dto.ToWaitlistEntryResponses(entries),
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
	})
}

func (h *WaitlistHandler) ListForUser(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	userID, err := uuidParam(c, "userId", "user")
	if err != nil {
		return err
	}

	entries, err := h.svc.ListForUser(c.Request().Context(), userID, actor)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToWaitlistEntryResponses(entries))
}

func (h *WaitlistHandler) CancelEntry(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id", "waitlist entry")
	if err != nil {
		return err
	}

	entry, err := h.svc.CancelEntry(c.Request().Context(), id, actor)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToWaitlistEntryResponse(entry))
}

func (h *WaitlistHandler) NotifyEntry(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id", "waitlist entry")
	if err != nil {
		return err
	}

	entry, err := h.svc.NotifyEntry(c.Request().Context(), id, actor)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToWaitlistEntryResponse(entry))
}
