package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/agentkyo/jadlog-bot/internal/core/ports"
)

// AdminHandler exposes the operator-facing surface: inspecting the tracked
// package list, registering a code on a user's behalf, and kicking off an
// immediate refresh pass.
type AdminHandler struct {
	service ports.RefreshService
	log     zerolog.Logger
}

func NewAdminHandler(service ports.RefreshService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{service: service, log: log}
}

// ListPackages returns every tracked package.
func (h *AdminHandler) ListPackages(c echo.Context) error {
	pkgs, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPackageListResponse(pkgs))
}

// RegisterPackage registers a tracking code for a user, exactly as the
// /rastrear command would.
func (h *AdminHandler) RegisterPackage(c echo.Context) error {
	var req registerPackageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.Register(c.Request().Context(), req.UserID, req.TrackingCode); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, registerPackageResponse{
		UserID:       req.UserID,
		TrackingCode: req.TrackingCode,
	})
}

// TriggerRefresh starts a full refresh pass in the background and returns
// immediately; a pass over many packages can take minutes.
func (h *AdminHandler) TriggerRefresh(c echo.Context) error {
	go func() {
		if err := h.service.RefreshAll(context.Background()); err != nil {
			h.log.Error().Err(err).Msg("admin-triggered refresh pass failed")
		}
	}()
	return c.JSON(http.StatusAccepted, map[string]string{"status": "refresh started"})
}
