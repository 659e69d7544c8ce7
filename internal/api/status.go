package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerStatusEndpoints(rest *echo.Echo, h *handler) {
	rest.GET("/status/", h.getStatus)
	rest.POST("/auto/", h.setAutomatic)
}

func (h *handler) getStatus(c echo.Context) error {
	data := h.controller.Status()
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (h *handler) setAutomatic(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.controller.SetAutomatic(ctx); err != nil {
		return returnControllerError(c, "", err)
	}
	return h.getStatus(c)
}
