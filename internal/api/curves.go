package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/fancurve/internal/curves"
	"github.com/qdm12/reprint"
)

type CurveDto struct {
	Name   string        `json:"name"`
	Points []curves.Pair `json:"points"`
}

type CurveListDto struct {
	Curves       []CurveDto `json:"curves"`
	DefaultIndex int        `json:"defaultIndex"`
}

type PointDto struct {
	Temp *int `json:"temp"`
	Duty *int `json:"duty"`
}

func registerCurveEndpoints(rest *echo.Echo, h *handler) {
	group := rest.Group("/curve")

	group.GET("/", h.getCurve)
	group.PUT("/", h.setCurve)
	group.POST("/point/", h.addPoint)
	group.DELETE("/point/", h.removePoint)
	group.POST("/select/:"+urlParamName+"/", h.selectCurve)
	group.POST("/:"+urlParamName+"/", h.setCurvePersistent)

	curvesGroup := rest.Group("/curves")
	curvesGroup.GET("/", h.getCurves)
	curvesGroup.GET("/stored/", h.getStoredCurves)
	curvesGroup.POST("/save/", h.saveCurves)
	curvesGroup.POST("/:"+urlParamIndex+"/select/", h.selectCurveByIndex)
	curvesGroup.POST("/:"+urlParamIndex+"/default/", h.setDefaultCurve)
}

func (h *handler) getCurve(c echo.Context) error {
	status := h.controller.Status()
	data := CurveDto{
		Name:   status.Curve,
		Points: h.controller.GetFanCurve(),
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (h *handler) setCurve(c echo.Context) error {
	var body CurveDto
	if err := c.Bind(&body); err != nil {
		return returnBadRequest(c, err)
	}
	if err := h.controller.SetFanCurve(body.Points); err != nil {
		return returnControllerError(c, "", err)
	}
	return h.getCurve(c)
}

func (h *handler) setCurvePersistent(c echo.Context) error {
	name := nameParam(c)
	var body CurveDto
	if err := c.Bind(&body); err != nil {
		return returnBadRequest(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.controller.SetFanCurvePersistent(ctx, name, body.Points); err != nil {
		return returnControllerError(c, name, err)
	}
	return h.getCurve(c)
}

func (h *handler) addPoint(c echo.Context) error {
	var body PointDto
	if err := c.Bind(&body); err != nil {
		return returnBadRequest(c, err)
	}
	if body.Temp == nil || body.Duty == nil {
		return returnBadRequest(c, errors.New("temp and duty are required"))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.controller.AddFanCurvePoint(ctx, *body.Temp, *body.Duty); err != nil {
		return returnControllerError(c, "", err)
	}
	return h.getCurve(c)
}

func (h *handler) removePoint(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.controller.RemoveFanCurvePoint(ctx); err != nil {
		return returnControllerError(c, "", err)
	}
	return h.getCurve(c)
}

func (h *handler) selectCurve(c echo.Context) error {
	name := nameParam(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.controller.SelectCurveByName(ctx, name); err != nil {
		return returnControllerError(c, name, err)
	}
	return h.getCurve(c)
}

func (h *handler) selectCurveByIndex(c echo.Context) error {
	index, err := strconv.Atoi(c.Param(urlParamIndex))
	if err != nil {
		return returnBadRequest(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.controller.SelectCurve(ctx, index); err != nil {
		return returnControllerError(c, c.Param(urlParamIndex), err)
	}
	return h.getCurve(c)
}

// setDefaultCurve changes the startup curve, an index of -1 removes it
func (h *handler) setDefaultCurve(c echo.Context) error {
	index, err := strconv.Atoi(c.Param(urlParamIndex))
	if err != nil {
		return returnBadRequest(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.controller.SetDefaultCurve(ctx, index); err != nil {
		return returnControllerError(c, c.Param(urlParamIndex), err)
	}
	return h.getCurves(c)
}

func (h *handler) saveCurves(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.controller.SaveConfig(ctx); err != nil {
		return returnError(c, err)
	}
	return h.getCurves(c)
}

func (h *handler) getCurves(c echo.Context) error {
	config := h.controller.CurveConfig()
	data := CurveListDto{
		Curves:       []CurveDto{},
		DefaultIndex: config.DefaultIndex(),
	}
	for _, curve := range config.Curves() {
		data.Curves = append(data.Curves, CurveDto{Name: curve.Name(), Points: curve.ToPairs()})
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (h *handler) getStoredCurves(c echo.Context) error {
	named, err := h.controller.LoadAllFanCurves()
	if err != nil {
		return returnError(c, err)
	}
	data := []CurveDto{}
	for _, n := range named {
		data = append(data, CurveDto{Name: n.Curve.Name(), Points: n.Curve.ToPairs()})
	}
	return c.JSONPretty(http.StatusOK, reprint.This(data), indentationChar)
}

// nameParam returns the unescaped curve name of the request path
func nameParam(c echo.Context) string {
	name := c.Param(urlParamName)
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}
