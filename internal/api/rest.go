package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/markusressel/fancurve/internal/configuration"
	"github.com/markusressel/fancurve/internal/controller"
	"github.com/markusressel/fancurve/internal/curves"
	"github.com/markusressel/fancurve/internal/persistence"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	urlParamName    = "name"
	urlParamIndex   = "index"
	indentationChar = "  "

	requestTimeout = 30 * time.Second
)

// Controller is the part of the controller exposed by the REST api
type Controller interface {
	GetFanCurve() []curves.Pair
	SetFanCurve(pairs []curves.Pair) error
	SetFanCurvePersistent(ctx context.Context, name string, pairs []curves.Pair) error
	LoadAllFanCurves() ([]persistence.NamedCurve, error)
	AddFanCurvePoint(ctx context.Context, temp int, duty int) error
	RemoveFanCurvePoint(ctx context.Context) error
	CurveConfig() *curves.FanCurveConfig
	SelectCurve(ctx context.Context, index int) error
	SelectCurveByName(ctx context.Context, name string) error
	SetDefaultCurve(ctx context.Context, index int) error
	SaveConfig(ctx context.Context) error
	SetAutomatic(ctx context.Context) error
	Status() controller.Status
}

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
)

type handler struct {
	controller Controller
}

func CreateRestService(controller Controller, registerer prometheus.Registerer, gatherer prometheus.Gatherer) *echo.Echo {
	echoRest := echo.New()
	echoRest.HideBanner = true
	echoRest.HidePort = true

	// Root level middleware
	echoRest.Pre(middleware.AddTrailingSlash())

	echoRest.Use(middleware.Secure())
	echoRest.Use(middleware.Recover())
	echoRest.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "fancurve_api",
		Registerer: registerer,
	}))

	echoRest.GET("/alive/", isAlive)
	echoRest.GET("/metrics/", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer,
	}))

	h := &handler{controller: controller}
	registerCurveEndpoints(echoRest, h)
	registerStatusEndpoints(echoRest, h)

	return echoRest
}

// RunRestService serves the api until ctx is cancelled
func RunRestService(ctx context.Context, rest *echo.Echo, config configuration.ApiConfig) error {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	errs := make(chan error, 1)
	go func() {
		ui.Info("Starting REST api on %s", addr)
		errs <- rest.Start(addr)
	}()

	select {
	case err := <-errs:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		ui.Info("Stopping REST api...")
		timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		return rest.Shutdown(timeoutCtx)
	}
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// return a "not found" message
func returnNotFound(c echo.Context, name string) (err error) {
	return c.JSONPretty(http.StatusNotFound, &Result{
		Name:    "Not found",
		Message: "No item with name '" + name + "' found",
	}, indentationChar)
}

func returnBadRequest(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusBadRequest, &Result{
		Name:    "Bad Request",
		Message: e.Error(),
	}, indentationChar)
}

// return the error message of an error
func returnError(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusInternalServerError, &Result{
		Name:    "Unknown Error",
		Message: e.Error(),
	}, indentationChar)
}
