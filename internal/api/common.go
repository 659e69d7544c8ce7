package api

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/fancurve/internal/controller"
	"github.com/markusressel/fancurve/internal/curves"
)

// returnControllerError maps errors of the controller to a response
func returnControllerError(c echo.Context, name string, err error) error {
	switch {
	case errors.Is(err, curves.ErrCurveNotFound):
		return returnNotFound(c, name)
	case errors.Is(err, curves.ErrOutOfRange),
		errors.Is(err, curves.ErrInvalidName),
		errors.Is(err, curves.ErrNoPoints),
		errors.Is(err, controller.ErrNoCurve):
		return returnBadRequest(c, err)
	default:
		return returnError(c, err)
	}
}
