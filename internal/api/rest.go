package api

import (
	"context"
	"net/http"

	"github.com/brewgpio/brewgpio/internal/actors"
	"github.com/brewgpio/brewgpio/internal/persistence"
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/brewgpio/brewgpio/internal/steps"
	"github.com/brewgpio/brewgpio/internal/util"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	urlParamId      = "id"
	indentationChar = "  "
)

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}

	// Dependencies holds everything the REST endpoints operate on
	Dependencies struct {
		// Context of the daemon, steps started via the API are cancelled with it
		Context     context.Context
		Sensors     *sensors.Registry
		// Recent values of the sensors, optional
		Stats       SensorStats
		Actors      *actors.Registry
		Runner      *steps.Runner
		Persistence persistence.Persistence
		// Record request metrics in the default prometheus registry
		Metrics bool
	}

	SensorStats interface {
		GetSensorStats(sensorId string) (util.WindowStats, bool)
	}

	handlers struct {
		deps Dependencies
	}
)

func CreateRestService(deps Dependencies) *echo.Echo {
	if deps.Context == nil {
		deps.Context = context.Background()
	}

	echoRest := echo.New()
	echoRest.HideBanner = true

	// Root level middleware
	echoRest.Pre(middleware.AddTrailingSlash())

	echoRest.Use(middleware.Secure())

	echoRest.Use(middleware.Logger())
	echoRest.Use(middleware.Recover())
	if deps.Metrics {
		echoRest.Use(echoprometheus.NewMiddleware("brewgpio"))
	}

	echoRest.GET("/alive/", isAlive)

	h := &handlers{deps: deps}
	h.registerSensorEndpoints(echoRest)
	h.registerActorEndpoints(echoRest)
	h.registerStepEndpoints(echoRest)

	return echoRest
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// return a "not found" message
func returnNotFound(c echo.Context, id string) (err error) {
	return c.JSONPretty(http.StatusNotFound, &Result{
		Name:    "Not found",
		Message: "No item with id '" + id + "' found",
	}, indentationChar)
}

// return a "bad request" message
func returnBadRequest(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusBadRequest, &Result{
		Name:    "Bad request",
		Message: e.Error(),
	}, indentationChar)
}

// return a "conflict" message
func returnConflict(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusConflict, &Result{
		Name:    "Conflict",
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
