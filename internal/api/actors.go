package api

import (
	"errors"
	"net/http"

	"github.com/brewgpio/brewgpio/internal/actors"
	"github.com/labstack/echo/v4"
)

type actorView struct {
	Id        string   `json:"id"`
	State     bool     `json:"state"`
	Power     int      `json:"power"`
	Output    int      `json:"output"`
	MaxOutput int      `json:"maxOutput"`
	Automatic *bool    `json:"automatic,omitempty"`
	FlowRate  *float64 `json:"flowRate,omitempty"`
	Target    *float64 `json:"targetFlow,omitempty"`
}

// powerRequest sets the level of an actor, exactly one of the fields must be set.
// Value is interpreted according to the addressing of a pump, as percent for all other actors.
type powerRequest struct {
	Value  *float64 `json:"value"`
	Power  *float64 `json:"power"`
	Output *float64 `json:"output"`
}

type flowRequest struct {
	Target float64 `json:"target"`
}

func (h *handlers) registerActorEndpoints(rest *echo.Echo) {
	group := rest.Group("/actor")

	group.GET("/", h.getActors)
	group.GET("/:"+urlParamId+"/", h.getActor)
	group.POST("/:"+urlParamId+"/on/", h.switchActor(true))
	group.POST("/:"+urlParamId+"/off/", h.switchActor(false))
	group.POST("/:"+urlParamId+"/power/", h.setActorPower)
	group.POST("/:"+urlParamId+"/flow/", h.setPumpFlow)
}

func newActorView(actor actors.Actor) actorView {
	view := actorView{
		Id:        actor.GetId(),
		State:     actor.GetState(),
		Power:     actor.GetPower(),
		Output:    actor.GetOutput(),
		MaxOutput: actor.GetMaxOutput(),
	}
	if pump, ok := actor.(*actors.PumpActor); ok {
		automatic := pump.IsAutomatic()
		flowRate := pump.GetFlowRate()
		target := pump.GetTargetFlow()
		view.Automatic = &automatic
		view.FlowRate = &flowRate
		view.Target = &target
	}
	return view
}

func (h *handlers) getActors(c echo.Context) error {
	var data []actorView
	for _, actor := range h.deps.Actors.All() {
		data = append(data, newActorView(actor))
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (h *handlers) getActor(c echo.Context) error {
	id := c.Param(urlParamId)

	actor, exists := h.deps.Actors.Get(id)
	if !exists {
		return returnNotFound(c, id)
	} else {
		return c.JSONPretty(http.StatusOK, newActorView(actor), indentationChar)
	}
}

func (h *handlers) switchActor(on bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param(urlParamId)

		actor, exists := h.deps.Actors.Get(id)
		if !exists {
			return returnNotFound(c, id)
		}

		var err error
		if on {
			err = actor.On()
		} else {
			err = actor.Off()
		}
		if err != nil {
			return returnError(c, err)
		}
		return c.JSONPretty(http.StatusOK, newActorView(actor), indentationChar)
	}
}

func (h *handlers) setActorPower(c echo.Context) error {
	id := c.Param(urlParamId)

	actor, exists := h.deps.Actors.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}

	var request powerRequest
	if err := c.Bind(&request); err != nil {
		return returnBadRequest(c, err)
	}

	var err error
	switch {
	case request.Value != nil:
		if pump, ok := actor.(*actors.PumpActor); ok {
			err = pump.Drive(*request.Value)
		} else {
			err = actor.SetPower(*request.Value)
		}
	case request.Power != nil:
		err = actor.SetPower(*request.Power)
	case request.Output != nil:
		err = actor.SetOutput(*request.Output)
	default:
		return returnBadRequest(c, errors.New("one of value, power or output is required"))
	}
	if err != nil {
		return returnBadRequest(c, err)
	}
	return c.JSONPretty(http.StatusOK, newActorView(actor), indentationChar)
}

func (h *handlers) setPumpFlow(c echo.Context) error {
	id := c.Param(urlParamId)

	actor, exists := h.deps.Actors.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	pump, ok := actor.(*actors.PumpActor)
	if !ok {
		return returnBadRequest(c, errors.New("actor '"+id+"' is not a pump"))
	}

	var request flowRequest
	if err := c.Bind(&request); err != nil {
		return returnBadRequest(c, err)
	}
	if err := pump.SetFlowRate(request.Target); err != nil {
		return returnBadRequest(c, err)
	}
	return c.JSONPretty(http.StatusOK, newActorView(actor), indentationChar)
}
