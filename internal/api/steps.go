package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/brewgpio/brewgpio/internal/persistence"
	"github.com/brewgpio/brewgpio/internal/steps"
	"github.com/labstack/echo/v4"
)

type stepView struct {
	Id      string `json:"id"`
	Type    string `json:"type"`
	Running bool   `json:"running"`
	Summary string `json:"summary,omitempty"`
}

func (h *handlers) registerStepEndpoints(rest *echo.Echo) {
	group := rest.Group("/step")

	group.GET("/", h.getSteps)
	group.GET("/:"+urlParamId+"/", h.getStep)
	group.GET("/:"+urlParamId+"/history/", h.getStepHistory)
	group.POST("/:"+urlParamId+"/start/", h.startStep)
	group.POST("/stop/", h.stopStep)
}

func (h *handlers) stepView(step steps.Step) stepView {
	current, running := h.deps.Runner.Current()
	return stepView{
		Id:      step.GetId(),
		Type:    step.GetType(),
		Running: running && current.GetId() == step.GetId(),
		Summary: step.GetSummary(),
	}
}

func (h *handlers) getSteps(c echo.Context) error {
	var data []stepView
	for _, step := range h.deps.Runner.Steps() {
		data = append(data, h.stepView(step))
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (h *handlers) getStep(c echo.Context) error {
	id := c.Param(urlParamId)

	step, exists := h.deps.Runner.Get(id)
	if !exists {
		return returnNotFound(c, id)
	} else {
		return c.JSONPretty(http.StatusOK, h.stepView(step), indentationChar)
	}
}

func (h *handlers) getStepHistory(c echo.Context) error {
	id := c.Param(urlParamId)

	if _, exists := h.deps.Runner.Get(id); !exists {
		return returnNotFound(c, id)
	}
	if h.deps.Persistence == nil {
		return c.JSONPretty(http.StatusOK, []persistence.StepResult{}, indentationChar)
	}

	results, err := h.deps.Persistence.LoadStepResults(id)
	if errors.Is(err, os.ErrNotExist) {
		return c.JSONPretty(http.StatusOK, []persistence.StepResult{}, indentationChar)
	}
	if err != nil {
		return returnError(c, err)
	}
	return c.JSONPretty(http.StatusOK, results, indentationChar)
}

func (h *handlers) startStep(c echo.Context) error {
	id := c.Param(urlParamId)

	err := h.deps.Runner.Start(h.deps.Context, id)
	switch {
	case errors.Is(err, steps.ErrStepNotFound):
		return returnNotFound(c, id)
	case errors.Is(err, steps.ErrRunnerBusy):
		return returnConflict(c, err)
	case err != nil:
		return returnError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *handlers) stopStep(c echo.Context) error {
	if !h.deps.Runner.Stop() {
		return returnConflict(c, errors.New("no step is running"))
	}
	return c.NoContent(http.StatusAccepted)
}
