package api

import (
	"net/http"
	"time"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/brewgpio/brewgpio/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/qdm12/reprint"
)

type sensorView struct {
	Id       string                     `json:"id"`
	Value    float64                    `json:"value"`
	Unit     string                     `json:"unit,omitempty"`
	FlowRate *float64                   `json:"flowRate,omitempty"`
	Average  *float64                   `json:"average,omitempty"`
	Window   *util.WindowStats          `json:"window,omitempty"`
	Error    string                     `json:"error,omitempty"`
	Config   configuration.SensorConfig `json:"config"`
}

func (h *handlers) registerSensorEndpoints(rest *echo.Echo) {
	group := rest.Group("/sensor")

	group.GET("/", h.getSensors)
	group.GET("/:"+urlParamId+"/", h.getSensor)
	group.POST("/:"+urlParamId+"/reset/", h.resetSensor)
}

func (h *handlers) sensorView(sensor sensors.Sensor) sensorView {
	view := sensorView{
		Id:     sensor.GetId(),
		Unit:   sensor.GetUnit(),
		Config: reprint.This(sensor.GetConfig()).(configuration.SensorConfig),
	}
	value, err := sensor.GetValue()
	if err != nil {
		view.Error = err.Error()
	}
	view.Value = value
	if rate, ok := h.deps.Sensors.Flows().Rate(sensor.GetId()); ok {
		view.FlowRate = &rate
	}
	if h.deps.Stats != nil {
		if stats, ok := h.deps.Stats.GetSensorStats(sensor.GetId()); ok {
			view.Average = &stats.Avg
			view.Window = &stats
		}
	}
	return view
}

func (h *handlers) getSensors(c echo.Context) error {
	var data []sensorView
	for _, sensor := range h.deps.Sensors.All() {
		data = append(data, h.sensorView(sensor))
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (h *handlers) getSensor(c echo.Context) error {
	id := c.Param(urlParamId)

	sensor, exists := h.deps.Sensors.Get(id)
	if !exists {
		return returnNotFound(c, id)
	} else {
		return c.JSONPretty(http.StatusOK, h.sensorView(sensor), indentationChar)
	}
}

// clears accumulated state of a sensor, e.g. a transferred volume
func (h *handlers) resetSensor(c echo.Context) error {
	id := c.Param(urlParamId)

	sensor, exists := h.deps.Sensors.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	sensor.Reset(time.Now())
	return c.JSONPretty(http.StatusOK, h.sensorView(sensor), indentationChar)
}
