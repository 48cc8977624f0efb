package sensors

import (
	"github.com/brewgpio/brewgpio/internal/util"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Registry holds all sensors of the running process, keyed by id
type Registry struct {
	sensors cmap.ConcurrentMap[string, Sensor]
	flows   *FlowRegistry
}

func NewRegistry() *Registry {
	return &Registry{
		sensors: cmap.New[Sensor](),
		flows:   NewFlowRegistry(),
	}
}

func (r *Registry) Register(sensor Sensor) {
	r.sensors.Set(sensor.GetId(), sensor)
}

func (r *Registry) Get(id string) (Sensor, bool) {
	return r.sensors.Get(id)
}

// All returns all sensors, sorted by id
func (r *Registry) All() []Sensor {
	items := r.sensors.Items()
	result := make([]Sensor, 0, len(items))
	for _, id := range util.SortedKeys(items) {
		result = append(result, items[id])
	}
	return result
}

func (r *Registry) Flows() *FlowRegistry {
	return r.flows
}

// FlowRegistry holds the latest smoothed flow rate (L/min) of every flow sensor.
// It is written by flow sensors and read by pump controllers and steps.
type FlowRegistry struct {
	rates cmap.ConcurrentMap[string, float64]
}

func NewFlowRegistry() *FlowRegistry {
	return &FlowRegistry{
		rates: cmap.New[float64](),
	}
}

func (f *FlowRegistry) Publish(sensorId string, rate float64) {
	f.rates.Set(sensorId, rate)
}

// Rate returns the latest flow rate in L/min published by the given sensor
func (f *FlowRegistry) Rate(sensorId string) (float64, bool) {
	return f.rates.Get(sensorId)
}

func (f *FlowRegistry) Remove(sensorId string) {
	f.rates.Remove(sensorId)
}

// Items returns a snapshot of all published flow rates
func (f *FlowRegistry) Items() map[string]float64 {
	return f.rates.Items()
}
