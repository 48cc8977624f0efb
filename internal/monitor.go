package internal

import (
	"context"
	"sync"
	"time"

	"github.com/asecurityteam/rolling"
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
)

type SensorMonitor interface {
	Run(ctx context.Context) error
	// Update polls the sensor once and records the value
	Update(now time.Time) error
	// GetStats returns false as long as no value was recorded
	GetStats() (util.WindowStats, bool)
	GetSensorId() string
}

// SensorMonitors gives access to the recent values of all monitored sensors
type SensorMonitors []SensorMonitor

func (monitors SensorMonitors) GetSensorStats(sensorId string) (util.WindowStats, bool) {
	for _, monitor := range monitors {
		if monitor.GetSensorId() == sensorId {
			return monitor.GetStats()
		}
	}
	return util.WindowStats{}, false
}

type sensorMonitor struct {
	sensor      sensors.Sensor
	pollingRate time.Duration

	mu      sync.Mutex
	window  *rolling.PointPolicy
	samples int
	failing bool
}

func NewSensorMonitor(sensor sensors.Sensor, pollingRate time.Duration, windowSize int) SensorMonitor {
	if windowSize <= 0 {
		windowSize = 1
	}
	return &sensorMonitor{
		sensor:      sensor,
		pollingRate: pollingRate,
		window:      util.CreateRollingWindow(windowSize),
	}
}

func (s *sensorMonitor) Run(ctx context.Context) error {
	tick := time.NewTicker(s.pollingRate)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-tick.C:
			err := s.Update(now)
			if err != nil {
				if !s.failing {
					ui.Warning("Sensor %s: %v", s.sensor.GetId(), err)
				}
				s.failing = true
				continue
			}
			if s.failing {
				ui.Info("Sensor %s: recovered", s.sensor.GetId())
			}
			s.failing = false
		}
	}
}

func (s *sensorMonitor) Update(now time.Time) error {
	value, err := s.sensor.Poll(now)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.window.Append(value)
	s.samples++
	return nil
}

func (s *sensorMonitor) GetStats() (util.WindowStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.samples == 0 {
		return util.WindowStats{}, false
	}
	return util.GetWindowStats(s.window), true
}

func (s *sensorMonitor) GetSensorId() string {
	return s.sensor.GetId()
}
