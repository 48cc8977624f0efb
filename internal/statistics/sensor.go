package statistics

import (
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/brewgpio/brewgpio/internal/util"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemSensor = "sensor"

// SensorStats provides the rolling window statistics of a sensor
type SensorStats interface {
	GetSensorStats(sensorId string) (util.WindowStats, bool)
}

type SensorCollector struct {
	sensors *sensors.Registry
	stats   SensorStats
	value   *prometheus.Desc
	avg     *prometheus.Desc
	flow    *prometheus.Desc
}

// NewSensorCollector creates a collector for all sensors of the registry, stats may be nil
func NewSensorCollector(sensors *sensors.Registry, stats SensorStats) *SensorCollector {
	return &SensorCollector{
		sensors: sensors,
		stats:   stats,
		value: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSensor, "value"),
			"Current value of the sensor, in its display unit",
			[]string{"id", "unit"}, nil,
		),
		avg: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSensor, "value_avg"),
			"Average of the recently polled values of the sensor",
			[]string{"id", "unit"}, nil,
		),
		flow: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSensor, "flow_rate"),
			"Latest flow rate in L/min published by a flow sensor",
			[]string{"id"}, nil,
		),
	}
}

func (collector *SensorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.value
	ch <- collector.avg
	ch <- collector.flow
}

// Collect implements required collect function for all prometheus collectors
func (collector *SensorCollector) Collect(ch chan<- prometheus.Metric) {
	for _, sensor := range collector.sensors.All() {
		if collector.stats != nil {
			if stats, ok := collector.stats.GetSensorStats(sensor.GetId()); ok {
				ch <- prometheus.MustNewConstMetric(collector.avg, prometheus.GaugeValue, stats.Avg, sensor.GetId(), sensor.GetUnit())
			}
		}
		value, err := sensor.GetValue()
		if err != nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(collector.value, prometheus.GaugeValue, value, sensor.GetId(), sensor.GetUnit())
	}
	for sensorId, rate := range collector.sensors.Flows().Items() {
		ch <- prometheus.MustNewConstMetric(collector.flow, prometheus.GaugeValue, rate, sensorId)
	}
}
