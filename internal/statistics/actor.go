package statistics

import (
	"github.com/brewgpio/brewgpio/internal/actors"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemActor = "actor"

type ActorCollector struct {
	actors *actors.Registry

	state  *prometheus.Desc
	power  *prometheus.Desc
	output *prometheus.Desc

	pumpTargetFlow *prometheus.Desc
	pumpAutomatic  *prometheus.Desc
}

func NewActorCollector(actors *actors.Registry) *ActorCollector {
	return &ActorCollector{
		actors: actors,
		state: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemActor, "state"),
			"1 if the actor is switched on, 0 otherwise",
			[]string{"id"}, nil,
		),
		power: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemActor, "power"),
			"Power level of the actor in percent",
			[]string{"id"}, nil,
		),
		output: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemActor, "output"),
			"Raw output value of the actor",
			[]string{"id"}, nil,
		),
		pumpTargetFlow: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemActor, "pump_target_flow"),
			"Target flow rate in L/min of a pump, 0 without automatic control",
			[]string{"id"}, nil,
		),
		pumpAutomatic: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemActor, "pump_automatic"),
			"1 if the pump output is controlled by its flow rate",
			[]string{"id"}, nil,
		),
	}
}

func (collector *ActorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.state
	ch <- collector.power
	ch <- collector.output
	ch <- collector.pumpTargetFlow
	ch <- collector.pumpAutomatic
}

// Collect implements required collect function for all prometheus collectors
func (collector *ActorCollector) Collect(ch chan<- prometheus.Metric) {
	for _, actor := range collector.actors.All() {
		actorId := actor.GetId()
		ch <- prometheus.MustNewConstMetric(collector.state, prometheus.GaugeValue, boolToFloat(actor.GetState()), actorId)
		ch <- prometheus.MustNewConstMetric(collector.power, prometheus.GaugeValue, float64(actor.GetPower()), actorId)
		ch <- prometheus.MustNewConstMetric(collector.output, prometheus.GaugeValue, float64(actor.GetOutput()), actorId)

		switch pump := actor.(type) {
		case *actors.PumpActor:
			ch <- prometheus.MustNewConstMetric(collector.pumpTargetFlow, prometheus.GaugeValue, pump.GetTargetFlow(), actorId)
			ch <- prometheus.MustNewConstMetric(collector.pumpAutomatic, prometheus.GaugeValue, boolToFloat(pump.IsAutomatic()), actorId)
		}
	}
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
