package statistics

import (
	"github.com/brewgpio/brewgpio/internal/steps"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemStep = "step"

type StepCollector struct {
	runner  *steps.Runner
	running *prometheus.Desc
}

func NewStepCollector(runner *steps.Runner) *StepCollector {
	return &StepCollector{
		runner: runner,
		running: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemStep, "running"),
			"1 if the step is running right now",
			[]string{"id", "type"}, nil,
		),
	}
}

func (collector *StepCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.running
}

// Collect implements required collect function for all prometheus collectors
func (collector *StepCollector) Collect(ch chan<- prometheus.Metric) {
	current, ok := collector.runner.Current()
	for _, step := range collector.runner.Steps() {
		running := ok && current.GetId() == step.GetId()
		ch <- prometheus.MustNewConstMetric(collector.running, prometheus.GaugeValue, boolToFloat(running), step.GetId(), step.GetType())
	}
}
