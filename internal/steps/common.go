package steps

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brewgpio/brewgpio/internal/actors"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/persistence"
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/brewgpio/brewgpio/internal/ui"
)

const (
	TypeVolume = "volume"
	TypeCool   = "cool"
)

type Step interface {
	GetId() string
	GetType() string
	GetConfig() configuration.StepConfig

	// Run executes the step until it is finished or ctx is done.
	// Missing collaborators are reported to the operator and finish the step with a failed result.
	Run(ctx context.Context) persistence.StepResult

	// GetSummary returns a short human readable progress description
	GetSummary() string
}

// Environment holds the collaborators steps are created with
type Environment struct {
	Sensors  *sensors.Registry
	Actors   *actors.Registry
	Notifier ui.Notifier
}

func NewStep(config configuration.StepConfig, env Environment) (Step, error) {
	if env.Notifier == nil {
		env.Notifier = ui.ConsoleNotifier{}
	}

	if config.Volume != nil {
		return &VolumeStep{
			Config: config,
			env:    env,
		}, nil
	}

	if config.Cool != nil {
		return &CoolStep{
			Config: config,
			env:    env,
		}, nil
	}

	return nil, fmt.Errorf("no matching step type for step: %s", config.ID)
}

// progress holds the summary shared by all steps
type progress struct {
	mu      sync.RWMutex
	summary string
}

func (p *progress) setSummary(format string, a ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary = fmt.Sprintf(format, a...)
}

func (p *progress) GetSummary() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.summary
}

func finish(result persistence.StepResult, status persistence.StepStatus, message string) persistence.StepResult {
	result.End = time.Now()
	result.Status = status
	result.Message = message
	return result
}

// switchOff switches the actor off, logging failures since the step is finishing anyway
func switchOff(stepId string, actor actors.Actor) {
	if err := actor.Off(); err != nil {
		ui.Error("Step %s: unable to switch off actor %s: %v", stepId, actor.GetId(), err)
	}
}
