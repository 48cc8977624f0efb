package actors

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/messaging"
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/brewgpio/brewgpio/internal/util"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const (
	DefaultMaxOutput     = 255
	DefaultMqttMaxOutput = 100
)

type Actor interface {
	GetId() string

	GetConfig() configuration.ActorConfig

	// Start configures the hardware of the actor, the actor is off afterwards
	Start(ctx context.Context) error

	// Run blocks until ctx is done, driving the actor if it needs a control loop
	Run(ctx context.Context) error

	On() error
	Off() error

	// SetPower sets the power level in percent [0, 100]
	SetPower(percent float64) error
	// SetOutput sets the raw output level [0, GetMaxOutput()]
	SetOutput(raw float64) error

	// GetState returns true if the actor is switched on
	GetState() bool
	// GetPower returns the power level in percent
	GetPower() int
	// GetOutput returns the raw output level
	GetOutput() int
	GetMaxOutput() int
}

// Environment holds the collaborators actors are created with
type Environment struct {
	Board     board.Board
	Sensors   *sensors.Registry
	Publisher messaging.Publisher
}

func NewActor(config configuration.ActorConfig, env Environment) (Actor, error) {
	if config.Gpio != nil {
		return NewGpioActor(config, env)
	}

	if config.Pwm != nil {
		return NewPwmActor(config, env)
	}

	if config.Pump != nil {
		return NewPumpActor(config, env)
	}

	if config.Mqtt != nil {
		return NewMqttActor(config, env)
	}

	return nil, fmt.Errorf("no matching actor type for actor: %s", config.ID)
}

// levels keeps power (percent) and output (raw) of an actor consistent:
// output = round(maxOutput * power / 100) and power = round(100 * output / maxOutput)
type levels struct {
	maxOutput int
	state     bool
	power     int
	output    int
}

func newLevels(maxOutput int) levels {
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	return levels{maxOutput: maxOutput}
}

func (l *levels) setPower(percent float64) error {
	if !util.IsFinite(percent) {
		return fmt.Errorf("%w: power must be a finite number, got %v", util.ErrInvalidParameter, percent)
	}
	l.power = int(math.Round(util.Coerce(percent, 0, 100)))
	l.output = int(math.Round(float64(l.maxOutput) * float64(l.power) / 100))
	return nil
}

func (l *levels) setOutput(raw float64) error {
	if !util.IsFinite(raw) {
		return fmt.Errorf("%w: output must be a finite number, got %v", util.ErrInvalidParameter, raw)
	}
	l.output = int(math.Round(util.Coerce(raw, 0, float64(l.maxOutput))))
	l.power = int(math.Round(100 * float64(l.output) / float64(l.maxOutput)))
	return nil
}

// base implements the level bookkeeping shared by all actors
type base struct {
	Config configuration.ActorConfig

	mu     sync.RWMutex
	levels levels
}

func (a *base) GetId() string {
	return a.Config.ID
}

func (a *base) GetConfig() configuration.ActorConfig {
	return a.Config
}

func (a *base) GetState() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.levels.state
}

func (a *base) GetPower() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.levels.power
}

func (a *base) GetOutput() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.levels.output
}

func (a *base) GetMaxOutput() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.levels.maxOutput
}

// waitForDone is the Run implementation of actors without a control loop
func waitForDone(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// Registry holds all actors of the running process, keyed by id
type Registry struct {
	actors cmap.ConcurrentMap[string, Actor]
}

func NewRegistry() *Registry {
	return &Registry{
		actors: cmap.New[Actor](),
	}
}

func (r *Registry) Register(actor Actor) {
	r.actors.Set(actor.GetId(), actor)
}

func (r *Registry) Get(id string) (Actor, bool) {
	return r.actors.Get(id)
}

// All returns all actors, sorted by id
func (r *Registry) All() []Actor {
	items := r.actors.Items()
	result := make([]Actor, 0, len(items))
	for _, id := range util.SortedKeys(items) {
		result = append(result, items[id])
	}
	return result
}
