package actors

import (
	"context"
	"fmt"

	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
)

// GpioActor switches a relay on a digital pin
type GpioActor struct {
	base
	board board.Board
}

func NewGpioActor(config configuration.ActorConfig, env Environment) (*GpioActor, error) {
	if env.Board == nil {
		return nil, util.NewConfigurationError("actor "+config.ID, fmt.Errorf("no board available"))
	}
	actor := &GpioActor{
		base:  base{Config: config, levels: newLevels(1)},
		board: env.Board,
	}
	_ = actor.levels.setPower(100)
	return actor, nil
}

func (actor *GpioActor) Start(ctx context.Context) error {
	if err := actor.board.SetPinModeDigitalOutput(actor.Config.Gpio.Pin); err != nil {
		return util.NewConfigurationError("actor "+actor.GetId(), err)
	}
	return actor.Off()
}

func (actor *GpioActor) Run(ctx context.Context) error {
	return waitForDone(ctx)
}

func (actor *GpioActor) level(on bool) int {
	if on != actor.Config.Gpio.Inverted {
		return 1
	}
	return 0
}

func (actor *GpioActor) On() error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if actor.levels.power <= 0 {
		_ = actor.levels.setPower(100)
	}
	if err := actor.board.DigitalWrite(actor.Config.Gpio.Pin, actor.level(true)); err != nil {
		return err
	}
	actor.levels.state = true
	ui.Info("Actor %s: on (pin %d)", actor.GetId(), actor.Config.Gpio.Pin)
	return nil
}

func (actor *GpioActor) Off() error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if err := actor.board.DigitalWrite(actor.Config.Gpio.Pin, actor.level(false)); err != nil {
		return err
	}
	actor.levels.state = false
	ui.Info("Actor %s: off (pin %d)", actor.GetId(), actor.Config.Gpio.Pin)
	return nil
}

// SetPower switches the relay on for any power above 0, if the actor is on
func (actor *GpioActor) SetPower(percent float64) error {
	actor.mu.Lock()
	if err := actor.levels.setPower(percent); err != nil {
		actor.mu.Unlock()
		return err
	}
	on := actor.levels.state && actor.levels.output > 0
	actor.mu.Unlock()
	return actor.board.DigitalWrite(actor.Config.Gpio.Pin, actor.level(on))
}

func (actor *GpioActor) SetOutput(raw float64) error {
	return actor.SetPower(raw * 100)
}
