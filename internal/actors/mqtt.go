package actors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/messaging"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
)

// MqttState is the retained payload published on every change of an MqttActor
type MqttState struct {
	State  string `json:"state"`
	Power  int    `json:"power"`
	Output int    `json:"output"`
}

// MqttActor publishes its state to a topic, e.g. for a satellite controller
type MqttActor struct {
	base
	publisher messaging.Publisher
}

func NewMqttActor(config configuration.ActorConfig, env Environment) (*MqttActor, error) {
	if env.Publisher == nil {
		return nil, util.NewConfigurationError("actor "+config.ID, fmt.Errorf("no mqtt connection available"))
	}
	maxOutput := config.Mqtt.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMqttMaxOutput
	}
	actor := &MqttActor{
		base:      base{Config: config, levels: newLevels(maxOutput)},
		publisher: env.Publisher,
	}
	_ = actor.levels.setPower(100)
	return actor, nil
}

func (actor *MqttActor) Start(ctx context.Context) error {
	return actor.Off()
}

func (actor *MqttActor) Run(ctx context.Context) error {
	return waitForDone(ctx)
}

func (actor *MqttActor) publish(state MqttState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return actor.publisher.Publish(actor.Config.Mqtt.Topic, actor.Config.Mqtt.Qos, true, payload)
}

func (actor *MqttActor) publishCurrent() error {
	if !actor.levels.state {
		return actor.publish(MqttState{State: "off"})
	}
	return actor.publish(MqttState{
		State:  "on",
		Power:  actor.levels.power,
		Output: actor.levels.output,
	})
}

func (actor *MqttActor) On() error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	previous := actor.levels.state
	actor.levels.state = true
	if err := actor.publishCurrent(); err != nil {
		actor.levels.state = previous
		return err
	}
	ui.Info("Actor %s: on (power %d%%, output %d)", actor.GetId(), actor.levels.power, actor.levels.output)
	return nil
}

func (actor *MqttActor) Off() error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if err := actor.publish(MqttState{State: "off"}); err != nil {
		return err
	}
	actor.levels.state = false
	ui.Info("Actor %s: off", actor.GetId())
	return nil
}

func (actor *MqttActor) SetPower(percent float64) error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if err := actor.levels.setPower(percent); err != nil {
		return err
	}
	return actor.publishCurrent()
}

func (actor *MqttActor) SetOutput(raw float64) error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if err := actor.levels.setOutput(raw); err != nil {
		return err
	}
	return actor.publishCurrent()
}
