package actors

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMqttActor(t *testing.T, publisher messaging.Publisher) *MqttActor {
	actor, err := NewMqttActor(configuration.ActorConfig{
		ID:   "chiller",
		Mqtt: &configuration.MqttActorConfig{Topic: "brewery/chiller", Qos: 1},
	}, Environment{Publisher: publisher})
	require.NoError(t, err)
	require.NoError(t, actor.Start(context.Background()))
	return actor
}

func lastState(t *testing.T, publisher *messaging.RecordingPublisher) MqttState {
	message, ok := publisher.Last()
	require.True(t, ok)
	assert.Equal(t, "brewery/chiller", message.Topic)
	assert.Equal(t, byte(1), message.Qos)
	assert.True(t, message.Retained)

	var state MqttState
	require.NoError(t, json.Unmarshal(message.Payload, &state))
	return state
}

func TestMqttActor_StartPublishesOff(t *testing.T) {
	// GIVEN
	publisher := &messaging.RecordingPublisher{}

	// WHEN
	actor := createMqttActor(t, publisher)

	// THEN
	assert.False(t, actor.GetState())
	assert.Equal(t, MqttState{State: "off"}, lastState(t, publisher))
	assert.Equal(t, DefaultMqttMaxOutput, actor.GetMaxOutput())
}

func TestMqttActor_OnAndSetPower(t *testing.T) {
	// GIVEN
	publisher := &messaging.RecordingPublisher{}
	actor := createMqttActor(t, publisher)

	// WHEN
	require.NoError(t, actor.On())

	// THEN
	assert.Equal(t, MqttState{State: "on", Power: 100, Output: 100}, lastState(t, publisher))

	// WHEN
	require.NoError(t, actor.SetPower(35))

	// THEN
	assert.Equal(t, MqttState{State: "on", Power: 35, Output: 35}, lastState(t, publisher))
}

func TestMqttActor_SetOutputWhileOff(t *testing.T) {
	// GIVEN
	publisher := &messaging.RecordingPublisher{}
	actor := createMqttActor(t, publisher)

	// WHEN
	err := actor.SetOutput(60)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, MqttState{State: "off"}, lastState(t, publisher))
	assert.Equal(t, 60, actor.GetPower())
}

func TestMqttActor_PublishErrorKeepsState(t *testing.T) {
	// GIVEN
	publisher := &messaging.RecordingPublisher{}
	actor := createMqttActor(t, publisher)
	publisher.SetError(errors.New("not connected"))

	// WHEN
	err := actor.On()

	// THEN
	assert.EqualError(t, err, "not connected")
	assert.False(t, actor.GetState())
}

func TestMqttActor_RequiresPublisher(t *testing.T) {
	// WHEN
	_, err := NewMqttActor(configuration.ActorConfig{
		ID:   "chiller",
		Mqtt: &configuration.MqttActorConfig{Topic: "brewery/chiller"},
	}, Environment{})

	// THEN
	assert.EqualError(t, err, "actor chiller: invalid configuration: no mqtt connection available")
}
