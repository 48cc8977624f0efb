package configuration

import (
	"fmt"
	"testing"
	"time"

	"github.com/brewgpio/brewgpio/internal/units"
	"github.com/stretchr/testify/assert"
)

func validBaseConfig() Configuration {
	relayPin := 7
	return Configuration{
		Board: BoardConfig{
			Port:              "/dev/ttyACM0",
			Model:             "uno",
			ReportingInterval: 100 * time.Millisecond,
		},
		Sensors: []SensorConfig{
			{
				ID: "flow",
				Flow: &FlowSensorConfig{
					Pin:   1,
					Mode:  FlowSensorModeFlow,
					Alpha: 0.2,
					Unit:  units.Liter,
				},
			},
			{
				ID: "volume",
				Volume: &VolumeSensorConfig{
					Sensor:     "flow",
					FlowUnit:   units.Liter,
					VolumeUnit: units.GallonUS,
				},
			},
			{
				ID:   "wort_in",
				File: &FileSensorConfig{Path: "/tmp/in"},
			},
			{
				ID:   "wort_out",
				File: &FileSensorConfig{Path: "/tmp/out"},
			},
		},
		Actors: []ActorConfig{
			{
				ID:   "valve",
				Gpio: &GpioActorConfig{Pin: 8},
			},
			{
				ID: "pump",
				Pump: &PumpActorConfig{
					Pin:        9,
					RelayPin:   &relayPin,
					FlowSensor: "flow",
					Pid:        PidConfig{P: 2, I: 5, D: 1},
				},
			},
		},
		Steps: []StepConfig{
			{
				ID: "transfer",
				Volume: &VolumeStepConfig{
					Target: 20,
					Actor:  "valve",
					Sensor: "volume",
				},
			},
			{
				ID: "chill",
				Cool: &CoolStepConfig{
					SetPoint:     18,
					Pid:          PidConfig{P: 2, I: 5, D: 1},
					InputSensor:  "wort_in",
					OutputSensor: "wort_out",
					FlowSensor:   "flow",
					Pump:         "pump",
				},
			},
		},
	}
}

func TestValidateValidConfig(t *testing.T) {
	// GIVEN
	config := validBaseConfig()

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.NoError(t, err)
}

func TestValidateUnknownBoardModel(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Board.Model = "due"

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "board: unknown board model 'due', use one of: uno | nano | mega")
}

func TestValidateDuplicateSensorId(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors = append(config.Sensors, SensorConfig{
		ID:   "flow",
		File: &FileSensorConfig{Path: "abc"},
	})

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "duplicate sensor id detected: flow")
}

func TestValidateSensorSubConfigIsMissing(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors = append(config.Sensors, SensorConfig{ID: "empty"})

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor empty: sub-configuration for sensor is missing, use one of: flow | volume | pressure | file | cmd")
}

func TestValidateMultipleSensorSubConfigs(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors[0].File = &FileSensorConfig{Path: "abc"}

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor flow: only one sensor type can be used per sensor definition block")
}

func TestValidateFlowSensorPinNotAnalog(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors[0].Flow.Pin = 9

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor flow: pin 9 is not an analog input on uno boards")
}

func TestValidateFlowSensorInvalidAlpha(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors[0].Flow.Alpha = 1.5

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor flow: alpha must be within (0, 1], got 1.5")
}

func TestValidateFlowSensorWrongUnitDimension(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors[0].Flow.Unit = units.PSI

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor flow: unit 'PSI' is not a volume unit")
}

func TestValidateVolumeSensorMissingSource(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors[1].Volume.Sensor = "missing"

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor volume: no sensor definition with id 'missing' found")
}

func TestValidateVolumeSensorSelfReference(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors[1].Volume.Sensor = "volume"

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor volume: a sensor cannot reference itself")
}

func TestValidateSensorCycle(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors = append(config.Sensors,
		SensorConfig{ID: "a", Volume: &VolumeSensorConfig{Sensor: "b"}},
		SensorConfig{ID: "b", Volume: &VolumeSensorConfig{Sensor: "a"}},
	)

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.ErrorContains(t, err, "you have created a sensor dependency cycle")
}

func TestValidatePressureSensorEqualVoltages(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors = append(config.Sensors, SensorConfig{
		ID: "level",
		Pressure: &PressureSensorConfig{
			Pin:      2,
			VoltLow:  2,
			VoltHigh: 2,
		},
	})

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor level: voltHigh and voltLow must not be equal")
}

func TestValidatePressureSensorUnsupportedMode(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Sensors = append(config.Sensors, SensorConfig{
		ID: "level",
		Pressure: &PressureSensorConfig{
			Pin:      2,
			Mode:     "depth",
			VoltHigh: 4.5,
		},
	})

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor level: unsupported mode 'depth', use one of: voltage | digits | pressure | level | volume")
}

func TestValidateActorPinNotPwm(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Actors[1].Pump.Pin = 4

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "actor pump: pin 4 is not a PWM pin on uno boards")
}

func TestValidateDuplicateActorId(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Actors = append(config.Actors, ActorConfig{ID: "valve", Gpio: &GpioActorConfig{Pin: 2}})

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, fmt.Sprintf("duplicate actor id detected: %s", "valve"))
}

func TestValidatePumpAllPidConstantsZero(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Actors[1].Pump.Pid = PidConfig{}

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "actor pump: all PID constants are zero")
}

func TestValidateMqttActorWithoutBroker(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Actors = append(config.Actors, ActorConfig{ID: "remote", Mqtt: &MqttActorConfig{Topic: "brew/pump"}})

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "actor remote: mqtt actors require a broker in the mqtt configuration section")
}

func TestValidateVolumeStepUnknownActor(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Steps[0].Volume.Actor = "missing"

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "step transfer: no actor definition with id 'missing' found")
}

func TestValidateVolumeStepTarget(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Steps[0].Volume.Target = 0

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "step transfer: target volume must be > 0")
}

func TestValidateCoolStepRequiresOutputSensor(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Steps[1].Cool.OutputSensor = ""

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "step chill: output temperature sensor is required")
}

func TestValidateCoolStepPumpIsNotAPump(t *testing.T) {
	// GIVEN
	config := validBaseConfig()
	config.Steps[1].Cool.Pump = "valve"

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "step chill: actor 'valve' is not a pump")
}
