package configuration

import (
	"fmt"
	"strings"

	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/units"
	"github.com/brewgpio/brewgpio/internal/util"
	"github.com/looplab/tarjan"
	"golang.org/x/exp/slices"
)

func Validate(configPath string) error {
	return validateConfig(&CurrentConfig, configPath)
}

func validateConfig(config *Configuration, path string) error {
	model, err := validateBoard(config)
	if err != nil {
		return err
	}
	err = validateSensors(config, model)
	if err != nil {
		return err
	}
	err = validateActors(config, model)
	if err != nil {
		return err
	}
	err = validateSteps(config)
	if err != nil {
		return err
	}

	if containsCmdSensors(config) {
		if _, err := util.CheckFilePermissionsForExecution(path); err != nil {
			return fmt.Errorf("config file '%s' has invalid permissions: %s", path, err)
		}
	}

	return nil
}

func containsCmdSensors(config *Configuration) bool {
	for _, sensorConfig := range config.Sensors {
		if sensorConfig.Cmd != nil {
			return true
		}
	}
	return false
}

func validateBoard(config *Configuration) (board.Model, error) {
	model, err := board.ModelByName(config.Board.Model)
	if err != nil {
		return board.Model{}, fmt.Errorf("board: %v", err)
	}
	if !config.Board.Simulate && len(config.Board.Port) <= 0 {
		return board.Model{}, fmt.Errorf("board: missing serial port")
	}
	if len(config.FlowUnit) > 0 {
		if err := validateUnit(config.FlowUnit, units.Volume); err != nil {
			return board.Model{}, fmt.Errorf("flowUnit: %v", err)
		}
	}
	return model, nil
}

func validateSensors(config *Configuration, model board.Model) error {
	var ids []string
	graph := make(map[interface{}][]interface{})

	for _, sensorConfig := range config.Sensors {
		if len(sensorConfig.ID) <= 0 {
			return fmt.Errorf("sensor: missing id")
		}
		if slices.Contains(ids, sensorConfig.ID) {
			return fmt.Errorf("duplicate sensor id detected: %s", sensorConfig.ID)
		}
		ids = append(ids, sensorConfig.ID)

		subConfigs := 0
		if sensorConfig.Flow != nil {
			subConfigs++
		}
		if sensorConfig.Volume != nil {
			subConfigs++
		}
		if sensorConfig.Pressure != nil {
			subConfigs++
		}
		if sensorConfig.File != nil {
			subConfigs++
		}
		if sensorConfig.Cmd != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return fmt.Errorf("sensor %s: only one sensor type can be used per sensor definition block", sensorConfig.ID)
		}
		if subConfigs <= 0 {
			return fmt.Errorf("sensor %s: sub-configuration for sensor is missing, use one of: flow | volume | pressure | file | cmd", sensorConfig.ID)
		}

		if !isSensorConfigInUse(sensorConfig, config) {
			ui.Warning("Unused sensor configuration: %s", sensorConfig.ID)
		}

		if sensorConfig.Flow != nil {
			if err := validateFlowSensor(sensorConfig.ID, sensorConfig.Flow, model); err != nil {
				return err
			}
		}

		if sensorConfig.Volume != nil {
			volumeConfig := sensorConfig.Volume
			if len(volumeConfig.Sensor) <= 0 {
				return fmt.Errorf("sensor %s: missing source sensor", sensorConfig.ID)
			}
			if volumeConfig.Sensor == sensorConfig.ID {
				return fmt.Errorf("sensor %s: a sensor cannot reference itself", sensorConfig.ID)
			}
			if !sensorIdExists(volumeConfig.Sensor, config) {
				return fmt.Errorf("sensor %s: no sensor definition with id '%s' found", sensorConfig.ID, volumeConfig.Sensor)
			}
			if err := validateAlpha(volumeConfig.Alpha); err != nil {
				return fmt.Errorf("sensor %s: %v", sensorConfig.ID, err)
			}
			for _, unit := range []units.Unit{volumeConfig.FlowUnit, volumeConfig.VolumeUnit} {
				if len(unit) <= 0 {
					continue
				}
				if err := validateUnit(unit, units.Volume); err != nil {
					return fmt.Errorf("sensor %s: %v", sensorConfig.ID, err)
				}
			}
			graph[sensorConfig.ID] = []interface{}{volumeConfig.Sensor}
		}

		if sensorConfig.Pressure != nil {
			if err := validatePressureSensor(sensorConfig.ID, sensorConfig.Pressure, model); err != nil {
				return err
			}
		}

		if sensorConfig.File != nil {
			if len(sensorConfig.File.Path) <= 0 {
				return fmt.Errorf("sensor %s: no file path provided", sensorConfig.ID)
			}
		}

		if sensorConfig.Cmd != nil {
			if len(sensorConfig.Cmd.Exec) <= 0 {
				return fmt.Errorf("sensor %s: executable is missing", sensorConfig.ID)
			}
		}
	}

	return validateNoLoops(graph)
}

func validateFlowSensor(id string, flowConfig *FlowSensorConfig, model board.Model) error {
	if !model.IsAnalogPin(flowConfig.Pin) {
		return fmt.Errorf("sensor %s: pin %d is not an analog input on %s boards", id, flowConfig.Pin, model.Name)
	}
	if len(flowConfig.Mode) > 0 {
		supportedModes := []FlowSensorMode{FlowSensorModeAdc, FlowSensorModeFlow, FlowSensorModeVolume}
		if !slices.Contains(supportedModes, flowConfig.Mode) {
			return fmt.Errorf("sensor %s: unsupported mode '%s', use one of: adc | flow | volume", id, flowConfig.Mode)
		}
	}
	if err := validateAlpha(flowConfig.Alpha); err != nil {
		return fmt.Errorf("sensor %s: %v", id, err)
	}
	if len(flowConfig.Unit) > 0 {
		if err := validateUnit(flowConfig.Unit, units.Volume); err != nil {
			return fmt.Errorf("sensor %s: %v", id, err)
		}
	}
	if flowConfig.Degree < 0 {
		return fmt.Errorf("sensor %s: invalid calibration degree, must be >= 0", id)
	}
	return nil
}

func validatePressureSensor(id string, pressureConfig *PressureSensorConfig, model board.Model) error {
	if !model.IsAnalogPin(pressureConfig.Pin) {
		return fmt.Errorf("sensor %s: pin %d is not an analog input on %s boards", id, pressureConfig.Pin, model.Name)
	}
	if len(pressureConfig.Mode) > 0 {
		supportedModes := []PressureSensorMode{
			PressureSensorModeVoltage, PressureSensorModeDigits, PressureSensorModePressure,
			PressureSensorModeLevel, PressureSensorModeVolume,
		}
		if !slices.Contains(supportedModes, pressureConfig.Mode) {
			var names []string
			for _, mode := range supportedModes {
				names = append(names, string(mode))
			}
			return fmt.Errorf("sensor %s: unsupported mode '%s', use one of: %s", id, pressureConfig.Mode, strings.Join(names, " | "))
		}
	}
	if pressureConfig.VoltHigh == pressureConfig.VoltLow {
		return fmt.Errorf("sensor %s: voltHigh and voltLow must not be equal", id)
	}
	if pressureConfig.ReferenceVoltage < 0 {
		return fmt.Errorf("sensor %s: invalid reference voltage, must be > 0", id)
	}
	if pressureConfig.KettleDiameter < 0 || pressureConfig.SensorHeight < 0 {
		return fmt.Errorf("sensor %s: kettle dimensions must not be negative", id)
	}
	if err := validateAlpha(pressureConfig.Alpha); err != nil {
		return fmt.Errorf("sensor %s: %v", id, err)
	}
	expected := map[units.Unit]units.Dimension{
		pressureConfig.PressureUnit: units.Pressure,
		pressureConfig.LengthUnit:   units.Length,
		pressureConfig.VolumeUnit:   units.Volume,
	}
	for unit, dimension := range expected {
		if len(unit) <= 0 {
			continue
		}
		if err := validateUnit(unit, dimension); err != nil {
			return fmt.Errorf("sensor %s: %v", id, err)
		}
	}
	return nil
}

func validateAlpha(alpha float64) error {
	if !util.IsFinite(alpha) || alpha < 0 || alpha > 1 {
		return fmt.Errorf("alpha must be within (0, 1], got %v", alpha)
	}
	return nil
}

func validateUnit(unit units.Unit, dimension units.Dimension) error {
	if !unit.Valid() {
		return fmt.Errorf("unsupported unit '%s'", unit)
	}
	if unit.Dimension() != dimension {
		return fmt.Errorf("unit '%s' is not a %s unit", unit, dimension)
	}
	return nil
}

func isSensorConfigInUse(sensorConfig SensorConfig, config *Configuration) bool {
	for _, other := range config.Sensors {
		if other.Volume != nil && other.Volume.Sensor == sensorConfig.ID {
			return true
		}
	}
	for _, actorConfig := range config.Actors {
		if actorConfig.Pump != nil && actorConfig.Pump.FlowSensor == sensorConfig.ID {
			return true
		}
	}
	for _, stepConfig := range config.Steps {
		if stepConfig.Volume != nil && stepConfig.Volume.Sensor == sensorConfig.ID {
			return true
		}
		if stepConfig.Cool != nil {
			cool := stepConfig.Cool
			referenced := []string{cool.InputSensor, cool.OutputSensor, cool.FlowSensor, cool.VolumeSensor}
			if slices.Contains(referenced, sensorConfig.ID) {
				return true
			}
		}
	}
	return false
}

func sensorIdExists(sensorId string, config *Configuration) bool {
	for _, sensor := range config.Sensors {
		if sensor.ID == sensorId {
			return true
		}
	}
	return false
}

func validateNoLoops(graph map[interface{}][]interface{}) error {
	output := tarjan.Connections(graph)
	for _, items := range output {
		if len(items) > 1 {
			return fmt.Errorf("you have created a sensor dependency cycle: %v", items)
		}
	}
	return nil
}

func validateActors(config *Configuration, model board.Model) error {
	var ids []string

	for _, actorConfig := range config.Actors {
		if len(actorConfig.ID) <= 0 {
			return fmt.Errorf("actor: missing id")
		}
		if slices.Contains(ids, actorConfig.ID) {
			return fmt.Errorf("duplicate actor id detected: %s", actorConfig.ID)
		}
		ids = append(ids, actorConfig.ID)

		subConfigs := 0
		if actorConfig.Gpio != nil {
			subConfigs++
		}
		if actorConfig.Pwm != nil {
			subConfigs++
		}
		if actorConfig.Pump != nil {
			subConfigs++
		}
		if actorConfig.Mqtt != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return fmt.Errorf("actor %s: only one actor type can be used per actor definition block", actorConfig.ID)
		}
		if subConfigs <= 0 {
			return fmt.Errorf("actor %s: sub-configuration for actor is missing, use one of: gpio | pwm | pump | mqtt", actorConfig.ID)
		}

		if actorConfig.Gpio != nil {
			if !model.IsDigitalPin(actorConfig.Gpio.Pin) {
				return fmt.Errorf("actor %s: pin %d is not a digital pin on %s boards", actorConfig.ID, actorConfig.Gpio.Pin, model.Name)
			}
		}

		if actorConfig.Pwm != nil {
			pwmConfig := actorConfig.Pwm
			if !model.IsPwmPin(pwmConfig.Pin) {
				return fmt.Errorf("actor %s: pin %d is not a PWM pin on %s boards", actorConfig.ID, pwmConfig.Pin, model.Name)
			}
			if err := validateMaxOutput(pwmConfig.MaxOutput); err != nil {
				return fmt.Errorf("actor %s: %v", actorConfig.ID, err)
			}
			if pwmConfig.InitialPower < 0 || pwmConfig.InitialPower > 100 {
				return fmt.Errorf("actor %s: initial power must be within [0, 100]", actorConfig.ID)
			}
			if pwmConfig.Ramp < 0 {
				return fmt.Errorf("actor %s: ramp must not be negative", actorConfig.ID)
			}
		}

		if actorConfig.Pump != nil {
			if err := validatePumpActor(actorConfig.ID, actorConfig.Pump, model, config); err != nil {
				return err
			}
		}

		if actorConfig.Mqtt != nil {
			if len(actorConfig.Mqtt.Topic) <= 0 {
				return fmt.Errorf("actor %s: missing mqtt topic", actorConfig.ID)
			}
			if config.Mqtt == nil || len(config.Mqtt.Broker) <= 0 {
				return fmt.Errorf("actor %s: mqtt actors require a broker in the mqtt configuration section", actorConfig.ID)
			}
			if actorConfig.Mqtt.Qos > 2 {
				return fmt.Errorf("actor %s: invalid qos %d, use one of: 0 | 1 | 2", actorConfig.ID, actorConfig.Mqtt.Qos)
			}
			if err := validateMaxOutput(actorConfig.Mqtt.MaxOutput); err != nil {
				return fmt.Errorf("actor %s: %v", actorConfig.ID, err)
			}
		}
	}

	return nil
}

func validatePumpActor(id string, pumpConfig *PumpActorConfig, model board.Model, config *Configuration) error {
	if !model.IsPwmPin(pumpConfig.Pin) {
		return fmt.Errorf("actor %s: pin %d is not a PWM pin on %s boards", id, pumpConfig.Pin, model.Name)
	}
	if pumpConfig.RelayPin != nil {
		if !model.IsDigitalPin(*pumpConfig.RelayPin) {
			return fmt.Errorf("actor %s: relay pin %d is not a digital pin on %s boards", id, *pumpConfig.RelayPin, model.Name)
		}
		if *pumpConfig.RelayPin == pumpConfig.Pin {
			return fmt.Errorf("actor %s: relay pin and pwm pin must not be the same", id)
		}
	}
	if err := validateMaxOutput(pumpConfig.MaxOutput); err != nil {
		return fmt.Errorf("actor %s: %v", id, err)
	}
	if len(pumpConfig.Addressing) > 0 {
		supported := []PumpAddressing{PumpAddressingPercent, PumpAddressingRaw}
		if !slices.Contains(supported, pumpConfig.Addressing) {
			return fmt.Errorf("actor %s: unsupported addressing '%s', use one of: percent | raw", id, pumpConfig.Addressing)
		}
	}
	if len(pumpConfig.FlowSensor) > 0 {
		if !sensorIdExists(pumpConfig.FlowSensor, config) {
			return fmt.Errorf("actor %s: no sensor definition with id '%s' found", id, pumpConfig.FlowSensor)
		}
		if err := validatePid(pumpConfig.Pid); err != nil {
			return fmt.Errorf("actor %s: %v", id, err)
		}
	}
	if pumpConfig.TargetFlow < 0 {
		return fmt.Errorf("actor %s: target flow must not be negative", id)
	}
	return nil
}

func validateMaxOutput(maxOutput int) error {
	if maxOutput < 0 || maxOutput > 255 {
		return fmt.Errorf("max output must be within [1, 255], got %d", maxOutput)
	}
	return nil
}

func validatePid(pidConfig PidConfig) error {
	for _, value := range []float64{pidConfig.P, pidConfig.I, pidConfig.D, pidConfig.WindupGuard} {
		if !util.IsFinite(value) {
			return fmt.Errorf("PID constants must be finite numbers")
		}
	}
	if pidConfig.P == 0 && pidConfig.I == 0 && pidConfig.D == 0 {
		return fmt.Errorf("all PID constants are zero")
	}
	if pidConfig.SampleTime < 0 {
		return fmt.Errorf("PID sample time must not be negative")
	}
	return nil
}

func actorById(actorId string, config *Configuration) (ActorConfig, bool) {
	for _, actor := range config.Actors {
		if actor.ID == actorId {
			return actor, true
		}
	}
	return ActorConfig{}, false
}

func validateSteps(config *Configuration) error {
	var ids []string

	for _, stepConfig := range config.Steps {
		if len(stepConfig.ID) <= 0 {
			return fmt.Errorf("step: missing id")
		}
		if slices.Contains(ids, stepConfig.ID) {
			return fmt.Errorf("duplicate step id detected: %s", stepConfig.ID)
		}
		ids = append(ids, stepConfig.ID)

		subConfigs := 0
		if stepConfig.Volume != nil {
			subConfigs++
		}
		if stepConfig.Cool != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return fmt.Errorf("step %s: only one step type can be used per step definition block", stepConfig.ID)
		}
		if subConfigs <= 0 {
			return fmt.Errorf("step %s: sub-configuration for step is missing, use one of: volume | cool", stepConfig.ID)
		}

		if stepConfig.Volume != nil {
			volumeConfig := stepConfig.Volume
			if !util.IsFinite(volumeConfig.Target) || volumeConfig.Target <= 0 {
				return fmt.Errorf("step %s: target volume must be > 0", stepConfig.ID)
			}
			if len(volumeConfig.Actor) <= 0 {
				return fmt.Errorf("step %s: missing actor", stepConfig.ID)
			}
			if _, ok := actorById(volumeConfig.Actor, config); !ok {
				return fmt.Errorf("step %s: no actor definition with id '%s' found", stepConfig.ID, volumeConfig.Actor)
			}
			if len(volumeConfig.Sensor) <= 0 {
				return fmt.Errorf("step %s: missing sensor", stepConfig.ID)
			}
			if !sensorIdExists(volumeConfig.Sensor, config) {
				return fmt.Errorf("step %s: no sensor definition with id '%s' found", stepConfig.ID, volumeConfig.Sensor)
			}
		}

		if stepConfig.Cool != nil {
			if err := validateCoolStep(stepConfig.ID, stepConfig.Cool, config); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateCoolStep(id string, coolConfig *CoolStepConfig, config *Configuration) error {
	if len(coolConfig.OutputSensor) <= 0 {
		return fmt.Errorf("step %s: output temperature sensor is required", id)
	}
	if len(coolConfig.FlowSensor) <= 0 {
		return fmt.Errorf("step %s: flow sensor is required", id)
	}
	for _, sensorId := range []string{coolConfig.InputSensor, coolConfig.OutputSensor, coolConfig.FlowSensor, coolConfig.VolumeSensor} {
		if len(sensorId) > 0 && !sensorIdExists(sensorId, config) {
			return fmt.Errorf("step %s: no sensor definition with id '%s' found", id, sensorId)
		}
	}
	if len(coolConfig.Pump) <= 0 {
		return fmt.Errorf("step %s: missing pump", id)
	}
	pump, ok := actorById(coolConfig.Pump, config)
	if !ok {
		return fmt.Errorf("step %s: no actor definition with id '%s' found", id, coolConfig.Pump)
	}
	if pump.Pump == nil {
		return fmt.Errorf("step %s: actor '%s' is not a pump", id, coolConfig.Pump)
	}
	if err := validatePid(coolConfig.Pid); err != nil {
		return fmt.Errorf("step %s: %v", id, err)
	}
	if coolConfig.MinFlowThreshold < 0 {
		return fmt.Errorf("step %s: minimum flow threshold must not be negative", id)
	}
	if coolConfig.MinFlowPower < 0 || coolConfig.MinFlowPower > 100 {
		return fmt.Errorf("step %s: minimum flow power must be within [0, 100]", id)
	}
	return nil
}
