package configuration

import "time"

type ActorConfig struct {
	ID   string           `json:"id"`
	Gpio *GpioActorConfig `json:"gpio,omitempty"`
	Pwm  *PwmActorConfig  `json:"pwm,omitempty"`
	Pump *PumpActorConfig `json:"pump,omitempty"`
	Mqtt *MqttActorConfig `json:"mqtt,omitempty"`
}

type GpioActorConfig struct {
	Pin int `json:"pin"`
	// Active on low
	Inverted bool `json:"inverted"`
}

type PwmActorConfig struct {
	Pin int `json:"pin"`
	// Power in percent applied when the actor is switched on the first time
	InitialPower float64 `json:"initialPower"`
	// Maximum raw output value, 0 means default (255)
	MaxOutput int `json:"maxOutput"`
	// Maximum change of the raw output per second, 0 applies changes immediately
	Ramp float64 `json:"ramp"`
}

type PumpAddressing string

const (
	PumpAddressingPercent PumpAddressing = "percent"
	PumpAddressingRaw     PumpAddressing = "raw"
)

type PumpActorConfig struct {
	// PWM pin driving the pump
	Pin int `json:"pin"`
	// Optional digital pin of a relay that powers the pump
	RelayPin *int `json:"relayPin,omitempty"`
	// Maximum raw output value, 0 means default (255)
	MaxOutput int `json:"maxOutput"`
	// How manual power levels are interpreted: percent | raw
	Addressing PumpAddressing `json:"addressing"`
	// Power level applied when the pump is switched on without automatic control
	InitialPower float64 `json:"initialPower"`
	// Flow sensor used as process variable of the PID loop
	FlowSensor string `json:"flowSensor"`
	// Initial flow rate setpoint, 0 disables automatic control until a flow rate is set
	TargetFlow float64   `json:"targetFlow"`
	Pid        PidConfig `json:"pid"`
}

type PidConfig struct {
	P float64 `json:"p"`
	I float64 `json:"i"`
	D float64 `json:"d"`
	// Bound of the integral term, 0 means unbounded
	WindupGuard float64 `json:"windupGuard"`
	// Minimum time between two PID computations, 0 recomputes on every update
	SampleTime time.Duration `json:"sampleTime"`
}

type MqttActorConfig struct {
	Topic string `json:"topic"`
	// Maximum raw output value, 0 means default (100)
	MaxOutput int  `json:"maxOutput"`
	Qos       byte `json:"qos"`
}
