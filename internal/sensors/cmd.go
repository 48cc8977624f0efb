package sensors

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
)

const cmdTimeout = 2 * time.Second

// CmdSensor runs an executable and parses its output as a number
type CmdSensor struct {
	Config configuration.SensorConfig `json:"configuration"`

	mu    sync.RWMutex
	ctx   context.Context
	value float64
}

func (sensor *CmdSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *CmdSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor *CmdSensor) Start(ctx context.Context) error {
	sensor.mu.Lock()
	sensor.ctx = ctx
	sensor.mu.Unlock()
	_, err := sensor.Poll(time.Now())
	return err
}

func (sensor *CmdSensor) Poll(now time.Time) (float64, error) {
	sensor.mu.RLock()
	ctx := sensor.ctx
	previous := sensor.value
	sensor.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}

	exec := sensor.Config.Cmd.Exec
	result, err := util.SafeCmdExecution(ctx, exec, sensor.Config.Cmd.Args, cmdTimeout)
	if err != nil {
		return previous, fmt.Errorf("sensor %s: %s", sensor.GetId(), err.Error())
	}

	value, err := strconv.ParseFloat(result, 64)
	if err != nil {
		ui.Warning("sensor %s: Unable to read number from command output: %s", sensor.GetId(), exec)
		return previous, err
	}

	sensor.mu.Lock()
	defer sensor.mu.Unlock()
	sensor.value = value * scaleOrDefault(sensor.Config.Cmd.Scale)
	return sensor.value, nil
}

func (sensor *CmdSensor) GetValue() (float64, error) {
	sensor.mu.RLock()
	defer sensor.mu.RUnlock()
	return sensor.value, nil
}

func (sensor *CmdSensor) GetUnit() string {
	return ""
}

func (sensor *CmdSensor) Reset(now time.Time) {}
