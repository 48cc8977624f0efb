package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/brewgpio/brewgpio/cmd/global"
	"github.com/brewgpio/brewgpio/internal"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	sensorId string
	duration time.Duration
)

var Command = &cobra.Command{
	Use:              "sensor",
	Short:            "Print the current value of a sensor",
	Long:             `Connects to the board, polls all configured sensors for the given duration and prints the value of the given sensor`,
	TraverseChildren: true,
	Args:             cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()
		global.LoadConfig()

		value, unit, err := readSensor(sensorId, duration)
		if err != nil {
			return err
		}
		pterm.EnableOutput()
		ui.Printfln("%.2f %s", value, unit)
		return nil
	},
}

func init() {
	Command.PersistentFlags().StringVarP(
		&sensorId,
		"id", "i",
		"",
		"Sensor ID as specified in the config",
	)
	_ = Command.MarkPersistentFlagRequired("id")
	Command.Flags().DurationVarP(&duration, "duration", "d", 1*time.Second, "How long to poll before printing the value")
}

func readSensor(id string, duration time.Duration) (float64, string, error) {
	config := configuration.CurrentConfig
	if _, ok := findSensorConfig(id, config.Sensors); !ok {
		return 0, "", fmt.Errorf("no sensor with id found: %s, options: %s", id, sensorIds(config.Sensors))
	}

	b, err := internal.NewBoard(config.Board)
	if err != nil {
		return 0, "", err
	}
	if err := b.Connect(); err != nil {
		return 0, "", err
	}
	defer b.Close()

	// steps and actors are not needed to read a sensor
	config.Steps = nil
	config.Actors = nil
	objects, err := internal.InitializeObjects(context.Background(), config, b, nil, nil)
	if err != nil {
		return 0, "", err
	}

	pollingRate := config.SensorPollingRate
	if pollingRate <= 0 || pollingRate > duration {
		pollingRate = duration
	}
	deadline := time.Now().Add(duration)
	for {
		time.Sleep(pollingRate)
		now := time.Now()
		for _, monitor := range objects.Monitors {
			if err := monitor.Update(now); err != nil {
				ui.Debug("%v", err)
			}
		}
		if !now.Before(deadline) {
			break
		}
	}

	sensor, _ := objects.Sensors.Get(id)
	value, err := sensor.GetValue()
	return value, sensor.GetUnit(), err
}

func findSensorConfig(id string, configs []configuration.SensorConfig) (configuration.SensorConfig, bool) {
	for _, config := range configs {
		if config.ID == id {
			return config, true
		}
	}
	return configuration.SensorConfig{}, false
}

func sensorIds(configs []configuration.SensorConfig) []string {
	var result []string
	for _, config := range configs {
		result = append(result, config.ID)
	}
	return result
}

