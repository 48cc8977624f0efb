package calibration

import (
	"fmt"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/spf13/cobra"
)

var sensorId string

var Command = &cobra.Command{
	Use:              "calibration",
	Short:            "Flow sensor calibration related commands",
	TraverseChildren: true,
}

func init() {
	Command.PersistentFlags().StringVarP(
		&sensorId,
		"id", "i",
		"",
		"Flow sensor ID as specified in the config",
	)
	_ = Command.MarkPersistentFlagRequired("id")
}

// calibrationConfig returns the config and calibration file of a flow sensor
func calibrationConfig(id string, configs []configuration.SensorConfig) (configuration.SensorConfig, string, error) {
	var availableIds []string
	for _, config := range configs {
		if config.Flow == nil {
			continue
		}
		availableIds = append(availableIds, config.ID)
		if config.ID == id {
			return config, sensors.CalibrationPath(config, ""), nil
		}
	}
	return configuration.SensorConfig{}, "", fmt.Errorf("no flow sensor with id found: %s, options: %s", id, availableIds)
}
