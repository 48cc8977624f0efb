package calibration

import (
	"github.com/brewgpio/brewgpio/cmd/global"
	"github.com/brewgpio/brewgpio/internal/calibration"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Overwrite the calibration file of a flow sensor with the default calibration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		global.LoadConfig()

		_, path, err := calibrationConfig(sensorId, configuration.CurrentConfig.Sensors)
		if err != nil {
			return err
		}
		if err := calibration.Save(path, calibration.DefaultFile()); err != nil {
			return err
		}
		ui.Success("Default calibration written to %s", path)
		return nil
	},
}

func init() {
	Command.AddCommand(resetCmd)
}
