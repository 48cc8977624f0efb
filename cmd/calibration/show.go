package calibration

import (
	"fmt"

	"github.com/brewgpio/brewgpio/cmd/global"
	"github.com/brewgpio/brewgpio/internal/calibration"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
)

// analog inputs of the supported boards are 10 bit
const maxAdcValue = 1023

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the calibration points and the fitted curve of a flow sensor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		global.LoadConfig()

		config, path, err := calibrationConfig(sensorId, configuration.CurrentConfig.Sensors)
		if err != nil {
			return err
		}
		file, err := calibration.Load(path)
		if err != nil {
			return err
		}
		degree := config.Flow.Degree
		if degree <= 0 {
			degree = calibration.DefaultDegree
		}
		cal, err := file.Build(degree)
		if err != nil {
			return err
		}

		ui.Printfln("Calibration file: %s", path)
		ui.Printfln("Zero offset: %.2f", file.ZeroOffset)
		ui.Printfln("Curve: %s", cal.Curve.String())

		tableString, err := global.RenderTable([]string{"ADC", "Flow (L/min)", "Fitted (L/min)", "Deviation"}, pointRows(*file, cal))
		if err != nil {
			return err
		}
		ui.Printfln(tableString)

		values := curveValues(cal, 100)
		ui.Printfln("Flow range: %.2f - %.2f L/min", util.Min(values), util.Max(values))
		graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption("L/min / ADC"))
		ui.Printfln(graph)
		return nil
	},
}

func pointRows(file calibration.File, cal *calibration.Calibration) [][]string {
	var rows [][]string
	for _, point := range file.Points() {
		fitted := cal.Evaluate(point.X)
		rows = append(rows, []string{
			fmt.Sprintf("%.0f", point.X),
			fmt.Sprintf("%.2f", point.Y),
			fmt.Sprintf("%.2f", fitted),
			fmt.Sprintf("%+.2f", fitted-point.Y),
		})
	}
	return rows
}

// curveValues samples the calibration over the full ADC range
func curveValues(cal *calibration.Calibration, samples int) []float64 {
	values := make([]float64, 0, samples)
	for i := 0; i < samples; i++ {
		adc := float64(i) * maxAdcValue / float64(samples-1)
		values = append(values, cal.Evaluate(adc))
	}
	return values
}

func init() {
	Command.AddCommand(showCmd)
}
