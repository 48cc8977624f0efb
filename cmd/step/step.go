package step

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brewgpio/brewgpio/cmd/global"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/persistence"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/spf13/cobra"
)

var stepId string

var Command = &cobra.Command{
	Use:              "step",
	Short:            "Step related commands",
	TraverseChildren: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all configured steps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		global.LoadConfig()

		tableString, err := global.RenderTable([]string{"ID", "Type", "Target"}, stepRows(configuration.CurrentConfig.Steps))
		if err != nil {
			return err
		}
		ui.Printfln(tableString)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the recorded results of a step",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		global.LoadConfig()

		if len(stepId) <= 0 {
			return errors.New("missing step id, use -i")
		}
		p := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
		results, err := p.LoadStepResults(stepId)
		if errors.Is(err, os.ErrNotExist) {
			ui.Info("No results recorded for step %s", stepId)
			return nil
		}
		if err != nil {
			return err
		}

		tableString, err := global.RenderTable([]string{"Start", "Duration", "Status", "Target", "Transferred", "Message"}, resultRows(results))
		if err != nil {
			return err
		}
		ui.Printfln(tableString)
		return nil
	},
}

func stepRows(configs []configuration.StepConfig) [][]string {
	var rows [][]string
	for _, config := range configs {
		switch {
		case config.Volume != nil:
			rows = append(rows, []string{config.ID, "volume", fmt.Sprintf("%.2f", config.Volume.Target)})
		case config.Cool != nil:
			target := "-"
			if config.Cool.TargetTemperature != nil {
				target = fmt.Sprintf("%.1f", *config.Cool.TargetTemperature)
			}
			rows = append(rows, []string{config.ID, "cool", target})
		}
	}
	return rows
}

func resultRows(results []persistence.StepResult) [][]string {
	var rows [][]string
	for _, result := range results {
		rows = append(rows, []string{
			result.Start.Format(time.DateTime),
			result.End.Sub(result.Start).Round(time.Second).String(),
			string(result.Status),
			fmt.Sprintf("%.2f", result.Target),
			fmt.Sprintf("%.2f %s", result.Transferred, result.Unit),
			result.Message,
		})
	}
	return rows
}

func init() {
	historyCmd.Flags().StringVarP(&stepId, "id", "i", "", "Step ID as specified in the config")
	Command.AddCommand(listCmd)
	Command.AddCommand(historyCmd)
}
