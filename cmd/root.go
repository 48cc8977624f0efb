package cmd

import (
	"fmt"
	"os"

	"github.com/brewgpio/brewgpio/cmd/actor"
	"github.com/brewgpio/brewgpio/cmd/calibration"
	"github.com/brewgpio/brewgpio/cmd/config"
	"github.com/brewgpio/brewgpio/cmd/global"
	"github.com/brewgpio/brewgpio/cmd/sensor"
	"github.com/brewgpio/brewgpio/cmd/step"
	"github.com/brewgpio/brewgpio/internal"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "brewgpio",
	Short: "A daemon driving the sensors, pumps and valves of a brewery.",
	Long: `brewgpio reads flow and pressure sensors attached to an Arduino,
controls pumps and valves and runs volume transfer and cooling steps.`,
	// this is the default command to run when no subcommand is specified
	Run: func(cmd *cobra.Command, args []string) {
		setupUi()
		printHeader()

		configuration.ReadConfigFile()
		err := configuration.Validate(configuration.ConfigFileUsed())
		if err != nil {
			ui.ErrorAndNotify("Config Validation Error", err.Error())
			return
		}

		internal.RunDaemon()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&global.CfgFile, "config", "c", "", "config file (default is $HOME/brewgpio.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&global.NoColor, "no-color", "", false, "Disable all terminal output coloration")
	rootCmd.PersistentFlags().BoolVarP(&global.NoStyle, "no-style", "", false, "Disable all terminal output styling")
	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "More verbose output")

	rootCmd.AddCommand(config.Command)

	rootCmd.AddCommand(sensor.Command)
	rootCmd.AddCommand(calibration.Command)
	rootCmd.AddCommand(actor.Command)
	rootCmd.AddCommand(step.Command)
}

func setupUi() {
	ui.SetDebugEnabled(global.Verbose)

	if global.NoColor {
		pterm.DisableColor()
	}
	if global.NoStyle {
		pterm.DisableStyling()
	}
}

// Print a large text with the LetterStyle from the standard theme.
func printHeader() {
	err := pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("brew", pterm.NewStyle(pterm.FgYellow)),
		pterm.NewLettersFromStringWithStyle("gpio", pterm.NewStyle(pterm.FgWhite)),
	).Render()
	if err != nil {
		fmt.Println("brewgpio")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.OnInitialize(func() {
		setupUi()
		configuration.InitConfig(global.CfgFile)
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
