package config

import (
	"encoding/json"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Prints the effective configuration, including default values, as YAML",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()
		configuration.ReadConfigFile()
		pterm.EnableOutput()

		out, err := marshalYaml(configuration.CurrentConfig)
		if err != nil {
			return err
		}
		ui.Printf("%s", out)
		return nil
	},
}

// marshalYaml renders the configuration using its json field names
func marshalYaml(config configuration.Configuration) (string, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func init() {
	Command.AddCommand(printCmd)
}
