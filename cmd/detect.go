package cmd

import (
	"github.com/brewgpio/brewgpio/cmd/global"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect serial ports",
	Long:  `Detects all serial ports a board might be connected to and prints them as a list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := enumerator.GetDetailedPortsList()
		if err != nil {
			return err
		}
		if len(ports) <= 0 {
			ui.Warning("No serial ports found")
			return nil
		}

		var rows [][]string
		for _, port := range ports {
			usb := "no"
			vidPid := ""
			if port.IsUSB {
				usb = "yes"
				vidPid = port.VID + ":" + port.PID
			}
			rows = append(rows, []string{port.Name, usb, vidPid, port.SerialNumber, port.Product})
		}

		tableString, err := global.RenderTable([]string{"Port", "USB", "VID:PID", "Serial", "Product"}, rows)
		if err != nil {
			return err
		}
		ui.Printfln(tableString)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
