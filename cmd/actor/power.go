package actor

import (
	"context"
	"time"

	"github.com/brewgpio/brewgpio/cmd/global"
	"github.com/brewgpio/brewgpio/internal/actors"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/spf13/cobra"
)

var (
	power    float64
	holdTime time.Duration
)

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Switch an actor on with the given power level",
	Long: `Switches an actor on with the given power level, interpreted according to the addressing
of a pump and as percent for all other actors. The actor is switched off again after --hold.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		global.LoadConfig()

		return withActor(actorId, func(actor actors.Actor) error {
			var err error
			if pump, ok := actor.(*actors.PumpActor); ok {
				err = pump.Drive(power)
			} else {
				err = actor.SetPower(power)
			}
			if err != nil {
				return err
			}
			if err := actor.On(); err != nil {
				return err
			}
			ui.Success("Actor %s: on (power %d%%, output %d)", actor.GetId(), actor.GetPower(), actor.GetOutput())

			// ramps are driven by Run
			ctx, cancel := context.WithTimeout(context.Background(), holdTime)
			defer cancel()
			if err := actor.Run(ctx); err != nil {
				ui.Warning("Actor %s: %v", actor.GetId(), err)
			}
			return actor.Off()
		})
	},
}

var offCmd = &cobra.Command{
	Use:   "off",
	Short: "Switch an actor off",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		global.LoadConfig()

		return withActor(actorId, func(actor actors.Actor) error {
			// Start leaves every actor switched off
			ui.Success("Actor %s: off", actor.GetId())
			return nil
		})
	},
}

func init() {
	powerCmd.Flags().Float64VarP(&power, "power", "p", 100, "Power level")
	powerCmd.Flags().DurationVarP(&holdTime, "hold", "t", 10*time.Second, "How long the actor stays on")
	Command.AddCommand(powerCmd)
	Command.AddCommand(offCmd)
}
