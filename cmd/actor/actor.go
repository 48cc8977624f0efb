package actor

import (
	"context"
	"fmt"

	"github.com/brewgpio/brewgpio/internal"
	"github.com/brewgpio/brewgpio/internal/actors"
	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/messaging"
	"github.com/spf13/cobra"
)

var actorId string

var Command = &cobra.Command{
	Use:              "actor",
	Short:            "Actor related commands",
	TraverseChildren: true,
}

func init() {
	Command.PersistentFlags().StringVarP(
		&actorId,
		"id", "i",
		"",
		"Actor ID as specified in the config",
	)
	_ = Command.MarkPersistentFlagRequired("id")
}

// withActor connects to the board and broker as needed and calls f with the started actor
func withActor(id string, f func(actor actors.Actor) error) error {
	config := configuration.CurrentConfig

	var actorConfig *configuration.ActorConfig
	var availableIds []string
	for _, c := range config.Actors {
		availableIds = append(availableIds, c.ID)
		if c.ID == id {
			c := c
			actorConfig = &c
		}
	}
	if actorConfig == nil {
		return fmt.Errorf("no actor with id found: %s, options: %s", id, availableIds)
	}

	env := actors.Environment{}
	if actorConfig.Mqtt != nil {
		if config.Mqtt == nil {
			return fmt.Errorf("actor %s: no mqtt broker configured", id)
		}
		client := messaging.NewMqttClient(*config.Mqtt)
		if err := client.Connect(); err != nil {
			return err
		}
		defer client.Disconnect()
		env.Publisher = client
	} else {
		b, err := connectBoard(config.Board)
		if err != nil {
			return err
		}
		defer b.Close()
		env.Board = b
	}

	// a pump is driven manually here, its flow sensor is not polled
	if actorConfig.Pump != nil {
		pumpConfig := *actorConfig.Pump
		pumpConfig.FlowSensor = ""
		actorConfig.Pump = &pumpConfig
	}

	actor, err := actors.NewActor(*actorConfig, env)
	if err != nil {
		return err
	}
	if err := actor.Start(context.Background()); err != nil {
		return err
	}
	return f(actor)
}

func connectBoard(config configuration.BoardConfig) (board.Board, error) {
	b, err := internal.NewBoard(config)
	if err != nil {
		return nil, err
	}
	if err := b.Connect(); err != nil {
		return nil, err
	}
	return b, nil
}
