package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brewgpio/brewgpio/internal/actors"
	"github.com/brewgpio/brewgpio/internal/api"
	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/messaging"
	"github.com/brewgpio/brewgpio/internal/persistence"
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/brewgpio/brewgpio/internal/statistics"
	"github.com/brewgpio/brewgpio/internal/steps"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Objects holds everything created from the configuration
type Objects struct {
	Board       board.Board
	Sensors     *sensors.Registry
	Actors      *actors.Registry
	Runner      *steps.Runner
	Persistence persistence.Persistence
	Monitors    SensorMonitors
}

func RunDaemon() {
	config := configuration.CurrentConfig

	pers := persistence.NewPersistence(config.DbPath)
	if err := pers.Init(); err != nil {
		ui.Fatal("Unable to initialize persistence at %s: %v", config.DbPath, err)
	}

	b, err := NewBoard(config.Board)
	if err != nil {
		ui.Fatal("%v", err)
	}
	if err := b.Connect(); err != nil {
		ui.Fatal("Unable to connect to board: %v", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			ui.Warning("Error closing board: %v", err)
		}
	}()

	var publisher messaging.Publisher
	if config.Mqtt != nil {
		mqttClient := messaging.NewMqttClient(*config.Mqtt)
		if err := mqttClient.Connect(); err != nil {
			ui.Fatal("%v", err)
		}
		defer mqttClient.Disconnect()
		publisher = mqttClient
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	objects, err := InitializeObjects(ctx, config, b, pers, publisher)
	if err != nil {
		ui.Fatal("%v", err)
	}

	var g run.Group
	{
		if config.Statistics.Enabled {
			statistics.Register(statistics.NewSensorCollector(objects.Sensors, objects.Monitors))
			statistics.Register(statistics.NewActorCollector(objects.Actors))
			statistics.Register(statistics.NewStepCollector(objects.Runner))

			// === Prometheus Exporter
			port := config.Statistics.Port
			if port <= 0 || port >= 65535 {
				port = 9000
			}
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
			addHttpServer(&g, "statistics", server)
		}
	}
	{
		if config.Profiling.Enabled {
			mux := http.NewServeMux()
			mux.HandleFunc("/debug/pprof/", pprof.Index)
			mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
			mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
			mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
			mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
			addr := fmt.Sprintf("%s:%d", config.Profiling.Host, config.Profiling.Port)
			server := &http.Server{Addr: addr, Handler: mux}
			addHttpServer(&g, "profiling", server)
		}
	}
	{
		if config.Api.Enabled {
			rest := api.CreateRestService(api.Dependencies{
				Context:     ctx,
				Sensors:     objects.Sensors,
				Stats:       objects.Monitors,
				Actors:      objects.Actors,
				Runner:      objects.Runner,
				Persistence: objects.Persistence,
				Metrics:     config.Statistics.Enabled,
			})
			addr := fmt.Sprintf("%s:%d", config.Api.Host, config.Api.Port)

			g.Add(func() error {
				ui.Info("Starting REST api on %s", addr)
				if err := rest.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}, func(err error) {
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := rest.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping REST api: %v", err)
				}
			})
		}
	}
	{
		// === sensor monitoring
		for _, monitor := range objects.Monitors {
			m := monitor

			g.Add(func() error {
				return m.Run(ctx)
			}, func(err error) {
				cancel()
			})
		}
	}
	{
		// === actor control loops
		for _, actor := range objects.Actors.All() {
			a := actor

			g.Add(func() error {
				err := a.Run(ctx)
				ui.Info("Actor %s stopped.", a.GetId())
				return err
			}, func(err error) {
				cancel()
				if err := a.Off(); err != nil {
					ui.Warning("Unable to switch off actor %s: %v", a.GetId(), err)
				}
			})
		}
	}
	{
		if config.RunStepsOnStart && len(objects.Runner.Steps()) > 0 {
			g.Add(func() error {
				if err := objects.Runner.RunAll(ctx); err != nil {
					ui.Warning("Unable to run steps: %v", err)
				}
				<-ctx.Done()
				return nil
			}, func(err error) {
				cancel()
			})
		}
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case <-sig:
				ui.Info("Received SIGTERM signal, exiting...")
			case <-ctx.Done():
			}
			return nil
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
	}
}

func addHttpServer(g *run.Group, name string, server *http.Server) {
	g.Add(func() error {
		ui.Info("Starting %s server on %s", name, server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ui.Error("Cannot start %s server (%s)", name, err.Error())
			return err
		}
		return nil
	}, func(err error) {
		ui.Info("Stopping %s server...", name)
		timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			ui.Warning("Error stopping %s server: %v", name, err)
		}
	})
}

// NewBoard creates the board described by the configuration, it is not connected yet
func NewBoard(config configuration.BoardConfig) (board.Board, error) {
	model, err := board.ModelByName(config.Model)
	if err != nil {
		return nil, err
	}
	if config.Simulate {
		return board.NewSimulatedBoard(model, true), nil
	}
	return board.NewFirmataBoard(config.Port, model), nil
}

// InitializeObjects creates and starts all sensors, actors and steps of the configuration.
// b must be connected, publisher may be nil if no MQTT actors are configured.
func InitializeObjects(ctx context.Context, config configuration.Configuration, b board.Board, pers persistence.Persistence, publisher messaging.Publisher) (*Objects, error) {
	objects := &Objects{
		Board:       b,
		Sensors:     sensors.NewRegistry(),
		Actors:      actors.NewRegistry(),
		Persistence: pers,
	}

	sensorEnv := sensors.Environment{
		Board:             b,
		Registry:          objects.Sensors,
		ReportingInterval: config.Board.ReportingInterval,
		DefaultUnit:       config.FlowUnit,
	}
	for _, sensorConfig := range config.Sensors {
		sensor, err := sensors.NewSensor(sensorConfig, sensorEnv)
		if err != nil {
			return nil, fmt.Errorf("unable to process sensor configuration %s: %w", sensorConfig.ID, err)
		}
		if err := sensor.Start(ctx); err != nil {
			return nil, fmt.Errorf("unable to start sensor %s: %w", sensorConfig.ID, err)
		}
		objects.Sensors.Register(sensor)
		objects.Monitors = append(objects.Monitors, NewSensorMonitor(sensor, config.SensorPollingRate, config.SensorRollingWindowSize))
	}

	actorEnv := actors.Environment{
		Board:     b,
		Sensors:   objects.Sensors,
		Publisher: publisher,
	}
	for _, actorConfig := range config.Actors {
		actor, err := actors.NewActor(actorConfig, actorEnv)
		if err != nil {
			return nil, fmt.Errorf("unable to process actor configuration %s: %w", actorConfig.ID, err)
		}
		if err := actor.Start(ctx); err != nil {
			return nil, fmt.Errorf("unable to start actor %s: %w", actorConfig.ID, err)
		}
		objects.Actors.Register(actor)
	}

	stepEnv := steps.Environment{
		Sensors:  objects.Sensors,
		Actors:   objects.Actors,
		Notifier: ui.ConsoleNotifier{Desktop: config.Notifications.Desktop},
	}
	var stepList []steps.Step
	for _, stepConfig := range config.Steps {
		step, err := steps.NewStep(stepConfig, stepEnv)
		if err != nil {
			return nil, fmt.Errorf("unable to process step configuration %s: %w", stepConfig.ID, err)
		}
		stepList = append(stepList, step)
	}
	objects.Runner = steps.NewRunner(stepList, pers)

	return objects, nil
}
