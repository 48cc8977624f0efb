package configuration

import (
	"fmt"
	"os"
	"time"

	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/units"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	Board BoardConfig `json:"board"`

	// Unit used to display flow rates and volumes if a sensor does not configure one
	FlowUnit units.Unit `json:"flowUnit"`

	SensorPollingRate       time.Duration `json:"sensorPollingRate"`
	SensorRollingWindowSize int           `json:"sensorRollingWindowSize"`

	Notifications NotificationConfig `json:"notifications"`
	Mqtt          *MqttConfig        `json:"mqtt,omitempty"`
	Api           ApiConfig          `json:"api"`
	Statistics    StatisticsConfig   `json:"statistics"`
	Profiling     ProfilingConfig    `json:"profiling"`

	Sensors []SensorConfig `json:"sensors"`
	Actors  []ActorConfig  `json:"actors"`
	Steps   []StepConfig   `json:"steps"`

	// Run the configured steps in order once the daemon has started
	RunStepsOnStart bool `json:"runStepsOnStart"`
}

type NotificationConfig struct {
	// send desktop notifications in addition to logging them
	Desktop bool `json:"desktop"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("brewgpio")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/brewgpio/")
	}

	viper.SetEnvPrefix("brewgpio")
	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbPath", "/etc/brewgpio/brewgpio.db")

	viper.SetDefault("board.port", "/dev/ttyACM0")
	viper.SetDefault("board.model", "uno")
	viper.SetDefault("board.simulate", false)
	viper.SetDefault("board.reportingInterval", 100*time.Millisecond)

	viper.SetDefault("flowUnit", units.Liter)

	viper.SetDefault("sensorPollingRate", 1*time.Second)
	viper.SetDefault("runStepsOnStart", true)
	viper.SetDefault("sensorRollingWindowSize", 60)

	viper.SetDefault("notifications.desktop", false)

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.host", "localhost")
	viper.SetDefault("api.port", 9001)

	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9000)

	viper.SetDefault("profiling.enabled", false)
	viper.SetDefault("profiling.host", "localhost")
	viper.SetDefault("profiling.port", 6060)

	viper.SetDefault("sensors", []SensorConfig{})
	viper.SetDefault("actors", []ActorConfig{})
	viper.SetDefault("steps", []StepConfig{})
}

// ReadConfigFile reads, decodes and validates the configuration file found by InitConfig
func ReadConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		// config file is required, so we fail here
		ui.Fatal("Error reading config file, %s", err)
	}
	// this is only populated _after_ ReadInConfig()
	ui.Info("Using configuration file at: %s", viper.ConfigFileUsed())

	if err := LoadConfig(); err != nil {
		ui.Fatal("%v", err)
	}
}

// ConfigFileUsed returns the path of the configuration file that has been read
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// LoadConfig decodes the current viper state into CurrentConfig
func LoadConfig() error {
	var config Configuration
	err := viper.Unmarshal(&config, viper.DecodeHook(DecodeHook()))
	if err != nil {
		return fmt.Errorf("unable to decode into struct, %v", err)
	}
	CurrentConfig = config
	return nil
}

// DecodeHook combines all decode hooks required to decode a Configuration
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		UnitHookFunc(),
		DefaultTrueBoolHookFunc(),
	)
}
