package controller

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid controller config")

// Config holds the simulation parameters.
type Config struct {
	// DeployLatency is the delay between deploy and the start of cleaning.
	DeployLatency time.Duration `yaml:"deploy_latency"`
	// ReturnLatency is the delay between entering "returning" and idle.
	ReturnLatency time.Duration `yaml:"return_latency"`
	// TickInterval is the period of the cleaning simulation step.
	TickInterval time.Duration `yaml:"tick_interval"`
	// InitialBattery is the battery level at startup.
	InitialBattery int `yaml:"initial_battery"`
	// LowBatteryThreshold is the level the battery may never drain to.
	LowBatteryThreshold int `yaml:"low_battery_threshold"`
	// BatteryDrain is subtracted from the battery on every tick.
	BatteryDrain int `yaml:"battery_drain"`
	// ProgressStep is added to cleaning progress on every tick.
	ProgressStep int `yaml:"progress_step"`
	// Locations labels the robot position for each transition.
	Locations Locations `yaml:"locations"`
}

// Locations are the descriptive labels shown next to the status.
type Locations struct {
	Home       string `yaml:"home"`
	Cleaning   string `yaml:"cleaning"`
	Returning  string `yaml:"returning"`
	LowBattery string `yaml:"low_battery"`
}

// DefaultConfig returns the stock simulation parameters.
func DefaultConfig() *Config {
	return &Config{
		DeployLatency:       2 * time.Second,
		ReturnLatency:       3 * time.Second,
		TickInterval:        2 * time.Second,
		InitialBattery:      78,
		LowBatteryThreshold: 20,
		BatteryDrain:        1,
		ProgressStep:        3,
		Locations: Locations{
			Home:       "Home Base",
			Cleaning:   "Zone A - North Side",
			Returning:  "Returning...",
			LowBattery: "Returning (Low Battery)",
		},
	}
}

// Validate checks the configuration for values the controller cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.DeployLatency < 0 || c.ReturnLatency < 0:
		return fmt.Errorf("%w: latencies must not be negative", ErrInvalidConfig)
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: tick_interval must be positive", ErrInvalidConfig)
	case c.InitialBattery < 0 || c.InitialBattery > 100:
		return fmt.Errorf("%w: initial_battery %d out of range", ErrInvalidConfig, c.InitialBattery)
	case c.LowBatteryThreshold < 0 || c.LowBatteryThreshold > 100:
		return fmt.Errorf("%w: low_battery_threshold %d out of range", ErrInvalidConfig, c.LowBatteryThreshold)
	case c.BatteryDrain < 0 || c.ProgressStep <= 0:
		return fmt.Errorf("%w: battery_drain must be >= 0 and progress_step > 0", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads a YAML file and overlays it on the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFromHome loads ~/.cleanbot/config.yaml, returning the defaults
// when the file does not exist.
func LoadConfigFromHome() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfig(), nil
	}

	path := filepath.Join(home, ".cleanbot", "config.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}
