// Package config loads server tuning from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every knob of the server. Defaults reproduce the game's
// original pacing.
type Config struct {
	ListenAddr string `env:"BRAIN_LISTEN_ADDR" envDefault:":8080"`

	// Journal
	JournalPath     string `env:"BRAIN_JOURNAL_PATH"` // Empty keeps the journal in memory only
	JournalCapacity int    `env:"BRAIN_JOURNAL_CAPACITY" envDefault:"5000"`

	// Passive production
	PassiveInterval time.Duration `env:"BRAIN_PASSIVE_INTERVAL" envDefault:"1s"`

	// Overload events
	OverloadRollInterval time.Duration `env:"BRAIN_OVERLOAD_ROLL_INTERVAL" envDefault:"15s"`
	OverloadChance       float64       `env:"BRAIN_OVERLOAD_CHANCE" envDefault:"0.15"`
	OverloadMultiplier   float64       `env:"BRAIN_OVERLOAD_MULTIPLIER" envDefault:"5"`
	OverloadDuration     int           `env:"BRAIN_OVERLOAD_DURATION" envDefault:"5"` // Seconds
	EventTickInterval    time.Duration `env:"BRAIN_EVENT_TICK_INTERVAL" envDefault:"1s"`

	// Eureka pickups
	EurekaRollInterval time.Duration `env:"BRAIN_EUREKA_ROLL_INTERVAL" envDefault:"20s"`
	EurekaChance       float64       `env:"BRAIN_EUREKA_CHANCE" envDefault:"0.25"`
	EurekaLifetime     time.Duration `env:"BRAIN_EUREKA_LIFETIME" envDefault:"5s"`

	// Combo
	ComboWindow time.Duration `env:"BRAIN_COMBO_WINDOW" envDefault:"1s"`

	SchedulerResolution time.Duration `env:"BRAIN_SCHEDULER_RESOLUTION" envDefault:"50ms"`

	// Transport
	BroadcastBuffer      int `env:"BRAIN_BROADCAST_BUFFER" envDefault:"256"`
	ClientSendBuffer     int `env:"BRAIN_CLIENT_SEND_BUFFER" envDefault:"64"`
	MaxMessagesPerSecond int `env:"BRAIN_MAX_MESSAGES_PER_SECOND" envDefault:"30"`

	Seed int64 `env:"BRAIN_SEED"` // 0 seeds from the wall clock
}

// Load reads the optional .env files, then the process environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in defaults without touching the environment.
func Default() Config {
	var cfg Config
	// Parsing an empty environment only applies envDefault tags.
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic("config: invalid defaults: " + err.Error())
	}
	return cfg
}

// Validate reports every field that would break the game loop.
func (c Config) Validate() error {
	var errs []error

	positive := map[string]time.Duration{
		"BRAIN_PASSIVE_INTERVAL":       c.PassiveInterval,
		"BRAIN_OVERLOAD_ROLL_INTERVAL": c.OverloadRollInterval,
		"BRAIN_EVENT_TICK_INTERVAL":    c.EventTickInterval,
		"BRAIN_EUREKA_ROLL_INTERVAL":   c.EurekaRollInterval,
		"BRAIN_EUREKA_LIFETIME":        c.EurekaLifetime,
		"BRAIN_COMBO_WINDOW":           c.ComboWindow,
		"BRAIN_SCHEDULER_RESOLUTION":   c.SchedulerResolution,
	}
	for _, name := range slices.Sorted(maps.Keys(positive)) {
		if positive[name] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, positive[name]))
		}
	}

	if c.OverloadChance < 0 || c.OverloadChance > 1 {
		errs = append(errs, fmt.Errorf("BRAIN_OVERLOAD_CHANCE must be within [0,1], got %v", c.OverloadChance))
	}
	if c.EurekaChance < 0 || c.EurekaChance > 1 {
		errs = append(errs, fmt.Errorf("BRAIN_EUREKA_CHANCE must be within [0,1], got %v", c.EurekaChance))
	}
	if c.OverloadMultiplier < 1 {
		errs = append(errs, fmt.Errorf("BRAIN_OVERLOAD_MULTIPLIER must be at least 1, got %v", c.OverloadMultiplier))
	}
	if c.OverloadDuration <= 0 {
		errs = append(errs, fmt.Errorf("BRAIN_OVERLOAD_DURATION must be positive, got %d", c.OverloadDuration))
	}
	if c.JournalCapacity <= 0 {
		errs = append(errs, fmt.Errorf("BRAIN_JOURNAL_CAPACITY must be positive, got %d", c.JournalCapacity))
	}
	if c.BroadcastBuffer <= 0 || c.ClientSendBuffer <= 0 {
		errs = append(errs, errors.New("BRAIN_BROADCAST_BUFFER and BRAIN_CLIENT_SEND_BUFFER must be positive"))
	}
	if c.MaxMessagesPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("BRAIN_MAX_MESSAGES_PER_SECOND must be positive, got %d", c.MaxMessagesPerSecond))
	}

	return errors.Join(errs...)
}
