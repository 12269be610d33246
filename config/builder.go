package config

import (
	"fmt"
	"time"

	"github.com/jpalmerr/noipupdater"
)

// BuildPollConfig converts a loaded configuration into the engine's
// [noipupdater.PollConfig].
//
// It does not require credentials or hostnames to be present; call
// [noipupdater.PollConfig.Validate] or let [noipupdater.Supervisor.Start]
// report what is missing.
func BuildPollConfig(cfg *Config) (noipupdater.PollConfig, error) {
	hosts, err := noipupdater.NewHostnameSet(cfg.Hostnames...)
	if err != nil {
		return noipupdater.PollConfig{}, fmt.Errorf("hostnames: %w", err)
	}
	return noipupdater.PollConfig{
		Credentials: noipupdater.Credentials{
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Interval:  cfg.Interval.Duration(),
		Hostnames: hosts,
	}, nil
}

// BuildOptions returns the supervisor options the configuration implies.
func BuildOptions(cfg *Config) []noipupdater.Option {
	var opts []noipupdater.Option
	if cfg.UpdateURL != "" {
		opts = append(opts, noipupdater.WithUpdateURL(cfg.UpdateURL))
	}
	if cfg.Timeout != 0 {
		opts = append(opts, noipupdater.WithRequestTimeout(cfg.Timeout.Duration()))
	}
	return opts
}

// Location loads the configured time zone, falling back to UTC when none
// is set.
func Location(cfg *Config) (*time.Location, error) {
	if cfg.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return loc, nil
}
