// Package config provides YAML configuration for the No-IP updater daemon.
//
// Example configuration:
//
//	username: me@example.com
//	password: ${NOIP_PASSWORD}
//	interval: 5m
//	timeout: 10s
//	hostnames:
//	  - home.ddns.net
//	  - nas.ddns.net
//	port: 8080
//	log_file: noip_updater.log
//	timezone: America/Los_Angeles
//
// [Load] and [Parse] expand environment variables and validate the result.
// [Edit] rewrites the file in place, keeping variable references as written.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/spf13/pflag"
	"golang.org/x/net/idna"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/noipupdater"
)

const (
	// minInterval is the smallest polling interval a config file may ask
	// for. It keeps a typo from hammering the provider.
	minInterval = 1 * time.Second

	// minTimeout is the smallest per-request timeout.
	minTimeout = 1 * time.Second

	DefaultInterval = 5 * time.Minute
	DefaultTimeout  = 10 * time.Second
	DefaultPort     = 8080
	DefaultLogFile  = "noip_updater.log"
	DefaultTimezone = "America/Los_Angeles"
)

// Config is the root configuration structure.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Username is the provider account name.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Username string `yaml:"username,omitempty"`

	// Password is the provider account password.
	// Supports environment variable substitution.
	Password string `yaml:"password,omitempty"`

	// Interval is the pause between updates of one hostname. Defaults to 5m.
	Interval Duration `yaml:"interval,omitempty"`

	// Timeout bounds each update request. Defaults to 10s.
	Timeout Duration `yaml:"timeout,omitempty"`

	// Hostnames are the hostnames to keep updated.
	Hostnames []string `yaml:"hostnames,omitempty"`

	// UpdateURL overrides the provider endpoint, for local mock providers.
	// Supports environment variable substitution.
	UpdateURL string `yaml:"update_url,omitempty"`

	// Port is the dashboard HTTP port. Defaults to 8080.
	Port int `yaml:"port,omitempty"`

	// Title is the dashboard title.
	Title string `yaml:"title,omitempty"`

	// LogFile is the outcome journal path. Defaults to noip_updater.log.
	LogFile string `yaml:"log_file,omitempty"`

	// Timezone is the IANA zone journal timestamps are rendered in.
	// Defaults to America/Los_Angeles.
	Timezone string `yaml:"timezone,omitempty"`

	// StartPaused keeps polling stopped until it is started from the dashboard.
	StartPaused bool `yaml:"start_paused,omitempty"`
}

// Duration wraps time.Duration for YAML and command line flags.
//
// Duration implements [yaml.Unmarshaler], [yaml.Marshaler] and pflag.Value,
// so a flag can be bound directly to a config field.
type Duration time.Duration

var _ pflag.Value = (*Duration)(nil)

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.Set(s)
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Set parses s as a duration string such as "30s" or "5m".
func (d *Duration) Set(s string) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Type names the flag value type in help output.
func (d *Duration) Type() string {
	return "duration"
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in Username, Password and UpdateURL.
// Defaults are applied to every unset field, and hostnames are normalized
// to their ASCII form.
//
// Credentials and hostnames may be absent; starting polling without them is
// rejected by the engine instead, so a dashboard can still be served.
func Parse(data []byte) (*Config, error) {
	cfg, err := parseRaw(data)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseRaw decodes YAML without defaults, expansion or validation.
func parseRaw(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = Duration(DefaultInterval)
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(DefaultTimeout)
	}
	if c.UpdateURL == "" {
		c.UpdateURL = noipupdater.DefaultUpdateURL
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
}

// expand substitutes environment variables in the fields that allow them.
func (c *Config) expand() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"username", &c.Username},
		{"password", &c.Password},
		{"update_url", &c.UpdateURL},
	}
	for _, f := range fields {
		expanded, err := expandEnvVars(*f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}

// Validate checks a config with defaults applied and normalizes its
// hostnames in place.
func (c *Config) Validate() error {
	if c.Interval.Duration() < minInterval {
		return fmt.Errorf("interval must be at least %s, got %s", minInterval, c.Interval.Duration())
	}
	if c.Timeout.Duration() < minTimeout {
		return fmt.Errorf("timeout must be at least %s, got %s", minTimeout, c.Timeout.Duration())
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	parsedURL, err := url.Parse(c.UpdateURL)
	if err != nil {
		return fmt.Errorf("invalid update_url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("update_url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return errors.New("update_url must have a host")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	return c.normalizeHostnames()
}

// normalizeHostnames rewrites every hostname to its lower-case ASCII form
// and rejects blanks and duplicates.
func (c *Config) normalizeHostnames() error {
	seen := make(map[string]struct{}, len(c.Hostnames))
	for i, h := range c.Hostnames {
		normalized, err := NormalizeHostname(h)
		if err != nil {
			return fmt.Errorf("hostnames[%d]: %w", i, err)
		}
		if _, exists := seen[normalized]; exists {
			return fmt.Errorf("hostnames[%d]: %w: %q", i, noipupdater.ErrDuplicateHostname, normalized)
		}
		seen[normalized] = struct{}{}
		c.Hostnames[i] = normalized
	}
	return nil
}

// NormalizeHostname converts h to the lower-case ASCII form the provider
// expects. Internationalized names are converted to punycode and a trailing
// dot is dropped.
func NormalizeHostname(h string) (string, error) {
	h = strings.TrimSuffix(strings.TrimSpace(h), ".")
	if h == "" {
		return "", noipupdater.ErrEmptyHostname
	}
	ascii, err := idna.Lookup.ToASCII(h)
	if err != nil {
		return "", fmt.Errorf("invalid hostname %q: %w", h, err)
	}
	return ascii, nil
}
