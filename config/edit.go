package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/noipupdater"
)

// ErrHostnameNotFound is returned by [RemoveHostname] for an unknown hostname.
var ErrHostnameNotFound = errors.New("hostname not found")

// Edit loads the file at path without expanding environment variables or
// applying defaults, calls fn, and writes the result back with mode 0600.
//
// A missing file is treated as an empty configuration and created. Hostnames
// are normalized and checked for duplicates before anything is written; if fn
// or the check fails the file is left untouched.
func Edit(path string, fn func(*Config) error) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if cfg, err = parseRaw(data); err != nil {
			return nil, err
		}
	}

	if err := fn(cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalizeHostnames(); err != nil {
		return nil, err
	}
	if err := Save(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML with mode 0600, replacing the file
// atomically.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// AddHostname appends hostname to the file at path.
// Returns [noipupdater.ErrDuplicateHostname] if it is already listed.
func AddHostname(path, hostname string) (*Config, error) {
	normalized, err := NormalizeHostname(hostname)
	if err != nil {
		return nil, err
	}
	return Edit(path, func(c *Config) error {
		for _, h := range c.Hostnames {
			if existing, err := NormalizeHostname(h); err == nil && existing == normalized {
				return fmt.Errorf("%w: %q", noipupdater.ErrDuplicateHostname, normalized)
			}
		}
		c.Hostnames = append(c.Hostnames, normalized)
		return nil
	})
}

// RemoveHostname removes hostname from the file at path.
// Returns [ErrHostnameNotFound] if it is not listed.
func RemoveHostname(path, hostname string) (*Config, error) {
	normalized, err := NormalizeHostname(hostname)
	if err != nil {
		return nil, err
	}
	return Edit(path, func(c *Config) error {
		kept := c.Hostnames[:0]
		found := false
		for _, h := range c.Hostnames {
			if existing, err := NormalizeHostname(h); err == nil && existing == normalized {
				found = true
				continue
			}
			kept = append(kept, h)
		}
		if !found {
			return fmt.Errorf("%w: %q", ErrHostnameNotFound, normalized)
		}
		c.Hostnames = kept
		return nil
	})
}

// SetCredentials stores username and password in the file at path.
func SetCredentials(path, username, password string) (*Config, error) {
	if username == "" || password == "" {
		return nil, noipupdater.ErrEmptyCredentials
	}
	return Edit(path, func(c *Config) error {
		c.Username = username
		c.Password = password
		return nil
	})
}
