package noipupdater

import (
	"fmt"
	"strings"
	"time"
)

// Credentials are the provider account credentials.
//
// Credentials are opaque to the polling engine: they are never validated
// beyond being non-empty and are passed through to every update request.
type Credentials struct {
	Username string
	Password string
}

// Empty reports whether the username or the password is missing.
func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// String hides the password so credentials can be logged safely.
func (c Credentials) String() string {
	return fmt.Sprintf("%s:***", c.Username)
}

// HostnameSet is an immutable set of hostnames.
//
// HostnameSet is created with [NewHostnameSet], which rejects blank and
// duplicate entries. The zero value is an empty set. Insertion order is kept
// for display only; it does not affect polling.
type HostnameSet struct {
	names []string
}

// NewHostnameSet builds a [HostnameSet] from the given hostnames.
//
// Surrounding whitespace is trimmed. Returns [ErrEmptyHostname] for a blank
// entry and [ErrDuplicateHostname] when a hostname appears twice.
func NewHostnameSet(hostnames ...string) (HostnameSet, error) {
	names := make([]string, 0, len(hostnames))
	seen := make(map[string]struct{}, len(hostnames))
	for i, h := range hostnames {
		h = strings.TrimSpace(h)
		if h == "" {
			return HostnameSet{}, fmt.Errorf("hostnames[%d]: %w", i, ErrEmptyHostname)
		}
		if _, exists := seen[h]; exists {
			return HostnameSet{}, fmt.Errorf("%w: %q", ErrDuplicateHostname, h)
		}
		seen[h] = struct{}{}
		names = append(names, h)
	}
	return HostnameSet{names: names}, nil
}

// MustHostnameSet is like [NewHostnameSet] but panics on error.
// It is intended for tests and static configuration.
func MustHostnameSet(hostnames ...string) HostnameSet {
	set, err := NewHostnameSet(hostnames...)
	if err != nil {
		panic(err)
	}
	return set
}

// Len returns the number of hostnames in the set.
func (s HostnameSet) Len() int {
	return len(s.names)
}

// Contains reports whether hostname is in the set.
func (s HostnameSet) Contains(hostname string) bool {
	for _, h := range s.names {
		if h == hostname {
			return true
		}
	}
	return false
}

// Hostnames returns a copy of the hostnames in insertion order.
func (s HostnameSet) Hostnames() []string {
	return append([]string(nil), s.names...)
}

// PollConfig is the snapshot a [Supervisor] polls with.
//
// [Supervisor.Start] copies the PollConfig it is given; changing the caller's
// value afterwards has no effect on running workers. Stop and Start again to
// apply a new configuration.
type PollConfig struct {
	// Credentials are sent with every update request.
	Credentials Credentials

	// Interval is the pause between consecutive updates of one hostname.
	Interval time.Duration

	// Hostnames is the set of hostnames to keep updated.
	Hostnames HostnameSet
}

// Validate checks the configuration errors that prevent polling from starting.
//
// Returns [ErrEmptyCredentials], [ErrEmptyHostnameSet] or
// [ErrInvalidInterval], checked in that order.
func (c PollConfig) Validate() error {
	if c.Credentials.Empty() {
		return ErrEmptyCredentials
	}
	if c.Hostnames.Len() == 0 {
		return ErrEmptyHostnameSet
	}
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	return nil
}
