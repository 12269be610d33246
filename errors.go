package noipupdater

import "errors"

// Configuration errors returned synchronously by [Supervisor.Start] and the
// constructors in this package. Compare with [errors.Is].
var (
	// ErrEmptyCredentials indicates the username or password is empty.
	ErrEmptyCredentials = errors.New("username and password are required")

	// ErrEmptyHostnameSet indicates there is no hostname to update.
	ErrEmptyHostnameSet = errors.New("at least one hostname is required")

	// ErrInvalidInterval indicates a zero or negative polling interval.
	ErrInvalidInterval = errors.New("polling interval must be positive")

	// ErrEmptyHostname indicates a blank hostname.
	ErrEmptyHostname = errors.New("hostname cannot be empty")

	// ErrDuplicateHostname indicates the same hostname was given twice.
	ErrDuplicateHostname = errors.New("duplicate hostname")
)
