package database

import "errors"

var (
	// ErrUnsupportedDriver indicates a driver other than postgres or sqlite was configured.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	// ErrInvalidConfig wraps every other Finalize validation failure.
	ErrInvalidConfig = errors.New("invalid database config")
)
