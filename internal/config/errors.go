package config

import (
	"errors"
)

// Sentinel error kinds for this package. ErrInvalidConfig is the
// configuration error that aborts a run before any network activity.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
