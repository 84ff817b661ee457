package config

import (
	"errors"
)

// Sentinel errors for configuration failures.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
