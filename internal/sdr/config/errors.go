package config

import "errors"

// ErrConfig is the sentinel wrapped by every configuration validation
// failure (the ConfigError taxonomy entry: fatal, surfaced before any
// acquisition begins).
var ErrConfig = errors.New("config error")
