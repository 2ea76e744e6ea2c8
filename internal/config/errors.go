package config

import "errors"

var (
	// ErrInvalidConfig wraps settings that parse but cannot run: empty addr,
	// an unknown store driver or narrative provider, a SQL driver without DSN.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading the YAML file or SMARTHR_* env.
	ErrLoadConfig = errors.New("load config failed")
)
