package types

import (
	"errors"
	"time"
)

// Config holds the application settings resolved from config.yaml, the
// environment and flags.
type Config struct {
	Transport      string        `json:"transport" yaml:"transport" mapstructure:"transport"`
	Server         string        `json:"server" yaml:"server" mapstructure:"server"`
	Token          string        `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	DataDir        string        `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	SearchDebounce time.Duration `json:"search_debounce" yaml:"search_debounce" mapstructure:"search_debounce"`
	PageSize       int           `json:"page_size" yaml:"page_size" mapstructure:"page_size"`
	LogLevel       string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// Supported transports.
const (
	TransportHTTP  = "http"
	TransportLocal = "local"
)

// Config validation errors.
var (
	ErrTransportEmpty   = errors.New("transport must not be empty")
	ErrTransportUnknown = errors.New("unknown transport")
	ErrServerEmpty      = errors.New("server URL must not be empty for the http transport")
	ErrPageSizeInvalid  = errors.New("page size must be positive")
	ErrTimeoutInvalid   = errors.New("timeout must not be negative")
)

// knownTransports lists the transports that Validate accepts.
var knownTransports = map[string]bool{
	TransportHTTP:  true,
	TransportLocal: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Transport == "" {
		return ErrTransportEmpty
	}
	if !knownTransports[c.Transport] {
		return ErrTransportUnknown
	}
	if c.Transport == TransportHTTP && c.Server == "" {
		return ErrServerEmpty
	}
	if c.PageSize < 0 {
		return ErrPageSizeInvalid
	}
	if c.Timeout < 0 {
		return ErrTimeoutInvalid
	}
	return nil
}
