// Package app provides the application context and dependency management
// for the pricebooster CLI. It centralizes configuration, logging, and
// construction of the merchant clients and sinks a run needs.
package app

import (
	"github.com/rs/zerolog"

	"github.com/google/price-visibility-booster/internal/transport"
	"github.com/google/price-visibility-booster/pkg/errors"
)

// App represents the pricebooster application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Authenticator builds the transport authenticator selected by the
// configured auth method.
func (a *App) Authenticator() (transport.Authenticator, error) {
	switch a.config.AuthMethod {
	case "adc":
		return transport.NewADC(transport.MerchantAPIScope), nil
	case "token":
		return &transport.StaticToken{Token: a.config.AccessToken}, nil
	case "none":
		return &transport.NoAuth{}, nil
	default:
		return nil, errors.NewConfigError("merchant_auth_method",
			"must be one of adc, token, none", nil)
	}
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
