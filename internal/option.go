package internal

import "github.com/devassist/companion/internal/remote"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	remote remote.API
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithRemote overrides the remote client, primarily for tests.
func WithRemote(api remote.API) Option {
	return func(a *application) {
		a.remote = api
	}
}
