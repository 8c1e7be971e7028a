package internal

import "github.com/starford/blockpad/internal/translate"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	completer translate.Completer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithCompleter sets the language model backend used by /translate.
// Without one the command reports that translation is unavailable.
func WithCompleter(c translate.Completer) Option {
	return func(a *application) {
		a.completer = c
	}
}
