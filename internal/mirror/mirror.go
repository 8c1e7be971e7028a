// Package mirror copies saved snapshot documents to secondary destinations.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/blockpad/internal/storage"
)

// Destination is a copy target for saved documents.
type Destination interface {
	// Write stores data under key, replacing any previous copy.
	Write(ctx context.Context, key string, data []byte) error
}

// Mirror fans a saved document out to every destination.
type Mirror struct {
	destinations []Destination
	logger       *slog.Logger
}

// New creates a mirror over destinations.
func New(logger *slog.Logger, destinations ...Destination) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{destinations: destinations, logger: logger}
}

// Enabled reports whether there is anywhere to copy to.
func (m *Mirror) Enabled() bool {
	return m != nil && len(m.destinations) > 0
}

// Write copies data under key to every destination. All destinations are
// attempted; failures are joined.
func (m *Mirror) Write(ctx context.Context, key string, data []byte) error {
	if !m.Enabled() {
		return nil
	}
	var errs []error
	for i, d := range m.destinations {
		if err := d.Write(ctx, key, data); err != nil {
			m.logger.Warn("mirror: write failed", slog.String("key", key), slog.Int("destination", i), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("destination %d: %w", i, err))
			continue
		}
		m.logger.Debug("mirror: written", slog.String("key", key), slog.Int("destination", i))
	}
	return errors.Join(errs...)
}

// StoreDestination mirrors into another document store, e.g. a backup
// directory.
type StoreDestination struct {
	Store storage.Provider
}

func (d StoreDestination) Write(_ context.Context, key string, data []byte) error {
	return d.Store.Write(key, data)
}
