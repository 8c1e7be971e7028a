package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Autosave periodically saves dirty sessions on a cron schedule.
type Autosave struct {
	cron *cron.Cron
}

// StartAutosave schedules SaveDirty with spec, a standard five-field cron
// expression or a descriptor such as "@every 30s".
func (m *Manager) StartAutosave(spec string) (*Autosave, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := m.SaveDirty(context.Background()); n > 0 {
			m.logger.Info("autosave", slog.Int("saved", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("autosave schedule %q: %w", spec, err)
	}
	c.Start()
	m.logger.Info("autosave scheduled", slog.String("schedule", spec))
	return &Autosave{cron: c}, nil
}

// Stop cancels the schedule and waits for a running autosave to finish or
// ctx to end.
func (a *Autosave) Stop(ctx context.Context) {
	done := a.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
