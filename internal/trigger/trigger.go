// Package trigger binds a page control to an editor's save and routes the
// result to an output element and the log.
package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/blockpad/internal/apperr"
	"github.com/starford/blockpad/internal/dom"
	"github.com/starford/blockpad/internal/models"
)

// Saver is the part of an editor a trigger needs.
type Saver interface {
	Save(ctx context.Context) (models.Snapshot, error)
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context) (models.Snapshot, error)

func (f SaverFunc) Save(ctx context.Context) (models.Snapshot, error) {
	return f(ctx)
}

// Result is the outcome of one invocation.
type Result struct {
	Snapshot models.Snapshot
	Err      error
}

// Trigger is a save control bound to one editor.
type Trigger struct {
	saver  Saver
	output dom.Element
	logger *slog.Logger
	bound  bool

	mu   sync.Mutex
	last *Result
	subs []func(Result)
}

// Bind attaches a click listener on triggerID that saves through saver and
// writes the snapshot to outputID. The listener reports the invocation's
// error to the dispatcher. When the trigger element is missing the
// returned trigger is inert. A missing output element only disables
// rendering.
func Bind(doc dom.Document, saver Saver, triggerID, outputID string, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Trigger{saver: saver, logger: logger}
	el := dom.Lookup(doc, triggerID)
	if el == nil || saver == nil {
		return t
	}
	t.output = dom.Lookup(doc, outputID)
	t.bound = true
	el.AddEventListener(dom.EventClick, func() error {
		_, err := t.Invoke(context.Background())
		return err
	})
	return t
}

// Bound reports whether the trigger element was found.
func (t *Trigger) Bound() bool {
	return t.bound
}

// OnResult registers fn to run after every invocation.
func (t *Trigger) OnResult(fn func(Result)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs = append(t.subs, fn)
}

// Last returns the outcome of the most recent invocation.
func (t *Trigger) Last() (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return Result{}, false
	}
	return *t.last, true
}

// Invoke saves once. On success the snapshot is written to the output
// element as indented JSON and logged; on failure the error is logged and
// the output element keeps its previous content.
func (t *Trigger) Invoke(ctx context.Context) (models.Snapshot, error) {
	if !t.bound {
		return models.Snapshot{}, apperr.ErrInactive
	}

	snap, err := t.saver.Save(ctx)
	if err == nil {
		err = t.render(snap)
	}
	if err != nil {
		t.logger.Error("saving failed", slog.String("error", err.Error()))
		snap = models.Snapshot{}
	} else {
		t.logger.Info("article data", slog.Any("snapshot", snap))
	}

	res := Result{Snapshot: snap, Err: err}
	t.mu.Lock()
	t.last = &res
	subs := append(([]func(Result))(nil), t.subs...)
	t.mu.Unlock()
	for _, fn := range subs {
		fn(res)
	}
	return snap, err
}

func (t *Trigger) render(snap models.Snapshot) error {
	if t.output == nil {
		return nil
	}
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	t.output.SetText(string(out))
	return nil
}
