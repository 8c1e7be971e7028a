// Package editor composes a plugin table into a running block editor
// mounted on a page element.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/blockpad/internal/apperr"
	"github.com/starford/blockpad/internal/dom"
	"github.com/starford/blockpad/internal/idgen"
	"github.com/starford/blockpad/internal/models"
	"github.com/starford/blockpad/internal/plugin"
)

var (
	// ErrConfig is returned by New when the configuration cannot produce
	// a working editor.
	ErrConfig = errors.New("editor: invalid configuration")
	// ErrSave is returned by Save when a block fails to serialize.
	ErrSave = errors.New("editor: save failed")
	// ErrDestroyed is returned by every operation after Destroy.
	ErrDestroyed = errors.New("editor: destroyed")
	// ErrUnknownType is returned when a block type is not a registered
	// block tool.
	ErrUnknownType = errors.New("editor: unknown block type")
)

// State is the lifecycle state of an editor.
type State int32

const (
	StateUninitialized State = iota
	StateMounted
	StateSaving
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateMounted:
		return "mounted"
	case StateSaving:
		return "saving"
	case StateDestroyed:
		return "destroyed"
	default:
		return "uninitialized"
	}
}

// Change kinds reported to OnChange observers.
const (
	ChangeAdded    = "block-added"
	ChangeChanged  = "block-changed"
	ChangeRemoved  = "block-removed"
	ChangeMoved    = "block-moved"
	ChangeRendered = "document-rendered"
)

// Change describes one content-affecting edit.
type Change struct {
	Kind    string `json:"kind"`
	BlockID string `json:"blockId,omitempty"`
	Type    string `json:"type,omitempty"`
	Index   int    `json:"index"`
}

// BlockInfo is a read-only view of a live block.
type BlockInfo struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Empty   bool     `json:"empty"`
	Focused bool     `json:"focused"`
	Inline  []string `json:"inlineToolbar,omitempty"`
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides the block id generator.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(e *Editor) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// OnReady registers fn to run once the editor is mounted.
func OnReady(fn func()) Option {
	return func(e *Editor) {
		if fn != nil {
			e.onReady = append(e.onReady, fn)
		}
	}
}

// OnChange registers fn to run after every content-affecting edit. It runs
// on the editor loop and must not call back into the editor synchronously.
func OnChange(fn func(Change)) Option {
	return func(e *Editor) {
		if fn != nil {
			e.onChange = append(e.onChange, fn)
		}
	}
}

type liveBlock struct {
	id     string
	typ    string
	block  plugin.Block
	inline []string
}

// Editor is one mounted editor instance.
//
// Concurrency model: a single loop goroutine owns the live document.
// Public methods hand closures to the loop over a channel. Saves capture
// detached clones on the loop and serialize them on a worker, one job at a
// time in arrival order.
type Editor struct {
	cfg      Config
	holder   dom.Element
	logger   *slog.Logger
	now      func() time.Time
	newID    func() (string, error)
	onReady  []func()
	onChange []func(Change)
	global   []string

	state    atomic.Int32
	revision atomic.Uint64

	cmds    chan func()
	doneCh  chan *saveJob
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool

	// Owned by the loop goroutine.
	blocks  []*liveBlock
	focused string
	queue   []*saveJob
}

// New builds an editor from cfg and mounts it on the element cfg.Holder
// resolves to in doc. When that element does not exist the returned editor
// is inert: no error, no notifications, and every operation reports
// apperr.ErrInactive.
//
// Tool setup runs in parallel; ready observers fire once, after setup and
// the initial content load, before New returns.
func New(ctx context.Context, doc dom.Document, cfg Config, opts ...Option) (*Editor, error) {
	e := &Editor{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		newID:  idgen.Generate,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.holder = dom.Lookup(doc, cfg.Holder)
	if e.holder == nil {
		return e, nil
	}

	fail := func(err error) (*Editor, error) {
		e.holder = nil
		e.setState(StateDestroyed)
		e.logger.Error("editor construction failed", slog.String("holder", cfg.Holder), slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrConfig, err))
	}
	e.global = cfg.InlineToolbar
	if len(e.global) == 0 {
		e.global = cfg.Tools.InlineCommands()
	}
	if err := e.prepare(ctx); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrConfig, err))
	}
	if err := e.load(cfg.Data); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrConfig, err))
	}
	if cfg.Autofocus && len(e.blocks) > 0 {
		e.focused = e.blocks[0].id
		e.holder.SetAttr("data-autofocus", e.focused)
	}
	e.render()

	e.cmds = make(chan func())
	e.doneCh = make(chan *saveJob)
	e.stopCh = make(chan struct{})
	e.stopped = make(chan struct{})
	e.setState(StateMounted)
	go e.run()

	e.logger.Info("editor ready", slog.String("holder", cfg.Holder), slog.Int("blocks", len(e.blocks)))
	for _, fn := range e.onReady {
		fn()
	}
	return e, nil
}

// prepare runs every tool's internal setup concurrently.
func (e *Editor) prepare(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, d := range e.cfg.Tools.Descriptors() {
		g.Go(func() error {
			err := guard(func() error { return d.Tool.Prepare(ctx, d.Options) })
			if err != nil {
				return fmt.Errorf("tool %q: %w", d.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Active reports whether the editor was mounted.
func (e *Editor) Active() bool {
	return e != nil && e.stopped != nil
}

// State returns the current lifecycle state.
func (e *Editor) State() State {
	return State(e.state.Load())
}

func (e *Editor) setState(s State) {
	e.state.Store(int32(s))
}

// Holder returns the mount element id.
func (e *Editor) Holder() string {
	return e.cfg.Holder
}

// Tools returns the descriptor table the editor was built from.
func (e *Editor) Tools() *plugin.Table {
	return e.cfg.Tools
}

func (e *Editor) run() {
	defer close(e.stopped)
	for {
		select {
		case <-e.stopCh:
			// The running job, if any, still reports its own result.
			for i, job := range e.queue {
				if i > 0 {
					job.result <- saveResult{err: ErrDestroyed}
				}
			}
			e.queue = nil
			return

		case fn := <-e.cmds:
			fn()

		case job := <-e.doneCh:
			if len(e.queue) > 0 && e.queue[0] == job {
				e.queue = e.queue[1:]
			}
			if len(e.queue) > 0 {
				go e.serialize(e.queue[0])
			} else {
				e.setState(StateMounted)
			}
			job.result <- job.res
		}
	}
}

// do runs fn on the loop and waits for its result.
func (e *Editor) do(ctx context.Context, fn func() error) error {
	if !e.Active() {
		return apperr.ErrInactive
	}
	if e.closed.Load() {
		return ErrDestroyed
	}
	errCh := make(chan error, 1)
	select {
	case e.cmds <- func() { errCh <- fn() }:
	case <-e.stopped:
		return ErrDestroyed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Destroy unmounts the editor. Queued saves that have not started fail
// with ErrDestroyed. Destroy is idempotent.
func (e *Editor) Destroy() {
	if !e.Active() {
		return
	}
	if e.closed.CompareAndSwap(false, true) {
		close(e.stopCh)
	}
	<-e.stopped
	if e.State() != StateDestroyed {
		e.setState(StateDestroyed)
		e.holder.ReplaceChildren()
		e.logger.Info("editor destroyed", slog.String("holder", e.cfg.Holder))
	}
}

// Revision counts content-affecting edits since construction.
func (e *Editor) Revision() uint64 {
	return e.revision.Load()
}

func (e *Editor) emit(c Change) {
	e.revision.Add(1)
	for _, fn := range e.onChange {
		fn(c)
	}
}

// guard converts a panic inside fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (e *Editor) blockTool(typ string) (plugin.Descriptor, plugin.BlockTool, error) {
	d, ok := e.cfg.Tools.Lookup(typ)
	if !ok {
		return d, nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	bt, ok := d.BlockTool()
	if !ok {
		return d, nil, fmt.Errorf("%w: %q is an inline tool", ErrUnknownType, typ)
	}
	return d, bt, nil
}

func (e *Editor) newBlock(id, typ string, data json.RawMessage) (*liveBlock, error) {
	d, bt, err := e.blockTool(typ)
	if err != nil {
		return nil, err
	}
	var b plugin.Block
	err = guard(func() error {
		var err error
		b, err = bt.NewBlock(data, d.Options)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("block %s (%s): %w", id, typ, err)
	}
	if id == "" {
		if id, err = e.newID(); err != nil {
			return nil, fmt.Errorf("generate block id: %w", err)
		}
	}
	return &liveBlock{id: id, typ: typ, block: b, inline: d.InlineToolbar.Resolve(e.global)}, nil
}

// load replaces the live document with snap. Records whose type is no
// longer registered are kept verbatim.
func (e *Editor) load(snap *models.Snapshot) error {
	var blocks []*liveBlock
	if snap != nil {
		for _, rec := range snap.Blocks {
			var (
				b   *liveBlock
				err error
			)
			if _, _, lookupErr := e.blockTool(rec.Type); lookupErr != nil {
				b, err = e.stub(rec)
			} else {
				b, err = e.newBlock(rec.ID, rec.Type, rec.Data)
			}
			if err != nil {
				return err
			}
			blocks = append(blocks, b)
		}
	}
	if len(blocks) == 0 {
		b, err := e.newBlock("", e.cfg.DefaultBlock, nil)
		if err != nil {
			return err
		}
		blocks = append(blocks, b)
	}
	e.blocks = blocks
	if e.indexOf(e.focused) < 0 {
		e.focused = ""
	}
	return nil
}

func (e *Editor) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, b := range e.blocks {
		if b.id == id {
			return i
		}
	}
	return -1
}
