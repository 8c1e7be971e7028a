package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/blockpad/internal/models"
	"github.com/starford/blockpad/internal/plugin"
)

type savedBlock struct {
	id    string
	typ   string
	block plugin.Block
}

type saveResult struct {
	snap models.Snapshot
	rev  uint64
	err  error
}

type saveJob struct {
	at     time.Time
	rev    uint64
	blocks []savedBlock
	res    saveResult
	result chan saveResult
}

// capture copies the live document. Runs on the loop.
func (e *Editor) capture() *saveJob {
	job := &saveJob{
		at:     e.now(),
		rev:    e.revision.Load(),
		blocks: make([]savedBlock, 0, len(e.blocks)),
		result: make(chan saveResult, 1),
	}
	for _, b := range e.blocks {
		job.blocks = append(job.blocks, savedBlock{id: b.id, typ: b.typ, block: b.block.Clone()})
	}
	return job
}

// enqueue schedules job behind any save already in progress. Runs on the
// loop.
func (e *Editor) enqueue(job *saveJob) {
	e.queue = append(e.queue, job)
	if len(e.queue) == 1 {
		e.setState(StateSaving)
		go e.serialize(job)
	}
}

// serialize turns a captured job into a snapshot and hands the job back to
// the loop, which publishes the result once the state is updated. After
// Destroy the job delivers its own result.
func (e *Editor) serialize(job *saveJob) {
	snap, err := e.build(job)
	job.res = saveResult{snap: snap, rev: job.rev, err: err}
	select {
	case e.doneCh <- job:
	case <-e.stopCh:
		job.result <- job.res
	}
}

// build serializes every captured block in parallel. Empty blocks are
// skipped. Any failure fails the whole snapshot.
func (e *Editor) build(job *saveJob) (models.Snapshot, error) {
	data := make([]json.RawMessage, len(job.blocks))
	skip := make([]bool, len(job.blocks))

	g, ctx := errgroup.WithContext(context.Background())
	for i, sb := range job.blocks {
		g.Go(func() error {
			var raw json.RawMessage
			err := guard(func() error {
				if sb.block.IsEmpty() {
					skip[i] = true
					return nil
				}
				var err error
				raw, err = sb.block.Save(ctx)
				return err
			})
			switch {
			case err != nil:
				return fmt.Errorf("%w: block %s (%s): %w", ErrSave, sb.id, sb.typ, err)
			case skip[i]:
				return nil
			case !json.Valid(raw):
				return fmt.Errorf("%w: block %s (%s): invalid data", ErrSave, sb.id, sb.typ)
			}
			data[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Debug("editor save failed", slog.String("holder", e.cfg.Holder), slog.String("error", err.Error()))
		return models.Snapshot{}, err
	}

	snap := models.NewSnapshot(job.at)
	for i, sb := range job.blocks {
		if skip[i] {
			continue
		}
		snap.Blocks = append(snap.Blocks, models.BlockRecord{ID: sb.id, Type: sb.typ, Data: data[i]})
	}
	return snap, nil
}

// Save serializes the document as it is when the editor loop receives the
// request. Saves run one at a time in the order they were requested and
// cannot be cancelled once captured; ctx bounds only the wait. The lifecycle
// state has left StateSaving by the time Save returns unless another save
// is queued.
func (e *Editor) Save(ctx context.Context) (models.Snapshot, error) {
	snap, _, err := e.SaveRevision(ctx)
	return snap, err
}

// SaveRevision is Save that also returns the revision the snapshot was
// captured at.
func (e *Editor) SaveRevision(ctx context.Context) (models.Snapshot, uint64, error) {
	var job *saveJob
	err := e.do(ctx, func() error {
		job = e.capture()
		e.enqueue(job)
		return nil
	})
	if err != nil {
		return models.Snapshot{}, 0, err
	}
	select {
	case res := <-job.result:
		return res.snap, res.rev, res.err
	case <-ctx.Done():
		return models.Snapshot{}, 0, ctx.Err()
	}
}
