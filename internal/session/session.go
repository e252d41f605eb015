// Package session orchestrates the dynamic solving pipeline for one
// semantics: it owns the framework, the update log, the encoder calls,
// the solver driver, the reconciler and the result store, and moves an
// update through validate, apply, encode, extend, solve, reconcile in
// strict order.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dynaf/internal/af"
	"dynaf/internal/asp"
	"dynaf/internal/reconcile"
	"dynaf/internal/results"
	"dynaf/internal/solver"
)

// Controller drives one semantics over one framework. Updates are
// serialized; concurrent readers hit the result store, never the
// controller.
type Controller struct {
	sem     asp.Semantics
	driver  *solver.Driver
	store   *results.Store
	history *results.History
	logger  *zap.Logger

	mu      sync.Mutex
	fw      *af.Framework
	log     *af.UpdateLog
	rec     *reconcile.Reconciler
	started bool
	closed  bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger injects a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithHistory mirrors recorded entries into the persistent history.
func WithHistory(h *results.History) Option {
	return func(c *Controller) { c.history = h }
}

// New builds a controller over the framework. The framework must not be
// shared with another controller; sessions for different semantics each
// get their own copy.
func New(sem asp.Semantics, fw *af.Framework, driver *solver.Driver, store *results.Store, opts ...Option) *Controller {
	c := &Controller{
		sem:    sem,
		fw:     fw,
		log:    af.NewUpdateLog(),
		driver: driver,
		rec:    reconcile.New(),
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.Stringer("semantics", sem))
	return c
}

// Semantics returns the semantics this controller solves under.
func (c *Controller) Semantics() asp.Semantics { return c.sem }

// Start encodes the current framework as the base program, opens the
// engine session and solves sequence point zero of this run.
func (c *Controller) Start(ctx context.Context) (results.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return results.Entry{}, fmt.Errorf("session for %s already closed", c.sem)
	}
	if c.started {
		return results.Entry{}, fmt.Errorf("session for %s already started", c.sem)
	}

	snap := c.fw.Snapshot()
	prog, err := asp.EncodeBase(snap, c.sem)
	if err != nil {
		return results.Entry{}, err
	}
	if err := c.driver.Open(ctx, prog); err != nil {
		return results.Entry{}, err
	}
	c.started = true
	return c.solveLocked(ctx, snap.Seq)
}

// Enqueue appends ops to the pending update log without applying them.
func (c *Controller) Enqueue(ops ...af.UpdateOp) {
	c.log.EnqueueAll(ops)
}

// Flush applies every pending op as one batch and solves once.
func (c *Controller) Flush(ctx context.Context) (results.Entry, error) {
	return c.Apply(ctx, c.log.Drain()...)
}

// Apply runs one update batch through the pipeline: each op is
// validated and applied in order, the resulting delta is encoded and
// pushed to the engine, then the new sequence point is solved.
//
// A validation failure aborts the batch before solving. Ops already
// applied stay applied and their encoding is still pushed, so the
// engine never diverges from the framework; the caller sees the
// *af.ValidationError of the offending op.
func (c *Controller) Apply(ctx context.Context, ops ...af.UpdateOp) (results.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.closed {
		return results.Entry{}, fmt.Errorf("session for %s is not running", c.sem)
	}
	if len(ops) == 0 {
		return results.Entry{}, fmt.Errorf("session for %s: empty update batch", c.sem)
	}

	var frag asp.Fragment
	var applyErr error
	for _, op := range ops {
		delta, err := c.fw.ApplyUpdate(op)
		if err != nil {
			applyErr = err
			break
		}
		d := asp.EncodeDelta(delta)
		frag.Seq = d.Seq
		frag.Assignments = append(frag.Assignments, d.Assignments...)
	}

	if len(frag.Assignments) > 0 {
		if err := c.syncEngineLocked(ctx, frag); err != nil {
			return results.Entry{}, err
		}
	}
	if applyErr != nil {
		c.logger.Warn("update batch rejected", zap.Error(applyErr))
		return results.Entry{}, applyErr
	}
	return c.solveLocked(ctx, frag.Seq)
}

// syncEngineLocked pushes the fragment incrementally, or rebuilds the
// whole program for engines that cannot accumulate state.
func (c *Controller) syncEngineLocked(ctx context.Context, frag asp.Fragment) error {
	if c.driver.Incremental() {
		return c.driver.Extend(ctx, frag)
	}
	prog, err := asp.EncodeBase(c.fw.Snapshot(), c.sem)
	if err != nil {
		return err
	}
	return c.driver.Reopen(ctx, prog)
}

// solveLocked solves the current sequence point, reconciles and records.
// A solve timeout records an inconclusive entry instead of failing the
// session; the next update may still succeed within budget.
func (c *Controller) solveLocked(ctx context.Context, seq uint64) (results.Entry, error) {
	models, err := c.driver.Solve(ctx)
	if err != nil {
		if errors.Is(err, solver.ErrSolveTimeout) {
			entry := results.Entry{
				Semantics: c.sem,
				Seq:       seq,
				Status:    results.StatusInconclusive,
			}
			if recErr := c.recordLocked(entry); recErr != nil {
				return results.Entry{}, recErr
			}
			c.logger.Warn("sequence point inconclusive", zap.Uint64("seq", seq))
			return entry, nil
		}
		return results.Entry{}, err
	}

	rep := c.rec.Reconcile(seq, models)
	entry := results.Entry{
		Semantics:  c.sem,
		Seq:        seq,
		Status:     results.StatusComplete,
		Extensions: rep.Extensions,
		Collapsed:  rep.Collapsed,
	}
	if err := c.recordLocked(entry); err != nil {
		return results.Entry{}, err
	}
	c.logger.Info("sequence point solved",
		zap.Uint64("seq", seq),
		zap.Int("extensions", len(rep.Extensions)),
		zap.Int("added", len(rep.Added)),
		zap.Int("removed", len(rep.Removed)),
		zap.Bool("collapsed", rep.Collapsed))
	return entry, nil
}

func (c *Controller) recordLocked(e results.Entry) error {
	if err := c.store.Record(e); err != nil {
		return err
	}
	if c.history != nil {
		if err := c.history.Record(e); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the engine session. Idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.driver.Close()
}

// Run executes the whole pipeline for one controller: start, then
// enqueue and flush every batch in order, close. All updates go through
// the controller's update log, so ops queued before Run join the first
// batch. Entries are returned in sequence order, one for the initial
// instance and one per batch.
func (c *Controller) Run(ctx context.Context, batches [][]af.UpdateOp) ([]results.Entry, error) {
	defer c.Close()

	entries := make([]results.Entry, 0, len(batches)+1)
	entry, err := c.Start(ctx)
	if err != nil {
		return nil, err
	}
	entries = append(entries, entry)

	for _, batch := range batches {
		c.Enqueue(batch...)
		entry, err := c.Flush(ctx)
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RunAll runs independent controllers in parallel, one per semantics,
// over the same update stream. Controllers share no mutable state, so
// each must own its own framework copy. The first failure cancels the
// rest.
func RunAll(ctx context.Context, controllers []*Controller, batches [][]af.UpdateOp) (map[asp.Semantics][]results.Entry, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	out := make(map[asp.Semantics][]results.Entry, len(controllers))
	for _, c := range controllers {
		g.Go(func() error {
			entries, err := c.Run(ctx, batches)
			if err != nil {
				return fmt.Errorf("session %s: %w", c.Semantics(), err)
			}
			mu.Lock()
			out[c.Semantics()] = entries
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
