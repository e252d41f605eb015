package solver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dynaf/internal/asp"
)

// Driver owns the lifecycle of exactly one engine session. It opens the
// session from a base program, forwards fragments, enforces the per-solve
// timeout, and guarantees the session is released on every exit path.
type Driver struct {
	id      string
	engine  Engine
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	session Session
	closed  bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithTimeout sets the per-solve budget. Zero means no budget.
func WithTimeout(d time.Duration) Option {
	return func(dr *Driver) { dr.timeout = d }
}

// WithLogger injects a logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(dr *Driver) { dr.logger = l }
}

// NewDriver wraps the engine. The driver is unusable until Open.
func NewDriver(engine Engine, opts ...Option) *Driver {
	d := &Driver{
		id:     uuid.NewString(),
		engine: engine,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(zap.String("driver", d.id), zap.String("engine", engine.Name()))
	return d
}

// ID returns the driver's session identifier.
func (d *Driver) ID() string { return d.id }

// Incremental reports whether the wrapped engine applies fragments to
// accumulated state.
func (d *Driver) Incremental() bool { return d.engine.Incremental() }

// Open creates the session from the base program. Opening twice is a
// programming error.
func (d *Driver) Open(ctx context.Context, prog asp.Program) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("driver %s already closed", d.id)
	}
	if d.session != nil {
		return fmt.Errorf("driver %s already has an open session", d.id)
	}

	sess, err := d.engine.Open(ctx, prog)
	if err != nil {
		return err
	}
	d.session = sess
	d.logger.Debug("session opened",
		zap.Stringer("semantics", prog.Semantics),
		zap.Uint64("seq", prog.Seq),
		zap.Int("facts", len(prog.Facts)))
	return nil
}

// Reopen closes the current session, if any, and opens a fresh one from
// prog. This is the full-recompute path for non-incremental engines and
// the recovery path after a session was left in an unknown state.
func (d *Driver) Reopen(ctx context.Context, prog asp.Program) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("driver %s already closed", d.id)
	}
	if d.session != nil {
		if err := d.session.Close(); err != nil {
			d.logger.Warn("closing stale session", zap.Error(err))
		}
		d.session = nil
	}
	sess, err := d.engine.Open(ctx, prog)
	if err != nil {
		return err
	}
	d.session = sess
	d.logger.Debug("session reopened", zap.Uint64("seq", prog.Seq))
	return nil
}

// Extend submits a fragment to the live session.
func (d *Driver) Extend(ctx context.Context, frag asp.Fragment) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return fmt.Errorf("driver %s has no open session", d.id)
	}
	if err := d.session.Extend(ctx, frag); err != nil {
		return err
	}
	d.logger.Debug("session extended",
		zap.Uint64("seq", frag.Seq),
		zap.Int("assignments", len(frag.Assignments)))
	return nil
}

// Solve enumerates the models of the currently loaded program, honoring
// the configured per-solve timeout. A timeout surfaces as
// ErrSolveTimeout and leaves the session usable for the next call.
func (d *Driver) Solve(ctx context.Context) ([]Model, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil, fmt.Errorf("driver %s has no open session", d.id)
	}

	solveCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	models, err := d.session.Solve(solveCtx)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			d.logger.Warn("solve timed out", zap.Duration("after", elapsed))
			return nil, fmt.Errorf("%w after %v", ErrSolveTimeout, elapsed)
		}
		return nil, err
	}
	d.logger.Debug("solve finished",
		zap.Int("models", len(models)),
		zap.Duration("elapsed", elapsed))
	return models, nil
}

// Close releases the session. Safe to call more than once and on a
// driver that never opened.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	if d.session == nil {
		return nil
	}
	err := d.session.Close()
	d.session = nil
	if err != nil {
		return fmt.Errorf("closing session of driver %s: %w", d.id, err)
	}
	d.logger.Debug("session closed")
	return nil
}
