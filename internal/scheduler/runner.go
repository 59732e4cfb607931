package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-docflow/internal/logging"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/robfig/cron/v3"
)

// Runner drives the sweeper on a cron schedule.
type Runner struct {
	mu         sync.Mutex
	cron       *cron.Cron
	sweeper    *Sweeper
	expression string
	logger     interfaces.Logger
	entryID    cron.EntryID
	running    bool
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRunnerLogger overrides the runner logger.
func WithRunnerLogger(logger interfaces.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner constructs a cron runner for the sweeper. The expression uses
// standard five-field cron syntax or a descriptor such as "@daily".
func NewRunner(sweeper *Sweeper, expression string, opts ...RunnerOption) (*Runner, error) {
	if sweeper == nil {
		return nil, errors.New("scheduler: sweeper required")
	}
	if expression == "" {
		return nil, errors.New("scheduler: cron expression required")
	}
	if _, err := cron.ParseStandard(expression); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron expression %q: %w", expression, err)
	}
	runner := &Runner{
		cron:       cron.New(),
		sweeper:    sweeper,
		expression: expression,
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner, nil
}

// Start registers the sweep job and begins the schedule.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("scheduler: runner already started")
	}

	entryID, err := r.cron.AddFunc(r.expression, func() {
		if _, err := r.sweeper.Run(ctx, time.Time{}); err != nil {
			r.logger.Error("scheduled effectiveness sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: add sweep job: %w", err)
	}
	r.entryID = entryID
	r.cron.Start()
	r.running = true

	r.logger.Info("effectiveness sweep scheduled", "expression", r.expression)
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
	r.logger.Info("effectiveness sweep schedule stopped")
}

// NextRun reports when the next sweep fires. Zero when not running.
func (r *Runner) NextRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return time.Time{}
	}
	return r.cron.Entry(r.entryID).Next
}
