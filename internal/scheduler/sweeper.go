package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/goliatone/go-docflow/internal/logging"
	"github.com/goliatone/go-docflow/internal/workflow"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
)

// DueLister exposes the repository query the sweeper walks.
type DueLister interface {
	ListDue(ctx context.Context, asOf time.Time, limit int) ([]*workflow.Instance, error)
}

// Sweeper promotes approved documents whose effective date has arrived. Each
// promotion goes through the same transition path as a user action, so it is
// authorized, serialized, and audited like one.
type Sweeper struct {
	instances   DueLister
	workflows   workflow.Service
	logger      interfaces.Logger
	now         func() time.Time
	batchSize   int
	softTimeout time.Duration
}

// SweeperOption configures the sweeper.
type SweeperOption func(*Sweeper)

// WithSweeperClock overrides the sweep clock, primarily for testing.
func WithSweeperClock(clock func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithSweeperLogger overrides the sweeper logger.
func WithSweeperLogger(logger interfaces.Logger) SweeperOption {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBatchSize caps how many due instances one run loads.
func WithBatchSize(size int) SweeperOption {
	return func(s *Sweeper) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithSoftTimeout bounds one run. Instances not reached before the deadline
// stay due and are picked up by the next run.
func WithSoftTimeout(timeout time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if timeout > 0 {
			s.softTimeout = timeout
		}
	}
}

// NewSweeper constructs the effectiveness sweeper.
func NewSweeper(instances DueLister, workflows workflow.Service, opts ...SweeperOption) (*Sweeper, error) {
	if instances == nil {
		return nil, errors.New("scheduler: due lister required")
	}
	if workflows == nil {
		return nil, errors.New("scheduler: workflow service required")
	}
	sweeper := &Sweeper{
		instances:   instances,
		workflows:   workflows,
		logger:      logging.NoOp(),
		now:         time.Now,
		batchSize:   100,
		softTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(sweeper)
	}
	return sweeper, nil
}

// Run executes one sweep as of the given time. A zero asOf uses the sweep
// clock. Failures on individual documents never abort the batch.
func (s *Sweeper) Run(ctx context.Context, asOf time.Time) (*workflow.SweepResult, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = asOf.UTC()

	if s.softTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.softTimeout)
		defer cancel()
	}

	due, err := s.instances.ListDue(ctx, asOf, s.batchSize)
	if err != nil {
		return nil, err
	}

	result := &workflow.SweepResult{Promoted: make([]uuid.UUID, 0, len(due))}
	for i, instance := range due {
		if ctx.Err() != nil {
			result.Remaining = len(due) - i
			s.logger.Warn("sweep stopped before completing batch",
				"processed", i,
				"remaining", result.Remaining,
			)
			break
		}
		promoted, err := s.promote(ctx, instance)
		if err != nil {
			result.Failed = append(result.Failed, workflow.SweepFailure{
				DocumentID: instance.DocumentID,
				InstanceID: instance.ID,
				Reason:     err.Error(),
			})
			continue
		}
		if promoted {
			result.Promoted = append(result.Promoted, instance.DocumentID)
		}
	}

	s.logger.Info("effectiveness sweep finished",
		"as_of", asOf.Format(time.RFC3339),
		"due", len(due),
		"promoted", len(result.Promoted),
		"failed", len(result.Failed),
		"remaining", result.Remaining,
	)
	return result, nil
}

func (s *Sweeper) promote(ctx context.Context, instance *workflow.Instance) (bool, error) {
	_, err := s.workflows.Apply(ctx, workflow.TransitionRequest{
		DocumentID: instance.DocumentID,
		Edge:       domain.EdgeMakeEffective,
		Actor:      domain.SystemActor(),
		FromState:  domain.StateApprovedPendingEffective,
	})
	if err != nil {
		// Someone moved the document between listing and promoting. The
		// sweep treats that as already handled rather than a failure.
		if errors.Is(err, domain.ErrStateChanged) || errors.Is(err, domain.ErrNoActiveWorkflow) {
			s.logger.Info("due document changed state before promotion",
				"document_id", instance.DocumentID,
				"instance_id", instance.ID,
			)
			return false, nil
		}
		s.logger.Error("failed to promote due document",
			"document_id", instance.DocumentID,
			"instance_id", instance.ID,
			"error", err,
		)
		return false, err
	}
	return true, nil
}
