package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-docflow/internal/authorization"
	"github.com/goliatone/go-docflow/internal/domain"
	"github.com/goliatone/go-docflow/internal/scheduler"
	"github.com/goliatone/go-docflow/internal/workflow"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
)

var sweepNow = time.Date(2026, time.March, 10, 2, 0, 0, 0, time.UTC)

func newSweepFixture(t *testing.T, opts ...scheduler.SweeperOption) (*workflow.MemoryRepository, *scheduler.Sweeper, workflow.Service) {
	t.Helper()

	repo := workflow.NewMemoryRepository()
	gate, err := authorization.New(interfaces.RoleResolverFunc(func(context.Context, uuid.UUID, uuid.UUID) (interfaces.Role, error) {
		return interfaces.RoleNone, nil
	}))
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	svc, err := workflow.New(repo, gate, workflow.WithClock(func() time.Time { return sweepNow }))
	if err != nil {
		t.Fatalf("new workflow service: %v", err)
	}
	opts = append([]scheduler.SweeperOption{
		scheduler.WithSweeperClock(func() time.Time { return sweepNow }),
	}, opts...)
	sweeper, err := scheduler.NewSweeper(repo, svc, opts...)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	return repo, sweeper, svc
}

func seedPending(repo *workflow.MemoryRepository, effective time.Time) *workflow.Instance {
	instance := &workflow.Instance{
		ID:                     uuid.New(),
		DocumentID:             uuid.New(),
		Kind:                   workflow.KindReview,
		CurrentState:           domain.StateApprovedPendingEffective,
		InitiatedBy:            uuid.New(),
		ScheduledEffectiveDate: &effective,
	}
	repo.Put(instance)
	return instance
}

func TestSweepPromotesDueDocuments(t *testing.T) {
	repo, sweeper, svc := newSweepFixture(t)

	due := seedPending(repo, sweepNow.AddDate(0, 0, -1))
	dueToday := seedPending(repo, sweepNow)
	notYet := seedPending(repo, sweepNow.AddDate(0, 0, 3))

	result, err := sweeper.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("run sweep: %v", err)
	}
	if len(result.Promoted) != 2 {
		t.Fatalf("expected 2 promotions, got %d", len(result.Promoted))
	}
	if len(result.Failed) != 0 {
		t.Fatalf("expected no failures, got %v", result.Failed)
	}

	for _, instance := range []*workflow.Instance{due, dueToday} {
		current, err := repo.GetInstance(context.Background(), instance.ID)
		if err != nil {
			t.Fatalf("get instance: %v", err)
		}
		if current.CurrentState != domain.StateEffective {
			t.Fatalf("expected effective, got %q", current.CurrentState)
		}
	}
	current, _ := repo.GetInstance(context.Background(), notYet.ID)
	if current.CurrentState != domain.StateApprovedPendingEffective {
		t.Fatalf("future document promoted early: %q", current.CurrentState)
	}

	// The promotion is audited as the system actor.
	trail, err := svc.History(context.Background(), due.DocumentID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(trail) != 1 {
		t.Fatalf("expected one audit row, got %d", len(trail))
	}
	if trail[0].ActorRole != interfaces.RoleSystem {
		t.Fatalf("expected system actor role, got %q", trail[0].ActorRole)
	}
	if trail[0].Edge != domain.EdgeMakeEffective {
		t.Fatalf("expected make_effective, got %q", trail[0].Edge)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	repo, sweeper, _ := newSweepFixture(t)
	seedPending(repo, sweepNow.AddDate(0, 0, -1))

	first, err := sweeper.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first.Promoted) != 1 {
		t.Fatalf("expected one promotion, got %d", len(first.Promoted))
	}

	second, err := sweeper.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.Promoted) != 0 || len(second.Failed) != 0 {
		t.Fatalf("second run should be a no-op, got %+v", second)
	}
}

// flakyRepository fails guarded updates for one document to exercise the
// sweep's partial-batch behavior.
type flakyRepository struct {
	*workflow.MemoryRepository
	failFor uuid.UUID
}

func (f *flakyRepository) ApplyTransition(ctx context.Context, update workflow.TransitionUpdate) (*workflow.Instance, error) {
	if update.Instance.DocumentID == f.failFor {
		return nil, errors.New("storage unavailable")
	}
	return f.MemoryRepository.ApplyTransition(ctx, update)
}

func TestSweepContinuesPastFailures(t *testing.T) {
	memory := workflow.NewMemoryRepository()
	broken := seedPending(memory, sweepNow.AddDate(0, 0, -2))
	healthy := seedPending(memory, sweepNow.AddDate(0, 0, -1))

	repo := &flakyRepository{MemoryRepository: memory, failFor: broken.DocumentID}
	gate, err := authorization.New(interfaces.RoleResolverFunc(func(context.Context, uuid.UUID, uuid.UUID) (interfaces.Role, error) {
		return interfaces.RoleNone, nil
	}))
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	svc, err := workflow.New(repo, gate, workflow.WithClock(func() time.Time { return sweepNow }))
	if err != nil {
		t.Fatalf("new workflow service: %v", err)
	}
	sweeper, err := scheduler.NewSweeper(repo, svc, scheduler.WithSweeperClock(func() time.Time { return sweepNow }))
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	result, err := sweeper.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("run sweep: %v", err)
	}
	if len(result.Promoted) != 1 || result.Promoted[0] != healthy.DocumentID {
		t.Fatalf("expected healthy document promoted, got %+v", result)
	}
	if len(result.Failed) != 1 || result.Failed[0].DocumentID != broken.DocumentID {
		t.Fatalf("expected broken document reported failed, got %+v", result.Failed)
	}
}

func TestSweepBatchSizeLimitsOneRun(t *testing.T) {
	repo, sweeper, _ := newSweepFixture(t, scheduler.WithBatchSize(2))

	for i := 0; i < 5; i++ {
		seedPending(repo, sweepNow.AddDate(0, 0, -1))
	}

	result, err := sweeper.Run(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("run sweep: %v", err)
	}
	if len(result.Promoted) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(result.Promoted))
	}

	// The rest drain across subsequent runs.
	for i := 0; i < 2; i++ {
		if _, err := sweeper.Run(context.Background(), sweepNow); err != nil {
			t.Fatalf("drain run: %v", err)
		}
	}
	remaining, err := repo.ListDue(context.Background(), sweepNow, 0)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected all due documents promoted, %d remain", len(remaining))
	}
}

func TestSweepStopsAtSoftDeadline(t *testing.T) {
	repo, sweeper, _ := newSweepFixture(t)
	for i := 0; i < 3; i++ {
		seedPending(repo, sweepNow.AddDate(0, 0, -1))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := sweeper.Run(ctx, sweepNow)
	if err != nil {
		t.Fatalf("run sweep: %v", err)
	}
	if len(result.Promoted) != 0 {
		t.Fatalf("expected no promotions after deadline, got %d", len(result.Promoted))
	}
	if result.Remaining != 3 {
		t.Fatalf("expected 3 remaining, got %d", result.Remaining)
	}
}

func TestRunnerRejectsBadExpression(t *testing.T) {
	repo, sweeper, _ := newSweepFixture(t)
	_ = repo

	if _, err := scheduler.NewRunner(sweeper, "not-a-cron"); err == nil {
		t.Fatalf("expected invalid expression error")
	}
	runner, err := scheduler.NewRunner(sweeper, "@daily")
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("start runner: %v", err)
	}
	if runner.NextRun().IsZero() {
		t.Fatalf("expected next run scheduled")
	}
	runner.Stop()
}

