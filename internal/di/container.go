package di

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-docflow/internal/adapters/noop"
	"github.com/goliatone/go-docflow/internal/audit"
	"github.com/goliatone/go-docflow/internal/authorization"
	"github.com/goliatone/go-docflow/internal/logging"
	"github.com/goliatone/go-docflow/internal/logging/console"
	"github.com/goliatone/go-docflow/internal/logging/gologger"
	"github.com/goliatone/go-docflow/internal/runtimeconfig"
	"github.com/goliatone/go-docflow/internal/scheduler"
	"github.com/goliatone/go-docflow/internal/workflow"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/uptrace/bun"
)

// Container wires module dependencies. Memory-backed repositories are the
// default; WithBunDB swaps in database persistence.
type Container struct {
	Config runtimeconfig.Config

	bunDB          *bun.DB
	loggerProvider interfaces.LoggerProvider

	roleResolver interfaces.RoleResolver
	depChecker   interfaces.DependencyChecker

	repo workflow.Repository

	workflowSvc workflow.Service
	auditSvc    audit.Service
	gate        *authorization.Gate
	sweeper     *scheduler.Sweeper
	runner      *scheduler.Runner
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB backs workflow storage with a bun database.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithLoggerProvider overrides the provider resolved from config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithRoleResolver wires the host application's per-document role lookup.
func WithRoleResolver(resolver interfaces.RoleResolver) Option {
	return func(c *Container) {
		c.roleResolver = resolver
	}
}

// WithDependencyChecker wires the reference checker consulted before
// obsolescence.
func WithDependencyChecker(checker interfaces.DependencyChecker) Option {
	return func(c *Container) {
		c.depChecker = checker
	}
}

// WithRepository overrides the default workflow repository binding.
func WithRepository(repo workflow.Repository) Option {
	return func(c *Container) {
		c.repo = repo
	}
}

// WithWorkflowService overrides the default workflow service binding.
func WithWorkflowService(svc workflow.Service) Option {
	return func(c *Container) {
		c.workflowSvc = svc
	}
}

// NewContainer builds the dependency graph for the given configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		// Absent a host-supplied resolver every user has no role, which
		// fails closed: nothing but system promotions can move documents.
		roleResolver: noop.Roles(),
		depChecker:   noop.Dependencies(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureRepository(); err != nil {
		return nil, err
	}

	gate, err := authorization.New(c.roleResolver,
		authorization.WithLogger(logging.GateLogger(c.loggerProvider)),
	)
	if err != nil {
		return nil, err
	}
	c.gate = gate

	if c.workflowSvc == nil {
		svc, err := workflow.New(c.repo, c.gate,
			workflow.WithLogger(logging.WorkflowLogger(c.loggerProvider)),
			workflow.WithDependencyChecker(c.depChecker),
			workflow.WithEffectiveDateGrace(cfg.Workflow.EffectiveDateGrace),
		)
		if err != nil {
			return nil, err
		}
		c.workflowSvc = svc
	}

	auditSvc, err := audit.New(c.repo,
		audit.WithLogger(logging.AuditLogger(c.loggerProvider)),
	)
	if err != nil {
		return nil, err
	}
	c.auditSvc = auditSvc

	sweeper, err := scheduler.NewSweeper(c.repo, c.workflowSvc,
		scheduler.WithSweeperLogger(logging.SchedulerLogger(c.loggerProvider)),
		scheduler.WithBatchSize(cfg.Scheduler.BatchSize),
		scheduler.WithSoftTimeout(cfg.Scheduler.SoftTimeout),
	)
	if err != nil {
		return nil, err
	}
	c.sweeper = sweeper

	if cfg.Features.Scheduler {
		runner, err := scheduler.NewRunner(c.sweeper, cfg.Scheduler.Expression,
			scheduler.WithRunnerLogger(logging.SchedulerLogger(c.loggerProvider)),
		)
		if err != nil {
			return nil, err
		}
		c.runner = runner
	}

	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	if !c.Config.Features.Logger {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure gologger provider: %w", err)
		}
		c.loggerProvider = provider
	default:
		c.loggerProvider = console.NewProvider(console.Options{})
	}
	return nil
}

func (c *Container) configureRepository() error {
	if c.repo != nil {
		return nil
	}
	if c.bunDB == nil && strings.EqualFold(strings.TrimSpace(c.Config.Storage.Provider), "database") {
		db, err := OpenBunDB(c.Config.Storage)
		if err != nil {
			return err
		}
		c.bunDB = db
	}
	if c.bunDB != nil {
		c.repo = workflow.NewBunRepository(c.bunDB)
		return nil
	}
	c.repo = workflow.NewMemoryRepository()
	return nil
}

// WorkflowService exposes the lifecycle service.
func (c *Container) WorkflowService() workflow.Service {
	return c.workflowSvc
}

// AuditService exposes the transition trail reader.
func (c *Container) AuditService() audit.Service {
	return c.auditSvc
}

// Gate exposes the authorization gate.
func (c *Container) Gate() *authorization.Gate {
	return c.gate
}

// Sweeper exposes the effectiveness sweeper for on-demand runs.
func (c *Container) Sweeper() *scheduler.Sweeper {
	return c.sweeper
}

// Runner exposes the cron runner, nil when the scheduler feature is off.
func (c *Container) Runner() *scheduler.Runner {
	return c.runner
}

// Repository exposes workflow storage, primarily for tests and migrations.
func (c *Container) Repository() workflow.Repository {
	return c.repo
}

// LoggerProvider exposes the resolved logging provider, nil when logging is
// disabled.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}
