package commands

import (
	"errors"
	"strings"

	command "github.com/goliatone/go-command"
	internalcmd "github.com/goliatone/go-docflow/internal/commands"
	"github.com/goliatone/go-docflow/internal/commands/auditcmd"
	"github.com/goliatone/go-docflow/internal/commands/schedulercmd"
	"github.com/goliatone/go-docflow/internal/commands/workflowcmd"
	"github.com/goliatone/go-docflow/internal/di"
	"github.com/goliatone/go-docflow/pkg/interfaces"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider
	// SweepCron overrides the default cron expression applied to the
	// effectiveness sweep handler.
	SweepCron string
}

// RegistrationResult captures the constructed command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterContainerCommands builds the command handlers exposed by the provided container and
// optionally registers them with registry/dispatcher/cron integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}

	provider := opts.LoggerProvider
	if provider == nil {
		provider = container.LoggerProvider()
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
	}

	loggerFor := func(module string) interfaces.Logger {
		return internalcmd.CommandLogger(provider, module)
	}

	// Workflow commands.
	if service := container.WorkflowService(); service != nil {
		workflowLogger := loggerFor("workflow")
		register(workflowcmd.NewStartWorkflowHandler(service, workflowLogger))
		register(workflowcmd.NewApplyTransitionHandler(service, workflowLogger))
	}

	// Scheduler commands.
	if sweeper := container.Sweeper(); sweeper != nil && container.Config.Features.Scheduler {
		sweepOpts := []schedulercmd.SweepHandlerOption{}
		if expr := strings.TrimSpace(opts.SweepCron); expr != "" {
			sweepOpts = append(sweepOpts, schedulercmd.SweepWithCronExpression(expr))
		}
		sweepHandler := schedulercmd.NewSweepHandler(sweeper, loggerFor("scheduler"), sweepOpts...)
		register(sweepHandler)
		if opts.CronRegistrar != nil {
			if err := opts.CronRegistrar(sweepHandler.CronConfig(), sweepHandler); err != nil {
				errs = errors.Join(errs, err)
			}
		}
	}

	// Audit commands.
	if service := container.AuditService(); service != nil {
		register(auditcmd.NewExportTrailHandler(service, loggerFor("audit")))
	}

	if errs != nil && len(result.Handlers) == 0 {
		return result, errs
	}

	if len(result.Handlers) == 0 {
		return result, errors.New("no command handlers registered; ensure services are configured and required features enabled")
	}

	return result, errs
}
