package schedulercmd

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-docflow/internal/commands"
	"github.com/goliatone/go-docflow/internal/logging"
	"github.com/goliatone/go-docflow/internal/scheduler"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const sweepMessageType = "docflow.scheduler.sweep"

// SweepCommand runs one effectiveness sweep. A zero AsOf sweeps as of now.
type SweepCommand struct {
	AsOf time.Time `json:"as_of,omitempty"`
}

// Type implements command.Message.
func (SweepCommand) Type() string { return sweepMessageType }

// Validate satisfies command.Message.
func (SweepCommand) Validate() error {
	return validation.ValidateStruct(&SweepCommand{})
}

type sweepHandlerConfig struct {
	cronConfig command.HandlerConfig
	timeout    time.Duration
}

// SweepHandlerOption customises the sweep handler.
type SweepHandlerOption func(*sweepHandlerConfig)

// SweepWithCronConfig overrides the cron registration options.
func SweepWithCronConfig(config command.HandlerConfig) SweepHandlerOption {
	return func(cfg *sweepHandlerConfig) {
		cfg.cronConfig = config
	}
}

// SweepWithCronExpression overrides the cron expression.
func SweepWithCronExpression(expression string) SweepHandlerOption {
	return func(cfg *sweepHandlerConfig) {
		if trimmed := strings.TrimSpace(expression); trimmed != "" {
			cfg.cronConfig.Expression = trimmed
		}
	}
}

// SweepWithTimeout overrides the default execution timeout.
func SweepWithTimeout(timeout time.Duration) SweepHandlerOption {
	return func(cfg *sweepHandlerConfig) {
		cfg.timeout = timeout
	}
}

// SweepHandler runs the effectiveness sweeper on demand or from a cron
// registration.
type SweepHandler struct {
	sweeper    *scheduler.Sweeper
	logger     interfaces.Logger
	cronConfig command.HandlerConfig
	timeout    time.Duration
}

// NewSweepHandler constructs a handler that delegates to the sweeper.
func NewSweepHandler(sweeper *scheduler.Sweeper, logger interfaces.Logger, opts ...SweepHandlerOption) *SweepHandler {
	cfg := sweepHandlerConfig{
		cronConfig: command.HandlerConfig{
			Expression: "@daily",
		},
		timeout: commands.DefaultCommandTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &SweepHandler{
		sweeper:    sweeper,
		logger:     commands.EnsureLogger(logger),
		cronConfig: cfg.cronConfig,
		timeout:    cfg.timeout,
	}
}

// CronConfig exposes the options used when registering with a cron
// dispatcher.
func (h *SweepHandler) CronConfig() command.HandlerConfig {
	return h.cronConfig
}

// Execute satisfies command.Commander[SweepCommand].
func (h *SweepHandler) Execute(ctx context.Context, msg SweepCommand) error {
	if h.sweeper == nil {
		return commands.WrapExecuteError(errors.New("schedulercmd: sweeper is required"))
	}
	if err := commands.WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = commands.EnsureContext(ctx)
	ctx, cancel := commands.WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return commands.WrapContextError(err)
	}

	result, err := h.sweeper.Run(ctx, msg.AsOf)
	if err != nil {
		return commands.WrapExecuteError(err)
	}

	logging.WithFields(h.logger, map[string]any{
		"operation": "scheduler.sweep",
		"promoted":  len(result.Promoted),
		"failed":    len(result.Failed),
		"remaining": result.Remaining,
	}).Info("effectiveness sweep command finished")
	return nil
}
