package docflow

import "github.com/goliatone/go-docflow/internal/runtimeconfig"

// Config aggregates feature flags and adapter bindings for the module.
type Config = runtimeconfig.Config

// StorageConfig selects the persistence backend.
type StorageConfig = runtimeconfig.StorageConfig

// SchedulerConfig controls the effectiveness sweep.
type SchedulerConfig = runtimeconfig.SchedulerConfig

// WorkflowConfig captures tunables for the instance manager.
type WorkflowConfig = runtimeconfig.WorkflowConfig

// Features toggles module functionality.
type Features = runtimeconfig.Features

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig = runtimeconfig.LoggingConfig

// Configuration validation errors.
var (
	ErrSchedulerExpressionRequired = runtimeconfig.ErrSchedulerExpressionRequired
	ErrSchedulerBatchSizeInvalid   = runtimeconfig.ErrSchedulerBatchSizeInvalid
	ErrSchedulerSoftTimeoutInvalid = runtimeconfig.ErrSchedulerSoftTimeoutInvalid
	ErrEffectiveDateGraceInvalid   = runtimeconfig.ErrEffectiveDateGraceInvalid
	ErrLoggingProviderRequired     = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown      = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid         = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid        = runtimeconfig.ErrLoggingFormatInvalid
)

// DefaultConfig returns the baseline configuration used by the module facade.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
