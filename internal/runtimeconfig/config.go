package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSchedulerExpressionRequired indicates the sweep feature is on without a schedule.
var ErrSchedulerExpressionRequired = errors.New("docflow config: scheduler expression is required when the scheduler feature is enabled")

// ErrSchedulerBatchSizeInvalid rejects non-positive sweep batch sizes.
var ErrSchedulerBatchSizeInvalid = errors.New("docflow config: scheduler batch size must be positive")

// ErrSchedulerSoftTimeoutInvalid rejects negative sweep timeouts.
var ErrSchedulerSoftTimeoutInvalid = errors.New("docflow config: scheduler soft timeout must be zero or positive")

// ErrEffectiveDateGraceInvalid rejects negative approval grace windows.
var ErrEffectiveDateGraceInvalid = errors.New("docflow config: effective date grace must be zero or positive")

// ErrStorageDriverUnknown indicates the database storage driver is not supported.
var ErrStorageDriverUnknown = errors.New("docflow config: storage driver must be postgres or sqlite")

// ErrStorageDSNRequired indicates database storage was requested without a DSN.
var ErrStorageDSNRequired = errors.New("docflow config: storage dsn is required for database storage")

// ErrLoggingProviderRequired indicates the logging feature is enabled without a provider.
var ErrLoggingProviderRequired = errors.New("docflow config: logging provider is required when logging feature is enabled")

// ErrLoggingProviderUnknown indicates the logging provider is invalid.
var ErrLoggingProviderUnknown = errors.New("docflow config: logging provider is invalid")

// ErrLoggingLevelInvalid indicates the logging level is invalid.
var ErrLoggingLevelInvalid = errors.New("docflow config: logging level is invalid")

// ErrLoggingFormatInvalid indicates the logging format is invalid.
var ErrLoggingFormatInvalid = errors.New("docflow config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the docflow module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Storage   StorageConfig
	Scheduler SchedulerConfig
	Workflow  WorkflowConfig
	Features  Features
	Logging   LoggingConfig
}

// StorageConfig lists identifiers for storage-related dependencies.
type StorageConfig struct {
	// Provider selects the backing store, "memory" or "database".
	Provider string
	// Driver names the SQL driver when Provider is "database". Supported
	// values are "postgres" and "sqlite".
	Driver string
	// DSN is the connection string when Provider is "database".
	DSN string
}

// SchedulerConfig controls the effectiveness sweep.
type SchedulerConfig struct {
	// Expression is the cron schedule for the periodic sweep.
	Expression string
	// BatchSize caps how many due instances a single sweep promotes.
	BatchSize int
	// SoftTimeout bounds one sweep run; instances left over are picked up by
	// the next cycle.
	SoftTimeout time.Duration
}

// WorkflowConfig captures tunables for the instance manager.
type WorkflowConfig struct {
	// EffectiveDateGrace is how far in the past an approval effective date may
	// lie before it is rejected as invalid.
	EffectiveDateGrace time.Duration
}

// Features toggles module functionality.
type Features struct {
	Scheduler bool
	Logger    bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns the baseline configuration used by the module facade.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Provider: "memory",
		},
		Scheduler: SchedulerConfig{
			Expression:  "@daily",
			BatchSize:   100,
			SoftTimeout: 5 * time.Minute,
		},
		Workflow: WorkflowConfig{
			EffectiveDateGrace: 0,
		},
		Features: Features{
			Scheduler: true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if cfg.Features.Scheduler {
		if strings.TrimSpace(cfg.Scheduler.Expression) == "" {
			return ErrSchedulerExpressionRequired
		}
	}
	if cfg.Scheduler.BatchSize < 0 {
		return ErrSchedulerBatchSizeInvalid
	}
	if cfg.Scheduler.SoftTimeout < 0 {
		return ErrSchedulerSoftTimeoutInvalid
	}
	if cfg.Workflow.EffectiveDateGrace < 0 {
		return ErrEffectiveDateGraceInvalid
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Storage.Provider), "database") {
		switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
		case "postgres", "sqlite":
		default:
			return ErrStorageDriverUnknown
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	}
	if cfg.Features.Logger {
		provider := strings.ToLower(strings.TrimSpace(cfg.Logging.Provider))
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
