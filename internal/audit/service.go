package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-docflow/internal/logging"
	"github.com/goliatone/go-docflow/internal/workflow"
	"github.com/goliatone/go-docflow/pkg/interfaces"
	"github.com/google/uuid"
)

// ErrTrailGap is returned when an instance trail's sequence numbers are not
// contiguous from one, which indicates rows were removed or reordered.
var ErrTrailGap = errors.New("audit: transition trail has sequence gaps")

// HistorySource is the slice of workflow storage the audit service reads.
type HistorySource interface {
	HistoryByDocument(ctx context.Context, documentID uuid.UUID) ([]*workflow.Transition, error)
	HistoryByInstance(ctx context.Context, instanceID uuid.UUID) ([]*workflow.Transition, error)
}

// Service exposes the append-only transition trail.
type Service interface {
	// DocumentTrail returns every recorded attempt for a document across
	// all of its workflow instances, oldest first.
	DocumentTrail(ctx context.Context, documentID uuid.UUID) ([]*workflow.Transition, error)
	// InstanceTrail returns every recorded attempt for one instance.
	InstanceTrail(ctx context.Context, instanceID uuid.UUID) ([]*workflow.Transition, error)
	// Verify checks the instance trail's sequence continuity.
	Verify(ctx context.Context, instanceID uuid.UUID) error
	// Export writes a document's trail to w as JSON.
	Export(ctx context.Context, documentID uuid.UUID, w io.Writer) error
}

type service struct {
	source HistorySource
	logger interfaces.Logger
}

// Option configures the audit service.
type Option func(*service)

// WithLogger overrides the audit logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs the audit read service.
func New(source HistorySource, opts ...Option) (Service, error) {
	if source == nil {
		return nil, errors.New("audit: history source required")
	}
	svc := &service{
		source: source,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *service) DocumentTrail(ctx context.Context, documentID uuid.UUID) ([]*workflow.Transition, error) {
	if documentID == uuid.Nil {
		return nil, workflow.ErrNilDocumentID
	}
	return s.source.HistoryByDocument(ctx, documentID)
}

func (s *service) InstanceTrail(ctx context.Context, instanceID uuid.UUID) ([]*workflow.Transition, error) {
	if instanceID == uuid.Nil {
		return nil, errors.New("audit: instance id required")
	}
	return s.source.HistoryByInstance(ctx, instanceID)
}

func (s *service) Verify(ctx context.Context, instanceID uuid.UUID) error {
	trail, err := s.InstanceTrail(ctx, instanceID)
	if err != nil {
		return err
	}
	for i, record := range trail {
		if record.Seq != int64(i)+1 {
			s.logger.Error("transition trail failed verification",
				"instance_id", instanceID,
				"position", i,
				"seq", record.Seq,
			)
			return fmt.Errorf("%w: instance %s, expected seq %d, found %d", ErrTrailGap, instanceID, i+1, record.Seq)
		}
	}
	return nil
}

func (s *service) Export(ctx context.Context, documentID uuid.UUID, w io.Writer) error {
	trail, err := s.DocumentTrail(ctx, documentID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(trail); err != nil {
		return fmt.Errorf("audit: export trail: %w", err)
	}
	return nil
}
