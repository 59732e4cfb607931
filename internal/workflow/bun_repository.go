package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-docflow/internal/domain"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunRepository persists workflow state in a bun-backed database. Single
// record reads go through go-repository-bun; guarded updates and the
// two-document supersede commit run as explicit transactions.
type BunRepository struct {
	db        *bun.DB
	instances repository.Repository[*Instance]
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{
		db:        db,
		instances: NewInstanceRepository(db),
	}
}

func (r *BunRepository) CreateInstance(ctx context.Context, instance *Instance, record *Transition) (*Instance, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(instance).Exec(ctx); err != nil {
			return fmt.Errorf("insert workflow instance: %w", err)
		}
		return insertTransition(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func (r *BunRepository) GetInstance(ctx context.Context, id uuid.UUID) (*Instance, error) {
	result, err := r.instances.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "workflow instance", id.String())
	}
	return result, nil
}

func (r *BunRepository) GetActiveByDocument(ctx context.Context, documentID uuid.UUID) (*Instance, error) {
	instance := new(Instance)
	err := r.db.NewSelect().
		Model(instance).
		Where("?TableAlias.document_id = ?", documentID).
		Where("?TableAlias.current_state NOT IN (?)", bun.In(terminalStates())).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "active workflow", Key: documentID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("select active workflow: %w", err)
	}
	return instance, nil
}

func (r *BunRepository) ListDue(ctx context.Context, asOf time.Time, limit int) ([]*Instance, error) {
	var due []*Instance
	query := r.db.NewSelect().
		Model(&due).
		Where("?TableAlias.current_state = ?", domain.StateApprovedPendingEffective).
		Where("?TableAlias.scheduled_effective_date <= ?", asOf).
		Order("scheduled_effective_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select due workflows: %w", err)
	}
	return due, nil
}

func (r *BunRepository) ApplyTransition(ctx context.Context, update TransitionUpdate) (*Instance, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return applyUpdate(ctx, tx, update)
	})
	if err != nil {
		return nil, err
	}
	return update.Instance, nil
}

func (r *BunRepository) ApplyPair(ctx context.Context, first, second TransitionUpdate) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := applyUpdate(ctx, tx, first); err != nil {
			return err
		}
		return applyUpdate(ctx, tx, second)
	})
}

func (r *BunRepository) AppendTransition(ctx context.Context, record *Transition) (*Transition, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return insertTransition(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *BunRepository) HistoryByDocument(ctx context.Context, documentID uuid.UUID) ([]*Transition, error) {
	return r.history(ctx, "document_id", documentID)
}

func (r *BunRepository) HistoryByInstance(ctx context.Context, instanceID uuid.UUID) ([]*Transition, error) {
	return r.history(ctx, "workflow_instance_id", instanceID)
}

func (r *BunRepository) history(ctx context.Context, column string, id uuid.UUID) ([]*Transition, error) {
	var records []*Transition
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.? = ?", bun.Ident(column), id).
		Order("recorded_at ASC", "seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select transitions: %w", err)
	}
	return records, nil
}

// applyUpdate performs the guarded state write. The WHERE clause on
// current_state is what turns a lost race into StateChangedError instead of
// a silent overwrite.
func applyUpdate(ctx context.Context, tx bun.Tx, update TransitionUpdate) error {
	res, err := tx.NewUpdate().
		Model(update.Instance).
		Column(
			"current_state",
			"reviewer_id",
			"approver_id",
			"scheduled_effective_date",
			"updated_at",
		).
		Where("?TableAlias.id = ?", update.Instance.ID).
		Where("?TableAlias.current_state = ?", update.Expected).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update workflow instance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update workflow instance: %w", err)
	}
	if affected == 0 {
		current := new(Instance)
		if err := tx.NewSelect().Model(current).Where("?TableAlias.id = ?", update.Instance.ID).Scan(ctx); err != nil {
			return &NotFoundError{Resource: "workflow instance", Key: update.Instance.ID.String()}
		}
		return &domain.StateChangedError{
			DocumentID: current.DocumentID,
			Expected:   update.Expected,
			Actual:     current.CurrentState,
		}
	}
	return insertTransition(ctx, tx, update.Record)
}

func insertTransition(ctx context.Context, tx bun.Tx, record *Transition) error {
	if record == nil {
		return nil
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	key := record.WorkflowInstanceID
	column := "workflow_instance_id"
	if key == uuid.Nil {
		key = record.DocumentID
		column = "document_id"
	}
	var seq int64
	err := tx.NewSelect().
		Model((*Transition)(nil)).
		ColumnExpr("COALESCE(MAX(seq), 0)").
		Where("?TableAlias.? = ?", bun.Ident(column), key).
		Scan(ctx, &seq)
	if err != nil {
		return fmt.Errorf("next transition seq: %w", err)
	}
	record.Seq = seq + 1
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return fmt.Errorf("insert workflow transition: %w", err)
	}
	return nil
}

func terminalStates() []domain.State {
	out := make([]domain.State, 0, 3)
	for _, state := range domain.States() {
		if state.IsTerminal() {
			out = append(out, state)
		}
	}
	return out
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
