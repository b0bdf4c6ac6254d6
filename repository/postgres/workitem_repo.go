package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/repository"
)

type workItemRepository struct {
	pool *pgxpool.Pool
}

// NewWorkItemRepository returns a Postgres-backed implementation of WorkItemRepository.
func NewWorkItemRepository(pool *pgxpool.Pool) repository.WorkItemRepository {
	return &workItemRepository{pool: pool}
}

const workItemColumns = `
	id, tenant_id, title, description, priority, state, due_at, completed_at,
	estimated_hours, actual_hours, tags,
	created_at, created_by, updated_at, updated_by, version
`

func (r *workItemRepository) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanWorkItem(row)
}

func (r *workItemRepository) Create(ctx context.Context, item *domain.WorkItem) error {
	if item == nil {
		return domain.ErrInvalidPayload
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO work_items (
		id, tenant_id, title, description, priority, state, due_at, completed_at,
		estimated_hours, actual_hours, tags,
		created_at, created_by, updated_at, updated_by, version
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.TenantID,
		item.Title,
		item.Description,
		string(item.Priority),
		string(item.State),
		nullableTime(item.DueAt),
		nullableTime(item.CompletedAt),
		item.EstimatedHours,
		item.ActualHours,
		marshalTags(item.Tags),
		item.CreatedAt,
		item.CreatedBy,
		item.UpdatedAt,
		item.UpdatedBy,
		item.Version,
	)
	return err
}

func (r *workItemRepository) Update(ctx context.Context, item *domain.WorkItem) error {
	return updateWorkItem(ctx, r.pool, item)
}

func (r *workItemRepository) UpdateWithReminders(ctx context.Context, item *domain.WorkItem, reminders []*domain.Reminder) error {
	if item == nil {
		return domain.ErrInvalidPayload
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := updateWorkItem(ctx, tx, item); err != nil {
		return err
	}
	for _, reminder := range reminders {
		if err := updateReminder(ctx, tx, reminder); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// updateWorkItem persists the item matching on the pre-bump version so a
// concurrent writer loses with ErrVersionConflict instead of overwriting.
func updateWorkItem(ctx context.Context, q querier, item *domain.WorkItem) error {
	if item == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE work_items
	SET title = $3,
		description = $4,
		priority = $5,
		state = $6,
		due_at = $7,
		completed_at = $8,
		estimated_hours = $9,
		actual_hours = $10,
		tags = $11,
		updated_at = $12,
		updated_by = $13,
		version = $14
	WHERE id = $1 AND version = $2
	`

	tag, err := q.Exec(ctx, query,
		item.ID,
		item.Version-1,
		item.Title,
		item.Description,
		string(item.Priority),
		string(item.State),
		nullableTime(item.DueAt),
		nullableTime(item.CompletedAt),
		item.EstimatedHours,
		item.ActualHours,
		marshalTags(item.Tags),
		item.UpdatedAt,
		item.UpdatedBy,
		item.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return versionMiss(ctx, q, `SELECT 1 FROM work_items WHERE id = $1`, item.ID, domain.ErrWorkItemNotFound)
	}
	return nil
}

func scanWorkItem(row pgx.Row) (*domain.WorkItem, error) {
	var (
		item     domain.WorkItem
		priority string
		state    string
		tags     []byte
	)

	if err := row.Scan(
		&item.ID,
		&item.TenantID,
		&item.Title,
		&item.Description,
		&priority,
		&state,
		&item.DueAt,
		&item.CompletedAt,
		&item.EstimatedHours,
		&item.ActualHours,
		&tags,
		&item.CreatedAt,
		&item.CreatedBy,
		&item.UpdatedAt,
		&item.UpdatedBy,
		&item.Version,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkItemNotFound
		}
		return nil, err
	}

	item.Priority = domain.Priority(priority)
	item.State = domain.WorkItemState(state)
	item.Tags = unmarshalTags(tags)
	return &item, nil
}
