package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/repository"
)

type reminderRepository struct {
	pool *pgxpool.Pool
}

// NewReminderRepository returns a Postgres-backed implementation of ReminderRepository.
func NewReminderRepository(pool *pgxpool.Pool) repository.ReminderRepository {
	return &reminderRepository{pool: pool}
}

const reminderColumns = `
	id, work_item_id, fire_at, message, status, triggered_at, last_error, deleted_at,
	created_at, created_by, updated_at, updated_by, version
`

func (r *reminderRepository) GetByID(ctx context.Context, id string) (*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1 AND deleted_at IS NULL`
	row := r.pool.QueryRow(ctx, query, id)
	return scanReminder(row)
}

func (r *reminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	if reminder == nil {
		return domain.ErrInvalidPayload
	}
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO reminders (
		id, work_item_id, fire_at, message, status, triggered_at, last_error,
		created_at, created_by, updated_at, updated_by, version
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		reminder.ID,
		reminder.WorkItemID,
		reminder.FireAt,
		reminder.Message,
		string(reminder.Status),
		nullableTime(reminder.TriggeredAt),
		reminder.LastError,
		reminder.CreatedAt,
		reminder.CreatedBy,
		reminder.UpdatedAt,
		reminder.UpdatedBy,
		reminder.Version,
	)
	return err
}

func (r *reminderRepository) Update(ctx context.Context, reminder *domain.Reminder) error {
	return updateReminder(ctx, r.pool, reminder)
}

// updateReminder matches on the pre-bump version; see updateWorkItem.
func updateReminder(ctx context.Context, q querier, reminder *domain.Reminder) error {
	if reminder == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE reminders
	SET fire_at = $3,
		message = $4,
		status = $5,
		triggered_at = $6,
		last_error = $7,
		updated_at = $8,
		updated_by = $9,
		version = $10
	WHERE id = $1 AND version = $2 AND deleted_at IS NULL
	`

	tag, err := q.Exec(ctx, query,
		reminder.ID,
		reminder.Version-1,
		reminder.FireAt,
		reminder.Message,
		string(reminder.Status),
		nullableTime(reminder.TriggeredAt),
		reminder.LastError,
		reminder.UpdatedAt,
		reminder.UpdatedBy,
		reminder.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return versionMiss(ctx, q, `SELECT 1 FROM reminders WHERE id = $1 AND deleted_at IS NULL`, reminder.ID, domain.ErrReminderNotFound)
	}
	return nil
}

func (r *reminderRepository) ListByWorkItem(ctx context.Context, workItemID string) ([]domain.Reminder, error) {
	query := `
	SELECT ` + reminderColumns + `
	FROM reminders
	WHERE work_item_id = $1 AND deleted_at IS NULL
	ORDER BY fire_at ASC
	`
	return r.queryReminders(ctx, query, workItemID)
}

func (r *reminderRepository) CountScheduled(ctx context.Context, workItemID string) (int, error) {
	const query = `
	SELECT COUNT(*) FROM reminders
	WHERE work_item_id = $1 AND status = $2 AND deleted_at IS NULL
	`
	var count int
	err := r.pool.QueryRow(ctx, query, workItemID, string(domain.ReminderScheduledStatus)).Scan(&count)
	return count, err
}

func (r *reminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	query := `
	SELECT ` + reminderColumns + `
	FROM reminders
	WHERE status = $1 AND fire_at <= $2 AND deleted_at IS NULL
	ORDER BY fire_at ASC
	LIMIT $3
	`
	return r.queryReminders(ctx, query, string(domain.ReminderScheduledStatus), now, clampLimit(limit))
}

func (r *reminderRepository) ListMissed(ctx context.Context, lower, upper time.Time) ([]domain.Reminder, error) {
	query := `
	SELECT ` + reminderColumns + `
	FROM reminders
	WHERE status = $1 AND fire_at > $2 AND fire_at <= $3 AND deleted_at IS NULL
	ORDER BY fire_at ASC
	`
	return r.queryReminders(ctx, query, string(domain.ReminderScheduledStatus), lower, upper)
}

func (r *reminderRepository) ListAbandoned(ctx context.Context, cutoff time.Time, limit int) ([]domain.Reminder, error) {
	query := `
	SELECT ` + reminderColumns + `
	FROM reminders
	WHERE status = $1 AND fire_at <= $2 AND deleted_at IS NULL
	ORDER BY fire_at ASC
	LIMIT $3
	`
	return r.queryReminders(ctx, query, string(domain.ReminderScheduledStatus), cutoff, clampLimit(limit))
}

func (r *reminderRepository) ListTerminalOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.Reminder, error) {
	query := `
	SELECT ` + reminderColumns + `
	FROM reminders
	WHERE status = ANY($1) AND updated_at < $2 AND deleted_at IS NULL
	ORDER BY updated_at ASC
	LIMIT $3
	`
	statuses := []string{string(domain.ReminderTriggeredStatus), string(domain.ReminderCancelledStatus)}
	return r.queryReminders(ctx, query, statuses, cutoff, clampLimit(limit))
}

func (r *reminderRepository) SoftDelete(ctx context.Context, ids []string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE reminders SET deleted_at = $2 WHERE id = ANY($1) AND deleted_at IS NULL`
	_, err := r.pool.Exec(ctx, query, ids, now)
	return err
}

func (r *reminderRepository) queryReminders(ctx context.Context, query string, args ...interface{}) ([]domain.Reminder, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []domain.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *reminder)
	}
	return reminders, rows.Err()
}

func scanReminder(row pgx.Row) (*domain.Reminder, error) {
	var (
		reminder domain.Reminder
		status   string
	)

	if err := row.Scan(
		&reminder.ID,
		&reminder.WorkItemID,
		&reminder.FireAt,
		&reminder.Message,
		&status,
		&reminder.TriggeredAt,
		&reminder.LastError,
		&reminder.DeletedAt,
		&reminder.CreatedAt,
		&reminder.CreatedBy,
		&reminder.UpdatedAt,
		&reminder.UpdatedBy,
		&reminder.Version,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReminderNotFound
		}
		return nil, err
	}

	reminder.Status = domain.ReminderStatus(status)
	return &reminder, nil
}
