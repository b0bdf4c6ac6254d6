package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskdeck/backend/domain"
)

// querier is satisfied by both pgxpool.Pool and pgx.Tx so the update
// statements can run standalone or inside the cascade transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func marshalTags(tags []string) []byte {
	if len(tags) == 0 {
		return nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil
	}
	return b
}

func unmarshalTags(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var tags []string
	_ = json.Unmarshal(raw, &tags)
	return tags
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}

// versionMiss distinguishes a vanished row from an optimistic-concurrency
// loss after an UPDATE affected zero rows.
func versionMiss(ctx context.Context, q querier, existsQuery, id string, notFound error) error {
	var one int
	if err := q.QueryRow(ctx, existsQuery, id).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound
		}
		return err
	}
	return domain.ErrVersionConflict
}
