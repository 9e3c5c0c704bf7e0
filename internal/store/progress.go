package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type progressRepo struct {
	drv *entsql.Driver
	now func() time.Time
}

func (r *progressRepo) Get(ctx context.Context, userID string) (*ProgressRecord, error) {
	query, args := builder().Select("user_id", "version", "data", "updated_at").
		From(entsql.Table("mastery_progress")).
		Where(entsql.EQ("user_id", userID)).
		Query()
	rows, err := queryRows(ctx, r.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var (
		rec     ProgressRecord
		data    string
		updated int64
	)
	if err := rows.Scan(&rec.UserID, &rec.Version, &data, &updated); err != nil {
		return nil, fmt.Errorf("scan progress: %w", err)
	}
	rec.Data = []byte(data)
	rec.UpdatedAt = fromMillis(updated)
	return &rec, nil
}

func (r *progressRepo) CompareAndSwap(ctx context.Context, userID string, expected int64, data []byte) (int64, error) {
	now := toMillis(r.now())
	next := expected + 1

	var query string
	var args []any
	if expected == 0 {
		query, args = builder().Insert("mastery_progress").
			Columns("user_id", "version", "data", "updated_at").
			Values(userID, next, string(data), now).
			OnConflict(entsql.ConflictColumns("user_id"), entsql.DoNothing()).
			Query()
	} else {
		query, args = builder().Update("mastery_progress").
			Set("version", next).
			Set("data", string(data)).
			Set("updated_at", now).
			Where(entsql.And(
				entsql.EQ("user_id", userID),
				entsql.EQ("version", expected),
			)).
			Query()
	}

	res, err := execQuery(ctx, r.drv, query, args)
	if err != nil {
		return 0, fmt.Errorf("write progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return 0, ErrVersionConflict
	}
	return next, nil
}
