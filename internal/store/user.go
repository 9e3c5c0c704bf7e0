package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type userRepo struct {
	drv *entsql.Driver
	now func() time.Time
}

func (r *userRepo) Upsert(ctx context.Context, userID string) error {
	now := toMillis(r.now())
	query, args := builder().Insert("users").
		Columns("id", "created_at", "last_seen_at").
		Values(userID, now, now).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("last_seen_at")
			}),
		).
		Query()
	if _, err := execQuery(ctx, r.drv, query, args); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *userRepo) Get(ctx context.Context, userID string) (*User, error) {
	query, args := builder().Select("id", "created_at", "last_seen_at").
		From(entsql.Table("users")).
		Where(entsql.EQ("id", userID)).
		Query()
	rows, err := queryRows(ctx, r.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var (
		u                 User
		created, lastSeen int64
	)
	if err := rows.Scan(&u.ID, &created, &lastSeen); err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = fromMillis(created)
	u.LastSeenAt = fromMillis(lastSeen)
	return &u, nil
}
