package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type quizResultRepo struct {
	drv *entsql.Driver
	now func() time.Time
}

func (r *quizResultRepo) Append(ctx context.Context, res *QuizResult) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = r.now().UTC()
	}
	query, args := builder().Insert("quiz_results").
		Columns("id", "user_id", "question_id", "is_correct", "attempts", "submitted_answer", "created_at").
		Values(res.ID, res.UserID, res.QuestionID, res.IsCorrect, res.Attempts, res.SubmittedAnswer, toMillis(res.CreatedAt)).
		Query()
	if _, err := execQuery(ctx, r.drv, query, args); err != nil {
		return fmt.Errorf("append quiz result: %w", err)
	}
	return nil
}

func (r *quizResultRepo) ListByUser(ctx context.Context, userID string, q ResultQuery) ([]QuizResult, error) {
	pred := entsql.EQ("user_id", userID)
	if q.QuestionID != "" {
		pred = entsql.And(pred, entsql.EQ("question_id", q.QuestionID))
	}
	sel := builder().Select("id", "user_id", "question_id", "is_correct", "attempts", "submitted_answer", "created_at").
		From(entsql.Table("quiz_results")).
		Where(pred).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("rowid"))
	if q.Limit > 0 {
		sel.Limit(q.Limit)
	}
	query, args := sel.Query()

	rows, err := queryRows(ctx, r.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("query quiz results: %w", err)
	}
	defer rows.Close()

	var out []QuizResult
	for rows.Next() {
		var (
			qr      QuizResult
			created int64
		)
		if err := rows.Scan(&qr.ID, &qr.UserID, &qr.QuestionID, &qr.IsCorrect, &qr.Attempts, &qr.SubmittedAnswer, &created); err != nil {
			return nil, fmt.Errorf("scan quiz result: %w", err)
		}
		qr.CreatedAt = fromMillis(created)
		out = append(out, qr)
	}
	return out, rows.Err()
}
