package store

import (
	"context"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type questionCatalog struct {
	drv *entsql.Driver
}

var questionColumns = []string{"id", "activity_key", "question_key", "question_text", "correct_answer", "concept_tags"}

func (c *questionCatalog) QuestionsByKeys(ctx context.Context, activityKey string, keys []string) (map[string]ActivityQuestion, error) {
	out := make(map[string]ActivityQuestion, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	in := make([]any, len(keys))
	for i, k := range keys {
		in[i] = k
	}
	query, args := builder().Select(questionColumns...).
		From(entsql.Table("activity_questions")).
		Where(entsql.And(
			entsql.EQ("activity_key", activityKey),
			entsql.In("question_key", in...),
		)).
		Query()

	qs, err := c.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	for _, q := range qs {
		out[q.QuestionKey] = q
	}
	return out, nil
}

func (c *questionCatalog) ListActivity(ctx context.Context, activityKey string) ([]ActivityQuestion, error) {
	query, args := builder().Select(questionColumns...).
		From(entsql.Table("activity_questions")).
		Where(entsql.EQ("activity_key", activityKey)).
		OrderBy("question_key").
		Query()
	return c.query(ctx, query, args)
}

func (c *questionCatalog) Upsert(ctx context.Context, questions []ActivityQuestion) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	ins := builder().Insert("activity_questions").Columns(questionColumns...)
	for _, q := range questions {
		if q.ActivityKey == "" || q.QuestionKey == "" {
			return 0, fmt.Errorf("question requires activity and key: %+v", q)
		}
		id := q.ID
		if id == "" {
			id = uuid.NewString()
		}
		tags, err := json.Marshal(nonNil(q.ConceptTags))
		if err != nil {
			return 0, fmt.Errorf("marshal concept tags: %w", err)
		}
		ins.Values(id, q.ActivityKey, q.QuestionKey, q.QuestionText, q.CorrectAnswer, string(tags))
	}
	query, args := ins.OnConflict(
		entsql.ConflictColumns("activity_key", "question_key"),
		entsql.ResolveWith(func(u *entsql.UpdateSet) {
			u.SetExcluded("question_text")
			u.SetExcluded("correct_answer")
			u.SetExcluded("concept_tags")
		}),
	).Query()

	if _, err := execQuery(ctx, c.drv, query, args); err != nil {
		return 0, fmt.Errorf("upsert questions: %w", err)
	}
	return len(questions), nil
}

func (c *questionCatalog) query(ctx context.Context, query string, args []any) ([]ActivityQuestion, error) {
	rows, err := queryRows(ctx, c.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []ActivityQuestion
	for rows.Next() {
		var (
			q    ActivityQuestion
			tags string
		)
		if err := rows.Scan(&q.ID, &q.ActivityKey, &q.QuestionKey, &q.QuestionText, &q.CorrectAnswer, &tags); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &q.ConceptTags); err != nil {
			return nil, fmt.Errorf("decode concept tags for %s: %w", q.ID, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
