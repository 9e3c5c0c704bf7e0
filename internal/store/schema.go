package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// UsersColumns holds the columns for the "users" table.
	UsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "last_seen_at", Type: field.TypeInt64},
	}
	// UsersTable holds the schema information for the "users" table.
	UsersTable = &schema.Table{
		Name:       "users",
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
	}

	// MasteryProgressColumns holds the columns for the "mastery_progress" table.
	// version is the compare-and-swap token; data is the JSON progress document.
	MasteryProgressColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "version", Type: field.TypeInt64},
		{Name: "data", Type: field.TypeString, Size: 2147483647},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	// MasteryProgressTable holds the schema information for the "mastery_progress" table.
	MasteryProgressTable = &schema.Table{
		Name:       "mastery_progress",
		Columns:    MasteryProgressColumns,
		PrimaryKey: []*schema.Column{MasteryProgressColumns[0]},
	}

	// ActivityQuestionsColumns holds the columns for the "activity_questions" table.
	ActivityQuestionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "activity_key", Type: field.TypeString},
		{Name: "question_key", Type: field.TypeString},
		{Name: "question_text", Type: field.TypeString, Size: 2147483647},
		{Name: "correct_answer", Type: field.TypeString},
		{Name: "concept_tags", Type: field.TypeString, Default: "[]"},
	}
	// ActivityQuestionsTable holds the schema information for the "activity_questions" table.
	ActivityQuestionsTable = &schema.Table{
		Name:       "activity_questions",
		Columns:    ActivityQuestionsColumns,
		PrimaryKey: []*schema.Column{ActivityQuestionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "activityquestion_activity_key_question_key",
				Unique:  true,
				Columns: []*schema.Column{ActivityQuestionsColumns[1], ActivityQuestionsColumns[2]},
			},
		},
	}

	// QuizResultsColumns holds the columns for the "quiz_results" table.
	QuizResultsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "is_correct", Type: field.TypeBool},
		{Name: "attempts", Type: field.TypeInt},
		{Name: "submitted_answer", Type: field.TypeString, Size: 2147483647},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "user_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
	}
	// QuizResultsTable holds the schema information for the "quiz_results" table.
	// Rows are only ever inserted.
	QuizResultsTable = &schema.Table{
		Name:       "quiz_results",
		Columns:    QuizResultsColumns,
		PrimaryKey: []*schema.Column{QuizResultsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "quiz_results_users_results",
				Columns:    []*schema.Column{QuizResultsColumns[5]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "quiz_results_activity_questions_results",
				Columns:    []*schema.Column{QuizResultsColumns[6]},
				RefColumns: []*schema.Column{ActivityQuestionsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "quizresult_user_id_created_at",
				Unique:  false,
				Columns: []*schema.Column{QuizResultsColumns[5], QuizResultsColumns[4]},
			},
		},
	}

	// LlmRequestEventsColumns holds the columns for the "llm_request_events" table.
	LlmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "failure_kind", Type: field.TypeString, Default: ""},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// LlmRequestEventsTable holds the schema information for the "llm_request_events" table.
	LlmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    LlmRequestEventsColumns,
		PrimaryKey: []*schema.Column{LlmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "llmrequestevent_purpose",
				Unique:  false,
				Columns: []*schema.Column{LlmRequestEventsColumns[4]},
			},
			{
				Name:    "llmrequestevent_session_id",
				Unique:  false,
				Columns: []*schema.Column{LlmRequestEventsColumns[5]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		UsersTable,
		MasteryProgressTable,
		ActivityQuestionsTable,
		QuizResultsTable,
		LlmRequestEventsTable,
	}
)

func init() {
	QuizResultsTable.ForeignKeys[0].RefTable = UsersTable
	QuizResultsTable.ForeignKeys[1].RefTable = ActivityQuestionsTable
}

// migrate creates missing tables, columns and indexes. It only ever adds.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
