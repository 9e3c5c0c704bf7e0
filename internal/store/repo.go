package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// ErrVersionConflict is returned by ProgressRepo.CompareAndSwap when the
// stored version no longer matches the expected one.
var ErrVersionConflict = errors.New("progress version conflict")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	After   int64  // id > After
	Before  int64  // id < Before
	Purpose string // exact purpose match when set

	SessionID string // exact session match when set
}

// User is a learner known to the store.
type User struct {
	ID         string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// UserRepo manages learner rows.
type UserRepo interface {
	// Upsert creates the user if missing and refreshes last_seen_at.
	Upsert(ctx context.Context, userID string) error

	// Get returns the user, or nil if none exists.
	Get(ctx context.Context, userID string) (*User, error)
}

// ProgressRecord is the stored mastery document for one user.
type ProgressRecord struct {
	UserID    string
	Version   int64
	Data      []byte
	UpdatedAt time.Time
}

// ProgressRepo persists mastery progress documents with optimistic
// concurrency on Version.
type ProgressRepo interface {
	// Get returns the stored record, or nil if the user has none.
	Get(ctx context.Context, userID string) (*ProgressRecord, error)

	// CompareAndSwap writes data if the stored version equals expected
	// (0 meaning "no row yet") and returns the new version. It returns
	// ErrVersionConflict when another writer got there first.
	CompareAndSwap(ctx context.Context, userID string, expected int64, data []byte) (int64, error)
}

// QuizResult is one immutable quiz answer row.
type QuizResult struct {
	ID              string
	UserID          string
	QuestionID      string
	IsCorrect       bool
	Attempts        int
	SubmittedAnswer string
	CreatedAt       time.Time
}

// ResultQuery filters QuizResultRepo.ListByUser.
type ResultQuery struct {
	QuestionID string
	Limit      int
}

// QuizResultRepo is the append-only quiz result log.
type QuizResultRepo interface {
	// Append inserts a new row. ID and CreatedAt are assigned when empty.
	Append(ctx context.Context, r *QuizResult) error

	// ListByUser returns a user's results, newest first.
	ListByUser(ctx context.Context, userID string, q ResultQuery) ([]QuizResult, error)
}

// ActivityQuestion is a catalog entry belonging to an activity.
type ActivityQuestion struct {
	ID            string   `yaml:"id" json:"id"`
	ActivityKey   string   `yaml:"activity" json:"activityKey"`
	QuestionKey   string   `yaml:"key" json:"questionKey"`
	QuestionText  string   `yaml:"text" json:"questionText"`
	CorrectAnswer string   `yaml:"answer" json:"correctAnswer"`
	ConceptTags   []string `yaml:"concepts" json:"conceptTags"`
}

// QuestionCatalog resolves activity question keys to stored questions.
type QuestionCatalog interface {
	// QuestionsByKeys returns the questions of activityKey whose keys are in
	// keys, indexed by question key. Missing keys are simply absent.
	QuestionsByKeys(ctx context.Context, activityKey string, keys []string) (map[string]ActivityQuestion, error)

	// ListActivity returns every question of an activity ordered by key.
	ListActivity(ctx context.Context, activityKey string) ([]ActivityQuestion, error)

	// Upsert inserts or updates questions keyed by (activity, key) and
	// returns how many were written.
	Upsert(ctx context.Context, questions []ActivityQuestion) (int, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	SessionID    string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	FailureKind  string
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates the calls of one (purpose, session, model) triple.
// SessionID is empty for calls made outside a practice session.
type LLMUsage struct {
	Purpose      string
	SessionID    string
	Model        string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsage aggregates calls and tokens per purpose, session and model,
	// ordered by purpose then first call.
	LLMUsage(ctx context.Context) ([]LLMUsage, error)
}

func execQuery(ctx context.Context, drv dialect.ExecQuerier, query string, args []any) (sql.Result, error) {
	var res sql.Result
	if err := drv.Exec(ctx, query, args, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func queryRows(ctx context.Context, drv dialect.ExecQuerier, query string, args []any) (*entsql.Rows, error) {
	rows := &entsql.Rows{}
	if err := drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}
