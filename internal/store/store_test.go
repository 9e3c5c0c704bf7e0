package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is covered by the file-based test below.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpenFileDatabaseUsesWALAndIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintutor.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
	if err := s.UserRepo().Upsert(context.Background(), "learner-1"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	s.Close()

	// Auto-migration only adds, so reopening keeps existing rows.
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	u, err := s.UserRepo().Get(context.Background(), "learner-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u == nil {
		t.Fatal("user lost across reopen")
	}
}

func TestSchemaCreatesAllTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range Tables {
		var name string
		err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table.Name).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table.Name, err)
		}
	}

	var idx string
	err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?",
		"activityquestion_activity_key_question_key").Scan(&idx)
	if err != nil {
		t.Errorf("unique question index missing: %v", err)
	}
}

func TestUserUpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	repo := s.UserRepo()
	ctx := context.Background()

	if err := repo.Upsert(ctx, "learner-1"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.Upsert(ctx, "learner-1"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("users = %d, want 1", n)
	}

	u, err := repo.Get(ctx, "learner-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u == nil || u.ID != "learner-1" {
		t.Fatalf("get = %+v", u)
	}

	missing, err := repo.Get(ctx, "nobody")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown user, got %+v", missing)
	}
}

func TestProgressCompareAndSwap(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	rec, err := repo.Get(ctx, "learner-1")
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil progress before first write")
	}

	v, err := repo.CompareAndSwap(ctx, "learner-1", 0, []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("initial write: %v", err)
	}
	if v != 1 {
		t.Fatalf("version = %d, want 1", v)
	}

	// A second creator loses.
	if _, err := repo.CompareAndSwap(ctx, "learner-1", 0, []byte(`{"a":2}`)); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict on duplicate create, got %v", err)
	}

	v, err = repo.CompareAndSwap(ctx, "learner-1", 1, []byte(`{"a":3}`))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if v != 2 {
		t.Fatalf("version = %d, want 2", v)
	}

	// Stale writer loses.
	if _, err := repo.CompareAndSwap(ctx, "learner-1", 1, []byte(`{"a":4}`)); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict on stale update, got %v", err)
	}

	rec, err = repo.Get(ctx, "learner-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Version != 2 || string(rec.Data) != `{"a":3}` {
		t.Fatalf("stored = version %d data %s", rec.Version, rec.Data)
	}
}

func seedQuestions(t *testing.T, s *Store) {
	t.Helper()
	_, err := s.QuestionCatalog().Upsert(context.Background(), []ActivityQuestion{
		{ID: "q-tax", ActivityKey: "shopping-trip", QuestionKey: "tax", QuestionText: "Tax on $10 at 5%?", CorrectAnswer: "0.50", ConceptTags: []string{"sales_tax"}},
		{ID: "q-tip", ActivityKey: "shopping-trip", QuestionKey: "tip", QuestionText: "15% tip on $20?", CorrectAnswer: "3"},
		{ID: "q-other", ActivityKey: "paycheck", QuestionKey: "tax", QuestionText: "Net pay?", CorrectAnswer: "800"},
	})
	if err != nil {
		t.Fatalf("seed questions: %v", err)
	}
}

func TestQuestionsByKeys(t *testing.T) {
	s := openTestStore(t)
	seedQuestions(t, s)
	ctx := context.Background()

	got, err := s.QuestionCatalog().QuestionsByKeys(ctx, "shopping-trip", []string{"tax", "missing"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("resolved %d questions, want 1", len(got))
	}
	q := got["tax"]
	if q.ID != "q-tax" {
		t.Errorf("id = %q, want q-tax (scoped to activity)", q.ID)
	}
	if len(q.ConceptTags) != 1 || q.ConceptTags[0] != "sales_tax" {
		t.Errorf("concept tags = %v", q.ConceptTags)
	}

	empty, err := s.QuestionCatalog().QuestionsByKeys(ctx, "shopping-trip", nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty lookup = %v, %v", empty, err)
	}
}

func TestQuestionUpsertUpdatesInPlace(t *testing.T) {
	s := openTestStore(t)
	seedQuestions(t, s)
	ctx := context.Background()

	_, err := s.QuestionCatalog().Upsert(ctx, []ActivityQuestion{
		{ActivityKey: "shopping-trip", QuestionKey: "tip", QuestionText: "18% tip on $20?", CorrectAnswer: "3.60"},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	qs, err := s.QuestionCatalog().ListActivity(ctx, "shopping-trip")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("questions = %d, want 2", len(qs))
	}
	tip := qs[1]
	if tip.ID != "q-tip" || tip.CorrectAnswer != "3.60" {
		t.Fatalf("tip = %+v, want id kept and answer updated", tip)
	}
}

func TestQuizResultsAreAppendOnly(t *testing.T) {
	s := openTestStore(t)
	seedQuestions(t, s)
	ctx := context.Background()

	if err := s.UserRepo().Upsert(ctx, "learner-1"); err != nil {
		t.Fatalf("upsert user: %v", err)
	}

	repo := s.QuizResultRepo()
	base := time.Now().UTC()
	first := &QuizResult{UserID: "learner-1", QuestionID: "q-tax", IsCorrect: false, Attempts: 1, SubmittedAnswer: "5", CreatedAt: base}
	second := &QuizResult{UserID: "learner-1", QuestionID: "q-tax", IsCorrect: true, Attempts: 2, SubmittedAnswer: "0.50", CreatedAt: base.Add(time.Second)}
	for _, r := range []*QuizResult{first, second} {
		if err := repo.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("ids not assigned uniquely: %q %q", first.ID, second.ID)
	}

	rows, err := repo.ListByUser(ctx, "learner-1", ResultQuery{QuestionID: "q-tax"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if !rows[0].IsCorrect || rows[1].IsCorrect {
		t.Errorf("expected newest first: %+v", rows)
	}

	limited, err := repo.ListByUser(ctx, "learner-1", ResultQuery{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limited rows = %d, want 1", len(limited))
	}
}

func TestQuizResultRequiresKnownUser(t *testing.T) {
	s := openTestStore(t)
	seedQuestions(t, s)

	err := s.QuizResultRepo().Append(context.Background(), &QuizResult{UserID: "ghost", QuestionID: "q-tax", Attempts: 1})
	if err == nil {
		t.Fatal("expected foreign key violation for unknown user")
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "tutor", SessionID: "s-1", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true, RequestBody: "{}"},
		{Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "grading", InputTokens: 80, OutputTokens: 20, LatencyMs: 100, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "tutor", SessionID: "s-2", LatencyMs: 400, Success: false, FailureKind: "unavailable", ErrorMessage: "timeout"},
		{Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "tutor", SessionID: "s-1", InputTokens: 120, OutputTokens: 30, LatencyMs: 300, Success: true},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("events = %d, want 4", len(all))
	}
	if all[1].Model != "gpt-4o-mini" || all[1].FailureKind != "unavailable" || all[1].SessionID != "s-2" {
		t.Errorf("expected newest first with failure kind, got %+v", all[1])
	}

	tutor, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "tutor", Limit: 10})
	if err != nil {
		t.Fatalf("query purpose: %v", err)
	}
	if len(tutor) != 3 {
		t.Errorf("tutor events = %d, want 3", len(tutor))
	}

	session, err := repo.QueryLLMEvents(ctx, QueryOpts{SessionID: "s-1"})
	if err != nil {
		t.Fatalf("query session: %v", err)
	}
	if len(session) != 2 {
		t.Errorf("session events = %d, want 2", len(session))
	}

	e, err := repo.GetLLMEvent(ctx, all[3].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil || e.RequestBody != "{}" || !e.Success {
		t.Fatalf("get = %+v", e)
	}
	if missing, err := repo.GetLLMEvent(ctx, 9999); err != nil || missing != nil {
		t.Fatalf("get missing = %+v, %v", missing, err)
	}

	usage, err := repo.LLMUsage(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(usage) != 3 {
		t.Fatalf("usage rows = %+v, want 3", usage)
	}
	if u := usage[0]; u.Purpose != "grading" || u.SessionID != "" || u.Calls != 1 {
		t.Errorf("grading row = %+v", u)
	}
	if u := usage[1]; u.SessionID != "s-1" || u.Calls != 2 || u.InputTokens != 220 || u.OutputTokens != 80 || u.LatencyMs != 500 || u.Failures != 0 {
		t.Errorf("first session row = %+v", u)
	}
	if u := usage[2]; u.SessionID != "s-2" || u.Model != "gpt-4o-mini" || u.Failures != 1 {
		t.Errorf("second session row = %+v", u)
	}
}

func TestDefaultDBPathHonoursEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "x.db")
	t.Setenv("FINTUTOR_DB", p)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if got != p {
		t.Fatalf("path = %q, want %q", got, p)
	}
	if _, err := os.Stat(filepath.Dir(p)); err != nil {
		t.Fatalf("parent dir not created: %v", err)
	}
}

func TestDefaultDBPathXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FINTUTOR_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	want := filepath.Join(dir, "fintutor", "fintutor.db")
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}
