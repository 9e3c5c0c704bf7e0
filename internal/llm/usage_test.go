package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/fintutor/internal/store"
)

func TestSummarize(t *testing.T) {
	rows := []store.LLMUsage{
		{Purpose: "grading", Model: "gpt-4o-mini", Calls: 2, InputTokens: 1_000_000, OutputTokens: 0, LatencyMs: 400},
		{Purpose: "tutor", SessionID: "s-1", Model: "claude-haiku-4-5-20251001", Calls: 3, InputTokens: 1_000_000, OutputTokens: 1_000_000, LatencyMs: 900},
		{Purpose: "tutor", SessionID: "s-2", Model: "claude-haiku-4-5-20251001", Calls: 1, Failures: 1, LatencyMs: 100},
		{Purpose: "tutor", SessionID: "s-1", Model: "local-llama", Calls: 1, InputTokens: 10, OutputTokens: 10, LatencyMs: 50},
	}

	report := Summarize(rows)

	require.Len(t, report.Purposes, 2)
	tutor := report.Purposes[0]
	assert.Equal(t, PurposeTutor, tutor.Purpose)
	assert.Equal(t, 5, tutor.Calls)
	assert.Equal(t, 1, tutor.Failures)
	assert.Equal(t, 2, tutor.Sessions)
	assert.InDelta(t, 6.0, tutor.CostUSD, 1e-9)
	assert.True(t, tutor.Unpriced)
	assert.Equal(t, int64(210), tutor.AvgLatencyMs())

	grading := report.Purposes[1]
	assert.Equal(t, PurposeGrading, grading.Purpose)
	assert.Zero(t, grading.Sessions)
	assert.InDelta(t, 0.15, grading.CostUSD, 1e-9)
	assert.False(t, grading.Unpriced)

	require.Len(t, report.Sessions, 2)
	s1 := report.Sessions[0]
	assert.Equal(t, "s-1", s1.SessionID)
	assert.Equal(t, 4, s1.Calls)
	assert.Equal(t, []string{"claude-haiku-4-5-20251001", "local-llama"}, s1.Models)
	assert.InDelta(t, 6.0, s1.CostUSD, 1e-9)
	assert.Equal(t, "s-2", report.Sessions[1].SessionID)
	assert.Zero(t, report.Sessions[1].CostUSD)

	assert.Equal(t, 7, report.Total.Calls)
	assert.InDelta(t, 6.15, report.Total.CostUSD, 1e-9)
}

func TestCostUSD_OpenRouterIDs(t *testing.T) {
	usd, ok := CostUSD("anthropic/claude-haiku-4-5", 1_000_000, 0)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, usd, 1e-9)

	_, ok = CostUSD("mystery-model", 1, 1)
	assert.False(t, ok)
}
