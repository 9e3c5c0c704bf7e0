package llm

import (
	"github.com/samber/lo"

	"github.com/abhisek/fintutor/internal/store"
)

// UsageTotals sums calls, tokens and estimated cost.
type UsageTotals struct {
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	CostUSD      float64

	// Unpriced is set when some calls used a model with no known price, so
	// CostUSD is a lower bound.
	Unpriced bool
}

// AvgLatencyMs is the mean latency per call.
func (t UsageTotals) AvgLatencyMs() int64 {
	if t.Calls == 0 {
		return 0
	}
	return t.LatencyMs / int64(t.Calls)
}

func (t *UsageTotals) add(u store.LLMUsage) {
	t.Calls += u.Calls
	t.Failures += u.Failures
	t.InputTokens += u.InputTokens
	t.OutputTokens += u.OutputTokens
	t.LatencyMs += u.LatencyMs
	if usd, ok := CostUSD(u.Model, u.InputTokens, u.OutputTokens); ok {
		t.CostUSD += usd
	} else if u.InputTokens+u.OutputTokens > 0 {
		t.Unpriced = true
	}
}

// PurposeUsage is the usage of one purpose.
type PurposeUsage struct {
	Purpose  Purpose
	Sessions int
	UsageTotals
}

// SessionUsage is the tutor usage of one practice session.
type SessionUsage struct {
	SessionID string
	Models    []string
	UsageTotals
}

// UsageReport is what `llm stats` prints.
type UsageReport struct {
	Purposes []PurposeUsage
	Sessions []SessionUsage
	Total    UsageTotals
}

// Summarize folds store rows into per-purpose and per-session totals.
// Purposes follow Purposes() order with unknown ones after; sessions keep
// the order of rows.
func Summarize(rows []store.LLMUsage) UsageReport {
	var report UsageReport

	byPurpose := lo.GroupBy(rows, func(u store.LLMUsage) Purpose { return Purpose(u.Purpose) })
	known := Purposes()
	extra := lo.Without(lo.Uniq(lo.Map(rows, func(u store.LLMUsage, _ int) Purpose { return Purpose(u.Purpose) })), known...)
	for _, p := range append(known, extra...) {
		group, ok := byPurpose[p]
		if !ok {
			continue
		}
		pu := PurposeUsage{Purpose: p}
		for _, u := range group {
			pu.add(u)
			report.Total.add(u)
		}
		pu.Sessions = len(lo.Uniq(lo.FilterMap(group, func(u store.LLMUsage, _ int) (string, bool) {
			return u.SessionID, u.SessionID != ""
		})))
		report.Purposes = append(report.Purposes, pu)
	}

	index := make(map[string]int)
	for _, u := range rows {
		if u.SessionID == "" {
			continue
		}
		i, ok := index[u.SessionID]
		if !ok {
			i = len(report.Sessions)
			index[u.SessionID] = i
			report.Sessions = append(report.Sessions, SessionUsage{SessionID: u.SessionID})
		}
		s := &report.Sessions[i]
		s.add(u)
		if !lo.Contains(s.Models, u.Model) {
			s.Models = append(s.Models, u.Model)
		}
	}
	return report
}
