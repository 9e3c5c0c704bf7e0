package llm

import "strings"

// Friendly model names accepted in configuration. Anything not listed is
// passed to the vendor as-is.
var (
	anthropicModels = map[string]string{
		"claude-haiku":  "claude-haiku-4-5-20251001",
		"claude-sonnet": "claude-sonnet-4-5-20250929",
	}
	openaiModels = map[string]string{
		"gpt-mini": "gpt-4o-mini",
		"gpt":      "gpt-4o",
	}
	geminiModels = map[string]string{
		"gemini-flash": "gemini-2.5-flash",
		"gemini-lite":  "gemini-2.5-flash-lite",
	}
)

func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}

// price is USD per million tokens.
type price struct {
	in, out float64
}

// prices covers the models the tutor is normally run with. OpenRouter ids
// ("vendor/model") are looked up by their model part.
var prices = map[string]price{
	"claude-haiku-4-5-20251001":  {1, 5},
	"claude-haiku-4-5":           {1, 5},
	"claude-sonnet-4-5-20250929": {3, 15},
	"claude-sonnet-4-5":          {3, 15},
	"gpt-4o-mini":                {0.15, 0.6},
	"gpt-4o":                     {2.5, 10},
	"gpt-4.1-mini":               {0.4, 1.6},
	"gpt-5-mini":                 {0.25, 2},
	"gemini-2.0-flash":           {0.1, 0.4},
	"gemini-2.5-flash":           {0.3, 2.5},
	"gemini-2.5-flash-lite":      {0.1, 0.4},
}

// CostUSD estimates what a call cost. ok is false for unpriced models.
func CostUSD(model string, inputTokens, outputTokens int) (usd float64, ok bool) {
	p, ok := prices[model]
	if !ok {
		if i := strings.LastIndex(model, "/"); i >= 0 {
			p, ok = prices[model[i+1:]]
		}
	}
	if !ok {
		return 0, false
	}
	return (float64(inputTokens)*p.in + float64(outputTokens)*p.out) / 1_000_000, true
}
