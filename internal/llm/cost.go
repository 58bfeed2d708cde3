package llm

import "strings"

type rate struct {
	inPerMillion  float64
	outPerMillion float64
}

// EstimateCost applies a per-million-token cost model: rates keyed by
// substring match on the model name, first match in the order listed,
// conservative default otherwise.
func EstimateCost(model string, usage Usage) float64 {
	r := rateFor(model)
	return (float64(usage.InputTokens)*r.inPerMillion + float64(usage.OutputTokens)*r.outPerMillion) / 1e6
}

func rateFor(model string) rate {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "opus"):
		return rate{15, 75}
	case strings.Contains(lower, "sonnet"):
		return rate{3, 15}
	case strings.Contains(lower, "haiku"):
		return rate{0.25, 1.25}
	case strings.Contains(lower, "gpt-4o"):
		return rate{2.5, 10}
	case strings.Contains(lower, "gpt-4"):
		return rate{10, 30}
	case strings.Contains(lower, ":free"):
		return rate{0, 0}
	default:
		return rate{1, 2}
	}
}
