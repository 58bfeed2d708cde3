package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ampactor/st-solguard/internal/errs"
	"github.com/ampactor/st-solguard/internal/llm"
)

const synthesizerSystemPrompt = `You are a Solana ecosystem analyst identifying emerging narratives.

A "narrative" is a thematic trend backed by multiple data points across different sources (GitHub developer activity, onchain metrics, social/blog signals). A narrative must appear in 2+ signal sources to be credible.

For each narrative you identify, provide:
1. A clear, specific title (not generic like "DeFi growth" — be specific: "Concentrated Liquidity Migration on Solana DEXs")
2. A 2-3 sentence summary explaining what's happening and why it matters
3. Confidence score (0.0-1.0) based on signal strength and source diversity
4. Which signal indices support this narrative (from the input data)
5. Trend direction: "Accelerating" (growing faster), "Stable" (steady), "Decelerating" (slowing), "Emerging" (too early to tell, but signals present)
6. Key quantitative metrics that back the narrative

Respond in JSON:
{
  "narratives": [
    {
      "title": "...",
      "summary": "...",
      "confidence": 0.85,
      "supporting_signals": [0, 3, 7],
      "trend": "Accelerating",
      "key_metrics": [{"name": "...", "value": 123.4, "unit": "..."}]
    }
  ]
}

Rules:
- Only report narratives you're confident about. Quality over quantity.
- Every claim must be backed by specific signals from the input data.
- Quantify everything. "Growing" is weak; "42% increase in new repos" is strong.
- 5-8 narratives is ideal. Fewer if the data doesn't support more.
- Don't invent data. Only use what's in the signals.`

type synthesisResponse struct {
	Narratives []rawNarrative `json:"narratives"`
}

type rawNarrative struct {
	Title              string     `json:"title"`
	Summary            string     `json:"summary"`
	Confidence         float64    `json:"confidence"`
	SupportingSignals  []int      `json:"supporting_signals"`
	Trend              string     `json:"trend"`
	KeyMetrics         []Metric   `json:"key_metrics"`
}

// SynthesizedNarrative is the LLM's identification of one narrative from
// the aggregated signal corpus, before active repos are attached.
type SynthesizedNarrative struct {
	Title      string
	Summary    string
	Confidence float64
	Trend      TrendDirection
	KeyMetrics []Metric
}

// IdentifyNarratives sends the aggregated signal JSON to the LLM and
// parses its narrative identifications.
func IdentifyNarratives(ctx context.Context, client llm.Client, signalsJSON string) ([]SynthesizedNarrative, error) {
	slog.Info("sending signals to LLM for narrative identification")

	userMessage := fmt.Sprintf(
		"Analyze these aggregated signals from the Solana ecosystem and identify emerging narratives:\n\n%s",
		signalsJSON,
	)

	text, err := client.Complete(ctx, synthesizerSystemPrompt, userMessage)
	if err != nil {
		return nil, err
	}

	var resp synthesisResponse
	if jerr := json.Unmarshal([]byte(llm.ExtractJSONObject(text)), &resp); jerr != nil {
		return nil, errs.Parse("parse narrative synthesis response: " + jerr.Error())
	}

	narratives := make([]SynthesizedNarrative, 0, len(resp.Narratives))
	for _, n := range resp.Narratives {
		narratives = append(narratives, SynthesizedNarrative{
			Title:      n.Title,
			Summary:    n.Summary,
			Confidence: clamp01(n.Confidence),
			Trend:      parseTrend(n.Trend),
			KeyMetrics: n.KeyMetrics,
		})
	}

	slog.Info("identified narratives", "count", len(narratives))
	return narratives, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func parseTrend(s string) TrendDirection {
	switch strings.ToLower(s) {
	case "accelerating":
		return TrendAccelerating
	case "stable", "steady":
		return TrendStable
	case "decelerating", "declining":
		return TrendDecelerating
	case "emerging", "nascent", "early":
		return TrendEmerging
	default:
		return TrendEmerging
	}
}
