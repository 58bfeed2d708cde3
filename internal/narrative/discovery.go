package narrative

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ampactor/st-solguard/internal/config"
	"github.com/ampactor/st-solguard/internal/errs"
	"github.com/ampactor/st-solguard/internal/llm"
)

const discoverySystemPrompt = `You are a Solana ecosystem intelligence researcher.
Search the web to discover what is happening in the Solana ecosystem RIGHT NOW.

Research: breaking developments, growth trends, developer ecosystem changes,
security events, adoption news, token economics.

Strategy:
1. Search broad: "Solana ecosystem news [month/year]", "Solana DeFi trends"
2. Follow leads: find specific protocols, read announcements
3. Cross-validate: corroborate claims across sources
4. Quantify: TVL changes, user counts, transaction volumes, funding amounts

Output JSON:
{
  "signals": [{
    "title": "Specific title with names and numbers",
    "description": "What happened, why it matters, quantified impact",
    "category": "DeFi|DePIN|AI & Agents|Infrastructure|Security|Governance|NFT & Gaming|Staking|Payments|Developer Tooling",
    "url": "https://source-url",
    "metrics": [{"name": "...", "value": 0.0, "unit": "..."}],
    "relevance": 0.85
  }]
}

Rules:
- Only report things found via web search. Do NOT fabricate.
- Every signal must have a source URL.
- Recent events only (last 7-30 days).
- 8-15 signals ideal. Quality over quantity.`

const discoveryUserMessage = "Research the current state of the Solana ecosystem. " +
	"Find the most significant recent developments, trends, and events. " +
	"Focus on developments that have security implications, rapid growth sectors, " +
	"and emerging protocol categories. Return structured JSON."

type discoveryResponse struct {
	Signals []discoveredSignal `json:"signals"`
}

type discoveredSignal struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	URL         string   `json:"url"`
	Metrics     []Metric `json:"metrics"`
	Relevance   *float64 `json:"relevance"`
}

func (s discoveredSignal) relevance() float64 {
	if s.Relevance == nil {
		return 0.5
	}
	return *s.Relevance
}

// Discover runs autonomous LLM-driven web research to surface Solana
// ecosystem signals that the structured collectors (GitHub, RPC,
// DeFiLlama, social) cannot observe directly. Disabled by config, or any
// LLM failure, yields an empty (not erroring) result — discovery is a
// best-effort supplement, not a required signal source.
func Discover(ctx context.Context, client llm.Client, cfg config.DiscoveryConfig) ([]Signal, error) {
	if !cfg.Enabled {
		slog.Info("discovery: disabled, skipping")
		return nil, nil
	}

	slog.Info("discovery: starting autonomous web research", "model", client.Model())

	text, err := client.Complete(ctx, discoverySystemPrompt, discoveryUserMessage)
	if err != nil {
		slog.Warn("discovery failed (non-fatal)", "error", err)
		return nil, nil
	}

	var resp discoveryResponse
	if jerr := json.Unmarshal([]byte(llm.ExtractJSONObject(text)), &resp); jerr != nil {
		slog.Warn("discovery failed (non-fatal)", "error", errs.Parse("parse discovery response: "+jerr.Error()))
		return nil, nil
	}

	now := time.Now().UTC()
	var signals []Signal
	for _, s := range resp.Signals {
		if s.relevance() < 0.3 {
			continue
		}
		if len(signals) >= cfg.MaxSignals {
			break
		}
		category := s.Category
		if category == "" {
			category = "General"
		}
		signals = append(signals, Signal{
			Source:      SourceDiscovery,
			Category:    category,
			Title:       s.Title,
			Description: s.Description,
			Metrics:     s.Metrics,
			URL:         s.URL,
			Timestamp:   now,
		})
	}

	slog.Info("discovery: found signals via web research", "count", len(signals))
	return signals, nil
}
