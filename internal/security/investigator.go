package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ampactor/st-solguard/internal/llm"
)

const investigatorSystemPrompt = `You are a senior Solana/Anchor program security auditor performing a deep investigation of a single repository.

Methodology:
1. Start from the static-analysis leads you were given: for each, read the surrounding file to understand the actual control flow.
2. Use search_code and get_file_structure to find related call sites the static pass could not see (cross-file invariants, callers of a flagged function).
3. Distinguish a real exploitable issue from a false positive: does the flagged code path actually execute with attacker-controlled input?
4. For each confirmed issue, construct a concrete attack scenario: what does an attacker submit, and what state change results.
5. When you have exhausted the useful leads, respond with ONLY a JSON array of findings, each shaped:
{"title","severity","description","evidence":[],"attack_scenario","remediation","confidence","affected_files":[]}

Severity must be one of: Critical, High, Medium, Low, Info. Do not repeat a finding already confirmed by the static pass verbatim — investigate beyond it.`

// InvestigatorBudget bounds one investigator run.
type InvestigatorBudget struct {
	MaxTurns     int
	CostLimitUSD float64
}

// ComputeBudget derives the turn/cost budget from a narrative confidence
// score and the number of repos in scope this run.
func ComputeBudget(confidence float64, repoCount int) InvestigatorBudget {
	if repoCount < 1 {
		repoCount = 1
	}
	depth := confidence * (1 / math.Sqrt(float64(repoCount)))
	maxTurns := clampInt(int(30*depth), 5, 40)
	costLimit := clampFloat(20*depth, 2, 30)
	return InvestigatorBudget{MaxTurns: maxTurns, CostLimitUSD: costLimit}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// formatTriage renders up to the top 20 static findings (severity desc,
// line asc) as the investigator's starting context.
func formatTriage(findings []Finding) string {
	sorted := make([]Finding, len(findings))
	copy(sorted, findings)
	order := map[Severity]int{SeverityCritical: 0, SeverityHigh: 1, SeverityMedium: 2, SeverityLow: 3, SeverityInfo: 4}
	sort.SliceStable(sorted, func(i, j int) bool {
		if order[sorted[i].Severity] != order[sorted[j].Severity] {
			return order[sorted[i].Severity] < order[sorted[j].Severity]
		}
		return sorted[i].LineNumber < sorted[j].LineNumber
	})
	if len(sorted) > 20 {
		sorted = sorted[:20]
	}

	var b strings.Builder
	for _, f := range sorted {
		fmt.Fprintf(&b, "- [%s] %s (%s:%d)\n  %s\n", f.Severity, f.Title, f.FilePath, f.LineNumber, f.Description)
	}
	return b.String()
}

func canonicalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func toolCallKey(name string, input map[string]any) string {
	sum := sha256.Sum256([]byte(name + "|" + canonicalJSON(input)))
	return hex.EncodeToString(sum[:8])
}

// Investigate runs the bounded multi-turn tool-use loop over one
// ScanContext and returns whatever findings the LLM surfaces.
func Investigate(ctx context.Context, client llm.Client, registry *ToolRegistry, staticFindings []Finding, scanCtx ScanContext, budget InvestigatorBudget) ([]AgentFinding, ReviewStats, error) {
	stats := ReviewStats{}
	if budget.MaxTurns <= 0 {
		return nil, stats, nil
	}

	var userPrompt strings.Builder
	userPrompt.WriteString("Static analysis surfaced these leads:\n\n")
	userPrompt.WriteString(formatTriage(staticFindings))
	if scanCtx.ProtocolCategory != "" {
		fmt.Fprintf(&userPrompt, "\nProtocol category: %s\n", scanCtx.ProtocolCategory)
	}
	if scanCtx.NarrativeSummary != "" {
		fmt.Fprintf(&userPrompt, "Narrative context: %s\n", scanCtx.NarrativeSummary)
	}
	if len(scanCtx.SiblingFindings) > 0 {
		userPrompt.WriteString("Related findings already confirmed elsewhere in this narrative:\n")
		for _, s := range scanCtx.SiblingFindings {
			userPrompt.WriteString("- " + s + "\n")
		}
	}
	userPrompt.WriteString("\nInvestigate these leads and any related issues you find. Use the tools available to read actual source before concluding anything.")

	messages := []llm.Message{
		{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.TextBlock(userPrompt.String())}},
	}
	tools := registry.Tools()

	seen := make(map[string]int)
	costUSD := 0.0

	for turn := 0; turn < budget.MaxTurns; turn++ {
		stats.Turns++
		resp, err := client.Converse(ctx, investigatorSystemPrompt, messages, tools)
		if err != nil {
			if turn == 0 {
				return nil, stats, fmt.Errorf("investigator turn %d: %w", turn, err)
			}
			// A later-turn transport failure still has a conversation worth
			// extracting from; fall through to the forced-summary pass below.
			break
		}
		stats.TotalInputTokens += resp.Usage.InputTokens
		stats.TotalOutputTokens += resp.Usage.OutputTokens
		costUSD += llm.EstimateCost(client.Model(), resp.Usage)
		stats.TotalCostUSD = costUSD

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})

		toolUses := extractToolUses(resp.Content)
		if len(toolUses) == 0 {
			if findings := parseAgentFindings(resp.Content); len(findings) > 0 {
				return findings, stats, nil
			}
			if turn == budget.MaxTurns-1 || resp.StopReason != llm.StopToolUse {
				break
			}
		}

		if costUSD >= budget.CostLimitUSD {
			break
		}

		var resultBlocks []llm.ContentBlock
		for _, tu := range toolUses {
			stats.ToolCalls++
			key := toolCallKey(tu.ToolName, tu.ToolInput)
			seen[key]++
			if seen[key] >= 3 {
				resultBlocks = append(resultBlocks, llm.ContentBlock{
					Type:            llm.BlockToolResult,
					ToolResultForID: tu.ToolUseID,
					ToolResultText:  "You have called this exact tool with these exact arguments 3 times already. Stop repeating it and either try a different tool/input or conclude your investigation.",
				})
				continue
			}
			result, isErr := registry.Dispatch(ctx, tu.ToolName, tu.ToolInput)
			resultBlocks = append(resultBlocks, llm.ContentBlock{
				Type:             llm.BlockToolResult,
				ToolResultForID:  tu.ToolUseID,
				ToolResultText:   result,
				ToolResultError:  isErr,
			})
		}
		if len(resultBlocks) > 0 {
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: resultBlocks})
		}
	}

	// Forced-summary fallback: ask once more with no tools so the model
	// must answer from what it has already gathered.
	messages = append(messages, llm.Message{
		Role: llm.RoleUser,
		Content: []llm.ContentBlock{llm.TextBlock(
			"Summarize your investigation now as the required JSON array of findings. If you found nothing exploitable, return an empty array [].",
		)},
	})
	resp, err := client.Converse(ctx, investigatorSystemPrompt, messages, nil)
	if err != nil {
		return nil, stats, fmt.Errorf("investigator forced summary: %w", err)
	}
	stats.TotalInputTokens += resp.Usage.InputTokens
	stats.TotalOutputTokens += resp.Usage.OutputTokens
	stats.TotalCostUSD += llm.EstimateCost(client.Model(), resp.Usage)

	return parseAgentFindings(resp.Content), stats, nil
}

func extractToolUses(blocks []llm.ContentBlock) []llm.ContentBlock {
	var out []llm.ContentBlock
	for _, b := range blocks {
		if b.Type == llm.BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

// parseAgentFindings reverse-scans assistant text blocks for the most
// recent JSON array of findings.
func parseAgentFindings(blocks []llm.ContentBlock) []AgentFinding {
	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].Type != llm.BlockText {
			continue
		}
		raw := llm.ExtractJSONArray(blocks[i].Text)
		if raw == "" {
			continue
		}
		var findings []AgentFinding
		if err := json.Unmarshal([]byte(raw), &findings); err == nil {
			return findings
		}
	}
	return nil
}
