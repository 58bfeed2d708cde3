package security

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ampactor/st-solguard/internal/llm"
)

const validatorSystemPrompt = `You are an adversarial security reviewer. Your job is to try to DISPROVE each finding you are given, not to rubber-stamp it.

For each finding:
1. Read the file at the reported location and the surrounding control flow.
2. Ask: can an attacker actually reach this code path with the input the finding claims, given the rest of the program's checks?
3. If the finding's premise is wrong, or a guard elsewhere in the code already prevents the described exploit, mark it Dismissed.
4. If the finding is directionally correct but overstates severity or is missing a precondition, mark it Disputed and explain what changes.
5. Only mark Confirmed if you would stake your own reputation on the finding being both real and exploitable as described.

When finished, respond with ONLY a JSON array, one entry per finding you were given, each shaped:
{"title","verdict","reasoning"}
verdict must be exactly one of: Confirmed, Disputed, Dismissed.`

const validatorMaxTurns = 15

func severityDowngrade(s Severity) Severity {
	switch s {
	case SeverityCritical:
		return SeverityHigh
	case SeverityHigh:
		return SeverityMedium
	case SeverityMedium:
		return SeverityLow
	case SeverityLow:
		return SeverityInfo
	default:
		return SeverityInfo
	}
}

func parseVerdict(raw string) Verdict {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "confirmed":
		return VerdictConfirmed
	case "dismissed":
		return VerdictDismissed
	default:
		return VerdictDisputed
	}
}

// matchVerdict finds the VerdictEntry whose title bidirectionally
// substring-matches f.Title (case-insensitive), since the validator may
// paraphrase titles slightly.
func matchVerdict(title string, entries []VerdictEntry) (VerdictEntry, bool) {
	lt := strings.ToLower(title)
	for _, e := range entries {
		le := strings.ToLower(e.Title)
		if strings.Contains(lt, le) || strings.Contains(le, lt) {
			return e, true
		}
	}
	return VerdictEntry{}, false
}

// Validate runs the adversarial validator loop over a batch of findings
// for one repo/narrative and returns the post-processed result: Dismissed
// findings dropped, Disputed findings downgraded one severity step.
func Validate(ctx context.Context, client llm.Client, registry *ToolRegistry, findings []SecurityFinding, configuredMaxTurns int) ([]SecurityFinding, ReviewStats, error) {
	stats := ReviewStats{}
	if len(findings) == 0 {
		return nil, stats, nil
	}

	maxTurns := configuredMaxTurns
	if maxTurns <= 0 || maxTurns > validatorMaxTurns {
		maxTurns = validatorMaxTurns
	}

	var prompt strings.Builder
	prompt.WriteString("Findings to validate:\n\n")
	for i, f := range findings {
		fmt.Fprintf(&prompt, "%d. [%s] %s (%s:%d)\n   %s\n", i+1, f.Severity, f.Title, f.FilePath, f.LineNumber, f.Description)
	}

	messages := []llm.Message{
		{Role: llm.RoleUser, Content: []llm.ContentBlock{llm.TextBlock(prompt.String())}},
	}
	tools := registry.Tools()

	var verdicts []VerdictEntry
	for turn := 0; turn < maxTurns; turn++ {
		stats.Turns++
		resp, err := client.Converse(ctx, validatorSystemPrompt, messages, tools)
		if err != nil {
			if turn == 0 {
				return nil, stats, fmt.Errorf("validator turn %d: %w", turn, err)
			}
			// A later-turn transport failure still has a conversation worth
			// extracting from; fall through to the forced-summary pass below.
			break
		}
		stats.TotalInputTokens += resp.Usage.InputTokens
		stats.TotalOutputTokens += resp.Usage.OutputTokens
		stats.TotalCostUSD += llm.EstimateCost(client.Model(), resp.Usage)

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})

		toolUses := extractToolUses(resp.Content)
		if len(toolUses) == 0 {
			if v := parseVerdictEntries(resp.Content); len(v) > 0 {
				verdicts = v
				break
			}
			if resp.StopReason != llm.StopToolUse {
				break
			}
		}

		var resultBlocks []llm.ContentBlock
		for _, tu := range toolUses {
			stats.ToolCalls++
			result, isErr := registry.Dispatch(ctx, tu.ToolName, tu.ToolInput)
			resultBlocks = append(resultBlocks, llm.ContentBlock{
				Type:            llm.BlockToolResult,
				ToolResultForID: tu.ToolUseID,
				ToolResultText:  result,
				ToolResultError: isErr,
			})
		}
		if len(resultBlocks) > 0 {
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: resultBlocks})
		}
	}

	if len(verdicts) == 0 {
		messages = append(messages, llm.Message{
			Role: llm.RoleUser,
			Content: []llm.ContentBlock{llm.TextBlock(
				"Respond now with the required JSON array of verdicts based on what you have reviewed so far.",
			)},
		})
		resp, err := client.Converse(ctx, validatorSystemPrompt, messages, nil)
		if err != nil {
			return nil, stats, fmt.Errorf("validator forced summary: %w", err)
		}
		stats.TotalInputTokens += resp.Usage.InputTokens
		stats.TotalOutputTokens += resp.Usage.OutputTokens
		stats.TotalCostUSD += llm.EstimateCost(client.Model(), resp.Usage)
		verdicts = parseVerdictEntries(resp.Content)
	}

	out := make([]SecurityFinding, 0, len(findings))
	for _, f := range findings {
		entry, matched := matchVerdict(f.Title, verdicts)
		if !matched {
			f.Severity = severityDowngrade(f.Severity)
			f.ValidationStatus = StatusDisputed
			f.ValidationReasoning = "No verdict provided by validator"
			out = append(out, f)
			continue
		}
		verdict := parseVerdict(entry.Verdict)
		switch verdict {
		case VerdictDismissed:
			continue
		case VerdictDisputed:
			f.Severity = severityDowngrade(f.Severity)
			f.ValidationStatus = StatusDisputed
			f.ValidationReasoning = entry.Reasoning
		case VerdictConfirmed:
			f.ValidationStatus = StatusConfirmed
			f.ValidationReasoning = entry.Reasoning
		}
		out = append(out, f)
	}
	return out, stats, nil
}

func parseVerdictEntries(blocks []llm.ContentBlock) []VerdictEntry {
	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].Type != llm.BlockText {
			continue
		}
		raw := llm.ExtractJSONArray(blocks[i].Text)
		if raw == "" {
			continue
		}
		var entries []VerdictEntry
		if err := json.Unmarshal([]byte(raw), &entries); err == nil {
			return entries
		}
	}
	return nil
}
