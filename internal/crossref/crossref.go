// Package crossref links validated security findings back to the
// narratives whose candidate repos produced them, and scores each
// narrative's aggregate risk.
package crossref

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ampactor/st-solguard/internal/llm"
	"github.com/ampactor/st-solguard/internal/narrative"
	"github.com/ampactor/st-solguard/internal/security"
)

// FindingLink associates one matched finding with the narrative and repo
// that explain why it was linked.
type FindingLink struct {
	NarrativeIdx int
	FindingIdx   int
	Repo         string
	Relevance    string
}

func severityWeight(s security.Severity) float64 {
	switch s {
	case security.SeverityCritical:
		return 10.0
	case security.SeverityHigh:
		return 5.0
	case security.SeverityMedium:
		return 2.0
	case security.SeverityLow:
		return 0.5
	default:
		return 0.0
	}
}

func validationMultiplier(status security.ValidationStatus) float64 {
	switch status {
	case security.StatusConfirmed:
		return 1.0
	case security.StatusDisputed:
		return 0.5
	case security.StatusUnvalidated:
		return 0.7
	case security.StatusDismissed:
		return 0.0
	default:
		return 0.0
	}
}

func riskLevel(score float64) string {
	switch {
	case score >= 20.0:
		return "Critical"
	case score >= 10.0:
		return "High"
	case score >= 5.0:
		return "Medium"
	case score >= 1.0:
		return "Low"
	default:
		return "None"
	}
}

// repoNameFromPath extracts a repo name from a finding's file path:
// the segment right after "repos/" if present, else the first
// meaningful path component, else "unknown".
func repoNameFromPath(path string) string {
	if idx := strings.Index(path, "repos/"); idx != -1 {
		after := path[idx+len("repos/"):]
		if slash := strings.Index(after, "/"); slash != -1 {
			return after[:slash]
		}
		return after
	}
	for _, c := range strings.Split(path, "/") {
		if c != "" && c != "." && c != ".." && c != "repos" {
			return c
		}
	}
	return "unknown"
}

func repoTail(activeRepo string) string {
	parts := strings.Split(activeRepo, "/")
	return parts[len(parts)-1]
}

// Analyze cross-references findings against narratives in place, mutating
// each narrative's FindingCount/RiskScore/RiskLevel/RepoFindings, and
// returns one FindingLink per matched (finding, repo) pair.
func Analyze(ctx context.Context, narratives []narrative.Narrative, findings []security.SecurityFinding, router *llm.ModelRouter) []FindingLink {
	slog.Info("cross-reference: starting", "narratives", len(narratives), "findings", len(findings))

	var allLinks []FindingLink

	for ni := range narratives {
		n := &narratives[ni]

		tails := make([]string, 0, len(n.ActiveRepos))
		for _, ar := range n.ActiveRepos {
			tails = append(tails, repoTail(ar))
		}

		var matched []matchedFinding
		for fi, f := range findings {
			repo := repoNameFromPath(f.FilePath)
			for _, t := range tails {
				if t == repo {
					matched = append(matched, matchedFinding{findingIdx: fi, repo: repo})
					break
				}
			}
		}

		riskScore := 0.0
		repoFindingMap := make(map[string][]int)
		for _, m := range matched {
			f := findings[m.findingIdx]
			riskScore += severityWeight(f.Severity) * validationMultiplier(f.ValidationStatus) * n.Confidence
			repoFindingMap[m.repo] = append(repoFindingMap[m.repo], m.findingIdx)
		}

		n.FindingCount = len(matched)
		n.RiskScore = riskScore
		n.RiskLevel = riskLevel(riskScore)
		n.RepoFindings = repoFindingMap

		var llmSummary string
		if len(matched) > 0 {
			llmSummary = tryLLMRelevance(ctx, router, n, matched, findings)
		}

		for _, m := range matched {
			relevance := llmSummary
			if relevance == "" {
				relevance = fmt.Sprintf("Finding in repo %s linked to narrative via active_repos", m.repo)
			}
			allLinks = append(allLinks, FindingLink{
				NarrativeIdx: ni,
				FindingIdx:   m.findingIdx,
				Repo:         m.repo,
				Relevance:    relevance,
			})
		}

		if len(matched) > 0 {
			slog.Info("cross-reference: narrative scored",
				"narrative", n.Title, "findings", len(matched),
				"risk_score", fmt.Sprintf("%.1f", riskScore), "risk_level", n.RiskLevel)
		}
	}

	slog.Info("cross-reference: complete", "links", len(allLinks))
	return allLinks
}

type matchedFinding struct {
	findingIdx int
	repo       string
}

// tryLLMRelevance makes a single best-effort LLM call per narrative for a
// natural-language relevance summary; any failure falls back silently to
// the deterministic template used by the caller.
func tryLLMRelevance(ctx context.Context, router *llm.ModelRouter, n *narrative.Narrative, matched []matchedFinding, findings []security.SecurityFinding) string {
	client := router.ClientFor(llm.TaskCrossReference)

	capped := matched
	if len(capped) > 10 {
		capped = capped[:10]
	}
	var summaries strings.Builder
	for _, m := range capped {
		f := findings[m.findingIdx]
		fmt.Fprintf(&summaries, "- [%s] %s in %s: %s\n", f.Severity, f.Title, m.repo, f.Description)
	}

	prompt := fmt.Sprintf(
		"Narrative: %q\nSummary: %s\n\nLinked security findings:\n%s\nIn 1-2 sentences, explain the security relevance of these findings to this ecosystem narrative. Be specific about risk implications.",
		n.Title, n.Summary, summaries.String(),
	)

	text, err := client.Complete(ctx, "You are a Solana security analyst. Produce concise risk summaries.", prompt)
	if err != nil {
		slog.Debug("cross-reference LLM call failed, using deterministic fallback", "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}
