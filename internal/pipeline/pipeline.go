// Package pipeline drives the full autonomous run: narrative detection,
// target selection, per-repo clone+scan+validate, cross-reference, report
// assembly, and run-memory persistence.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ampactor/st-solguard/internal/config"
	"github.com/ampactor/st-solguard/internal/crossref"
	"github.com/ampactor/st-solguard/internal/httpclient"
	"github.com/ampactor/st-solguard/internal/llm"
	"github.com/ampactor/st-solguard/internal/memory"
	"github.com/ampactor/st-solguard/internal/narrative"
	"github.com/ampactor/st-solguard/internal/report"
	"github.com/ampactor/st-solguard/internal/security"
)

// Result is the outcome of one full pipeline run.
type Result struct {
	Narratives []narrative.Narrative
	Findings   []security.SecurityFinding
	ReportHTML string
}

// Run executes all six phases: narrative detection, target selection,
// scan, cross-reference, report assembly, and memory persistence.
func Run(ctx context.Context, cfg config.Config, reposDir string, router *llm.ModelRouter, deep bool) (Result, error) {
	slog.Info("SolGuard autonomous pipeline starting")
	runMem := memory.LoadOrDefault()
	history := memory.NewRunHistory()

	// Phase 1: narrative detection.
	slog.Info("phase 1: detecting narratives")
	http := httpclient.New("st-solguard/0.1.0")
	narrResult, err := narrative.Run(ctx, cfg, http, router)
	if err != nil {
		return Result{}, fmt.Errorf("narrative detection: %w", err)
	}
	narratives := narrResult.Narratives
	history.SignalsCollected = len(narrResult.DiscoveredRepos)
	slog.Info("narratives detected", "count", len(narratives))

	// Phase 2: target selection — flatten active repos, inject always-scan
	// targets, dedup/sort, filter against the blocklist.
	slog.Info("phase 2: selecting scan targets")
	targets := selectTargets(narratives, cfg.Targets.AlwaysScan, runMem.RepoBlocklist)
	slog.Info("scan targets identified", "count", len(targets))

	// Phase 3: clone + scan + validate per repo.
	slog.Info("phase 3: scanning targets", "deep", deep)
	if err := os.MkdirAll(reposDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create repos dir: %w", err)
	}

	var allFindings []security.SecurityFinding
	for _, target := range targets {
		repoName := lastPathSegment(target)
		repoResult := memory.RepoResult{Name: repoName}

		var repoPath string
		if isBareName(target) {
			// A known-good target from [targets].always_scan: resolved
			// under the configured repos_dir, never cloned.
			repoPath = filepath.Join(cfg.Targets.ReposDir, target)
			if _, err := os.Stat(repoPath); os.IsNotExist(err) {
				err := fmt.Errorf("known-good target %q not found under %q", target, cfg.Targets.ReposDir)
				slog.Warn("skipping missing known-good target", "repo", target, "path", repoPath)
				repoResult.Errors = append(repoResult.Errors, err.Error())
				history.Errors = append(history.Errors, err.Error())
				history.RepoResults = append(history.RepoResults, repoResult)
				continue
			}
		} else {
			repoPath = filepath.Join(reposDir, repoName)
			if _, err := os.Stat(repoPath); os.IsNotExist(err) {
				slog.Info("cloning repository", "repo", target)
				if err := cloneRepo(ctx, target, repoPath); err != nil {
					slog.Warn("failed to clone, skipping", "repo", target, "error", err)
					repoResult.Errors = append(repoResult.Errors, err.Error())
					history.Errors = append(history.Errors, err.Error())
					history.RepoResults = append(history.RepoResults, repoResult)
					continue
				}
			}
		}

		findings, scanErr := scanOne(ctx, repoPath, repoName, target, narratives, targets, allFindings, cfg, router, deep)
		if scanErr != nil {
			slog.Warn("scan failed", "repo", target, "error", scanErr)
			repoResult.Errors = append(repoResult.Errors, scanErr.Error())
			history.Errors = append(history.Errors, scanErr.Error())
			history.RepoResults = append(history.RepoResults, repoResult)
			continue
		}

		slog.Info("scan complete", "repo", target, "findings", len(findings))
		repoResult.FindingsCount = len(findings)
		history.RepoResults = append(history.RepoResults, repoResult)
		allFindings = append(allFindings, findings...)
	}
	history.TotalFindings = len(allFindings)

	// Phase 4: cross-reference narratives with findings, then rank by risk.
	slog.Info("phase 4: cross-referencing narratives with security findings")
	crossref.Analyze(ctx, narratives, allFindings, router)
	sort.SliceStable(narratives, func(i, j int) bool {
		return narratives[i].RiskScore > narratives[j].RiskScore
	})

	// Phase 5: report assembly.
	slog.Info("phase 5: generating combined report")
	html, err := report.RenderCombinedReport(narratives, allFindings)
	if err != nil {
		return Result{}, fmt.Errorf("render report: %w", err)
	}

	// Phase 6: persist run history and update cross-run memory.
	if err := history.Save(); err != nil {
		slog.Warn("failed to save run history", "error", err)
	}
	runMem.UpdateFromRun(history)
	if err := runMem.Save(); err != nil {
		slog.Warn("failed to save run memory", "error", err)
	}

	return Result{Narratives: narratives, Findings: allFindings, ReportHTML: html}, nil
}

// selectTargets flattens every narrative's active repos, adds the
// configured always-scan targets, dedups, sorts, and drops anything whose
// tail segment is blocklisted.
func selectTargets(narratives []narrative.Narrative, alwaysScan, blocklist []string) []string {
	seen := make(map[string]bool)
	var targets []string

	add := func(t string) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		targets = append(targets, t)
	}

	for _, n := range narratives {
		for _, r := range n.ActiveRepos {
			add(r)
		}
	}
	for _, t := range alwaysScan {
		add(t)
	}

	sort.Strings(targets)

	blocked := make(map[string]bool, len(blocklist))
	for _, b := range blocklist {
		blocked[lastPathSegment(b)] = true
	}

	filtered := targets[:0]
	for _, t := range targets {
		if !blocked[lastPathSegment(t)] {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// isBareName reports whether target is a known-good local repo name
// (no "/") rather than an "owner/repo" GitHub slug to clone.
func isBareName(target string) bool {
	return !strings.Contains(target, "/")
}

func lastPathSegment(s string) string {
	if idx := strings.LastIndex(s, "/"); idx != -1 {
		return s[idx+1:]
	}
	return s
}

func cloneRepo(ctx context.Context, target, dest string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", "https://github.com/"+target, dest)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git clone: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// scanOne runs the static-only or deep scan for one repo, building a
// narrative-informed ScanContext and dynamic budget when deep, and
// validates the resulting findings when deep and non-empty.
func scanOne(ctx context.Context, repoPath, repoName, target string, narratives []narrative.Narrative, targets []string, priorFindings []security.SecurityFinding, cfg config.Config, router *llm.ModelRouter, deep bool) ([]security.SecurityFinding, error) {
	if !deep {
		raw, err := security.ScanRepo(repoPath)
		if err != nil {
			return nil, err
		}
		findings := make([]security.SecurityFinding, 0, len(raw))
		for _, f := range raw {
			findings = append(findings, security.FindingToSecurityFinding(f))
		}
		return findings, nil
	}

	matched := findNarrativeForRepo(narratives, repoName)
	budget := security.InvestigatorBudget{
		MaxTurns:     cfg.AgentReview.MaxTurns,
		CostLimitUSD: cfg.AgentReview.CostLimitUSD,
	}
	var scanCtx security.ScanContext
	if matched != nil {
		budget = security.ComputeBudget(matched.Confidence, len(targets))
		scanCtx = security.ScanContext{
			ProtocolCategory: inferProtocolCategory(*matched),
			NarrativeSummary: matched.Summary,
			SiblingFindings:  siblingLabels(priorFindings, 10),
		}
	}

	registry, err := security.NewToolRegistry(repoPath)
	if err != nil {
		return nil, err
	}
	client := router.ClientFor(llm.TaskDeepInvestigation)

	findings, _, err := security.ScanRepoDeep(ctx, repoPath, client, registry, budget, scanCtx)
	if err != nil {
		return nil, err
	}

	if len(findings) > 0 {
		slog.Info("validating findings", "repo", target, "count", len(findings))
		validated, _, vErr := security.Validate(ctx, router.ClientFor(llm.TaskValidation), registry, findings, budget.MaxTurns)
		if vErr != nil {
			slog.Warn("validation failed, keeping unvalidated", "repo", target, "error", vErr)
		} else {
			findings = validated
		}
	}

	return findings, nil
}

func findNarrativeForRepo(narratives []narrative.Narrative, repoName string) *narrative.Narrative {
	for i := range narratives {
		for _, ar := range narratives[i].ActiveRepos {
			if lastPathSegment(ar) == repoName {
				return &narratives[i]
			}
		}
	}
	return nil
}

func siblingLabels(findings []security.SecurityFinding, limit int) []string {
	if len(findings) > limit {
		findings = findings[:limit]
	}
	labels := make([]string, 0, len(findings))
	for _, f := range findings {
		labels = append(labels, fmt.Sprintf("[%s] %s", f.Severity, f.Title))
	}
	return labels
}

// inferProtocolCategory matches keywords in a narrative's title+summary to
// one of a fixed set of protocol categories, for investigator focus.
func inferProtocolCategory(n narrative.Narrative) string {
	text := strings.ToLower(n.Title + " " + n.Summary)
	switch {
	case strings.Contains(text, "dex") || strings.Contains(text, "amm") || strings.Contains(text, "swap") || strings.Contains(text, "exchange"):
		return "DEX"
	case strings.Contains(text, "lend") || strings.Contains(text, "borrow") || strings.Contains(text, "loan"):
		return "Lending"
	case strings.Contains(text, "stak") || strings.Contains(text, "liquid"):
		return "Staking"
	case strings.Contains(text, "nft") || strings.Contains(text, "marketplace") || strings.Contains(text, "collectible"):
		return "NFT/Marketplace"
	case strings.Contains(text, "privacy") || strings.Contains(text, "mixer") || strings.Contains(text, "anon"):
		return "Privacy"
	case strings.Contains(text, "bridge") || strings.Contains(text, "cross-chain"):
		return "Bridge"
	default:
		return ""
	}
}
