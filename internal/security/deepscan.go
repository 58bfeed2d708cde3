package security

import (
	"context"
	"strings"

	"github.com/ampactor/st-solguard/internal/llm"
)

// AgentFindingToSecurityFinding converts one investigator finding into the
// downstream-facing shape. Agent findings have no single line number; the
// first affected file (if any) is used as FilePath and LineNumber stays 0.
func AgentFindingToSecurityFinding(af AgentFinding) SecurityFinding {
	var filePath string
	if len(af.AffectedFiles) > 0 {
		filePath = af.AffectedFiles[0]
	}
	return SecurityFinding{
		Title:            af.Title,
		Severity:         af.Severity,
		Description:      af.Description,
		FilePath:         filePath,
		LineNumber:       0,
		Remediation:      af.Remediation,
		ValidationStatus: StatusUnvalidated,
	}
}

// ScanRepoDeep runs the static scanner for triage context, then the
// multi-turn investigator loop, and merges the two result sets: agent
// findings are returned as-is, and any Critical/High static finding not
// already "dominated" by an agent finding (same title substring, or an
// agent finding naming the static finding's file) is appended too, so the
// deterministic pass never silently loses a high-severity lead the agent
// didn't independently surface.
func ScanRepoDeep(ctx context.Context, root string, client llm.Client, registry *ToolRegistry, budget InvestigatorBudget, scanCtx ScanContext) ([]SecurityFinding, ReviewStats, error) {
	staticFindings, err := ScanRepo(root)
	if err != nil {
		staticFindings = nil
	}

	agentFindings, stats, err := Investigate(ctx, client, registry, staticFindings, scanCtx, budget)
	if err != nil {
		return nil, stats, err
	}

	findings := make([]SecurityFinding, 0, len(agentFindings))
	for _, af := range agentFindings {
		findings = append(findings, AgentFindingToSecurityFinding(af))
	}

	for _, sf := range staticFindings {
		if sf.Severity != SeverityCritical && sf.Severity != SeverityHigh {
			continue
		}
		secFinding := FindingToSecurityFinding(sf)
		if !dominatedByAgentFinding(secFinding, findings) {
			findings = append(findings, secFinding)
		}
	}

	return findings, stats, nil
}

func dominatedByAgentFinding(sf SecurityFinding, agentFindings []SecurityFinding) bool {
	lowerTitle := strings.ToLower(sf.Title)
	for _, af := range agentFindings {
		if strings.Contains(strings.ToLower(af.Title), lowerTitle) {
			return true
		}
		if af.FilePath != "" && strings.Contains(sf.FilePath, af.FilePath) {
			return true
		}
	}
	return false
}
