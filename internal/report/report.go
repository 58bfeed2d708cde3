// Package report assembles a single narrative-centric HTML document from
// a run's narratives and security findings.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ampactor/st-solguard/internal/narrative"
	"github.com/ampactor/st-solguard/internal/security"
)

type findingView struct {
	Title               string
	Severity            security.Severity
	SeverityClass       string
	Description         string
	Remediation         string
	FileLocation        string
	Repo                string
	ValidationBadge     string
	ValidationClass     string
	ValidationReasoning string
}

type narrativeView struct {
	Title          string
	Summary        string
	ConfidencePct  int
	Trend          string
	RepoCount      int
	FindingCount   int
	RiskScoreFmt   string
	RiskLevel      string
	RiskClass      string
	LinkedFindings []findingView
}

type repoSummary struct {
	Name     string
	Critical int
	High     int
	Medium   int
	Low      int
	Total    int
}

type reportData struct {
	RunID            string
	GeneratedAt      string
	NarrativeCount   int
	FindingCount     int
	RepoCount        int
	CriticalCount    int
	SeverityCritical int
	SeverityHigh     int
	SeverityMedium   int
	SeverityLow      int
	SeverityInfo     int
	ConfirmedCount   int
	DisputedCount    int
	HasValidation    bool
	Narratives       []narrativeView
	RepoSummaries    []repoSummary
	OrphanFindings   []findingView
	OrphanCount      int
}

func severityClass(s security.Severity) string {
	switch s {
	case security.SeverityCritical:
		return "text-red-500"
	case security.SeverityHigh:
		return "text-orange-400"
	case security.SeverityMedium:
		return "text-yellow-400"
	case security.SeverityLow:
		return "text-blue-400"
	default:
		return "text-gray-400"
	}
}

func riskClass(level string) string {
	switch level {
	case "Critical":
		return "bg-red-900/30 text-red-400 border-red-800/50"
	case "High":
		return "bg-orange-900/30 text-orange-400 border-orange-800/50"
	case "Medium":
		return "bg-yellow-900/30 text-yellow-400 border-yellow-800/50"
	case "Low":
		return "bg-blue-900/30 text-blue-400 border-blue-800/50"
	default:
		return "bg-gray-800 text-gray-400 border-gray-700"
	}
}

func validationClass(status security.ValidationStatus) string {
	switch status {
	case security.StatusConfirmed:
		return "bg-green-900/30 text-green-400"
	case security.StatusDisputed:
		return "bg-yellow-900/30 text-yellow-400"
	case security.StatusDismissed:
		return "bg-red-900/30 text-red-400"
	default:
		return "bg-gray-800 text-gray-400"
	}
}

func validationBadge(status security.ValidationStatus) string {
	if status == "" {
		return string(security.StatusUnvalidated)
	}
	return string(status)
}

// repoName extracts a repo name from a finding's file path: the segment
// right after "repos/" if present, else the first meaningful path
// component, else "unknown".
func repoName(f security.SecurityFinding) string {
	path := f.FilePath
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

func severityOrder(s security.Severity) int {
	switch s {
	case security.SeverityCritical:
		return 0
	case security.SeverityHigh:
		return 1
	case security.SeverityMedium:
		return 2
	case security.SeverityLow:
		return 3
	default:
		return 4
	}
}

func findingToView(f security.SecurityFinding) findingView {
	return findingView{
		Title:               f.Title,
		Severity:            f.Severity,
		SeverityClass:       severityClass(f.Severity),
		Description:         f.Description,
		Remediation:         f.Remediation,
		FileLocation:        fmt.Sprintf("%s:%d", f.FilePath, f.LineNumber),
		Repo:                repoName(f),
		ValidationBadge:     validationBadge(f.ValidationStatus),
		ValidationClass:     validationClass(f.ValidationStatus),
		ValidationReasoning: f.ValidationReasoning,
	}
}

// RenderCombinedReport builds the single HTML document covering every
// narrative and every finding from the run.
func RenderCombinedReport(narratives []narrative.Narrative, findings []security.SecurityFinding) (string, error) {
	linkedIdx := make(map[int]bool)

	narrativeViews := make([]narrativeView, 0, len(narratives))
	for _, n := range narratives {
		var linked []findingView
		for _, indices := range n.RepoFindings {
			for _, idx := range indices {
				if idx < 0 || idx >= len(findings) {
					continue
				}
				linked = append(linked, findingToView(findings[idx]))
				linkedIdx[idx] = true
			}
		}
		sort.SliceStable(linked, func(i, j int) bool {
			return severityOrder(linked[i].Severity) < severityOrder(linked[j].Severity)
		})

		rl := n.RiskLevel
		if rl == "" {
			rl = "None"
		}
		narrativeViews = append(narrativeViews, narrativeView{
			Title:          n.Title,
			Summary:        n.Summary,
			ConfidencePct:  int(n.Confidence * 100.0),
			Trend:          n.Trend,
			RepoCount:      len(n.ActiveRepos),
			FindingCount:   n.FindingCount,
			RiskScoreFmt:   fmt.Sprintf("%.1f", n.RiskScore),
			RiskLevel:      rl,
			RiskClass:      riskClass(rl),
			LinkedFindings: linked,
		})
	}

	var orphans []findingView
	for i, f := range findings {
		if linkedIdx[i] {
			continue
		}
		orphans = append(orphans, findingToView(f))
	}
	sort.SliceStable(orphans, func(i, j int) bool {
		return severityOrder(orphans[i].Severity) < severityOrder(orphans[j].Severity)
	})

	var sevCritical, sevHigh, sevMedium, sevLow, sevInfo int
	var confirmed, disputed int
	hasValidation := false
	for _, f := range findings {
		switch f.Severity {
		case security.SeverityCritical:
			sevCritical++
		case security.SeverityHigh:
			sevHigh++
		case security.SeverityMedium:
			sevMedium++
		case security.SeverityLow:
			sevLow++
		default:
			sevInfo++
		}
		switch f.ValidationStatus {
		case security.StatusConfirmed:
			confirmed++
		case security.StatusDisputed:
			disputed++
		}
		if f.ValidationStatus != security.StatusUnvalidated && f.ValidationStatus != "" {
			hasValidation = true
		}
	}

	repoCounts := make(map[string]*repoSummary)
	var repoOrder []string
	for _, f := range findings {
		name := repoName(f)
		rs, ok := repoCounts[name]
		if !ok {
			rs = &repoSummary{Name: name}
			repoCounts[name] = rs
			repoOrder = append(repoOrder, name)
		}
		switch f.Severity {
		case security.SeverityCritical:
			rs.Critical++
		case security.SeverityHigh:
			rs.High++
		case security.SeverityMedium:
			rs.Medium++
		case security.SeverityLow:
			rs.Low++
		}
		rs.Total++
	}
	sort.Strings(repoOrder)
	repoSummaries := make([]repoSummary, 0, len(repoOrder))
	for _, name := range repoOrder {
		repoSummaries = append(repoSummaries, *repoCounts[name])
	}
	sort.SliceStable(repoSummaries, func(i, j int) bool {
		return repoSummaries[i].Total > repoSummaries[j].Total
	})

	data := reportData{
		RunID:            uuid.NewString(),
		GeneratedAt:      time.Now().UTC().Format("2006-01-02 15:04 UTC"),
		NarrativeCount:   len(narratives),
		FindingCount:     len(findings),
		RepoCount:        len(repoSummaries),
		CriticalCount:    sevCritical + sevHigh,
		SeverityCritical: sevCritical,
		SeverityHigh:     sevHigh,
		SeverityMedium:   sevMedium,
		SeverityLow:      sevLow,
		SeverityInfo:     sevInfo,
		ConfirmedCount:   confirmed,
		DisputedCount:    disputed,
		HasValidation:    hasValidation,
		Narratives:       narrativeViews,
		RepoSummaries:    repoSummaries,
		OrphanFindings:   orphans,
		OrphanCount:      len(orphans),
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report template: %w", err)
	}
	return buf.String(), nil
}

var reportTemplate = template.Must(template.New("solguard_report").Parse(reportTemplateSource))
