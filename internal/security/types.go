// Package security implements the two-tier vulnerability scanner (regex +
// structural passes), the repo-scoped agent tools, and the investigator
// and validator LLM loops that turn scanner leads and repo contents into
// validated security findings.
package security

// Severity ranks a finding's impact, Critical highest.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
	SeverityInfo     Severity = "Info"
)

// ValidationStatus is the outcome of the adversarial validator pass.
type ValidationStatus string

const (
	StatusUnvalidated ValidationStatus = "Unvalidated"
	StatusConfirmed   ValidationStatus = "Confirmed"
	StatusDisputed    ValidationStatus = "Disputed"
	StatusDismissed   ValidationStatus = "Dismissed"
)

// Finding is the pattern/AST scanner's internal representation, enriched
// with provenance not carried downstream into SecurityFinding.
type Finding struct {
	PatternID    string   `json:"pattern_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Severity     Severity `json:"severity"`
	FilePath     string   `json:"file_path"`
	LineNumber   int      `json:"line_number"`
	CodeSnippet  string   `json:"code_snippet"`
	Remediation  string   `json:"remediation"`
	Confidence   float64  `json:"confidence"`
	References   []string `json:"references"`
}

// SecurityFinding is the emitted, downstream-facing finding shape. A
// LineNumber of 0 denotes a whole-file / agent-originated finding — it
// distinguishes investigator output from pattern-scanner output in
// provenance.
type SecurityFinding struct {
	Title               string           `json:"title"`
	Severity            Severity         `json:"severity"`
	Description         string           `json:"description"`
	FilePath            string           `json:"file_path"`
	LineNumber          int              `json:"line_number"`
	Remediation         string           `json:"remediation"`
	ValidationStatus    ValidationStatus `json:"validation_status"`
	ValidationReasoning string           `json:"validation_reasoning,omitempty"`
}

func FindingToSecurityFinding(f Finding) SecurityFinding {
	return SecurityFinding{
		Title:            f.Title,
		Severity:         f.Severity,
		Description:      f.Description,
		FilePath:         f.FilePath,
		LineNumber:       f.LineNumber,
		Remediation:      f.Remediation,
		ValidationStatus: StatusUnvalidated,
	}
}

// AgentFinding is the investigator loop's structured output shape.
type AgentFinding struct {
	Title          string   `json:"title"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Evidence       []string `json:"evidence"`
	AttackScenario string   `json:"attack_scenario"`
	Remediation    string   `json:"remediation"`
	Confidence     float64  `json:"confidence"`
	AffectedFiles  []string `json:"affected_files"`
}

// ScanContext carries optional investigator focus derived from a narrative.
type ScanContext struct {
	ProtocolCategory string
	NarrativeSummary string
	SiblingFindings  []string // "[severity] title" labels, capped at 10
}

// Verdict is the validator's per-finding outcome.
type Verdict string

const (
	VerdictConfirmed Verdict = "Confirmed"
	VerdictDisputed  Verdict = "Disputed"
	VerdictDismissed Verdict = "Dismissed"
)

// VerdictEntry is one element of the validator's JSON output array.
type VerdictEntry struct {
	Title     string `json:"title"`
	Verdict   string `json:"verdict"`
	Reasoning string `json:"reasoning"`
}

// ReviewStats accumulates usage across an investigator or validator run.
type ReviewStats struct {
	Turns            int
	TotalInputTokens int
	TotalOutputTokens int
	TotalCostUSD     float64
	ToolCalls        int
}
