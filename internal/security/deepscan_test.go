package security

import "testing"

func TestDominatedByAgentFindingTitleSubstring(t *testing.T) {
	agentFindings := []SecurityFinding{
		{Title: "Missing signer check allows fund drain", FilePath: "src/vault.rs"},
	}
	sf := SecurityFinding{Title: "Missing signer check", FilePath: "src/vault.rs"}
	if !dominatedByAgentFinding(sf, agentFindings) {
		t.Error("expected static finding to be dominated by matching agent finding title")
	}
}

func TestDominatedByAgentFindingFilePathSubstring(t *testing.T) {
	agentFindings := []SecurityFinding{
		{Title: "Unrelated issue", FilePath: "src/vault.rs"},
	}
	sf := SecurityFinding{Title: "Completely different lead", FilePath: "programs/foo/src/vault.rs"}
	if !dominatedByAgentFinding(sf, agentFindings) {
		t.Error("expected static finding to be dominated via file path containment")
	}
}

func TestNotDominatedWhenNoOverlap(t *testing.T) {
	agentFindings := []SecurityFinding{
		{Title: "Reentrancy in withdraw", FilePath: "src/withdraw.rs"},
	}
	sf := SecurityFinding{Title: "Integer overflow", FilePath: "src/math.rs"}
	if dominatedByAgentFinding(sf, agentFindings) {
		t.Error("expected no domination for unrelated finding")
	}
}

func TestAgentFindingToSecurityFindingUsesFirstAffectedFile(t *testing.T) {
	af := AgentFinding{
		Title:         "Unchecked account owner",
		Severity:      SeverityHigh,
		AffectedFiles: []string{"src/lib.rs", "src/state.rs"},
	}
	sf := AgentFindingToSecurityFinding(af)
	if sf.FilePath != "src/lib.rs" {
		t.Errorf("FilePath = %q, want src/lib.rs", sf.FilePath)
	}
	if sf.LineNumber != 0 {
		t.Errorf("LineNumber = %d, want 0", sf.LineNumber)
	}
	if sf.ValidationStatus != StatusUnvalidated {
		t.Errorf("ValidationStatus = %q, want Unvalidated", sf.ValidationStatus)
	}
}

func TestAgentFindingToSecurityFindingNoAffectedFiles(t *testing.T) {
	af := AgentFinding{Title: "Whole-program issue"}
	sf := AgentFindingToSecurityFinding(af)
	if sf.FilePath != "" {
		t.Errorf("FilePath = %q, want empty", sf.FilePath)
	}
}
