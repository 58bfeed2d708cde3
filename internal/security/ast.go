package security

import (
	"regexp"
	"strings"
)

// Structural pass: a line-oriented heuristic standing in for an actual
// Rust/Anchor AST walk, since nothing in the available Go ecosystem parses
// Rust syntax trees. It tracks `#[derive(Accounts)]` struct bodies as a
// brace-depth window and flags three account-validation shapes: unchecked
// account fields without a `/// CHECK:` doc comment, unsafe blocks, and
// logging a pubkey via msg!. Deliberately stdlib-only — see DESIGN.md.

var (
	derivesAccountsRe = regexp.MustCompile(`#\[derive\([^)]*Accounts[^)]*\)\]`)
	accountInfoFieldRe = regexp.MustCompile(`pub\s+\w+\s*:\s*(AccountInfo|UncheckedAccount)\s*(<[^>]*>)?`)
	unsafeBlockRe      = regexp.MustCompile(`\bunsafe\s*\{`)
	checkMarkerRe      = regexp.MustCompile(`CHECK\s*:`)
	debugKeyLogRe      = regexp.MustCompile(`msg!\s*\([^)]*\.key\(\)`)
)

// scanASTFile runs the structural checks over one file's content, line by
// line, tracking whether we're inside an Accounts-derived struct body.
func scanASTFile(relPath, content string) []Finding {
	lines := strings.Split(content, "\n")
	var findings []Finding

	inAccountsStruct := false
	braceDepth := 0
	pendingCheckDoc := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if derivesAccountsRe.MatchString(line) {
			inAccountsStruct = true
			braceDepth = 0
		}

		if inAccountsStruct {
			braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
			if braceDepth <= 0 && strings.Contains(line, "}") {
				inAccountsStruct = false
			}
		}

		if strings.HasPrefix(trimmed, "///") && checkMarkerRe.MatchString(trimmed) {
			pendingCheckDoc = true
			continue
		}

		if inAccountsStruct && accountInfoFieldRe.MatchString(line) {
			if !pendingCheckDoc {
				findings = append(findings, Finding{
					PatternID:   "AST-001",
					Title:       "Unchecked AccountInfo Field Without CHECK Comment",
					Description: "Field typed AccountInfo/UncheckedAccount inside a #[derive(Accounts)] struct has no preceding `/// CHECK:` doc comment explaining why it is safe to leave unvalidated.",
					Severity:    SeverityMedium,
					FilePath:    relPath,
					LineNumber:  i + 1,
					CodeSnippet: buildSnippet(lines, i),
					Remediation: "Add a `/// CHECK: <reason>` doc comment directly above the field, or replace with a validated account type.",
					Confidence:  0.5,
				})
			}
			pendingCheckDoc = false
		} else if trimmed != "" {
			pendingCheckDoc = false
		}

		if unsafeBlockRe.MatchString(line) {
			findings = append(findings, Finding{
				PatternID:   "AST-002",
				Title:       "Unsafe Block",
				Description: "An `unsafe` block bypasses Rust's memory-safety guarantees and warrants manual review of every raw pointer/transmute it performs.",
				Severity:    SeverityHigh,
				FilePath:    relPath,
				LineNumber:  i + 1,
				CodeSnippet: buildSnippet(lines, i),
				Remediation: "Confirm the invariants the unsafe block depends on are actually upheld, or replace with a safe alternative.",
				Confidence:  0.6,
			})
		}

		if debugKeyLogRe.MatchString(line) {
			findings = append(findings, Finding{
				PatternID:   "AST-003",
				Title:       "Account Key Logged via msg!",
				Description: "Logging an account's public key with msg! leaks it into program logs, which can aid an attacker correlating accounts across transactions.",
				Severity:    SeverityLow,
				FilePath:    relPath,
				LineNumber:  i + 1,
				CodeSnippet: buildSnippet(lines, i),
				Remediation: "Remove debug logging of account keys before deploying to mainnet, or gate it behind a feature flag.",
				Confidence:  0.4,
			})
		}
	}

	return findings
}
