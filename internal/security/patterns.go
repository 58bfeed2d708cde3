package security

import "regexp"

// pattern is one entry in the fixed regex-pass table.
// regex/suppressIf use RE2 syntax (Go's regexp package has no lookaround),
// so patterns that the original expressed with negative lookahead are
// reformulated here as a positive match plus a suppress_if context check.
type pattern struct {
	id          string
	title       string
	description string
	severity    Severity
	regex       string
	lineSpan    int
	confidence  float64
	suppressIf  string // optional; empty means none
	remediation string
	references  []string
}

// patternTable ports the ten SOL-NNN patterns from
// original_source/src/security/regex_scan.rs, content (id/title/severity/
// remediation/references) preserved verbatim; regexes adapted to RE2 and
// given the line_span/suppress_if fields the fuller schema describes.
var patternTable = []pattern{
	{
		id:          "SOL-001",
		title:       "Missing Signer Constraint",
		description: "Account used in privileged operation without #[account(signer)] or Signer<> type. An attacker could call this instruction with any account, bypassing authorization.",
		severity:    SeverityHigh,
		regex:       `pub\s+\w+\s*:\s*(Account|AccountInfo|UncheckedAccount)`,
		lineSpan:    1,
		confidence:  0.6,
		suppressIf:  `has_one|constraint|signer|Signer`,
		remediation: "Add `Signer<'info>` type or `#[account(signer)]` constraint to enforce authorization.",
		references:  []string{"https://www.soldev.app/course/signer-auth"},
	},
	{
		id:          "SOL-002",
		title:       "Missing Owner Validation",
		description: "Account deserialized without owner = program_id constraint. An attacker could pass an account owned by a different program with crafted data.",
		severity:    SeverityHigh,
		regex:       `#\[account\([^)]*\)\]\s*pub\s+\w+\s*:\s*Account<[^>]+>`,
		lineSpan:    1,
		confidence:  0.5,
		suppressIf:  `owner\s*=`,
		remediation: "Add `owner = crate::ID` or equivalent constraint. For Anchor, `Account<>` checks owner by default — verify the program ID matches.",
		references:  []string{"https://www.soldev.app/course/owner-checks"},
	},
	{
		id:          "SOL-003",
		title:       "Unchecked Arithmetic on Token Amounts",
		description: "Arithmetic operation (+, -, *) on potential token amounts without checked_* or saturating_*. Could overflow/underflow, leading to incorrect balances.",
		severity:    SeverityMedium,
		regex:       `(amount|balance|supply|lamports|quantity|total|reserve)\s*(\+|-|\*)\s*(amount|balance|supply|lamports|quantity|total|reserve|[0-9])`,
		lineSpan:    1,
		confidence:  0.5,
		suppressIf:  `checked_add|checked_sub|checked_mul|saturating_`,
		remediation: "Use `checked_add()`, `checked_sub()`, `checked_mul()` or `saturating_*` variants.",
		references:  []string{"CWE-190"},
	},
	{
		id:          "SOL-004",
		title:       "Unvalidated remaining_accounts Usage",
		description: "Iterating over ctx.remaining_accounts without validation. Attacker can pass arbitrary accounts, potentially bypassing security checks.",
		severity:    SeverityHigh,
		regex:       `remaining_accounts(\s*\.|\s*\[)`,
		lineSpan:    1,
		confidence:  0.6,
		remediation: "Validate each account in remaining_accounts: check owner, check key against expected PDA, verify signer status.",
		references:  nil,
	},
	{
		id:          "SOL-005",
		title:       "PDA Bump Seed Not Stored/Verified",
		description: "PDA created with find_program_address but bump not stored in account data. Without bump verification, account can be re-derived with wrong bump.",
		severity:    SeverityMedium,
		regex:       `find_program_address\s*\(`,
		lineSpan:    1,
		confidence:  0.4,
		suppressIf:  `bump\s*=|stored_bump`,
		remediation: "Store the canonical bump in account data and verify it in subsequent instructions using `seeds` + `bump = stored_bump`.",
		references:  []string{"https://www.soldev.app/course/bump-seed-canonicalization"},
	},
	{
		id:          "SOL-006",
		title:       "Account Closed Without Zeroing Data",
		description: "Account closed by transferring lamports but data not zeroed. Revival attack: within the same transaction, account can be re-opened with stale data.",
		severity:    SeverityCritical,
		regex:       `close|lamports\.borrow_mut|sub_lamports`,
		lineSpan:    3,
		confidence:  0.5,
		suppressIf:  `assign|realloc|data\.borrow_mut\(\)\.fill\(0\)`,
		remediation: "After transferring lamports, zero the account data: `account.data.borrow_mut().fill(0)`. Or use Anchor's `#[account(close = destination)]`.",
		references:  []string{"https://www.soldev.app/course/closing-accounts"},
	},
	{
		id:          "SOL-007",
		title:       "Potential Arbitrary CPI Target",
		description: "Cross-program invocation where the target program ID may come from user input. Attacker could redirect the CPI to a malicious program.",
		severity:    SeverityCritical,
		regex:       `invoke(_signed)?\s*\(\s*&[^,]*(program_id|program_key|target_program)`,
		lineSpan:    1,
		confidence:  0.55,
		remediation: "Hardcode the target program ID or validate it against a known constant.",
		references:  []string{"https://www.soldev.app/course/arbitrary-cpi"},
	},
	{
		id:          "SOL-008",
		title:       "Potential Type Cosplay (Missing Discriminator)",
		description: "Account deserialized with try_from_slice or manual deserialization without discriminator check. An attacker could pass a different account type with same data layout.",
		severity:    SeverityHigh,
		regex:       `(try_from_slice|deserialize|from_bytes)\s*\(`,
		lineSpan:    1,
		confidence:  0.4,
		remediation: "Use Anchor's Account<> type (auto-checks discriminator) or manually verify the 8-byte discriminator.",
		references:  []string{"https://www.soldev.app/course/type-cosplay"},
	},
	{
		id:          "SOL-009",
		title:       "Division Before Multiplication (Precision Loss)",
		description: "Division followed by multiplication on the result. In integer math, this loses precision. For financial calculations, always multiply first, then divide.",
		severity:    SeverityMedium,
		regex:       `/\s*\w+\s*\)\s*(\.\s*)?(checked_mul|saturating_mul|\*)`,
		lineSpan:    1,
		confidence:  0.45,
		remediation: "Reorder: multiply first, then divide. Or use u128 intermediate precision.",
		references:  []string{"CWE-682"},
	},
	{
		id:          "SOL-010",
		title:       "Missing Token-2022 Extension Handling",
		description: "Token transfer using spl_token but not handling Token-2022 extensions (transfer fees, confidential transfers).",
		severity:    SeverityMedium,
		regex:       `spl_token::instruction::transfer`,
		lineSpan:    1,
		confidence:  0.4,
		suppressIf:  `transfer_checked`,
		remediation: "Use `transfer_checked` instead of `transfer`. Check for Token-2022 extensions.",
		references:  []string{"https://spl.solana.com/token-2022"},
	},
}

type compiledPattern struct {
	pattern
	re         *regexp.Regexp
	suppressRe *regexp.Regexp
}

// compilePatterns pre-compiles every pattern's regex with patterns that
// fail to compile silently skipped.
func compilePatterns() []compiledPattern {
	out := make([]compiledPattern, 0, len(patternTable))
	for _, p := range patternTable {
		re, err := regexp.Compile(p.regex)
		if err != nil {
			continue
		}
		var suppressRe *regexp.Regexp
		if p.suppressIf != "" {
			suppressRe, _ = regexp.Compile(p.suppressIf)
		}
		out = append(out, compiledPattern{pattern: p, re: re, suppressRe: suppressRe})
	}
	return out
}
