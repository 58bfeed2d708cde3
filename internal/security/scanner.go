package security

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ecosystemMarkers are files/paths whose presence signals a Solana/Anchor
// repo. A repo lacking all of them is still scanned, but findings are
// marked low-confidence.
var ecosystemMarkers = []string{
	"Anchor.toml",
	"programs/*/src/lib.rs",
	"program/src/lib.rs",
}

const maxResultChars = 5000

// excludedDirs are path fragments that mark test/client/build code rather
// than on-chain program source.
var excludedDirs = []string{
	"/target/", "/tests/", "/test/", "/client/", "/clients/", "/cli/",
	"/sdk/", "/scripts/", "/migrations/", "/examples/", "/.docs/",
	"/benches/", "/cpitest/", "/generated/",
}

func isExcludedPath(path string) bool {
	normalized := "/" + filepath.ToSlash(path) + "/"
	for _, d := range excludedDirs {
		if strings.Contains(normalized, d) {
			return true
		}
	}
	return false
}

// isSolanaEcosystem reports whether root looks like an Anchor/Solana
// program repo: Anchor.toml at the root, a programs/*/src or program/src
// directory, or a Cargo manifest at root or one level under
// {programs, program, src} that mentions solana-program/anchor-lang.
func isSolanaEcosystem(root string) bool {
	if _, err := os.Stat(filepath.Join(root, "Anchor.toml")); err == nil {
		return true
	}
	matches, _ := filepath.Glob(filepath.Join(root, "programs", "*", "src", "lib.rs"))
	if len(matches) > 0 {
		return true
	}
	if _, err := os.Stat(filepath.Join(root, "program", "src", "lib.rs")); err == nil {
		return true
	}

	if manifestMentionsEcosystem(filepath.Join(root, "Cargo.toml")) {
		return true
	}
	programManifests, _ := filepath.Glob(filepath.Join(root, "programs", "*", "Cargo.toml"))
	for _, m := range programManifests {
		if manifestMentionsEcosystem(m) {
			return true
		}
	}
	for _, dir := range []string{"program", "src"} {
		if manifestMentionsEcosystem(filepath.Join(root, dir, "Cargo.toml")) {
			return true
		}
	}
	return false
}

func manifestMentionsEcosystem(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "solana-program") || strings.Contains(string(data), "anchor-lang")
}

func isCommentLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "///") || strings.HasPrefix(trimmed, "*")
}

// buildSnippet renders a 3-before/3-after window around idx (0-based) with
// "{:>4} | {line}" numbering, matching the original scanner's formatting.
func buildSnippet(lines []string, idx int) string {
	start := idx - 3
	if start < 0 {
		start = 0
	}
	end := idx + 4
	if end > len(lines) {
		end = len(lines)
	}
	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(strings.Repeat(" ", max0(4-len(strconv.Itoa(i+1)))))
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(" | ")
		b.WriteString(lines[i])
		if i != end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// scanFile runs every compiled pattern over content, returning raw findings
// before ecosystem/dedup post-processing.
func scanFile(relPath, content string, patterns []compiledPattern) []Finding {
	lines := strings.Split(content, "\n")
	var findings []Finding

	for _, p := range patterns {
		locs := p.re.FindAllStringIndex(content, -1)
		for _, loc := range locs {
			lineIdx := strings.Count(content[:loc[0]], "\n")
			if lineIdx >= len(lines) {
				continue
			}
			if isCommentLine(lines[lineIdx]) {
				continue
			}
			windowEnd := lineIdx + p.lineSpan
			if windowEnd > len(lines) {
				windowEnd = len(lines)
			}
			if p.suppressRe != nil {
				ctxStart := lineIdx - 3
				if ctxStart < 0 {
					ctxStart = 0
				}
				ctxEnd := windowEnd + 3
				if ctxEnd > len(lines) {
					ctxEnd = len(lines)
				}
				context := strings.Join(lines[ctxStart:ctxEnd], "\n")
				if p.suppressRe.MatchString(context) {
					continue
				}
			}

			findings = append(findings, Finding{
				PatternID:   p.id,
				Title:       p.title,
				Description: p.description,
				Severity:    p.severity,
				FilePath:    relPath,
				LineNumber:  lineIdx + 1,
				CodeSnippet: buildSnippet(lines, lineIdx),
				Remediation: p.remediation,
				Confidence:  p.confidence,
				References:  p.references,
			})
		}
	}
	return findings
}

// ScanRepo walks root, running the regex pass and the structural pass over
// every Rust source file, then applies ecosystem-confidence adjustment and
// dedup.
func ScanRepo(root string) ([]Finding, error) {
	patterns := compilePatterns()
	onTarget := isSolanaEcosystem(root)

	var all []Finding
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if base == "target" || base == "node_modules" || base == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".rs") || isExcludedPath(path) {
			return nil
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			rel = path
		}
		content := string(data)
		all = append(all, scanFile(rel, content, patterns)...)
		all = append(all, scanASTFile(rel, content)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !onTarget {
		for i := range all {
			all[i].Confidence = 0.2
			if !strings.HasPrefix(all[i].Title, "[Low Confidence] ") {
				all[i].Title = "[Low Confidence] " + all[i].Title
			}
		}
	}

	return dedupFindings(all), nil
}

// dedupFindings sorts by severity desc/file/line and keeps the first
// occurrence per (file_path, line_number, pattern_id).
func dedupFindings(findings []Finding) []Finding {
	order := map[Severity]int{
		SeverityCritical: 0,
		SeverityHigh:     1,
		SeverityMedium:   2,
		SeverityLow:      3,
		SeverityInfo:     4,
	}
	sort.SliceStable(findings, func(i, j int) bool {
		if order[findings[i].Severity] != order[findings[j].Severity] {
			return order[findings[i].Severity] < order[findings[j].Severity]
		}
		if findings[i].FilePath != findings[j].FilePath {
			return findings[i].FilePath < findings[j].FilePath
		}
		return findings[i].LineNumber < findings[j].LineNumber
	})

	seen := make(map[string]bool)
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		key := f.FilePath + "|" + strconv.Itoa(f.LineNumber) + "|" + f.PatternID
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}
