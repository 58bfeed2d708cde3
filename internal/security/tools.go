package security

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ampactor/st-solguard/internal/llm"
)

// ToolRegistry exposes a fixed set of read-only filesystem tools scoped to
// one repo checkout, for the investigator/validator LLM loops.
type ToolRegistry struct {
	root string
}

func NewToolRegistry(root string) (*ToolRegistry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		canon = abs
	}
	return &ToolRegistry{root: canon}, nil
}

// safeResolve maps a user/LLM-supplied relative path onto root, rejecting
// any path that resolves outside it (e.g. via ".."). A leading "/" is
// stripped, so an absolute path is resolved relative to root.
func (r *ToolRegistry) safeResolve(relPath string) (string, error) {
	cleaned := filepath.ToSlash(relPath)
	cleaned = strings.TrimPrefix(cleaned, "/")
	joined := filepath.Join(r.root, filepath.FromSlash(cleaned))

	canonRoot, err := filepath.EvalSymlinks(r.root)
	if err != nil {
		canonRoot = r.root
	}
	canonPath, err := filepath.EvalSymlinks(joined)
	if err != nil {
		// File may not exist yet (e.g. list_files on a directory); fall
		// back to the lexically cleaned join and re-check the prefix.
		canonPath = filepath.Clean(joined)
	}
	if canonPath != canonRoot && !strings.HasPrefix(canonPath, canonRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes repo root: %s", relPath)
	}
	return canonPath, nil
}

func truncate(s string) string {
	if len(s) <= maxResultChars {
		return s
	}
	return s[:maxResultChars] + "\n... [truncated]"
}

// Tools returns the tool schemas to advertise to the LLM.
func (r *ToolRegistry) Tools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "list_files",
			Description: "List files under a directory in the repository, relative to the repo root, to depth 2.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path":    map[string]any{"type": "string", "description": "Directory path relative to repo root, \"\" or \".\" for root."},
					"pattern": map[string]any{"type": "string", "description": "Optional glob suffix to filter file names, e.g. \"*.rs\"."},
				},
			},
		},
		{
			Name:        "read_file",
			Description: "Read one file in the repository, optionally restricted to a 1-indexed line range.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path":       map[string]any{"type": "string", "description": "File path relative to repo root."},
					"start_line": map[string]any{"type": "integer", "description": "First line to include, 1-indexed."},
					"end_line":   map[string]any{"type": "integer", "description": "Last line to include, 1-indexed."},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "search_code",
			Description: "Search file contents across the repository for a literal substring.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":        map[string]any{"type": "string"},
					"file_pattern": map[string]any{"type": "string", "description": "Optional file extension to restrict the search, e.g. \".rs\"."},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "get_file_structure",
			Description: "Summarize one file's declarations at any nesting depth: functions, types, modules, impl blocks, uses.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string"},
				},
				"required": []string{"path"},
			},
		},
	}
}

// Dispatch executes one tool call by name, returning its text result. An
// unknown tool name returns an error string rather than panicking — tool
// execution failures become ToolResult errors, not investigator crashes.
// Malformed (non-object) input is rejected before any handler runs.
func (r *ToolRegistry) Dispatch(ctx context.Context, name string, args map[string]any) (string, bool) {
	if args == nil {
		return "Invalid tool input: expected a JSON object with named parameters", true
	}
	switch name {
	case "list_files":
		return r.listFiles(stringArg(args, "path"), stringArg(args, "pattern"))
	case "read_file":
		start, _ := intArg(args, "start_line")
		end, _ := intArg(args, "end_line")
		return r.readFile(stringArg(args, "path"), start, end)
	case "search_code":
		return r.searchCode(stringArg(args, "query"), stringArg(args, "file_pattern"))
	case "get_file_structure":
		return r.getFileStructure(stringArg(args, "path"))
	default:
		return fmt.Sprintf("unknown tool: %s", name), true
	}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// intArg reads an integer argument, tolerating the float64 JSON numbers an
// LLM transport unmarshals tool input into.
func intArg(args map[string]any, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func isHiddenOrTarget(name string) bool {
	return strings.HasPrefix(name, ".") || name == "target"
}

// matchesGlobSuffix reports whether name matches a "*.ext"-style suffix
// pattern; a pattern with no leading "*" is treated as a literal suffix.
func matchesGlobSuffix(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	return strings.HasSuffix(name, strings.TrimPrefix(pattern, "*"))
}

// listFiles lists dir to depth 2, repo-relative, skipping hidden
// directories and target/, with directories trailing "/" and an optional
// glob-suffix filter applied to file names.
func (r *ToolRegistry) listFiles(relPath, pattern string) (string, bool) {
	dir, err := r.safeResolve(relPath)
	if err != nil {
		return err.Error(), true
	}
	topEntries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Sprintf("read_dir failed: %v", err), true
	}

	var names []string
	for _, e := range topEntries {
		name := e.Name()
		if isHiddenOrTarget(name) {
			continue
		}
		if !e.IsDir() {
			if matchesGlobSuffix(name, pattern) {
				names = append(names, name)
			}
			continue
		}
		names = append(names, name+"/")

		subEntries, serr := os.ReadDir(filepath.Join(dir, name))
		if serr != nil {
			continue
		}
		for _, se := range subEntries {
			subName := se.Name()
			if isHiddenOrTarget(subName) {
				continue
			}
			display := name + "/" + subName
			if se.IsDir() {
				names = append(names, display+"/")
				continue
			}
			if matchesGlobSuffix(subName, pattern) {
				names = append(names, display)
			}
		}
	}
	sort.Strings(names)
	return truncate(strings.Join(names, "\n")), false
}

// readFile returns path's content with 1-indexed line numbers, gated to
// [startLine, endLine] when given (0 means unset). An out-of-range start
// is an error.
func (r *ToolRegistry) readFile(relPath string, startLine, endLine int) (string, bool) {
	path, err := r.safeResolve(relPath)
	if err != nil {
		return err.Error(), true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("read_file failed: %v", err), true
	}
	lines := strings.Split(string(data), "\n")

	start := 1
	if startLine > 0 {
		start = startLine
	}
	if start > len(lines) {
		return fmt.Sprintf("start_line %d out of range (file has %d lines)", start, len(lines)), true
	}
	end := len(lines)
	if endLine > 0 && endLine < end {
		end = endLine
	}
	if end < start {
		end = start
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		fmt.Fprintf(&b, "%4d | %s\n", i, lines[i-1])
	}
	return truncate(strings.TrimRight(b.String(), "\n")), false
}

// searchCode scans every non-excluded file under root for query, reporting
// up to 50 matches plus the true total, optionally restricted to files
// whose name ends in file_pattern.
func (r *ToolRegistry) searchCode(query, filePattern string) (string, bool) {
	if query == "" {
		return "query must not be empty", true
	}
	const maxMatches = 50
	var matches []string
	total := 0

	_ = filepath.Walk(r.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil {
			return nil
		}
		rel, rerr := filepath.Rel(r.root, path)
		if rerr != nil {
			rel = path
		}
		if info.IsDir() {
			if rel == "." {
				return nil
			}
			if info.Name() == ".git" || isExcludedPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if isExcludedPath(rel) {
			return nil
		}
		if filePattern != "" && !strings.HasSuffix(rel, filePattern) {
			return nil
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if strings.Contains(line, query) {
				total++
				if len(matches) < maxMatches {
					matches = append(matches, fmt.Sprintf("%s:%d: %s", rel, i+1, strings.TrimSpace(line)))
				}
			}
		}
		return nil
	})
	if total == 0 {
		return "no matches", false
	}
	header := fmt.Sprintf("%d total match(es), showing %d:\n", total, len(matches))
	return truncate(header + strings.Join(matches, "\n")), false
}

func (r *ToolRegistry) getFileStructure(relPath string) (string, bool) {
	path, err := r.safeResolve(relPath)
	if err != nil {
		return err.Error(), true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("read_file failed: %v", err), true
	}
	return truncate(summarizeStructure(string(data))), false
}

var declarationPrefixes = []string{
	"pub fn ", "fn ",
	"pub struct ", "struct ",
	"pub enum ", "enum ",
	"impl ", "pub trait ", "trait ",
	"pub mod ", "mod ",
	"pub use ", "use ",
	"#[derive(", "#[program",
}

func isDeclarationLine(trimmed string) bool {
	for _, p := range declarationPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// summarizeStructure extracts struct/fn/impl/enum/trait/mod/use
// declarations line by line, at any indentation — the same structural-heuristic approach the
// AST pass uses, repurposed for a human-readable file outline. A
// declaration immediately preceded by a `///`/`//!` doc comment is flagged
// [documented].
func summarizeStructure(content string) string {
	var lines []string
	docPending := false
	for i, raw := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(trimmed, "///"), strings.HasPrefix(trimmed, "//!"):
			docPending = true
			continue
		case strings.HasPrefix(trimmed, "//"):
			continue
		}

		if !isDeclarationLine(trimmed) {
			if trimmed != "" {
				docPending = false
			}
			continue
		}

		entry := fmt.Sprintf("%4d | %s", i+1, trimmed)
		if docPending {
			entry += " [documented]"
		}
		lines = append(lines, entry)
		docPending = false
	}
	if len(lines) == 0 {
		return "(no top-level declarations found)"
	}
	return strings.Join(lines, "\n")
}
