// Package memory persists per-run history and a cross-run aggregate used
// to blocklist repeatedly-failing repos.
package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ampactor/st-solguard/internal/errs"
)

func solguardDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".solguard")
}

// RepoResult is one repo's outcome within a single run.
type RepoResult struct {
	Name           string   `json:"name"`
	FindingsCount  int      `json:"findings_count"`
	Errors         []string `json:"errors"`
}

// RunHistory is a one-run snapshot persisted for audit and learning.
type RunHistory struct {
	Timestamp        time.Time    `json:"timestamp"`
	SignalsCollected int          `json:"signals_collected"`
	RepoResults      []RepoResult `json:"repo_results"`
	TotalFindings    int          `json:"total_findings"`
	CostEstimate     float64      `json:"cost_estimate"`
	Errors           []string     `json:"errors"`
}

func NewRunHistory() *RunHistory {
	return &RunHistory{
		Timestamp:   time.Now().UTC(),
		RepoResults: []RepoResult{},
		Errors:      []string{},
	}
}

// Save writes the run to <home>/.solguard/history/<timestamp>.json.
func (h *RunHistory) Save() error {
	dir := filepath.Join(solguardDir(), "history")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.IO("create history dir", err)
	}
	filename := h.Timestamp.Format("20060102T150405") + ".json"
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return errs.IO("marshal run history", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return errs.IO("write run history", err)
	}
	return nil
}

// reliability tracks (successes, total) or (confirmed, total) pairs.
type reliability struct {
	Hits  int `json:"hits"`
	Total int `json:"total"`
}

// RunMemory aggregates learning across runs: repos that fail consistently
// get blocklisted, and reliability stats accumulate per signal source and
// per pattern ID.
type RunMemory struct {
	RepoBlocklist     []string               `json:"repo_blocklist"`
	ErrorMemory       map[string]int         `json:"error_memory"`
	SourceReliability map[string]reliability `json:"source_reliability"`
	PatternHitRates   map[string]reliability `json:"pattern_hit_rates"`
	TotalRuns         int                    `json:"total_runs"`
}

func memoryPath() string {
	return filepath.Join(solguardDir(), "memory.json")
}

// LoadOrDefault reads the aggregate memory file, returning a zero-valued
// RunMemory if it is missing or corrupt.
func LoadOrDefault() RunMemory {
	mem := RunMemory{
		ErrorMemory:       map[string]int{},
		SourceReliability: map[string]reliability{},
		PatternHitRates:   map[string]reliability{},
	}
	data, err := os.ReadFile(memoryPath())
	if err != nil {
		return mem
	}
	var parsed RunMemory
	if err := json.Unmarshal(data, &parsed); err != nil {
		return mem
	}
	if parsed.ErrorMemory == nil {
		parsed.ErrorMemory = map[string]int{}
	}
	if parsed.SourceReliability == nil {
		parsed.SourceReliability = map[string]reliability{}
	}
	if parsed.PatternHitRates == nil {
		parsed.PatternHitRates = map[string]reliability{}
	}
	return parsed
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func runeTake(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// UpdateFromRun applies one run's outcome: repos that produced errors and
// zero findings accumulate a consecutive-failure count and get
// blocklisted once it reaches 3; any repo that succeeded (no errors, or
// errors alongside nonzero findings) has its counter reset.
func (m *RunMemory) UpdateFromRun(history *RunHistory) {
	m.TotalRuns++

	for _, repo := range history.RepoResults {
		if len(repo.Errors) > 0 && repo.FindingsCount == 0 {
			m.ErrorMemory[repo.Name]++
			if m.ErrorMemory[repo.Name] >= 3 && !contains(m.RepoBlocklist, repo.Name) {
				m.RepoBlocklist = append(m.RepoBlocklist, repo.Name)
			}
		} else {
			delete(m.ErrorMemory, repo.Name)
		}
	}

	for _, e := range history.Errors {
		key := runeTake(e, 100)
		m.ErrorMemory[key]++
	}
}

// Save writes the aggregate memory file.
func (m *RunMemory) Save() error {
	dir := solguardDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.IO("create solguard dir", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errs.IO("marshal run memory", err)
	}
	if err := os.WriteFile(memoryPath(), data, 0o644); err != nil {
		return errs.IO("write run memory", err)
	}
	return nil
}
