package memory

import "testing"

func TestUpdateFromRunBlocklistsAfterThreeConsecutiveFailures(t *testing.T) {
	mem := LoadOrDefault()
	mem.RepoBlocklist = nil
	mem.ErrorMemory = map[string]int{}

	for i := 0; i < 3; i++ {
		h := NewRunHistory()
		h.RepoResults = []RepoResult{
			{Name: "flaky-repo", FindingsCount: 0, Errors: []string{"clone failed"}},
		}
		mem.UpdateFromRun(h)
	}

	if !contains(mem.RepoBlocklist, "flaky-repo") {
		t.Fatalf("expected flaky-repo to be blocklisted after 3 consecutive failures, got %v", mem.RepoBlocklist)
	}
	if mem.TotalRuns != 3 {
		t.Fatalf("expected 3 total runs, got %d", mem.TotalRuns)
	}
}

func TestUpdateFromRunResetsCounterOnSuccess(t *testing.T) {
	mem := LoadOrDefault()
	mem.RepoBlocklist = nil
	mem.ErrorMemory = map[string]int{}

	failing := func() *RunHistory {
		h := NewRunHistory()
		h.RepoResults = []RepoResult{
			{Name: "recovering-repo", FindingsCount: 0, Errors: []string{"timeout"}},
		}
		return h
	}
	mem.UpdateFromRun(failing())
	mem.UpdateFromRun(failing())

	success := NewRunHistory()
	success.RepoResults = []RepoResult{
		{Name: "recovering-repo", FindingsCount: 4, Errors: nil},
	}
	mem.UpdateFromRun(success)

	if _, ok := mem.ErrorMemory["recovering-repo"]; ok {
		t.Fatalf("expected error counter to be reset after a successful run, got %d", mem.ErrorMemory["recovering-repo"])
	}
	if contains(mem.RepoBlocklist, "recovering-repo") {
		t.Fatal("recovering-repo should not be blocklisted")
	}
}

func TestRepoBlocklistedAtMostOnce(t *testing.T) {
	mem := LoadOrDefault()
	mem.RepoBlocklist = nil
	mem.ErrorMemory = map[string]int{}

	for i := 0; i < 5; i++ {
		h := NewRunHistory()
		h.RepoResults = []RepoResult{
			{Name: "dead-repo", FindingsCount: 0, Errors: []string{"404"}},
		}
		mem.UpdateFromRun(h)
	}

	count := 0
	for _, r := range mem.RepoBlocklist {
		if r == "dead-repo" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected dead-repo to appear exactly once in blocklist, got %d", count)
	}
}
