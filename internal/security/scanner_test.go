package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRepoFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanRepoEmptyFileNoFindings(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "Anchor.toml", "[features]\n")
	writeRepoFile(t, root, "programs/foo/src/lib.rs", "")

	findings, err := ScanRepo(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected no findings on empty file, got %d", len(findings))
	}
}

func TestScanRepoCommentOnlySkipped(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "Anchor.toml", "[features]\n")
	writeRepoFile(t, root, "programs/foo/src/lib.rs", "// pub field: AccountInfo should not trigger\n/// pub other: UncheckedAccount also a comment\n")

	findings, err := ScanRepo(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range findings {
		if f.PatternID == "SOL-001" {
			t.Fatalf("expected comment lines to be skipped, got finding: %+v", f)
		}
	}
}

func TestScanRepoOffTargetLowersConfidence(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "src/main.rs", "fn close(a: u64) -> u64 { a - 1 }\n")

	findings, err := ScanRepo(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range findings {
		if f.Confidence != 0.2 {
			t.Fatalf("expected off-target confidence 0.2, got %v", f.Confidence)
		}
		if !strings.HasPrefix(f.Title, "[Low Confidence] ") {
			t.Fatalf("expected [Low Confidence] prefix, got %q", f.Title)
		}
	}
}

func TestScanRepoDedupesByFileLinePattern(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "Anchor.toml", "[features]\n")
	writeRepoFile(t, root, "programs/foo/src/lib.rs", "pub authority: AccountInfo<'info>,\n")

	findings, err := ScanRepo(root)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for _, f := range findings {
		key := f.FilePath + "|" + f.PatternID
		if seen[key] {
			t.Fatalf("duplicate finding for %s", key)
		}
		seen[key] = true
	}
}

func TestScanRepoSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "Anchor.toml", "[features]\n")
	writeRepoFile(t, root, "programs/foo/src/lib.rs", "")
	writeRepoFile(t, root, "tests/integration.rs", "pub authority: AccountInfo<'info>,\n")
	writeRepoFile(t, root, "client/src/lib.rs", "pub authority: AccountInfo<'info>,\n")

	findings, err := ScanRepo(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range findings {
		if strings.Contains(f.FilePath, "tests/") || strings.Contains(f.FilePath, "client/") {
			t.Fatalf("expected excluded-dir file to be skipped, got finding in %q", f.FilePath)
		}
	}
}

func TestIsExcludedPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"repo/programs/foo/src/lib.rs", false},
		{"repo/tests/lib.rs", true},
		{"repo/client/index.rs", true},
		{"repo/sdk/generated/lib.rs", true},
		{"repo/src/vault.rs", false},
	}
	for _, c := range cases {
		if got := isExcludedPath(c.path); got != c.want {
			t.Errorf("isExcludedPath(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestIsSolanaEcosystemRootManifest(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "Cargo.toml", "[dependencies]\nanchor-lang = \"0.30\"\n")
	if !isSolanaEcosystem(root) {
		t.Error("expected root Cargo.toml mentioning anchor-lang to be on-target")
	}
}

func TestIsSolanaEcosystemProgramsManifest(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "programs/vault/Cargo.toml", "[dependencies]\nsolana-program = \"1.18\"\n")
	if !isSolanaEcosystem(root) {
		t.Error("expected programs/*/Cargo.toml mentioning solana-program to be on-target")
	}
}

func TestIsSolanaEcosystemIgnoresNestedDependencyManifest(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "Cargo.toml", "[dependencies]\nserde = \"1\"\n")
	writeRepoFile(t, root, "vendor/some-dep/Cargo.toml", "[dependencies]\nsolana-program = \"1.18\"\n")
	if isSolanaEcosystem(root) {
		t.Error("expected a deeply nested dependency manifest not to flip on-target detection")
	}
}

func TestSuppressIfPreventsFindingWhenGuardNearby(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "Anchor.toml", "[features]\n")
	writeRepoFile(t, root, "programs/foo/src/lib.rs", strings.Join([]string{
		"let amount = amount + amount;",
		"// guarded below",
		"let amount = amount.checked_add(amount).unwrap();",
	}, "\n"))

	findings, err := ScanRepo(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range findings {
		if f.PatternID == "SOL-003" {
			t.Fatalf("expected suppress_if to drop SOL-003 finding near checked_add, got %+v", f)
		}
	}
}

