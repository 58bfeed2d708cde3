package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ampactor/st-solguard/internal/narrative"
	"github.com/ampactor/st-solguard/internal/report"
	"github.com/ampactor/st-solguard/internal/security"
)

// writeOrPrint writes json to path if given, else prints it to stdout.
func writeOrPrint(jsonStr string, path string) error {
	if path == "" {
		fmt.Println(jsonStr)
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, []byte(jsonStr), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Findings written to %s\n", path)
	return nil
}

func toJSONPretty(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// renderFromFiles loads pre-computed narratives/findings JSON and writes
// the combined HTML report, performing no LLM calls.
func renderFromFiles(narrativesPath, findingsPath, outputPath string) error {
	narrativesData, err := os.ReadFile(narrativesPath)
	if err != nil {
		return err
	}
	findingsData, err := os.ReadFile(findingsPath)
	if err != nil {
		return err
	}

	var narratives []narrative.Narrative
	if err := json.Unmarshal(narrativesData, &narratives); err != nil {
		return fmt.Errorf("parse narratives JSON: %w", err)
	}
	var findings []security.SecurityFinding
	if err := json.Unmarshal(findingsData, &findings); err != nil {
		return fmt.Errorf("parse findings JSON: %w", err)
	}

	html, err := report.RenderCombinedReport(narratives, findings)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(outputPath, []byte(html), 0o644); err != nil {
		return err
	}

	fmt.Printf("Report rendered: %s (%d narratives, %d findings)\n", outputPath, len(narratives), len(findings))
	return nil
}
