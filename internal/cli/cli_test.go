package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
	"nihss-scoring-service/internal/domain"
)

func TestScoreCommandComa(t *testing.T) {
	out, err := runCmd("score", "--set", "5a=1", "--set", "1a=3", "--format", "json")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	var result scoreResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if result.Total != 36 || !result.ComaActive || result.Severity.Label != "Severe Stroke" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Locked) != 14 {
		t.Fatalf("expected 14 locked items, got %v", result.Locked)
	}
}

func TestScoreCommandText(t *testing.T) {
	out, err := runCmd("score", "--set", "1b=2", "--set", "7=un")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !strings.Contains(out, "Total: 2 (Minor Stroke)") {
		t.Fatalf("expected total line, got:\n%s", out)
	}
}

func TestScoreCommandRejectsLockedAndInvalid(t *testing.T) {
	if _, err := runCmd("score", "--set", "1a=3", "--set", "9=0"); !errors.Is(err, domain.ErrItemLocked) {
		t.Fatalf("expected locked error, got %v", err)
	}
	if _, err := runCmd("score", "--set", "12=0"); !errors.Is(err, domain.ErrInvalidItem) {
		t.Fatalf("expected invalid item, got %v", err)
	}
	if _, err := runCmd("score", "--set", "2=UN"); !errors.Is(err, domain.ErrInvalidOption) {
		t.Fatalf("expected invalid option, got %v", err)
	}
	if _, err := runCmd("score", "--set", "2"); err == nil {
		t.Fatalf("expected malformed selection error")
	}
}

func TestScaleCommandYAML(t *testing.T) {
	out, err := runCmd("scale", "--format", "yaml")
	if err != nil {
		t.Fatalf("scale: %v", err)
	}
	var entries []struct {
		ID           string `yaml:"id"`
		ComaOverride *int   `yaml:"comaOverride"`
	}
	if err := yaml.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, out)
	}
	if len(entries) != 15 {
		t.Fatalf("expected 15 items, got %d", len(entries))
	}
	if entries[12].ID != "9" || entries[12].ComaOverride == nil || *entries[12].ComaOverride != 3 {
		t.Fatalf("expected item 9 coma override 3, got %+v", entries[12])
	}
}

func TestScaleCommandUnknownFormat(t *testing.T) {
	if _, err := runCmd("scale", "--format", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func runCmd(args ...string) (string, error) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
