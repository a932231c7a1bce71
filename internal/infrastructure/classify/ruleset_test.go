package classify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRuleSet(t *testing.T) {
	rs := DefaultRuleSet()
	if got := rs.CategoryNames(); len(got) != 3 || got[0] != "admissions" || got[1] != "scholarship" || got[2] != "internship" {
		t.Fatalf("unexpected canonical order: %v", got)
	}
	if rs.GroupWeight != 20 || rs.BonusWeight != 10 || rs.AcceptThreshold != 20 {
		t.Fatalf("unexpected default weights: %+v", rs)
	}
	if rs.ConfidenceThreshold != 0.60 {
		t.Fatalf("unexpected confidence threshold: %f", rs.ConfidenceThreshold)
	}
}

func TestLoadRuleSetEmptyPathUsesDefaults(t *testing.T) {
	rs, err := LoadRuleSet("")
	if err != nil {
		t.Fatalf("LoadRuleSet() error = %v", err)
	}
	if len(rs.Categories) != 3 {
		t.Fatalf("expected default categories, got %d", len(rs.Categories))
	}
}

func TestLoadRuleSetFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	raw := `
group_weight: 30
categories:
  - name: invoices
    label: Invoices
    groups:
      - id: type
        label: Invoice Title
        phrases: ["invoice number", "tax invoice"]
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	rs, err := LoadRuleSet(path)
	if err != nil {
		t.Fatalf("LoadRuleSet() error = %v", err)
	}
	if len(rs.Categories) != 1 || rs.Categories[0].Name != "invoices" {
		t.Fatalf("unexpected categories: %+v", rs.Categories)
	}
	if rs.GroupWeight != 30 {
		t.Fatalf("expected group weight 30, got %d", rs.GroupWeight)
	}
	if rs.AcceptThreshold != 30 {
		t.Fatalf("threshold must default to one group weight, got %d", rs.AcceptThreshold)
	}
}

func TestLoadRuleSetRejectsEmptyCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	raw := `
categories:
  - name: broken
    label: Broken
    groups: []
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadRuleSet(path); err == nil {
		t.Fatalf("expected validation error for category without groups")
	}
}
