package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/docflowhq/docflow/internal/core/domain"
)

// Group is one mandatory keyword-group: satisfied when any phrase occurs in
// the normalized text.
type Group struct {
	ID      string   `yaml:"id"`
	Label   string   `yaml:"label"`
	Phrases []string `yaml:"phrases"`
}

// Category is a classification target. The workflow's department concept is
// exactly this category.
type Category struct {
	Name   string  `yaml:"name"`
	Label  string  `yaml:"label"`
	Groups []Group `yaml:"groups"`
}

// RuleSet is the complete classifier configuration. Category order is the
// canonical tie-break order.
type RuleSet struct {
	Categories          []Category `yaml:"categories"`
	GroupWeight         int        `yaml:"group_weight"`
	BonusWeight         int        `yaml:"bonus_weight"`
	AcceptThreshold     int        `yaml:"accept_threshold"`
	ConfidenceThreshold float64    `yaml:"confidence_threshold"`
	DateBonus           bool       `yaml:"date_bonus"`
}

// LoadRuleSet reads a YAML rule set from disk. An empty path yields the
// built-in default rules.
func LoadRuleSet(path string) (RuleSet, error) {
	if path == "" {
		return DefaultRuleSet(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rule set: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rule set: %w", err)
	}
	rs.applyDefaults()
	if err := rs.validate(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

func (rs *RuleSet) applyDefaults() {
	if rs.GroupWeight <= 0 {
		rs.GroupWeight = 20
	}
	if rs.BonusWeight <= 0 {
		rs.BonusWeight = 10
	}
	if rs.AcceptThreshold <= 0 {
		// Minimum score achievable by satisfying exactly one group.
		rs.AcceptThreshold = rs.GroupWeight
	}
	if rs.ConfidenceThreshold <= 0 || rs.ConfidenceThreshold > 1 {
		rs.ConfidenceThreshold = 0.60
	}
}

func (rs RuleSet) validate() error {
	if len(rs.Categories) == 0 {
		return fmt.Errorf("rule set defines no categories")
	}
	seen := make(map[string]struct{}, len(rs.Categories))
	for _, cat := range rs.Categories {
		if cat.Name == "" {
			return fmt.Errorf("rule set contains an unnamed category")
		}
		if _, dup := seen[cat.Name]; dup {
			return fmt.Errorf("duplicate category %q", cat.Name)
		}
		seen[cat.Name] = struct{}{}
		if len(cat.Groups) == 0 {
			return fmt.Errorf("category %q has no mandatory groups", cat.Name)
		}
		for _, group := range cat.Groups {
			if len(group.Phrases) == 0 {
				return fmt.Errorf("category %q group %q has no phrases", cat.Name, group.ID)
			}
		}
	}
	return nil
}

// CategoryNames returns the configured categories in canonical order.
func (rs RuleSet) CategoryNames() []string {
	names := make([]string, 0, len(rs.Categories))
	for _, cat := range rs.Categories {
		names = append(names, cat.Name)
	}
	return names
}

// Departments projects the configured categories into the catalog shape
// served to clients.
func (rs RuleSet) Departments() []domain.DepartmentInfo {
	out := make([]domain.DepartmentInfo, 0, len(rs.Categories))
	for _, cat := range rs.Categories {
		label := cat.Label
		if label == "" {
			label = cat.Name
		}
		out = append(out, domain.DepartmentInfo{Name: cat.Name, Label: label})
	}
	return out
}

func (rs RuleSet) rejectionReason() string {
	return fmt.Sprintf(
		"Document could not be classified. It does not contain enough keywords related to %s.",
		strings.Join(rs.CategoryNames(), ", "))
}

// DefaultRuleSet returns the built-in admissions / scholarship / internship
// rules.
func DefaultRuleSet() RuleSet {
	rs := RuleSet{
		DateBonus: true,
		Categories: []Category{
			{
				Name:  "admissions",
				Label: "Admissions",
				Groups: []Group{
					{
						ID:    "type",
						Label: "Admission Request Title",
						Phrases: []string{
							"admission application",
							"application for admission",
							"request for admission",
							"admission form",
							"admission inquiry",
						},
					},
					{
						ID:    "authority",
						Label: "Applicant / Institution Reference",
						Phrases: []string{
							"dear sir",
							"dear madam",
							"to the principal",
							"to the registrar",
							"respected sir",
							"admission committee",
							"admissions committee",
							"dear admissions",
						},
					},
					{
						ID:    "context",
						Label: "Academic Context",
						Phrases: []string{
							"academic year",
							"course name",
							"qualification",
							"percentage",
							"marks obtained",
							"board examination",
							"stream",
							"transcripts",
							"statement of purpose",
							"letters of recommendation",
							"semester",
							"graduate program",
							"undergraduate",
						},
					},
				},
			},
			{
				Name:  "scholarship",
				Label: "Scholarship",
				Groups: []Group{
					{
						ID:    "type",
						Label: "Scholarship Title",
						Phrases: []string{
							"scholarship application",
							"financial aid",
							"merit scholarship",
							"income certificate",
							"grant approval",
						},
					},
					{
						ID:    "authority",
						Label: "Authority Signature",
						Phrases: []string{
							"scholarship committee",
							"dean of student affairs",
							"financial aid officer",
							"ministry of education",
						},
					},
					{
						ID:    "context",
						Label: "Financial/Merit Context",
						Phrases: []string{
							"annual income",
							"bank account",
							"tuition waiver",
							"fund disbursement",
						},
					},
				},
			},
			{
				Name:  "internship",
				Label: "Internship",
				Groups: []Group{
					{
						ID:    "type",
						Label: "Document Title",
						Phrases: []string{
							"certificate of completion",
							"internship completion",
							"to whom it may concern",
							"certificate of legal training",
							"training certificate",
						},
					},
					{
						ID:    "authority",
						Label: "Authority Signature",
						Phrases: []string{
							"director",
							"manager",
							"mentor",
							"authorized signatory",
							"head of department",
							"advocate",
							"senior counsel",
						},
					},
				},
			},
		},
	}
	rs.applyDefaults()
	return rs
}
