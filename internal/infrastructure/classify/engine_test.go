package classify

import (
	"context"
	"reflect"
	"testing"

	"github.com/docflowhq/docflow/internal/core/domain"
)

func TestClassifyAdmissionsLetter(t *testing.T) {
	engine := NewEngine(DefaultRuleSet(), nil)
	text := "Admission application for the engineering program. My qualification and percentage are listed below."

	dec, err := engine.Classify(context.Background(), text)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !dec.Accepted || dec.Category != "admissions" {
		t.Fatalf("expected accepted admissions, got %+v", dec)
	}
	if dec.SatisfiedGroups < 2 {
		t.Fatalf("expected >=2 satisfied groups, got %d", dec.SatisfiedGroups)
	}
	if dec.BestScore < 40 {
		t.Fatalf("expected score >= 40, got %d", dec.BestScore)
	}
}

func TestClassifyUnrelatedTextRejected(t *testing.T) {
	engine := NewEngine(DefaultRuleSet(), nil)

	dec, err := engine.Classify(context.Background(), "grocery shopping list eggs milk bread")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if dec.Accepted || dec.Category != domain.CategoryNone {
		t.Fatalf("expected rejection, got %+v", dec)
	}
	if dec.FailReason == "" {
		t.Fatalf("rejection must carry a failure reason")
	}
	if len(dec.Scores) != 3 {
		t.Fatalf("rejection must report the full score map, got %v", dec.Scores)
	}
}

func TestClassifyBonusNeverSubstitutesForGroups(t *testing.T) {
	engine := NewEngine(DefaultRuleSet(), nil)

	// A date matches the bonus detector but satisfies no mandatory group.
	dec, err := engine.Classify(context.Background(), "team meeting rescheduled to 12/05/2026")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if dec.Accepted {
		t.Fatalf("bonus-only text must be rejected, got %+v", dec)
	}
	if dec.BestScore != 10 {
		t.Fatalf("expected bonus-only score 10, got %d", dec.BestScore)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	engine := NewEngine(DefaultRuleSet(), nil)
	text := "Scholarship application with income certificate, annual income attached, 3rd March 2026."

	first, err := engine.Classify(context.Background(), text)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	second, err := engine.Classify(context.Background(), text)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("classification must be deterministic:\n%+v\n%+v", first, second)
	}
}

func TestClassifyMonotonicity(t *testing.T) {
	engine := NewEngine(DefaultRuleSet(), nil)

	base, err := engine.Classify(context.Background(), "my qualification is attached")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	extended, err := engine.Classify(context.Background(), "my qualification is attached with the admission application")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if extended.Scores["admissions"] < base.Scores["admissions"] {
		t.Fatalf("adding a satisfied phrase must not lower the score: %d -> %d",
			base.Scores["admissions"], extended.Scores["admissions"])
	}
}

func TestClassifyTieBreaksByCanonicalOrder(t *testing.T) {
	engine := NewEngine(DefaultRuleSet(), nil)

	// One group of scholarship ("financial aid") and one of internship
	// ("director") each: equal score, equal satisfied count. Scholarship
	// precedes internship in the canonical ordering.
	dec, err := engine.Classify(context.Background(), "financial aid signed by the director")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if dec.Scores["scholarship"] != dec.Scores["internship"] {
		t.Fatalf("test premise broken, scores differ: %v", dec.Scores)
	}
	if dec.Category != "scholarship" {
		t.Fatalf("expected canonical-order winner scholarship, got %s", dec.Category)
	}
}

func TestClassifyDateBonusDetected(t *testing.T) {
	engine := NewEngine(DefaultRuleSet(), nil)

	dec, err := engine.Classify(context.Background(),
		"Internship completion certificate signed by the director on 15th January 2026.")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !dec.Accepted || dec.Category != "internship" {
		t.Fatalf("expected accepted internship, got %+v", dec)
	}
	if dec.Detected["date"] == "" {
		t.Fatalf("expected detected date signal, got %v", dec.Detected)
	}
	if dec.BestScore != 50 {
		t.Fatalf("expected 2 groups + date bonus = 50, got %d", dec.BestScore)
	}
}

func TestClassifyBayesConfidenceGate(t *testing.T) {
	// Model trained so the keyword winner has weak probabilistic support.
	model := TrainBayes(map[string][]string{
		"admissions": {"enrollment program"},
		"other": {
			"admission application admission application qualification percentage",
			"admission application qualification percentage paperwork routine",
		},
	})
	engine := NewEngine(DefaultRuleSet(), model)

	dec, err := engine.Classify(context.Background(), "admission application qualification percentage")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if dec.Accepted {
		t.Fatalf("low-confidence decision must be rejected, got %+v", dec)
	}
	if dec.Category != domain.CategoryNone || dec.FailReason == "" {
		t.Fatalf("expected reasoned rejection, got %+v", dec)
	}
}

func TestClassifyBayesConfidenceAsReportedConfidence(t *testing.T) {
	model := TrainBayes(map[string][]string{
		"admissions": {
			"admission application qualification percentage program",
			"application for admission qualification marks",
		},
		"other": {"grocery list eggs milk"},
	})
	engine := NewEngine(DefaultRuleSet(), model)

	dec, err := engine.Classify(context.Background(), "admission application qualification percentage")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !dec.Accepted {
		t.Fatalf("expected acceptance, got %+v", dec)
	}
	if dec.Confidence < 0.60 || dec.Confidence > 1.0 {
		t.Fatalf("expected normalized probability confidence, got %f", dec.Confidence)
	}
}
