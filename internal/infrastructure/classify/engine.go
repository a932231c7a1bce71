package classify

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/docflowhq/docflow/internal/core/domain"
)

var datePattern = regexp.MustCompile(
	`(?i)(\d{1,2}[-./]\d{1,2}[-./]\d{2,4})|(\d{1,2}(st|nd|rd|th)?\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\w*\s+\d{2,4})`)

// Engine scores text against every configured category and assembles the
// classification decision. It is stateless; one instance may classify many
// documents concurrently.
type Engine struct {
	rules RuleSet
	model *BayesModel
}

// NewEngine builds a classifier over the given rule set. A nil model runs
// the rule-based strategy alone; a trained model adds the probabilistic
// confidence check.
func NewEngine(rules RuleSet, model *BayesModel) *Engine {
	return &Engine{rules: rules, model: model}
}

type categoryScore struct {
	category  string
	order     int
	score     int
	satisfied int
	detected  map[string]string
	missing   []string
}

func (e *Engine) scoreCategory(normalized, raw string, order int, cat Category) categoryScore {
	result := categoryScore{
		category: cat.Name,
		order:    order,
		detected: make(map[string]string),
	}

	for _, group := range cat.Groups {
		found := ""
		for _, phrase := range group.Phrases {
			if strings.Contains(normalized, phrase) {
				found = phrase
				break
			}
		}
		if found != "" {
			result.score += e.rules.GroupWeight
			result.satisfied++
			result.detected[group.ID] = found
		} else {
			result.missing = append(result.missing, group.Label)
		}
	}

	// Bonus signals never substitute for mandatory-group weight.
	if e.rules.DateBonus {
		if match := datePattern.FindString(raw); match != "" {
			result.score += e.rules.BonusWeight
			result.detected["date"] = match
		}
	}
	return result
}

// Classify is deterministic for a fixed rule set and input. Ties on score
// are broken by satisfied-group count, then by canonical category order.
func (e *Engine) Classify(_ context.Context, raw string) (domain.Decision, error) {
	normalized := Normalize(raw)

	results := make([]categoryScore, 0, len(e.rules.Categories))
	for i, cat := range e.rules.Categories {
		results = append(results, e.scoreCategory(normalized, raw, i, cat))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		if results[i].satisfied != results[j].satisfied {
			return results[i].satisfied > results[j].satisfied
		}
		return results[i].order < results[j].order
	})

	best := results[0]
	scores := make(map[string]int, len(results))
	for _, r := range results {
		scores[r.category] = r.score
	}

	decision := domain.Decision{
		Scores:          scores,
		BestScore:       best.score,
		SatisfiedGroups: best.satisfied,
		Detected:        best.detected,
		Missing:         best.missing,
	}

	if best.satisfied == 0 || best.score < e.rules.AcceptThreshold {
		decision.Category = domain.CategoryNone
		decision.FailReason = e.rules.rejectionReason()
		return decision, nil
	}

	confidence := float64(best.score)
	if e.model != nil {
		probs := e.model.Probabilities(normalized)
		p := probs[best.category]
		if p < e.rules.ConfidenceThreshold {
			decision.Category = domain.CategoryNone
			decision.FailReason = fmt.Sprintf(
				"Document matched %s by keywords, but the classifier confidence %.2f is below the %.2f threshold.",
				best.category, p, e.rules.ConfidenceThreshold)
			return decision, nil
		}
		confidence = p
	}

	decision.Accepted = true
	decision.Category = best.category
	decision.Confidence = confidence
	return decision, nil
}
