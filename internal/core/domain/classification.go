package domain

// CategoryNone marks a decision where no category cleared the acceptance
// rule.
const CategoryNone = "none"

// DepartmentInfo is one reviewable category as shown in the public catalog.
type DepartmentInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Decision is the immutable result of classifying one document's text.
type Decision struct {
	Accepted        bool              `json:"accepted"`
	Category        string            `json:"category"`
	Confidence      float64           `json:"confidence"`
	Scores          map[string]int    `json:"scores"`
	BestScore       int               `json:"best_score"`
	SatisfiedGroups int               `json:"satisfied_groups"`
	Detected        map[string]string `json:"detected,omitempty"`
	Missing         []string          `json:"missing,omitempty"`
	FailReason      string            `json:"fail_reason,omitempty"`
}

// Detail projects the decision into the structured form stored on the
// classification stage entry.
func (d Decision) Detail() *StageDetail {
	return &StageDetail{
		Scores:     d.Scores,
		Detected:   d.Detected,
		Missing:    d.Missing,
		Confidence: d.Confidence,
	}
}
