package domain

import "time"

type Status string

const (
	StatusSubmitted         Status = "submitted"
	StatusPendingDepartment Status = "pending_department"
	StatusPendingAdmin      Status = "pending_admin"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
)

// Terminal reports whether no further transition may leave the status.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Outcome string

const (
	OutcomeSubmitted Outcome = "submitted"
	OutcomePassed    Outcome = "passed"
	OutcomeApproved  Outcome = "approved"
	OutcomeRejected  Outcome = "rejected"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleDepartment Role = "department"
	RoleAdmin      Role = "admin"
)

// Actor is a resolved identity acting on a document. Department is set only
// for department reviewers and names the single category they may review.
type Actor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
}

// StageDetail carries the structured classifier output attached to the
// classification stage entry.
type StageDetail struct {
	Scores     map[string]int    `json:"scores,omitempty"`
	Detected   map[string]string `json:"detected,omitempty"`
	Missing    []string          `json:"missing,omitempty"`
	Confidence float64           `json:"confidence,omitempty"`
}

// StageEntry is one immutable row of a document's audit trail. Entries are
// append-only; ordering follows append order.
type StageEntry struct {
	Stage     string       `json:"stage"`
	Outcome   Outcome      `json:"outcome"`
	Remarks   string       `json:"remarks"`
	Timestamp time.Time    `json:"timestamp"`
	Detail    *StageDetail `json:"detail,omitempty"`
}

const (
	StageUpload         = "upload"
	StageClassification = "classification"
	StageFinal          = "final"
)

// StageDepartment names the department review stage for a category.
func StageDepartment(category string) string {
	return "department-" + category
}

type Document struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"owner_id"`
	Filename     string       `json:"filename"`
	MimeType     string       `json:"mime_type"`
	StoragePath  string       `json:"storage_path"`
	Text         string       `json:"text,omitempty"`
	Status       Status       `json:"status"`
	Department   string       `json:"department,omitempty"`
	Stages       []StageEntry `json:"stages"`
	FinalOutcome Outcome      `json:"final_outcome,omitempty"`
	FinalMessage string       `json:"final_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (d *Document) appendStage(entry StageEntry) {
	d.Stages = append(d.Stages, entry)
	d.UpdatedAt = entry.Timestamp
}

// LastStage returns the most recent audit entry, or nil for a fresh record.
func (d *Document) LastStage() *StageEntry {
	if len(d.Stages) == 0 {
		return nil
	}
	return &d.Stages[len(d.Stages)-1]
}
