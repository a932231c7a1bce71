package domain

import (
	"fmt"
	"strings"
	"time"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction maps a request keyword onto the closed action set.
func ParseAction(raw string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionApprove:
		return ActionApprove, nil
	case ActionReject:
		return ActionReject, nil
	default:
		return "", WrapError(ErrGuardViolation, "parse action", fmt.Errorf("unknown action %q", raw))
	}
}

// NewSubmitted builds a fresh document record with its upload audit entry.
func NewSubmitted(id, ownerID, filename, mimeType, storagePath, text string, now time.Time) *Document {
	doc := &Document{
		ID:          id,
		OwnerID:     ownerID,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storagePath,
		Text:        text,
		Status:      StatusSubmitted,
		Stages:      []StageEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	doc.appendStage(StageEntry{
		Stage:     StageUpload,
		Outcome:   OutcomeSubmitted,
		Remarks:   "Document uploaded. Awaiting classification.",
		Timestamp: now,
	})
	return doc
}

// ApplyClassification performs the submitted -> pending_department or
// submitted -> rejected transition from a classifier decision. The state
// change and the audit entry are applied together or not at all.
func (d *Document) ApplyClassification(dec Decision, now time.Time) error {
	if d.Status != StatusSubmitted {
		return WrapError(ErrGuardViolation, "apply classification",
			fmt.Errorf("document %s is %s, expected %s", d.ID, d.Status, StatusSubmitted))
	}

	if !dec.Accepted {
		d.Status = StatusRejected
		d.FinalOutcome = OutcomeRejected
		d.FinalMessage = dec.FailReason
		d.appendStage(StageEntry{
			Stage:     StageClassification,
			Outcome:   OutcomeRejected,
			Remarks:   dec.FailReason,
			Timestamp: now,
			Detail:    dec.Detail(),
		})
		return nil
	}

	d.Status = StatusPendingDepartment
	d.Department = dec.Category
	d.appendStage(StageEntry{
		Stage:     StageClassification,
		Outcome:   OutcomePassed,
		Remarks:   fmt.Sprintf("Classified as %s. Forwarded to the %s department.", dec.Category, dec.Category),
		Timestamp: now,
		Detail:    dec.Detail(),
	})
	return nil
}

// ReviewByDepartment performs the department-stage transition. The actor must
// be a department reviewer bound to the document's category.
func (d *Document) ReviewByDepartment(actor Actor, action Action, remarks string, now time.Time) error {
	if d.Status != StatusPendingDepartment {
		return WrapError(ErrGuardViolation, "department review",
			fmt.Errorf("document %s is %s, expected %s", d.ID, d.Status, StatusPendingDepartment))
	}
	if actor.Role != RoleDepartment {
		return WrapError(ErrGuardViolation, "department review",
			fmt.Errorf("role %s may not act at the department stage", actor.Role))
	}
	if actor.Department != d.Department {
		return WrapError(ErrGuardViolation, "department review",
			fmt.Errorf("reviewer is bound to %q, document belongs to %q", actor.Department, d.Department))
	}

	stage := StageDepartment(d.Department)
	label := departmentLabel(d.Department)

	switch action {
	case ActionReject:
		if remarks == "" {
			remarks = fmt.Sprintf("Rejected by %s department.", label)
		}
		d.Status = StatusRejected
		d.FinalOutcome = OutcomeRejected
		d.FinalMessage = fmt.Sprintf("%s department rejected: %s", label, remarks)
		d.appendStage(StageEntry{Stage: stage, Outcome: OutcomeRejected, Remarks: remarks, Timestamp: now})
	case ActionApprove:
		if remarks == "" {
			remarks = fmt.Sprintf("Approved by %s department.", label)
		}
		d.Status = StatusPendingAdmin
		d.appendStage(StageEntry{Stage: stage, Outcome: OutcomeApproved, Remarks: remarks, Timestamp: now})
	default:
		return WrapError(ErrGuardViolation, "department review", fmt.Errorf("unknown action %q", action))
	}
	return nil
}

// ReviewByAdmin performs the final-authority transition to a terminal state.
func (d *Document) ReviewByAdmin(actor Actor, action Action, remarks string, now time.Time) error {
	if d.Status != StatusPendingAdmin {
		return WrapError(ErrGuardViolation, "final review",
			fmt.Errorf("document %s is %s, expected %s", d.ID, d.Status, StatusPendingAdmin))
	}
	if actor.Role != RoleAdmin {
		return WrapError(ErrGuardViolation, "final review",
			fmt.Errorf("role %s may not act at the final stage", actor.Role))
	}

	switch action {
	case ActionReject:
		if remarks == "" {
			remarks = "Rejected at final review."
		}
		d.Status = StatusRejected
		d.FinalOutcome = OutcomeRejected
		d.FinalMessage = fmt.Sprintf("Final review rejected: %s", remarks)
		d.appendStage(StageEntry{Stage: StageFinal, Outcome: OutcomeRejected, Remarks: remarks, Timestamp: now})
	case ActionApprove:
		if remarks == "" {
			remarks = "Final approval granted."
		}
		d.Status = StatusApproved
		d.FinalOutcome = OutcomeApproved
		d.FinalMessage = fmt.Sprintf("Document fully approved (%s department + final review).", departmentLabel(d.Department))
		d.appendStage(StageEntry{Stage: StageFinal, Outcome: OutcomeApproved, Remarks: remarks, Timestamp: now})
	default:
		return WrapError(ErrGuardViolation, "final review", fmt.Errorf("unknown action %q", action))
	}
	return nil
}

// AuthorizeDelete checks the history-clearing guard: only the owning
// submitter may delete, and only once the record is terminal.
func (d *Document) AuthorizeDelete(actor Actor) error {
	if actor.ID != d.OwnerID {
		return WrapError(ErrGuardViolation, "delete document",
			fmt.Errorf("actor %s does not own document %s", actor.ID, d.ID))
	}
	if !d.Status.Terminal() {
		return WrapError(ErrGuardViolation, "delete document",
			fmt.Errorf("document %s is %s, not terminal", d.ID, d.Status))
	}
	return nil
}

func departmentLabel(category string) string {
	if category == "" {
		return "Unknown"
	}
	return strings.ToUpper(category[:1]) + category[1:]
}
