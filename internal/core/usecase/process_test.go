package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docflowhq/docflow/internal/core/domain"
	"github.com/docflowhq/docflow/internal/core/ports"
)

type processRepoFake struct {
	doc       *domain.Document
	getErr    error
	updateErr error

	updated        *domain.Document
	updateExpected domain.Status
}

func (f *processRepoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *processRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	copyDoc.Stages = append([]domain.StageEntry(nil), f.doc.Stages...)
	return &copyDoc, nil
}

func (f *processRepoFake) List(context.Context, ports.DocumentFilter) ([]domain.Document, error) {
	return nil, errors.New("not implemented")
}

func (f *processRepoFake) Update(_ context.Context, doc *domain.Document, expected domain.Status) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	copyDoc := *doc
	f.updated = &copyDoc
	f.updateExpected = expected
	return nil
}

func (f *processRepoFake) Delete(context.Context, string) error { return errors.New("not implemented") }

type decisionClassifierFake struct {
	decision domain.Decision
	err      error
}

func (f *decisionClassifierFake) Classify(context.Context, string) (domain.Decision, error) {
	if f.err != nil {
		return domain.Decision{}, f.err
	}
	return f.decision, nil
}

func submittedDoc() *domain.Document {
	return domain.NewSubmitted("doc-1", "student-1", "letter.txt", "text/plain", "key", "text", time.Now().UTC())
}

func TestProcessByIDAcceptedTransition(t *testing.T) {
	repo := &processRepoFake{doc: submittedDoc()}
	uc := NewProcessDocumentUseCase(repo, &decisionClassifierFake{decision: domain.Decision{
		Accepted:        true,
		Category:        "admissions",
		Scores:          map[string]int{"admissions": 40},
		BestScore:       40,
		SatisfiedGroups: 2,
	}})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if repo.updated == nil {
		t.Fatalf("expected repository update")
	}
	if repo.updated.Status != domain.StatusPendingDepartment || repo.updated.Department != "admissions" {
		t.Fatalf("unexpected transition: %s/%s", repo.updated.Status, repo.updated.Department)
	}
	if repo.updateExpected != domain.StatusSubmitted {
		t.Fatalf("update must compare-and-swap on submitted, got %s", repo.updateExpected)
	}
}

func TestProcessByIDRejectedTransition(t *testing.T) {
	repo := &processRepoFake{doc: submittedDoc()}
	uc := NewProcessDocumentUseCase(repo, &decisionClassifierFake{decision: domain.Decision{
		Accepted:   false,
		Category:   domain.CategoryNone,
		FailReason: "no matching category",
	}})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if repo.updated.Status != domain.StatusRejected {
		t.Fatalf("expected rejected, got %s", repo.updated.Status)
	}
	if last := repo.updated.LastStage(); last.Stage != domain.StageClassification || last.Outcome != domain.OutcomeRejected {
		t.Fatalf("unexpected last stage: %+v", last)
	}
}

func TestProcessByIDSkipsAlreadyClassified(t *testing.T) {
	doc := submittedDoc()
	if err := doc.ApplyClassification(domain.Decision{Accepted: true, Category: "internship"}, time.Now().UTC()); err != nil {
		t.Fatalf("ApplyClassification() error = %v", err)
	}
	repo := &processRepoFake{doc: doc}
	uc := NewProcessDocumentUseCase(repo, &decisionClassifierFake{err: errors.New("classifier must not run")})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if repo.updated != nil {
		t.Fatalf("redelivered event must not update the document")
	}
}

func TestProcessByIDSwallowsLostCASRace(t *testing.T) {
	repo := &processRepoFake{
		doc:       submittedDoc(),
		updateErr: domain.WrapError(domain.ErrGuardViolation, "update", errors.New("status moved")),
	}
	uc := NewProcessDocumentUseCase(repo, &decisionClassifierFake{decision: domain.Decision{Accepted: true, Category: "admissions"}})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("lost race should not error, got %v", err)
	}
}

func TestProcessByIDClassifierError(t *testing.T) {
	repo := &processRepoFake{doc: submittedDoc()}
	uc := NewProcessDocumentUseCase(repo, &decisionClassifierFake{err: errors.New("boom")})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected error")
	}
	if repo.updated != nil {
		t.Fatalf("classifier failure must not mutate the record")
	}
}
