package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/docflowhq/docflow/internal/core/domain"
	"github.com/docflowhq/docflow/internal/core/ports"
)

// reviewRepoFake mimics the repository compare-and-swap contract so the
// engine's serialization can be exercised without a database.
type reviewRepoFake struct {
	mu      sync.Mutex
	docs    map[string]*domain.Document
	deleted []string
}

func newReviewRepoFake(docs ...*domain.Document) *reviewRepoFake {
	f := &reviewRepoFake{docs: make(map[string]*domain.Document)}
	for _, doc := range docs {
		copyDoc := *doc
		f.docs[doc.ID] = &copyDoc
	}
	return f
}

func (f *reviewRepoFake) Create(_ context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copyDoc := *doc
	f.docs[doc.ID] = &copyDoc
	return nil
}

func (f *reviewRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get by id", errors.New(id))
	}
	copyDoc := *doc
	copyDoc.Stages = append([]domain.StageEntry(nil), doc.Stages...)
	return &copyDoc, nil
}

func (f *reviewRepoFake) List(context.Context, ports.DocumentFilter) ([]domain.Document, error) {
	return nil, errors.New("not implemented")
}

func (f *reviewRepoFake) Update(_ context.Context, doc *domain.Document, expected domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.docs[doc.ID]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update", errors.New(doc.ID))
	}
	if stored.Status != expected {
		return domain.WrapError(domain.ErrGuardViolation, "update",
			errors.New("stored status no longer matches expected"))
	}
	copyDoc := *doc
	copyDoc.Stages = append([]domain.StageEntry(nil), doc.Stages...)
	f.docs[doc.ID] = &copyDoc
	return nil
}

func (f *reviewRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete", errors.New(id))
	}
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type reviewStorageFake struct {
	mu      sync.Mutex
	removed []string
}

func (f *reviewStorageFake) Save(context.Context, string, io.Reader) error { return nil }

func (f *reviewStorageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *reviewStorageFake) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
	return nil
}

func pendingDepartmentDoc(t *testing.T, department string) *domain.Document {
	t.Helper()
	doc := domain.NewSubmitted("doc-1", "student-1", "letter.txt", "text/plain", "key", "text", time.Now().UTC())
	if err := doc.ApplyClassification(domain.Decision{Accepted: true, Category: department}, time.Now().UTC()); err != nil {
		t.Fatalf("ApplyClassification() error = %v", err)
	}
	return doc
}

func TestSubmitReviewDepartmentApprove(t *testing.T) {
	repo := newReviewRepoFake(pendingDepartmentDoc(t, "admissions"))
	uc := NewReviewUseCase(repo, &reviewStorageFake{})
	actor := domain.Actor{ID: "rev-1", Role: domain.RoleDepartment, Department: "admissions"}

	doc, err := uc.SubmitReview(context.Background(), "doc-1", actor, domain.ActionApprove, "looks complete")
	if err != nil {
		t.Fatalf("SubmitReview() error = %v", err)
	}
	if doc.Status != domain.StatusPendingAdmin {
		t.Fatalf("expected pending_admin, got %s", doc.Status)
	}
	stored, _ := repo.GetByID(context.Background(), "doc-1")
	if stored.Status != domain.StatusPendingAdmin {
		t.Fatalf("transition not persisted, stored status %s", stored.Status)
	}
	if last := stored.LastStage(); last.Remarks != "looks complete" {
		t.Fatalf("reviewer remarks must be stored verbatim, got %q", last.Remarks)
	}
}

func TestSubmitReviewNotFound(t *testing.T) {
	uc := NewReviewUseCase(newReviewRepoFake(), &reviewStorageFake{})
	_, err := uc.SubmitReview(context.Background(), "missing", domain.Actor{Role: domain.RoleAdmin}, domain.ActionApprove, "")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSubmitReviewWrongDepartmentLeavesRecordUntouched(t *testing.T) {
	repo := newReviewRepoFake(pendingDepartmentDoc(t, "scholarship"))
	uc := NewReviewUseCase(repo, &reviewStorageFake{})
	actor := domain.Actor{ID: "rev-2", Role: domain.RoleDepartment, Department: "internship"}

	_, err := uc.SubmitReview(context.Background(), "doc-1", actor, domain.ActionApprove, "")
	if !domain.IsKind(err, domain.ErrGuardViolation) {
		t.Fatalf("expected ErrGuardViolation, got %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), "doc-1")
	if stored.Status != domain.StatusPendingDepartment || len(stored.Stages) != 2 {
		t.Fatalf("guard violation must not mutate stored record: %s, %d stages", stored.Status, len(stored.Stages))
	}
}

func TestSubmitReviewOnTerminalRecord(t *testing.T) {
	doc := pendingDepartmentDoc(t, "admissions")
	actor := domain.Actor{ID: "rev-1", Role: domain.RoleDepartment, Department: "admissions"}
	if err := doc.ReviewByDepartment(actor, domain.ActionReject, "", time.Now().UTC()); err != nil {
		t.Fatalf("ReviewByDepartment() error = %v", err)
	}
	uc := NewReviewUseCase(newReviewRepoFake(doc), &reviewStorageFake{})

	_, err := uc.SubmitReview(context.Background(), "doc-1", actor, domain.ActionApprove, "")
	if !domain.IsKind(err, domain.ErrGuardViolation) {
		t.Fatalf("expected ErrGuardViolation, got %v", err)
	}
}

func TestSubmitReviewConcurrentReviewersSingleWinner(t *testing.T) {
	repo := newReviewRepoFake(pendingDepartmentDoc(t, "admissions"))
	uc := NewReviewUseCase(repo, &reviewStorageFake{})
	actor := domain.Actor{ID: "rev-1", Role: domain.RoleDepartment, Department: "admissions"}

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = uc.SubmitReview(context.Background(), "doc-1", actor, domain.ActionApprove, "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case domain.IsKind(err, domain.ErrGuardViolation):
		default:
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful transition, got %d", wins)
	}
	stored, _ := repo.GetByID(context.Background(), "doc-1")
	if stored.Status != domain.StatusPendingAdmin || len(stored.Stages) != 3 {
		t.Fatalf("record advanced more than once: %s, %d stages", stored.Status, len(stored.Stages))
	}
}

func TestDeleteTerminalRecordByOwner(t *testing.T) {
	doc := pendingDepartmentDoc(t, "admissions")
	deptActor := domain.Actor{ID: "rev-1", Role: domain.RoleDepartment, Department: "admissions"}
	if err := doc.ReviewByDepartment(deptActor, domain.ActionReject, "", time.Now().UTC()); err != nil {
		t.Fatalf("ReviewByDepartment() error = %v", err)
	}
	repo := newReviewRepoFake(doc)
	storage := &reviewStorageFake{}
	uc := NewReviewUseCase(repo, storage)

	if err := uc.Delete(context.Background(), "doc-1", domain.Actor{ID: "student-1", Role: domain.RoleStudent}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "doc-1" {
		t.Fatalf("expected doc-1 deleted, got %v", repo.deleted)
	}
	if len(storage.removed) != 1 || storage.removed[0] != "key" {
		t.Fatalf("expected stored blob removed, got %v", storage.removed)
	}
}

func TestDeleteNonTerminalRecordFails(t *testing.T) {
	repo := newReviewRepoFake(pendingDepartmentDoc(t, "admissions"))
	uc := NewReviewUseCase(repo, &reviewStorageFake{})

	err := uc.Delete(context.Background(), "doc-1", domain.Actor{ID: "student-1", Role: domain.RoleStudent})
	if !domain.IsKind(err, domain.ErrGuardViolation) {
		t.Fatalf("expected ErrGuardViolation, got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("non-terminal record must not be deleted")
	}
}
