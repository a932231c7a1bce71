package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docflowhq/docflow/internal/core/domain"
	"github.com/docflowhq/docflow/internal/core/ports"
)

// ReviewUseCase is the workflow engine for review actions. Each accepted
// transition performs its state change and history append atomically: the
// in-process keyed lock serializes racing reviewers on the same record, and
// the repository compare-and-swap rejects a stale write even across
// processes. Failed guard checks are terminal for the call; there are no
// retries.
type ReviewUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	locks   keyedMutex
}

func NewReviewUseCase(repo ports.DocumentRepository, storage ports.ObjectStorage) *ReviewUseCase {
	return &ReviewUseCase{repo: repo, storage: storage}
}

func (uc *ReviewUseCase) SubmitReview(
	ctx context.Context,
	documentID string,
	actor domain.Actor,
	action domain.Action,
	remarks string,
) (*domain.Document, error) {
	unlock := uc.locks.lock(documentID)
	defer unlock()

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}

	expected := doc.Status
	now := time.Now().UTC()

	switch doc.Status {
	case domain.StatusPendingDepartment:
		err = doc.ReviewByDepartment(actor, action, remarks, now)
	case domain.StatusPendingAdmin:
		err = doc.ReviewByAdmin(actor, action, remarks, now)
	default:
		err = domain.WrapError(domain.ErrGuardViolation, "submit review",
			fmt.Errorf("document %s is %s and accepts no review", doc.ID, doc.Status))
	}
	if err != nil {
		return nil, err
	}

	if err := uc.repo.Update(ctx, doc, expected); err != nil {
		return nil, fmt.Errorf("persist review transition: %w", err)
	}
	return doc, nil
}

// Delete clears a terminal record on behalf of its owner.
func (uc *ReviewUseCase) Delete(ctx context.Context, documentID string, actor domain.Actor) error {
	unlock := uc.locks.lock(documentID)
	defer unlock()

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}
	if err := doc.AuthorizeDelete(actor); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	// The record is gone; a leftover blob is harmless and not worth failing
	// the request over.
	_ = uc.storage.Remove(ctx, doc.StoragePath)
	return nil
}

// keyedMutex hands out one mutex per document id. Entries are kept for the
// process lifetime; the id space is bounded by the active document set.
type keyedMutex struct {
	mu sync.Mutex
	m  map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*lockEntry)
	}
	entry, ok := k.m[key]
	if !ok {
		entry = &lockEntry{}
		k.m[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}
