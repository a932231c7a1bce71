// Package memory provides an in-process DocumentRepository with the same
// compare-and-swap contract as the Postgres implementation. It backs local
// development and the HTTP adapter tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/docflowhq/docflow/internal/core/domain"
	"github.com/docflowhq/docflow/internal/core/ports"
)

type Repository struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

func NewRepository() *Repository {
	return &Repository{docs: make(map[string]domain.Document)}
}

func (r *Repository) Create(ctx context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[doc.ID]; ok {
		return domain.WrapError(domain.ErrInvalidInput, "create document",
			fmt.Errorf("duplicate id %s", doc.ID))
	}
	r.docs[doc.ID] = cloneDocument(*doc)
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
	}
	copied := cloneDocument(doc)
	return &copied, nil
}

func (r *Repository) List(ctx context.Context, filter ports.DocumentFilter) ([]domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Document, 0)
	for _, doc := range r.docs {
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		if filter.Department != "" && doc.Department != filter.Department {
			continue
		}
		if filter.OwnerID != "" && doc.OwnerID != filter.OwnerID {
			continue
		}
		out = append(out, cloneDocument(doc))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Update succeeds only while the stored status still equals expectedStatus.
func (r *Repository) Update(ctx context.Context, doc *domain.Document, expectedStatus domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.docs[doc.ID]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id=%s", doc.ID))
	}
	if current.Status != expectedStatus {
		return domain.WrapError(domain.ErrGuardViolation, "update document",
			fmt.Errorf("document %s left status %s concurrently", doc.ID, expectedStatus))
	}
	r.docs[doc.ID] = cloneDocument(*doc)
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", fmt.Errorf("id=%s", id))
	}
	delete(r.docs, id)
	return nil
}

func cloneDocument(doc domain.Document) domain.Document {
	copied := doc
	copied.Stages = make([]domain.StageEntry, len(doc.Stages))
	copy(copied.Stages, doc.Stages)
	for i, entry := range copied.Stages {
		if entry.Detail == nil {
			continue
		}
		detail := *entry.Detail
		if entry.Detail.Scores != nil {
			detail.Scores = make(map[string]int, len(entry.Detail.Scores))
			for k, v := range entry.Detail.Scores {
				detail.Scores[k] = v
			}
		}
		if entry.Detail.Detected != nil {
			detail.Detected = make(map[string]string, len(entry.Detail.Detected))
			for k, v := range entry.Detail.Detected {
				detail.Detected[k] = v
			}
		}
		if entry.Detail.Missing != nil {
			detail.Missing = append([]string(nil), entry.Detail.Missing...)
		}
		copied.Stages[i].Detail = &detail
	}
	return copied
}
