package ports

import (
	"context"
	"io"

	"github.com/docflowhq/docflow/internal/core/domain"
)

// DocumentFilter narrows repository listings. Zero values match everything.
type DocumentFilter struct {
	Status     domain.Status
	Department string
	OwnerID    string
}

// DocumentRepository persists and reads document state.
//
// Update is a compare-and-swap: it applies the new record only while the
// stored status still equals expectedStatus, and reports a guard violation
// otherwise. This is the only transactional guarantee the workflow relies on.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]domain.Document, error)
	Update(ctx context.Context, doc *domain.Document, expectedStatus domain.Status) error
	Delete(ctx context.Context, id string) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes classification events.
type MessageQueue interface {
	PublishDocumentSubmitted(ctx context.Context, documentID string) error
	SubscribeDocumentSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, storagePath, filename string) (string, error)
}

// DocumentClassifier scores extracted text and produces a decision.
type DocumentClassifier interface {
	Classify(ctx context.Context, text string) (domain.Decision, error)
}
