package ports

import (
	"context"
	"io"

	"github.com/docflowhq/docflow/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, owner domain.Actor, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous classification
// of a submitted document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentReviewer is the inbound contract for workflow review actions.
type DocumentReviewer interface {
	SubmitReview(ctx context.Context, documentID string, actor domain.Actor, action domain.Action, remarks string) (*domain.Document, error)
	Delete(ctx context.Context, documentID string, actor domain.Actor) error
}

// DocumentReader is the inbound read model: snapshots only, no mutation.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListOwned(ctx context.Context, ownerID string) ([]domain.Document, error)
	ListPendingDepartment(ctx context.Context, department string) ([]domain.Document, error)
	ListByDepartment(ctx context.Context, department string) ([]domain.Document, error)
	ListPendingAdmin(ctx context.Context) ([]domain.Document, error)
	ListAll(ctx context.Context) ([]domain.Document, error)
}
