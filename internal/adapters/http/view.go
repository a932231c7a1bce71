package httpadapter

import (
	"time"

	"github.com/docflowhq/docflow/internal/core/domain"
)

// documentView is the wire shape of a document. Extracted text and storage
// keys stay server-side.
type documentView struct {
	ID           string              `json:"id"`
	OwnerID      string              `json:"owner_id"`
	Filename     string              `json:"filename"`
	MimeType     string              `json:"mime_type"`
	Status       domain.Status       `json:"status"`
	Department   string              `json:"department,omitempty"`
	Stages       []domain.StageEntry `json:"stages"`
	FinalOutcome domain.Outcome      `json:"final_outcome,omitempty"`
	FinalMessage string              `json:"final_message,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func newDocumentView(doc *domain.Document) documentView {
	return documentView{
		ID:           doc.ID,
		OwnerID:      doc.OwnerID,
		Filename:     doc.Filename,
		MimeType:     doc.MimeType,
		Status:       doc.Status,
		Department:   doc.Department,
		Stages:       doc.Stages,
		FinalOutcome: doc.FinalOutcome,
		FinalMessage: doc.FinalMessage,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

func newDocumentViews(docs []domain.Document) []documentView {
	views := make([]documentView, 0, len(docs))
	for i := range docs {
		views = append(views, newDocumentView(&docs[i]))
	}
	return views
}
