package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/docflowhq/docflow/internal/core/domain"
	"github.com/docflowhq/docflow/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	classifier ports.DocumentClassifier
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	classifier ports.DocumentClassifier,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:       repo,
		classifier: classifier,
	}
}

// ProcessByID classifies a submitted document and performs the
// submitted -> pending_department | rejected transition. A document that has
// already left submitted (redelivered event, racing worker) is left alone.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}
	if doc.Status != domain.StatusSubmitted {
		return nil
	}

	decision, err := uc.classifier.Classify(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("classify document: %w", err)
	}

	if err := doc.ApplyClassification(decision, time.Now().UTC()); err != nil {
		return err
	}

	if err := uc.repo.Update(ctx, doc, domain.StatusSubmitted); err != nil {
		if domain.IsKind(err, domain.ErrGuardViolation) {
			// Lost the race to another worker; the winner's transition stands.
			return nil
		}
		return fmt.Errorf("persist classification transition: %w", err)
	}
	return nil
}
