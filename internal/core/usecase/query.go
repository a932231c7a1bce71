package usecase

import (
	"context"
	"fmt"

	"github.com/docflowhq/docflow/internal/core/domain"
	"github.com/docflowhq/docflow/internal/core/ports"
)

// QueryUseCase serves read-only document snapshots for polling clients.
type QueryUseCase struct {
	repo ports.DocumentRepository
}

func NewQueryUseCase(repo ports.DocumentRepository) *QueryUseCase {
	return &QueryUseCase{repo: repo}
}

func (uc *QueryUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *QueryUseCase) ListOwned(ctx context.Context, ownerID string) ([]domain.Document, error) {
	return uc.list(ctx, ports.DocumentFilter{OwnerID: ownerID})
}

func (uc *QueryUseCase) ListPendingDepartment(ctx context.Context, department string) ([]domain.Document, error) {
	return uc.list(ctx, ports.DocumentFilter{
		Status:     domain.StatusPendingDepartment,
		Department: department,
	})
}

func (uc *QueryUseCase) ListByDepartment(ctx context.Context, department string) ([]domain.Document, error) {
	return uc.list(ctx, ports.DocumentFilter{Department: department})
}

func (uc *QueryUseCase) ListPendingAdmin(ctx context.Context) ([]domain.Document, error) {
	return uc.list(ctx, ports.DocumentFilter{Status: domain.StatusPendingAdmin})
}

func (uc *QueryUseCase) ListAll(ctx context.Context) ([]domain.Document, error) {
	return uc.list(ctx, ports.DocumentFilter{})
}

func (uc *QueryUseCase) list(ctx context.Context, filter ports.DocumentFilter) ([]domain.Document, error) {
	docs, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}
