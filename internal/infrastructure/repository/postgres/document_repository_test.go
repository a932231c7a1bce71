package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/docflowhq/docflow/internal/core/domain"
	"github.com/docflowhq/docflow/internal/core/ports"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func documentRows(t *testing.T, docs ...domain.Document) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "filename", "mime_type", "storage_path", "doc_text",
		"status", "department", "stages", "final_outcome", "final_message",
		"created_at", "updated_at",
	})
	for _, doc := range docs {
		stagesJSON, err := json.Marshal(doc.Stages)
		if err != nil {
			t.Fatalf("marshal stages: %v", err)
		}
		rows.AddRow(
			doc.ID, doc.OwnerID, doc.Filename, doc.MimeType, doc.StoragePath, doc.Text,
			string(doc.Status), doc.Department, stagesJSON,
			string(doc.FinalOutcome), doc.FinalMessage,
			doc.CreatedAt, doc.UpdatedAt,
		)
	}
	return rows
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, owner_id, filename").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDRestoresStages(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC().Truncate(time.Second)
	stored := domain.Document{
		ID:       "doc-1",
		OwnerID:  "stu-1",
		Filename: "letter.txt",
		MimeType: "text/plain",
		Status:   domain.StatusPendingDepartment,
		Department: "admissions",
		Stages: []domain.StageEntry{
			{Stage: domain.StageUpload, Outcome: domain.OutcomeSubmitted, Remarks: "Document submitted.", Timestamp: now},
			{Stage: domain.StageClassification, Outcome: domain.OutcomePassed, Remarks: "Classified as admissions.", Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectQuery("SELECT id, owner_id, filename").
		WithArgs("doc-1").
		WillReturnRows(documentRows(t, stored))

	got, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != domain.StatusPendingDepartment {
		t.Fatalf("status = %s, want pending_department", got.Status)
	}
	if len(got.Stages) != 2 || got.Stages[1].Stage != domain.StageClassification {
		t.Fatalf("stages not restored: %+v", got.Stages)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateReturnsGuardViolationOnLostRace(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", string(domain.StatusPendingAdmin),
			string(domain.StatusApproved), nil, sqlmock.AnyArg(),
			string(domain.OutcomeApproved), "Final approval granted.", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	doc := &domain.Document{
		ID:           "doc-1",
		Status:       domain.StatusApproved,
		FinalOutcome: domain.OutcomeApproved,
		FinalMessage: "Final approval granted.",
		UpdatedAt:    time.Now(),
	}
	err := repo.Update(context.Background(), doc, domain.StatusPendingAdmin)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrGuardViolation) {
		t.Fatalf("expected ErrGuardViolation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateReturnsNotFoundForMissingDocument(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	doc := &domain.Document{ID: "missing", Status: domain.StatusRejected, UpdatedAt: time.Now()}
	err := repo.Update(context.Background(), doc, domain.StatusSubmitted)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListFiltersByStatusAndDepartment(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	stored := domain.Document{
		ID:         "doc-2",
		OwnerID:    "stu-2",
		Filename:   "grant.txt",
		MimeType:   "text/plain",
		Status:     domain.StatusPendingDepartment,
		Department: "scholarship",
		Stages:     []domain.StageEntry{{Stage: domain.StageUpload, Outcome: domain.OutcomeSubmitted, Timestamp: now}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	mock.ExpectQuery("SELECT id, owner_id, filename").
		WithArgs(string(domain.StatusPendingDepartment), "scholarship").
		WillReturnRows(documentRows(t, stored))

	got, err := repo.List(context.Background(), ports.DocumentFilter{
		Status:     domain.StatusPendingDepartment,
		Department: "scholarship",
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "doc-2" {
		t.Fatalf("List() = %+v, want single doc-2", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteReturnsNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
