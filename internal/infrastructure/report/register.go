// Package report renders administrative exports of the document register.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/docflowhq/docflow/internal/core/domain"
)

const registerSheet = "Register"

var registerHeaders = []string{
	"ID", "Owner", "Filename", "Department", "Status",
	"Final Outcome", "Final Message", "Stages", "Submitted At", "Updated At",
}

// WriteRegister renders docs as an XLSX workbook with one row per document.
func WriteRegister(w io.Writer, docs []domain.Document) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return fmt.Errorf("name register sheet: %w", err)
	}
	for col, header := range registerHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(registerSheet, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for row, doc := range docs {
		values := []any{
			doc.ID,
			doc.OwnerID,
			doc.Filename,
			doc.Department,
			string(doc.Status),
			string(doc.FinalOutcome),
			doc.FinalMessage,
			len(doc.Stages),
			doc.CreatedAt.UTC().Format(time.RFC3339),
			doc.UpdatedAt.UTC().Format(time.RFC3339),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("register cell: %w", err)
			}
			if err := f.SetCellValue(registerSheet, cell, value); err != nil {
				return fmt.Errorf("write register row: %w", err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
