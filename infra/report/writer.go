package report

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/entity"
	"github.com/radhian/ledger-reconciliation/utils"
	"github.com/xuri/excelize/v2"
)

const (
	SheetCredit = "Credit"
	SheetDebit  = "Debit"

	ValidYes      = "YES"
	Blank         = "-"
	LookupOK      = "OK"
	LookupMissing = "NOT FOUND"
)

var header = []interface{}{"E2E CORE", "E2E JD", "VALIDATION", "LOOKUP"}

// Sheet is one worksheet of the report.
type Sheet struct {
	Name string
	Rows []entity.ReportRow
}

// Writer streams report sheets into an xlsx workbook.
type Writer struct {
	BatchSize int
	MinLen    int
}

func NewWriter(batchSize, minLen int) *Writer {
	if batchSize <= 0 {
		batchSize = consts.DefaultReportBatchSize
	}
	if minLen <= 0 {
		minLen = consts.DefaultValidationMinLen
	}
	return &Writer{BatchSize: batchSize, MinLen: minLen}
}

// Write saves sheets to path in order. onProgress is called after every
// batch with the sheet index and the rows written so far in that sheet.
func (w *Writer) Write(ctx context.Context, path string, sheets []Sheet, onProgress func(sheet, done, total int)) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet.Name, err)
		}

		var progress func(done, total int)
		if onProgress != nil {
			idx := i
			progress = func(done, total int) { onProgress(idx, done, total) }
		}
		if err := w.writeSheet(ctx, f, sheet, progress); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	log.Infof("[Report] Saved %s with %d sheets", path, len(sheets))
	return nil
}

func (w *Writer) writeSheet(ctx context.Context, f *excelize.File, sheet Sheet, onProgress func(done, total int)) error {
	sw, err := f.NewStreamWriter(sheet.Name)
	if err != nil {
		return fmt.Errorf("failed to open stream for sheet %s: %w", sheet.Name, err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header of sheet %s: %w", sheet.Name, err)
	}

	var rowErr error
	err = utils.RunInBatches(ctx, len(sheet.Rows), w.BatchSize, func(i int) {
		if rowErr != nil {
			return
		}
		rowNum := i + 2
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			rowErr = err
			return
		}
		rowErr = sw.SetRow(cell, w.cells(sheet.Rows[i], rowNum))
	}, func(done, total int) {
		if rowErr == nil && onProgress != nil {
			onProgress(done, total)
		}
	})
	if rowErr != nil {
		return fmt.Errorf("failed to write row of sheet %s: %w", sheet.Name, rowErr)
	}
	if err != nil {
		return err
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet %s: %w", sheet.Name, err)
	}
	log.Debugf("[Report] Sheet %s: %d rows", sheet.Name, len(sheet.Rows))
	return nil
}

// cells renders the computed values together with the formulas that keep the
// sheet live when ids are edited.
func (w *Writer) cells(row entity.ReportRow, n int) []interface{} {
	validation := Blank
	if row.Valid {
		validation = ValidYes
	}
	lookup := Blank
	if row.Valid {
		lookup = LookupMissing
		if row.Found {
			lookup = LookupOK
		}
	}

	return []interface{}{
		row.ReferenceID,
		row.ComparisonID,
		excelize.Cell{
			Value:   validation,
			Formula: fmt.Sprintf(`IF(OR(LEN(A%d)>%d,LEN(B%d)>%d),"%s","%s")`, n, w.MinLen, n, w.MinLen, ValidYes, Blank),
		},
		excelize.Cell{
			Value: lookup,
			Formula: fmt.Sprintf(`IF(C%d="%s",IF(ISERROR(VLOOKUP(B%d,A:A,1,FALSE)),"%s","%s"),"%s")`,
				n, ValidYes, n, LookupMissing, LookupOK, Blank),
		},
	}
}
