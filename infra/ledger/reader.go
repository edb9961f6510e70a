package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/labstack/gommon/log"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Stream reads a ledger file row by row and sends every row after the header
// on the returned channel. Rows the CSV parser cannot make sense of are
// skipped; failing to open or read the file is sent on the error channel.
// Both channels are closed when the file is exhausted.
func Stream(ctx context.Context, path string, format Format) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		var err error
		switch format.Kind {
		case KindWorkbook:
			err = streamWorkbook(ctx, path, rowCh)
		default:
			err = streamDelimited(ctx, path, format, rowCh)
		}
		if err != nil {
			errCh <- err
		}
	}()

	return rowCh, errCh
}

func streamDelimited(ctx context.Context, path string, format Format, rowCh chan<- []string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open ledger file %s: %w", path, err)
	}
	defer file.Close()

	var decoder transform.Transformer
	if format.Encoding == EncodingWindows1252 {
		decoder = charmap.Windows1252.NewDecoder()
	} else {
		decoder = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	}

	reader := csv.NewReader(transform.NewReader(file, decoder))
	if format.Delimiter != 0 {
		reader.Comma = format.Delimiter
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header := true
	skipped := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return fmt.Errorf("failed to read ledger file %s: %w", path, err)
			}
			log.Debugf("[LedgerReader] Skipping malformed row in %s: %v", path, err)
			skipped++
			header = false
			continue
		}

		if header {
			header = false
			continue
		}

		select {
		case rowCh <- record:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if skipped > 0 {
		log.Infof("[LedgerReader] %s: skipped %d malformed rows", path, skipped)
	}
	return nil
}

func streamWorkbook(ctx context.Context, path string, rowCh chan<- []string) error {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open ledger workbook %s: %w", path, err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil
	}

	rows, err := book.Rows(sheets[0])
	if err != nil {
		return fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], path, err)
	}
	defer rows.Close()

	header := true
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		cols, err := rows.Columns()
		if err != nil {
			log.Debugf("[LedgerReader] Skipping unreadable row in %s: %v", path, err)
			header = false
			continue
		}

		if header {
			header = false
			continue
		}

		select {
		case rowCh <- cols:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := rows.Error(); err != nil {
		return fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], path, err)
	}
	return nil
}
