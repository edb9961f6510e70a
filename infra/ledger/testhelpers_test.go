package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const jdHeader = "DATA;OPERACAO;E2E;ISPB;NOME;NATUREZA;VALOR;C7;C8;C9;C10;C11;C12;C13;C14;C15;C16;C17;SITUACAO"

func jdFields(op, e2e, nature, amount, status string) []string {
	fields := make([]string, jdNumFields)
	fields[0] = "01/02/2025"
	fields[jdColOperation] = op
	fields[jdColE2E] = e2e
	fields[jdColNature] = nature
	fields[jdColAmount] = amount
	fields[jdColStatus] = status
	return fields
}

func jdLine(op, e2e, nature, amount, status string) string {
	return strings.Join(jdFields(op, e2e, nature, amount, status), ";")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}
