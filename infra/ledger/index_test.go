package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/radhian/ledger-reconciliation/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(rows [][]string, err error) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, len(rows))
	errCh := make(chan error, 1)
	for _, r := range rows {
		rowCh <- r
	}
	close(rowCh)
	if err != nil {
		errCh <- err
	}
	close(errCh)
	return rowCh, errCh
}

func TestIndex_LastWriteWinsKeepsFirstPosition(t *testing.T) {
	rows, errs := feed([][]string{
		{"C", "E1", "", "1,00"},
		{"D", "E2", "", "2,00"},
		{"D", "E1", "", "3,00"},
	}, nil)

	ledger, err := Index(consts.SideCore, rows, errs, DecodeCore, false)
	require.NoError(t, err)
	require.Equal(t, 2, ledger.Len())
	assert.Equal(t, int64(3), ledger.Rows)

	first := ledger.At(0)
	assert.Equal(t, "E1", first.Identifier)
	assert.Equal(t, entity.DirectionDebit, first.Direction)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "E2", ledger.At(1).Identifier)
}

func TestIndex_Aggregate(t *testing.T) {
	rows, errs := feed([][]string{
		{"C", "E1", "", "1,50"},
		{"C", "E2", "", "2,50"},
		{"D", "E3", "", "10,00"},
		{"X", "E4", "", "99,00"},
	}, nil)

	ledger, err := Index(consts.SideCore, rows, errs, DecodeCore, true)
	require.NoError(t, err)

	assert.Equal(t, int64(2), ledger.Summary.Credit.Count)
	assert.True(t, ledger.Summary.Credit.Total.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, int64(1), ledger.Summary.Debit.Count)
	assert.True(t, ledger.Summary.Debit.Total.Equal(decimal.NewFromInt(10)))
}

func TestIndex_NoAggregate(t *testing.T) {
	rows, errs := feed([][]string{{"C", "E1", "", "1,50"}}, nil)

	ledger, err := Index(consts.SideCore, rows, errs, DecodeCore, false)
	require.NoError(t, err)
	assert.Equal(t, entity.LedgerSummary{}, ledger.Summary)
}

func TestIndex_StreamError(t *testing.T) {
	rows, errs := feed(nil, errors.New("disk gone"))

	_, err := Index(consts.SideJD, rows, errs, DecodeCore, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestLoad_JD(t *testing.T) {
	content := strings.Join([]string{
		jdHeader,
		jdLine("GERAL", "e1", "CREDITO", "10,00", "EFETIVADO"),
		jdLine("GERAL", "E2", "DEBITO", "5,00", "EFETIVADO"),
		jdLine("GERAL", "E3", "DEBITO", "7,00", "PENDENTE"),
		"broken;row",
	}, "\n")
	path := writeFile(t, "jd.csv", content)

	ledger, err := Load(context.Background(), path, Source{
		Side:      consts.SideJD,
		Delimiter: ';',
		Decode:    JDLayout{}.Decode,
		Aggregate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.Len())
	assert.Equal(t, int64(4), ledger.Rows)
	assert.True(t, ledger.Has("E1"))
	assert.True(t, ledger.Has("E2"))
	assert.False(t, ledger.Has("E3"))
	assert.Equal(t, int64(1), ledger.Summary.Credit.Count)
	assert.Equal(t, int64(1), ledger.Summary.Debit.Count)
}

func TestLoad_CoreSniffsComma(t *testing.T) {
	path := writeFile(t, "core.csv", "TIPO,E2E,DATA,VALOR\nC,E1,x,\"10,00\"\nD,E3,x,\"5,00\"\n")

	ledger, err := Load(context.Background(), path, Source{Side: consts.SideCore, Decode: DecodeCore})
	require.NoError(t, err)
	require.Equal(t, 2, ledger.Len())
	require.True(t, ledger.Has("E3"))
	rec := ledger.At(1)
	assert.Equal(t, "E3", rec.Identifier)
	assert.True(t, rec.Amount.Equal(decimal.NewFromInt(5)))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "gone.csv"), Source{Side: consts.SideCore, Decode: DecodeCore})
	assert.Error(t, err)
}
