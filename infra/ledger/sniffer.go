package ledger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/radhian/ledger-reconciliation/consts"
)

type Kind int

const (
	KindDelimited Kind = iota
	KindWorkbook
)

type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
)

// Format describes how a ledger file should be read.
type Format struct {
	Kind      Kind
	Delimiter rune
	Encoding  Encoding
}

var zipMagic = []byte("PK\x03\x04")

// DetectDelimiter picks ';' when the sample contains one and ',' otherwise.
// Only the sample is inspected: a file whose first ';' lies beyond it is
// read as comma separated.
func DetectDelimiter(sample string) rune {
	if strings.ContainsRune(sample, ';') {
		return ';'
	}
	return ','
}

// Sniff reads the first sampleSize bytes of path and infers its format.
func Sniff(path string, sampleSize int) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, fmt.Errorf("failed to open ledger file %s: %w", path, err)
	}
	defer f.Close()

	if sampleSize <= 0 {
		sampleSize = consts.DefaultSniffSampleSize
	}
	sample := make([]byte, sampleSize)
	n, err := io.ReadFull(f, sample)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Format{}, fmt.Errorf("failed to read ledger file %s: %w", path, err)
	}
	sample = sample[:n]

	if strings.EqualFold(filepath.Ext(path), ".xlsx") || bytes.HasPrefix(sample, zipMagic) {
		return Format{Kind: KindWorkbook}, nil
	}

	format := Format{
		Kind:      KindDelimited,
		Delimiter: DetectDelimiter(string(sample)),
		Encoding:  EncodingUTF8,
	}
	if !looksUTF8(sample) {
		format.Encoding = EncodingWindows1252
	}
	return format, nil
}

// looksUTF8 is utf8.Valid that tolerates a rune cut off by the sample end.
func looksUTF8(sample []byte) bool {
	for len(sample) > 0 {
		r, size := utf8.DecodeRune(sample)
		if r == utf8.RuneError && size == 1 {
			return !utf8.FullRune(sample)
		}
		sample = sample[size:]
	}
	return true
}
