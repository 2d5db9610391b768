package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/extract"
)

// PDF table headers.
const (
	pdfAmount      = "amount"
	pdfType        = "type"
	pdfDescription = "description"
	pdfDate        = "date"
	pdfRaw         = "raw"
)

var pdfHeaders = []string{pdfAmount, pdfType, pdfDescription, pdfDate, pdfRaw}

// TextExtractor returns the text layer of a PDF.
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader) (string, error)
}

// PDFToText extracts text with the poppler pdftotext tool.
type PDFToText struct {
	// Path is the executable, "pdftotext" when empty.
	Path string
}

// ExtractText implements TextExtractor.
func (p PDFToText) ExtractText(ctx context.Context, r io.Reader) (string, error) {
	bin := p.Path
	if bin == "" {
		bin = "pdftotext"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-layout", "-enc", "UTF-8", "-", "-") //nolint:gosec // binary comes from user configuration
	cmd.Stdin = r
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", bin, err, msg)
		}
		return "", fmt.Errorf("%s: %w", bin, err)
	}
	return stdout.String(), nil
}

// PDFDecoder treats a statement's text layer as free text. Each line goes
// through the extractor and only parsed lines become rows.
type PDFDecoder struct {
	Text      TextExtractor
	Extractor *extract.Extractor
	Workers   int
}

// Decode implements Decoder. A document with no parseable line is
// ErrNoTransactionsFound.
func (d PDFDecoder) Decode(ctx context.Context, r io.Reader) (*Table, error) {
	if d.Text == nil {
		return nil, decodeError(FormatPDF, errors.New("no text extractor configured"))
	}
	ex := d.Extractor
	if ex == nil {
		ex = extract.New(nil)
	}

	text, err := d.Text.ExtractText(ctx, r)
	if err != nil {
		return nil, decodeError(FormatPDF, err)
	}

	results, err := ex.ExtractLines(ctx, text, d.Workers)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, decodeError(FormatPDF, ErrNoTransactionsFound)
	}

	records := make([][]string, 0, len(results))
	for _, res := range results {
		c := res.Candidate
		records = append(records, []string{
			c.Amount.String(),
			string(c.Direction),
			c.Merchant,
			c.Date.Format("2006-01-02 15:04:05"),
			res.Line,
		})
	}
	return newTable(pdfHeaders, records), nil
}
