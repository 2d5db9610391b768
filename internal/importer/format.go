// Package importer decodes bank exports into tables and imports their rows
// through the ledger.
package importer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format names a supported file type.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatOFX  Format = "ofx"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps a user-supplied format tag onto a Format.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, true
	case "xlsx", "xls":
		return FormatXLSX, true
	case "ofx", "qfx":
		return FormatOFX, true
	case "pdf":
		return FormatPDF, true
	}
	return "", false
}

// DetectFormat picks a format from a file name extension.
func DetectFormat(filename string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if f, ok := ParseFormat(ext); ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
}
