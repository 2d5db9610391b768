package importer

import (
	"context"
	"errors"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXDecoder reads the first sheet of a workbook. The first row holds the
// headers.
type XLSXDecoder struct{}

// Decode implements Decoder.
func (XLSXDecoder) Decode(ctx context.Context, r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, decodeError(FormatXLSX, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, decodeError(FormatXLSX, errors.New("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, decodeError(FormatXLSX, err)
	}
	if len(rows) == 0 {
		return nil, decodeError(FormatXLSX, ErrEmptyFile)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return newTable(rows[0], rows[1:]), nil
}
