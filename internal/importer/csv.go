package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"io"

	"github.com/gocarina/gocsv"
)

// CSVDecoder reads delimited text exports. Quotes are parsed lazily since
// bank exports often carry stray quote characters.
type CSVDecoder struct {
	Delimiter rune
}

// Decode implements Decoder.
func (d CSVDecoder) Decode(ctx context.Context, r io.Reader) (*Table, error) {
	reader := gocsv.LazyCSVReader(r)
	if cr, ok := reader.(*csv.Reader); ok {
		cr.FieldsPerRecord = -1
		if d.Delimiter != 0 {
			cr.Comma = d.Delimiter
		}
	}

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, decodeError(FormatCSV, ErrEmptyFile)
	}
	if err != nil {
		return nil, decodeError(FormatCSV, err)
	}

	var records [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, decodeError(FormatCSV, err)
		}
		records = append(records, rec)
	}

	return newTable(headers, records), nil
}
