// Package export writes transactions to CSV and XLSX files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// DateLayout is how exported dates are written.
const DateLayout = "02-01-2006 15:04"

// Format is an export file type.
type Format string

// Export formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Row is one exported transaction.
type Row struct {
	Date        string `csv:"Date"`
	Type        string `csv:"Type"`
	Amount      string `csv:"Amount"`
	Category    string `csv:"Category"`
	Account     string `csv:"Account"`
	Payee       string `csv:"Payee"`
	Notes       string `csv:"Notes"`
	Status      string `csv:"Status"`
	PaymentType string `csv:"Payment Type"`
}

var headers = []string{"Date", "Type", "Amount", "Category", "Account", "Payee", "Notes", "Status", "Payment Type"}

// Names resolves ids to display names.
type Names struct {
	Accounts   map[int64]string
	Categories map[int64]string
}

// NameStore lists the records Names is built from.
type NameStore interface {
	ListAccounts(ctx context.Context, includeInactive bool) ([]model.Account, error)
	ListCategories(ctx context.Context, categoryType *model.CategoryType) ([]model.Category, error)
}

// LoadNames reads every account and category name.
func LoadNames(ctx context.Context, store NameStore) (Names, error) {
	accounts, err := store.ListAccounts(ctx, true)
	if err != nil {
		return Names{}, fmt.Errorf("failed to list accounts: %w", err)
	}
	categories, err := store.ListCategories(ctx, nil)
	if err != nil {
		return Names{}, fmt.Errorf("failed to list categories: %w", err)
	}

	names := Names{
		Accounts:   make(map[int64]string, len(accounts)),
		Categories: make(map[int64]string, len(categories)),
	}
	for _, a := range accounts {
		names.Accounts[a.ID] = a.Name
	}
	for _, c := range categories {
		names.Categories[c.ID] = c.Name
	}
	return names, nil
}

// Rows converts transactions to export rows. Transfers show both accounts.
func Rows(txns []model.Transaction, names Names) []Row {
	rows := make([]Row, 0, len(txns))
	for _, t := range txns {
		account := names.AccountName(t.AccountID)
		if t.Kind == model.KindTransfer && t.ToAccountID != nil {
			account += " -> " + names.AccountName(*t.ToAccountID)
		}
		rows = append(rows, Row{
			Date:        t.Date.Format(DateLayout),
			Type:        strings.ToUpper(string(t.Kind)),
			Amount:      t.Amount.StringFixed(2),
			Category:    names.CategoryName(t.CategoryID),
			Account:     account,
			Payee:       t.Payee,
			Notes:       t.Notes,
			Status:      strings.ToUpper(string(t.Status)),
			PaymentType: strings.ToUpper(string(t.PaymentMethod)),
		})
	}
	return rows
}

// AccountName returns the account's name, or #id if it is unknown.
func (n Names) AccountName(id int64) string {
	if name, ok := n.Accounts[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

// CategoryName returns the category's name, or "" for nil or unknown ids.
func (n Names) CategoryName(id *int64) string {
	if id == nil {
		return ""
	}
	return n.Categories[*id]
}

// Write exports txns to w in format.
func Write(w io.Writer, format Format, txns []model.Transaction, names Names) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, txns, names)
	case FormatXLSX:
		return WriteXLSX(w, txns, names)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteCSV writes a header row and one row per transaction.
func WriteCSV(w io.Writer, txns []model.Transaction, names Names) error {
	rows := Rows(txns, names)
	csvWriter := csv.NewWriter(w)
	if len(rows) == 0 {
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("error writing CSV header: %w", err)
		}
		csvWriter.Flush()
		return csvWriter.Error()
	}
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WriteXLSX writes a single Transactions sheet.
func WriteXLSX(w io.Writer, txns []model.Transaction, names Names) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Transactions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range Rows(txns, names) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{r.Date, r.Type, r.Amount, r.Category, r.Account, r.Payee, r.Notes, r.Status, r.PaymentType}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
