package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

// OFX table headers.
const (
	ofxDate        = "Date"
	ofxDescription = "Description"
	ofxAmount      = "Amount"
	ofxType        = "Type"
	ofxAccount     = "Account"
)

var ofxHeaders = []string{ofxDate, ofxDescription, ofxAmount, ofxType, ofxAccount}

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// OFXDecoder reads OFX and QFX statements into a table with the columns
// Date, Description, Amount, Type, and Account. Amounts are absolute and
// Type is debit or credit.
type OFXDecoder struct{}

// preprocessOFX fixes common formatting issues in OFX files.
func preprocessOFX(content string) string {
	// Trim any leading whitespace or blank lines before the header
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Fix missing closing angle brackets in SGML-style OFX files
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// Decode implements Decoder.
func (OFXDecoder) Decode(ctx context.Context, r io.Reader) (*Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, decodeError(FormatOFX, fmt.Errorf("failed to read OFX file: %w", err))
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, decodeError(FormatOFX, err)
	}

	var (
		records          [][]string
		bankStmts, cards int
	)

	// Process bank messages
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			bankStmts++
			for _, tx := range stmt.BankTranList.Transactions {
				records = append(records, ofxRecord(tx, string(stmt.BankAcctFrom.AcctID)))
			}
		}
	}

	// Process credit card messages
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			cards++
			for _, tx := range stmt.BankTranList.Transactions {
				records = append(records, ofxRecord(tx, string(stmt.CCAcctFrom.AcctID)))
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Debug("Parsed OFX file",
		"total_transactions", len(records),
		"bank_statements", bankStmts,
		"cc_statements", cards)

	return newTable(ofxHeaders, records), nil
}

// ofxRecord flattens one statement entry. OFX signs debits negative.
func ofxRecord(tx ofxgo.Transaction, account string) []string {
	amount := decimal.NewFromBigRat(&tx.TrnAmt.Rat, 4)
	kind := "debit"
	if amount.IsPositive() {
		kind = "credit"
	}

	return []string{
		tx.DtPosted.Time.Format("2006-01-02"),
		ofxMerchantName(tx),
		amount.Abs().String(),
		kind,
		account,
	}
}

// ofxMerchantName tries to get a clean merchant name from OFX data.
func ofxMerchantName(tx ofxgo.Transaction) string {
	// Prefer PAYEE if available
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
		"UPI/",
		"NEFT/",
		"IMPS/",
	}
	upper := strings.ToUpper(name)
	for _, prefix := range prefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Drop a leading "MM/DD " posting date
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
