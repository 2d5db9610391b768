package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledgerCLI runs commands against one temp database.
type ledgerCLI struct {
	t      *testing.T
	dbPath string
}

func newLedgerCLI(t *testing.T) *ledgerCLI {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return &ledgerCLI{t: t, dbPath: filepath.Join(t.TempDir(), "ledger.db")}
}

func (c *ledgerCLI) run(stdin string, args ...string) (string, error) {
	c.t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db", c.dbPath, "--env-file", "", "--log-level", "error"}, args...))

	err := root.Execute()
	return out.String(), err
}

func (c *ledgerCLI) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, out)
	return out
}

func TestCLI_TransactionLifecycle(t *testing.T) {
	c := newLedgerCLI(t)

	out := c.mustRun("accounts", "add", "Savings", "--initial", "1000", "--type", "savings")
	assert.Contains(t, out, "Created account #5 Savings")

	out = c.mustRun("txn", "add", "--amount", "250", "--account", "Savings", "--category", "Food & Dining", "--payee", "Swiggy")
	assert.Contains(t, out, "Recorded expense #1")

	c.mustRun("txn", "edit", "1", "--amount", "300")

	out = c.mustRun("txn", "refund", "1", "--amount", "100")
	assert.Contains(t, out, "partial refund #2")

	out = c.mustRun("accounts", "list")
	assert.Contains(t, out, "Savings")
	assert.Contains(t, out, "₹800.00")

	out = c.mustRun("txn", "list", "--account", "Savings")
	assert.Contains(t, out, "refund of #1")
	assert.Contains(t, out, "refunded by #2")

	out = c.mustRun("audit")
	assert.Contains(t, out, "All 5 accounts balance")

	out, err := c.run("n\n", "txn", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing deleted")

	c.mustRun("txn", "delete", "1", "--yes")
	out = c.mustRun("accounts", "list")
	assert.Contains(t, out, "₹1,100.00")

	out = c.mustRun("audit")
	assert.Contains(t, out, "All 5 accounts balance")
}

func TestCLI_Transfer(t *testing.T) {
	c := newLedgerCLI(t)

	out := c.mustRun("txn", "add", "--kind", "transfer", "--amount", "500", "--account", "SBI Bank", "--to", "Cash")
	assert.Contains(t, out, "Recorded transfer #1")

	out = c.mustRun("txn", "list")
	assert.Contains(t, out, "SBI Bank -> Cash")

	_, err := c.run("", "txn", "add", "--kind", "transfer", "--amount", "500", "--account", "Cash")
	assert.Error(t, err)
}

func TestCLI_ImportAndExport(t *testing.T) {
	c := newLedgerCLI(t)

	csvPath := filepath.Join(t.TempDir(), "statement.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"Date,Narration,Amount,Dr/Cr\n"+
			"05-02-2026,SWIGGY,450.00,Dr\n"+
			"02-02-2026,SALARY,\"50,000.00\",Cr\n"+
			"03-02-2026,CHARGES,n/a,Dr\n"), 0o600))

	out, err := c.run("", "import", csvPath, "--account", "Cash", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would import 2 of 3 rows (1 expense, 1 income)")

	out = c.mustRun("import", csvPath, "--account", "Cash")
	assert.Contains(t, out, "Imported 2 of 3 rows (1 expense, 1 income)")
	assert.Contains(t, out, "row 3")

	out = c.mustRun("accounts", "list")
	assert.Contains(t, out, "₹49,550.00")

	out = c.mustRun("export", "--kind", "expense")
	assert.Contains(t, out, "Date,Type,Amount,Category,Account,Payee,Notes,Status,Payment Type")
	assert.Contains(t, out, "EXPENSE,450.00")
	assert.Contains(t, out, "SWIGGY")
	assert.NotContains(t, out, "SALARY")

	xlsxPath := filepath.Join(t.TempDir(), "ledger.xlsx")
	out = c.mustRun("export", "--out", xlsxPath)
	assert.Contains(t, out, "Exported 2 transactions")
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	out = c.mustRun("summary", "--from", "2026-02-01", "--to", "2026-02-28", "--by", "month")
	assert.Contains(t, out, "₹50,000.00")
	assert.Contains(t, out, "Feb 2026")
	assert.Contains(t, out, "Spending by category")
	assert.Contains(t, out, "SWIGGY", "narration is auto-mapped to the category column")
}

func TestCLI_ImportBadMapping(t *testing.T) {
	c := newLedgerCLI(t)

	csvPath := filepath.Join(t.TempDir(), "statement.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Date,Narration,Amount\n01-02-2026,SWIGGY,450\n"), 0o600))

	_, err := c.run("", "import", csvPath, "--map", "amount=Withdrawal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Withdrawal")

	_, err = c.run("", "import", filepath.Join(t.TempDir(), "notes.txt"))
	assert.Error(t, err)
}

func TestCLI_CaptureAndReview(t *testing.T) {
	c := newLedgerCLI(t)

	feed := "VM-HDFCBK\tRs.1,200.00 debited from your HDFC Bank A/c **5678 for purchase at AMAZON. Available Bal: Rs.8,000.00\n" +
		"Your OTP is 123456\n"
	out, err := c.run(feed, "capture")
	require.NoError(t, err)
	assert.Contains(t, out, "Received 2, saved 1, not transactions 1, dropped 0, failed 0")

	out = c.mustRun("txn", "pending")
	assert.Contains(t, out, "HDFC Credit Card")
	assert.Contains(t, out, "pending")

	out, err = c.run("c\n", "txn", "pending", "--review")
	require.NoError(t, err)
	assert.Contains(t, out, "Confirmed 1, deleted 0, skipped 0, failed 0")

	out = c.mustRun("txn", "pending")
	assert.Contains(t, out, "No transactions found.")

	out = c.mustRun("audit")
	assert.Contains(t, out, "All 4 accounts balance")
}

func TestCLI_Parse(t *testing.T) {
	c := newLedgerCLI(t)

	out := c.mustRun("parse", "ICICI Bank: Rs 5000.00 credited to Acct XX4321 on 18-Feb-26 from SALARY")
	assert.Contains(t, out, "₹5,000.00")
	assert.Contains(t, out, "credit")
	assert.Contains(t, out, "4321")

	out = c.mustRun("parse", "hello, see you at lunch")
	assert.Contains(t, out, "No transaction found")
}

func TestCLI_Recur(t *testing.T) {
	c := newLedgerCLI(t)

	c.mustRun("txn", "add", "--amount", "15000", "--account", "SBI Bank", "--category", "Rent", "--payee", "Landlord",
		"--date", "2026-01-01", "--recur-days", "30")

	out := c.mustRun("txn", "recur")
	assert.Contains(t, out, "Landlord")
	assert.Contains(t, out, "31 Jan 2026")

	out = c.mustRun("txn", "recur", "1", "--at", "2026-01-31")
	assert.Contains(t, out, "Recorded occurrence #2 of template #1")

	_, err := c.run("", "txn", "recur", "2")
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	c := newLedgerCLI(t)
	out := c.mustRun("version")
	assert.Contains(t, out, "ledger version dev")
}

func TestCLI_Patterns(t *testing.T) {
	c := newLedgerCLI(t)

	out := c.mustRun("patterns", "list", "provider")
	assert.Contains(t, out, "HDFC")
	assert.NotContains(t, out, "Grand Total")

	out = c.mustRun("patterns", "test", "Rs 250 debited from A/c XX1234 via UPI")
	assert.Contains(t, out, "Currency Prefixed")
	assert.Contains(t, out, "1234")
	assert.Contains(t, out, "upi")

	overlay := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(overlay, []byte("patterns:\n  - name: Canara\n    concern: provider\n    regex: '\\bcanara\\b'\n    label: Canara\n    priority: 60\n"), 0o600))
	out = c.mustRun("patterns", "check", overlay)
	assert.Contains(t, out, "1 patterns are valid")

	_, err := c.run("", "patterns", "list", "weather")
	require.Error(t, err)
}

func TestCLI_UnknownAccount(t *testing.T) {
	c := newLedgerCLI(t)

	_, err := c.run("", "txn", "add", "--amount", "10", "--account", "Nowhere")
	require.Error(t, err)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "Nowhere")
}
