package pattern

// amountExpr matches a number with optional Indian or western digit grouping.
const amountExpr = `(\d[\d,]*(?:\.\d+)?)`

// currencyExpr matches rupee markers.
const currencyExpr = `(?:\brs\.?|\binr|₹)`

// DefaultPatterns returns the built-in rule set for Indian bank and UPI alerts.
func DefaultPatterns() []Pattern {
	patterns := []Pattern{
		// Gate: a message must carry one of these words to be considered at all
		{
			Name:     "Transaction Keywords",
			Concern:  ConcernGate,
			Regex:    `\b(?:debited|credited|debit|credit|withdrawn|deposit(?:ed)?|payment|transaction|transferred|spent|received|paid|sent)\b`,
			Priority: 100,
		},

		// Amounts, tried in order
		{
			Name:     "Currency Prefixed",
			Concern:  ConcernAmount,
			Regex:    currencyExpr + `\s*` + amountExpr,
			Priority: 100,
		},
		{
			Name:     "Currency Suffixed",
			Concern:  ConcernAmount,
			Regex:    amountExpr + `\s*(?:rs\b\.?|inr\b|₹)`,
			Priority: 90,
		},
		{
			Name:     "Keyword Prefixed",
			Concern:  ConcernAmount,
			Regex:    `\b(?:debited|credited|spent|paid|payment of|amount of)\s+(?:rs\.?|inr|₹)?\s*` + amountExpr,
			Priority: 80,
		},

		// Direction keyword sets
		{
			Name:     "Debit Keywords",
			Concern:  ConcernDebit,
			Regex:    `\b(?:debited|debit|withdrawn|spent|payment made|paid|purchase|pos|sent|neft to|imps to)\b`,
			Priority: 100,
		},
		{
			Name:     "UPI Debit",
			Concern:  ConcernDebit,
			Regex:    `\bupi:.*?\bdebit`,
			Priority: 90,
		},
		{
			Name:     "Credit Keywords",
			Concern:  ConcernCredit,
			Regex:    `\b(?:credited|credit|received|deposit(?:ed)?|refund(?:ed)?|cashback|neft from|imps from)\b`,
			Priority: 100,
		},
		{
			Name:     "UPI Credit",
			Concern:  ConcernCredit,
			Regex:    `\bupi:.*?\bcredit`,
			Priority: 90,
		},

		// Account last four digits
		{
			Name:     "Masked Account",
			Concern:  ConcernAccount,
			Regex:    `\b(?:a/c|ac|acct|account)\b[\s\w.:#]{0,20}?[x*]{2,}(\d{4})`,
			Priority: 100,
		},
		{
			Name:     "Ending With",
			Concern:  ConcernAccount,
			Regex:    `\bending\s+(?:with\s+)?(\d{4})\b`,
			Priority: 90,
		},
		{
			Name:     "Bare Mask",
			Concern:  ConcernAccount,
			Regex:    `[x*]{4}(\d{4})\b`,
			Priority: 80,
		},

		// Merchant or payee
		{
			Name:     "At Merchant",
			Concern:  ConcernMerchant,
			Regex:    `(?:\bat|\bto merchant|\bmerchant)\s+([a-z0-9 &.'-]{3,40})`,
			Priority: 100,
		},
		{
			Name:     "UPI Reference",
			Concern:  ConcernMerchant,
			Regex:    `\bupi[/-](?:p2m/|p2a/)?([a-z0-9@._-]{3,40})`,
			Priority: 90,
		},
		{
			Name:     "To Or At",
			Concern:  ConcernMerchant,
			Regex:    `\b(?:to|at)\s+([a-z][a-z0-9 &.'-]{2,30})`,
			Priority: 80,
		},
		{
			Name:     "VPA",
			Concern:  ConcernMerchant,
			Regex:    `\bvpa\s+(\S+)`,
			Priority: 70,
		},

		// Balance after the transaction
		{
			Name:     "Available Balance",
			Concern:  ConcernBalance,
			Regex:    `(?:\bavail(?:able)?\.?\s*bal(?:ance)?|\bbal(?:ance)?)[\s.:-]*(?:rs\.?|inr|₹)?\s*` + amountExpr,
			Priority: 100,
		},

		// Payment channel hints
		{Name: "UPI", Concern: ConcernChannel, Regex: `\bupi\b|\bvpa\b`, Label: "upi", Priority: 100},
		{Name: "Card", Concern: ConcernChannel, Regex: `\bcard\b|\bpos\b`, Label: "card", Priority: 90},
		{Name: "Bank Transfer", Concern: ConcernChannel, Regex: `\b(?:neft|imps|rtgs)\b`, Label: "bank_transfer", Priority: 80},
		{Name: "Wallet", Concern: ConcernChannel, Regex: `\bwallet\b`, Label: "wallet", Priority: 70},
		{Name: "ATM", Concern: ConcernChannel, Regex: `\batm\b`, Label: "cash", Priority: 60},
		{Name: "Cheque", Concern: ConcernChannel, Regex: `\b(?:cheque|chq)\b`, Label: "cheque", Priority: 50},

		// Message dates
		{
			Name:     "Numeric Date",
			Concern:  ConcernDate,
			Regex:    `\b(\d{1,2}[-/]\d{1,2}[-/](?:\d{4}|\d{2}))\b`,
			Priority: 100,
		},
		{
			Name:     "Month Name Date",
			Concern:  ConcernDate,
			Regex:    `\b(\d{1,2}[- ](?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[- ](?:\d{4}|\d{2}))\b`,
			Priority: 90,
		},

		// Receipt totals for OCR text
		{
			Name:     "Grand Total",
			Concern:  ConcernReceiptTotal,
			Regex:    `\b(?:grand total|amount due|net amount|total amount)\b[\s:]*(?:rs\.?|inr|₹)?\s*` + amountExpr,
			Priority: 100,
		},
		{
			Name:     "Total",
			Concern:  ConcernReceiptTotal,
			Regex:    `(?m)^\s*total\b[\s:]*(?:rs\.?|inr|₹)?\s*` + amountExpr,
			Priority: 90,
		},
		{
			Name:     "Any Currency Amount",
			Concern:  ConcernReceiptTotal,
			Regex:    currencyExpr + `\s*` + amountExpr,
			Priority: 80,
		},
	}

	return append(patterns, providerPatterns()...)
}

// providerPatterns is the bank and app table. All entries share one priority
// so declaration order decides ties.
func providerPatterns() []Pattern {
	table := []struct {
		label string
		regex string
	}{
		{"SBI", `\bsbi\b|state bank`},
		{"HDFC", `\bhdfc`},
		{"ICICI", `\bicici`},
		{"Axis", `\baxis bank\b`},
		{"Kotak", `\bkotak\b`},
		{"PNB", `\bpnb\b|punjab national`},
		{"BOB", `bank of baroda`},
		{"Paytm", `\bpaytm\b`},
		{"GPay", `google pay|\bgpay\b`},
		{"PhonePe", `\bphonepe\b`},
		{"IDBI", `\bidbi\b`},
		{"Yes Bank", `\byes bank\b`},
		{"IndusInd", `\bindusind\b`},
		{"Federal", `\bfederal bank\b`},
	}

	patterns := make([]Pattern, 0, len(table))
	for _, p := range table {
		patterns = append(patterns, Pattern{
			Name:     p.label,
			Concern:  ConcernProvider,
			Regex:    p.regex,
			Label:    p.label,
			Priority: 50,
		})
	}
	return patterns
}
