package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
)

// Decision is the user's choice for a pending transaction.
type Decision string

// Review decisions.
const (
	DecisionConfirm Decision = "c"
	DecisionDelete  Decision = "d"
	DecisionSkip    Decision = "s"
	DecisionQuit    Decision = "q"
)

// ReviewStats counts the outcome of a review session.
type ReviewStats struct {
	Confirmed int
	Deleted   int
	Skipped   int
	Failed    int
}

// ReviewFunc applies a decision to a transaction.
type ReviewFunc func(ctx context.Context, txn model.Transaction, decision Decision) error

// Prompter asks the user about transactions on a terminal.
type Prompter struct {
	writer io.Writer
	reader *LineReader
	money  *MoneyFormatter
}

// NewPrompter creates a prompter. Nil reader and writer default to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer, formatter *MoneyFormatter) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	if formatter == nil {
		formatter = NewMoneyFormatter("INR")
	}
	return &Prompter{
		reader: NewLineReader(reader),
		writer: writer,
		money:  formatter,
	}
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(question+" [y/N]")); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}
	answer, err := p.reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ReviewPending walks txns one by one and hands each decision to apply.
// A failing apply is reported and counted; the review continues.
func (p *Prompter) ReviewPending(ctx context.Context, txns []model.Transaction, apply ReviewFunc) (ReviewStats, error) {
	var stats ReviewStats

	bar := NewProgressBar(p.writer, len(txns), "Reviewing pending transactions...")
	defer func() {
		if err := bar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
	}()

	for i, txn := range txns {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		title := fmt.Sprintf("Pending %d of %d", i+1, len(txns))
		if _, err := fmt.Fprintln(p.writer, "\n"+RenderBox(title, p.formatTransaction(txn))); err != nil {
			return stats, fmt.Errorf("failed to write transaction box: %w", err)
		}
		if _, err := fmt.Fprintln(p.writer, "  [C] Confirm  [D] Delete  [S] Skip  [Q] Quit"); err != nil {
			return stats, fmt.Errorf("failed to write options: %w", err)
		}

		choice, err := p.promptChoice(ctx, "Choice", []Decision{DecisionConfirm, DecisionDelete, DecisionSkip, DecisionQuit})
		if err != nil {
			return stats, err
		}

		switch choice {
		case DecisionQuit:
			return stats, nil
		case DecisionSkip:
			stats.Skipped++
		default:
			if err := apply(ctx, txn, choice); err != nil {
				stats.Failed++
				if _, werr := fmt.Fprintln(p.writer, FormatError(err.Error())); werr != nil {
					slog.Warn("Failed to write error message", "error", werr)
				}
				break
			}
			if choice == DecisionConfirm {
				stats.Confirmed++
			} else {
				stats.Deleted++
			}
		}

		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	return stats, nil
}

func (p *Prompter) formatTransaction(txn model.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Details:\n", InfoIcon)
	fmt.Fprintf(&b, "  Date: %s\n", txn.Date.Local().Format("02 Jan 2006 15:04"))

	amount := txn.Amount
	if txn.Kind == model.KindExpense {
		amount = amount.Neg()
	}
	fmt.Fprintf(&b, "  Amount: %s\n", p.money.Signed(amount))
	fmt.Fprintf(&b, "  Kind: %s\n", txn.Kind)
	if txn.Payee != "" {
		fmt.Fprintf(&b, "  Payee: %s\n", txn.Payee)
	}
	if txn.Notes != "" {
		fmt.Fprintf(&b, "  Notes: %s\n", txn.Notes)
	}
	if txn.SourceText != "" {
		fmt.Fprintf(&b, "  Message: %s\n", SubtleStyle.Render(txn.SourceText))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, valid []Decision) (Decision, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("input terminated")
			}
			return "", err
		}

		choice := Decision(strings.ToLower(input))
		for _, v := range valid {
			if choice == v {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}
