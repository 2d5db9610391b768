package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/Veraticus/the-ledger-must-balance/internal/capture"
	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/reconcile"
	"github.com/spf13/cobra"
)

func captureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capture [file]",
		Short: "Record transactions from a stream of SMS messages",
		Long: `Reads one message per line from the file or stdin. A line is either the message
text or "sender<TAB>text". Recognized messages are recorded as pending transactions
for review with 'ledger txn pending --review'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var input io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0]) //nolint:gosec // file path comes from the command line
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer func() { _ = f.Close() }()
				input = f
			}

			handler := cli.NewInterruptHandler(out, "Capture").
				WithHint("Messages already recorded are kept as pending.")
			ctx := handler.HandleInterrupts(cmd.Context())

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			extractor, err := a.extractor()
			if err != nil {
				return err
			}

			var outMu sync.Mutex
			worker := capture.New(extractor, reconcile.New(a.store), a.engine, capture.Config{
				QueueSize: a.cfg.Capture.QueueSize,
				Workers:   a.cfg.Capture.Workers,
				OnSaved: func(ev capture.Event, txn *model.Transaction) {
					outMu.Lock()
					defer outMu.Unlock()
					fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s %s #%d %s %s",
						cli.PhoneIcon, txn.Kind, txn.ID, a.money.Format(txn.Amount), ev.Sender)))
				},
			})
			worker.Start(ctx)

			reader := cli.NewLineReader(input)
			var readErr error
			for {
				line, err := reader.ReadLine(ctx)
				if err != nil {
					if !errors.Is(err, io.EOF) && !errors.Is(err, cli.ErrInputCancelled) {
						readErr = err
					}
					break
				}
				sender, text := splitCaptureLine(line)
				if text == "" {
					continue
				}
				worker.Submit(sender, text)
			}
			worker.Close()

			stats := worker.Stats()
			fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf(
				"Received %d, saved %d, not transactions %d, dropped %d, failed %d",
				stats.Received, stats.Saved, stats.Rejected, stats.Dropped, stats.Failed)))
			return readErr
		},
	}
}

// splitCaptureLine splits "sender<TAB>text". A line without a tab is all text.
func splitCaptureLine(line string) (string, string) {
	sender, text, ok := strings.Cut(line, "\t")
	if !ok {
		return "", strings.TrimSpace(line)
	}
	return strings.TrimSpace(sender), strings.TrimSpace(text)
}
