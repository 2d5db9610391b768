package extract

import (
	"context"
	"runtime"
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"golang.org/x/sync/errgroup"
)

// LineResult is the outcome for one input line.
type LineResult struct {
	Candidate *model.ParsedCandidate
	Line      string
	Number    int
}

// ExtractLines runs Extract over every non-blank line of text using up to
// workers goroutines. Only parsed lines are returned, in input order.
func (e *Extractor) ExtractLines(ctx context.Context, text string, workers int) ([]LineResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	lines := strings.Split(text, "\n")
	results := make([]*model.ParsedCandidate, len(lines))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		i, line := i, line // per-iteration copies (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if c, ok := e.Extract(line, ""); ok {
				results[i] = c
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []LineResult
	for i, c := range results {
		if c == nil {
			continue
		}
		out = append(out, LineResult{Number: i + 1, Line: strings.TrimSpace(lines[i]), Candidate: c})
	}
	return out, nil
}
