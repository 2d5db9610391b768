package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// LineReader reads lines from a stream while honoring context cancellation.
type LineReader struct {
	reader      *bufio.Reader
	readingLock sync.Mutex
}

// NewLineReader wraps reader.
func NewLineReader(reader io.Reader) *LineReader {
	if reader == nil {
		panic("reader cannot be nil")
	}
	return &LineReader{reader: bufio.NewReader(reader)}
}

// ReadString reads until delim, returning early with ErrInputCancelled if ctx
// is done first. A final unterminated chunk is returned with a nil error and
// io.EOF follows on the next call.
func (r *LineReader) ReadString(ctx context.Context, delim byte) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.readingLock.Lock()
		defer r.readingLock.Unlock()

		value, err := r.reader.ReadString(delim)
		if errors.Is(err, io.EOF) && value != "" {
			err = nil
		}
		resultCh <- result{value: value, err: err}
	}()

	// The reading goroutine keeps running until its read completes even
	// after ctx is done.
	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		return res.value, res.err
	}
}

// ReadLine reads one line with surrounding whitespace trimmed.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	line, err := r.ReadString(ctx, '\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
