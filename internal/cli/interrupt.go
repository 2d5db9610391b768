package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a long-running command on SIGINT or SIGTERM and
// prints a short notice the first time it fires.
type InterruptHandler struct {
	writer      io.Writer
	cancelFunc  context.CancelFunc
	operation   string
	hint        string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a handler for the named operation, e.g. "Import".
func NewInterruptHandler(writer io.Writer, operation string) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	if operation == "" {
		operation = "Operation"
	}
	return &InterruptHandler{
		writer:    writer,
		operation: operation,
	}
}

// WithHint sets an extra line shown after the interrupt notice.
func (h *InterruptHandler) WithHint(hint string) *InterruptHandler {
	h.hint = hint
	return h
}

// HandleInterrupts returns a context canceled on the first signal. Signal
// handling stops once ctx is done.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.cancelFunc = cancel

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			h.interrupt()
		case <-ctx.Done():
		}
	}()

	return ctx
}

func (h *InterruptHandler) interrupt() {
	h.mu.Lock()
	if !h.interrupted {
		h.interrupted = true
		h.showInterruptMessage()
	}
	h.mu.Unlock()

	if h.cancelFunc != nil {
		h.cancelFunc()
	}
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning(h.operation+" interrupted!")
	if h.hint != "" {
		msg += "\n" + FormatInfo(h.hint)
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		// Best effort - we're shutting down anyway
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if a signal was received.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
