// Package capture processes live notification text in the background.
// Delivery is at least once: a repeated message is processed again and
// produces another pending transaction.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/extract"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/reconcile"
	"github.com/google/uuid"
)

// Defaults for Config.
const (
	DefaultQueueSize = 64
	DefaultWorkers   = 2
)

// Event is one delivered message.
type Event struct {
	ReceivedAt time.Time
	ID         string
	Sender     string
	Text       string
}

// Reconciler resolves a candidate into a transaction.
type Reconciler interface {
	Reconcile(ctx context.Context, candidate *model.ParsedCandidate, origin reconcile.Origin) (*model.Transaction, error)
}

// Inserter applies a transaction.
type Inserter interface {
	Insert(ctx context.Context, txn *model.Transaction) (int64, error)
}

// Config controls a Worker.
type Config struct {
	// OnSaved is called from a worker goroutine after each insert.
	OnSaved   func(Event, *model.Transaction)
	QueueSize int
	Workers   int
}

// Stats are running totals since the worker was created.
type Stats struct {
	Received int64
	Dropped  int64
	Rejected int64
	Saved    int64
	Failed   int64
}

// Worker runs extraction, reconciliation and ledger insert for each event.
type Worker struct {
	extractor  *extract.Extractor
	reconciler Reconciler
	ledger     Inserter
	onSaved    func(Event, *model.Transaction)
	queue      chan Event
	wg         sync.WaitGroup
	mu         sync.RWMutex
	startOnce  sync.Once
	closeOnce  sync.Once
	received   atomic.Int64
	dropped    atomic.Int64
	rejected   atomic.Int64
	saved      atomic.Int64
	failed     atomic.Int64
	workers    int
	closed     bool
}

// New creates a worker. Call Start to begin processing.
func New(extractor *extract.Extractor, reconciler Reconciler, ledger Inserter, cfg Config) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if extractor == nil {
		extractor = extract.New(nil)
	}
	return &Worker{
		extractor:  extractor,
		reconciler: reconciler,
		ledger:     ledger,
		onSaved:    cfg.OnSaved,
		queue:      make(chan Event, cfg.QueueSize),
		workers:    cfg.Workers,
	}
}

// Submit enqueues a message without blocking. It reports false when the
// queue is full or the worker is closed; the message is then dropped.
func (w *Worker) Submit(sender, text string) (string, bool) {
	ev := Event{
		ID:         uuid.NewString(),
		Sender:     sender,
		Text:       text,
		ReceivedAt: time.Now(),
	}
	w.received.Add(1)

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.dropped.Add(1)
		slog.Warn("Dropped message, capture closed", "event_id", ev.ID, "sender", sender)
		return ev.ID, false
	}

	select {
	case w.queue <- ev:
		return ev.ID, true
	default:
		w.dropped.Add(1)
		common.LogWarn("Dropped message, capture queue full", common.Fields{"event_id": ev.ID, "sender": sender, "queue_size": cap(w.queue)})
		return ev.ID, false
	}
}

// Start launches the worker goroutines. They stop when ctx is done or the
// queue is closed and drained. Start is a no-op after the first call.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		for i := 0; i < w.workers; i++ {
			w.wg.Add(1)
			go w.run(ctx, i)
		}
		slog.Debug("Capture worker started", "workers", w.workers, "queue_size", cap(w.queue))
	})
}

// Close stops accepting messages, waits for queued ones to finish, and
// returns. Messages still queued when ctx was cancelled are discarded.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.queue)
		w.mu.Unlock()
	})
	w.wg.Wait()
}

// Stats returns a snapshot of the counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Received: w.received.Load(),
		Dropped:  w.dropped.Load(),
		Rejected: w.rejected.Load(),
		Saved:    w.saved.Load(),
		Failed:   w.failed.Load(),
	}
}

func (w *Worker) run(ctx context.Context, n int) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.queue:
			if !ok {
				return
			}
			w.process(ctx, n, ev)
		}
	}
}

// process never returns an error. Failures are logged and counted.
func (w *Worker) process(ctx context.Context, n int, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			w.failed.Add(1)
			slog.Error("Capture worker panic",
				"event_id", ev.ID,
				"worker", n,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()

	candidate, ok := w.extractor.Extract(ev.Text, ev.Sender)
	if !ok {
		w.rejected.Add(1)
		slog.Debug("Message is not a transaction", "event_id", ev.ID, "sender", ev.Sender)
		return
	}

	txn, err := w.reconciler.Reconcile(ctx, candidate, reconcile.OriginLiveCapture)
	if err != nil {
		w.failed.Add(1)
		common.LogError(err, "Failed to reconcile captured message", common.Fields{"event_id": ev.ID, "sender": ev.Sender})
		return
	}

	id, err := w.ledger.Insert(ctx, txn)
	if err != nil {
		w.failed.Add(1)
		common.LogError(err, "Failed to save captured transaction", common.Fields{"event_id": ev.ID, "amount": txn.Amount.String()})
		return
	}

	w.saved.Add(1)
	slog.Info("Saved captured transaction",
		"event_id", ev.ID,
		"id", id,
		"amount", txn.Amount.String(),
		"kind", txn.Kind,
		"provider", candidate.Provider)
	if w.onSaved != nil {
		w.onSaved(ev, txn)
	}
}
