package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/canonical"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/rms"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/store"
)

// Ledger writes runs and their status polls to the store.
//
// Pass ObservePoll to rms.WithPollObserver so polls made during a run are
// attributed to it. Polls outside a run are not recorded.
type Ledger struct {
	store  *store.Store
	logger *slog.Logger

	mu    sync.Mutex
	runID string
}

func NewLedger(st *store.Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ledger{store: st, logger: logger}
}

// ObservePoll records one status poll of the current run.
func (l *Ledger) ObservePoll(e rms.PollEvent) {
	l.mu.Lock()
	runID := l.runID
	l.mu.Unlock()
	if runID == "" || e.Status == nil {
		return
	}

	err := l.store.RecordPoll(context.Background(), store.StatusPoll{
		RunID:     runID,
		Flow:      e.Flow,
		Operation: string(e.Operation),
		Attempt:   e.Attempt,
		Status:    string(e.Status.Status),
		Payload:   e.Status.Raw,
	})
	if err != nil {
		l.logger.Warn("failed to record status poll", "run", runID, "flow", e.Flow, "error", err)
	}
}

func (l *Ledger) begin(ctx context.Context, result *Result) error {
	if _, err := l.store.BeginRun(ctx, result.RunID, result.Scenario, result.Replication); err != nil {
		return err
	}
	l.mu.Lock()
	l.runID = result.RunID
	l.mu.Unlock()
	return nil
}

func (l *Ledger) finish(ctx context.Context, result *Result) error {
	l.mu.Lock()
	l.runID = ""
	l.mu.Unlock()

	hash, err := TraceHash(result.Trace)
	if err != nil {
		return err
	}
	return l.store.FinishRun(ctx, result.RunID, result.Pass, result.Errors, hash)
}

// TraceHash returns the content hash of a trace. Equal traces hash equally
// across runs, so two runs of a scenario can be compared by hash.
func TraceHash(trace []TraceEvent) (string, error) {
	data, err := json.Marshal(trace)
	if err != nil {
		return "", fmt.Errorf("marshal trace: %w", err)
	}
	return canonical.Hash(canonical.DomainTrace, data)
}
