package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/canonical"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/modeler"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/replication"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/rms"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/schema"
)

// IDGenerator hands out run ids.
type IDGenerator interface {
	NewID() string
}

type uuidV7 struct{}

// NewID returns a time-ordered UUIDv7, or a random UUID if the clock fails.
func (uuidV7) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Option configures a Harness.
type Option func(*Harness)

// WithLedger records runs and status polls.
func WithLedger(l *Ledger) Option {
	return func(h *Harness) { h.ledger = l }
}

// WithIDGenerator replaces the UUIDv7 run ids.
func WithIDGenerator(g IDGenerator) Option {
	return func(h *Harness) { h.ids = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithTableSuffix appends suffix to every target dataset name.
func WithTableSuffix(suffix string) Option {
	return func(h *Harness) { h.tableSuffix = suffix }
}

// Harness runs scenarios against a cluster through the modeler.
type Harness struct {
	modeler     *modeler.ReplicationsModeler
	ledger      *Ledger
	ids         IDGenerator
	logger      *slog.Logger
	tableSuffix string
}

func New(m *modeler.ReplicationsModeler, opts ...Option) *Harness {
	h := &Harness{
		modeler: m,
		ids:     uuidV7{},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario and returns its result.
//
// A failing step ends the scenario and is reported on the Result. The
// returned error is reserved for ledger failures. A deployed flow is still
// undeployed after a later failure when the scenario asks for it.
func (h *Harness) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	result := NewResult(h.ids.NewID(), sc.Name, sc.ReplicationName())
	logger := h.logger.With("scenario", sc.Name, "run", result.RunID)

	if h.ledger != nil {
		if err := h.ledger.begin(ctx, result); err != nil {
			return nil, err
		}
	}

	logger.Info("scenario started", "replication", result.Replication)
	h.execute(ctx, sc, result, logger)

	for _, msg := range EvaluateAssertions(result, sc.Assertions) {
		result.AddError(msg)
	}
	logger.Info("scenario finished", "pass", result.Pass, "errors", len(result.Errors))

	if h.ledger != nil {
		if err := h.ledger.finish(ctx, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, sc *Scenario, result *Result, logger *slog.Logger) {
	fail := func(step string, err error) {
		result.AddTrace(step, StepFailed, err.Error())
		result.AddError(fmt.Sprintf("%s: %v", step, err))
		logger.Warn("step failed", "step", step, "error", err)
	}

	r, err := h.modeler.CreateReplication(ctx, result.Replication)
	if err != nil {
		fail(StepCreate, err)
		return
	}
	r.SetDescription(sc.Description)
	result.AddTrace(StepCreate, StepOK, result.Replication)

	src, err := r.SetSourceSpace(ctx, sc.Source.Connection, sc.Source.Container)
	if err != nil {
		fail(StepSource, err)
		return
	}
	result.AddTrace(StepSource, StepOK, describeSpace(src))

	tgt, err := r.SetTargetSpace(ctx, sc.Target.Connection, sc.Target.Container)
	if err == nil {
		err = sc.Target.apply(tgt)
	}
	if err != nil {
		fail(StepTarget, err)
		return
	}
	result.AddTrace(StepTarget, StepOK, describeSpace(&tgt.Space))

	if err := addTasks(r.Replication, sc.Tasks, h.tableSuffix); err != nil {
		fail(StepTasks, err)
		return
	}
	result.AddTrace(StepTasks, StepOK, fmt.Sprintf("%d task(s)", len(sc.Tasks)))

	if err := r.Save(ctx); err != nil {
		fail(StepSave, err)
		return
	}
	saved, err := replication.Marshal(r.Replication)
	if err != nil {
		fail(StepSave, err)
		return
	}
	result.Document = saved
	result.AddTrace(StepSave, StepOK, modeler.ReplicationPath(result.Replication))

	if err := h.verify(ctx, result.Replication, saved); err != nil {
		fail(StepVerify, err)
		return
	}
	result.AddTrace(StepVerify, StepOK, "")

	violations, err := schema.Validate(saved)
	if err != nil {
		fail(StepValidate, err)
		return
	}
	if len(violations) > 0 {
		result.AddTrace(StepValidate, StepFailed, fmt.Sprintf("%d violation(s)", len(violations)))
		for _, v := range violations {
			result.AddError(fmt.Sprintf("%s: %s", StepValidate, v))
		}
		return
	}
	result.AddTrace(StepValidate, StepOK, "")

	flow, err := r.Deploy(ctx)
	if err != nil {
		fail(StepDeploy, err)
		return
	}
	deployed := h.await(ctx, sc, result, StepDeploy, flow, logger)

	if sc.Undeploy {
		defer h.undeploy(ctx, sc, result, r, logger)
	}
	if !deployed || !sc.Run {
		return
	}

	if err := flow.RunOrResume(ctx); err != nil {
		fail(StepRun, err)
		return
	}
	h.await(ctx, sc, result, StepRun, flow, logger)
}

func (h *Harness) undeploy(ctx context.Context, sc *Scenario, result *Result, r *modeler.Replication, logger *slog.Logger) {
	flow, err := r.Undeploy(ctx)
	if err != nil {
		result.AddTrace(StepUndeploy, StepFailed, err.Error())
		result.AddError(fmt.Sprintf("%s: %v", StepUndeploy, err))
		return
	}
	h.await(ctx, sc, result, StepUndeploy, flow, logger)
}

// verify reads the document back and compares it with what was saved.
func (h *Harness) verify(ctx context.Context, name string, saved []byte) error {
	stored, err := h.modeler.ReadDocument(ctx, name)
	if err != nil {
		return err
	}
	equal, err := canonical.Equal(saved, stored)
	if err != nil {
		return err
	}
	if !equal {
		return errors.New("stored document differs from the saved document")
	}
	return nil
}

// await waits while the change request of flow is busy and checks the final
// status against the scenario. It reports whether the flow ended COMPLETED.
func (h *Harness) await(ctx context.Context, sc *Scenario, result *Result, step string, flow *rms.ReplicationFlow, logger *slog.Logger) bool {
	status, err := flow.WaitWhileBusy(ctx)
	if err != nil {
		observed := StepFailed
		if status != nil {
			observed = string(status.Status)
		}
		result.AddTrace(step, observed, err.Error())
		result.AddError(fmt.Sprintf("%s: %v", step, err))
		logger.Warn("change request failed", "step", step, "error", err)
		return false
	}

	result.AddTrace(step, string(status.Status), describeFailures(status))
	logger.Info("change request finished", "step", step, "status", status.Status)

	want := sc.expected(flow.Operation())
	if status.Status != want {
		result.AddError(fmt.Sprintf("%s: expected status %s, got %s", step, want, status.Status))
	}
	return status.Status == rms.StatusCompleted
}

func describeSpace(s *replication.Space) string {
	connType, ok := s.ConnectionType()
	if !ok {
		connType = "unknown"
	}
	return fmt.Sprintf("%s %s (%s)", s.ConnectionID(), s.Container(), connType)
}

func describeFailures(status *rms.ChangeRequestStatus) string {
	failed := status.FailedObjects()
	parts := make([]string, 0, len(failed))
	for _, o := range failed {
		parts = append(parts, fmt.Sprintf("%s %s: %s", o.Type, o.Name, o.Error))
	}
	return strings.Join(parts, "; ")
}
