package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/canonical"
)

// TraceSnapshot is the part of a Result compared against golden files.
// Run ids are left out so that snapshots are stable.
type TraceSnapshot struct {
	Scenario    string       `json:"scenario"`
	Replication string       `json:"replication"`
	Pass        bool         `json:"pass"`
	Trace       []TraceEvent `json:"trace"`
	Errors      []string     `json:"errors"`
}

func snapshot(result *Result) ([]byte, error) {
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	return canonical.MarshalValue(TraceSnapshot{
		Scenario:    result.Scenario,
		Replication: result.Replication,
		Pass:        result.Pass,
		Trace:       result.Trace,
		Errors:      errs,
	})
}

// RunWithGolden runs a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, h *Harness, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := h.Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
