package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/canonical"
)

// Assertion checks the trace or the saved document after a run.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, document_field.
	Type string `yaml:"type"`

	// Step and Status select trace events. An empty Status matches any.
	Step   string `yaml:"step,omitempty"`
	Status string `yaml:"status,omitempty"`

	// Steps is the expected order (trace_order).
	Steps []string `yaml:"steps,omitempty"`

	// Count is the expected number of matching events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Field is a dotted path into the saved document, with numeric segments
	// indexing arrays, e.g. targetSpaces.0.datasetProperties.format.
	Field string `yaml:"field,omitempty"`

	// Equals is the expected value at Field. Omitted means null.
	Equals any `yaml:"equals,omitempty"`
}

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertDocumentField = "document_field"
)

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: missing type", index)
	case AssertTraceContains:
		if a.Step == "" {
			return fmt.Errorf("assertions[%d]: step is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Steps) == 0 {
			return fmt.Errorf("assertions[%d]: steps list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Step == "" {
			return fmt.Errorf("assertions[%d]: step is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: trace_count with negative count %d", index, a.Count)
		}
	case AssertDocumentField:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for document_field", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unsupported type %q", index, a.Type)
	}
	return nil
}

// AssertionError describes a failed check. Trace is set for trace checks and
// printed under the message.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s failed\n  expected: %s\n  actual: %s", e.Type, e.Expected, e.Actual)
	if len(e.Trace) > 0 {
		buf.WriteString("\ntrace:")
		for n, ev := range e.Trace {
			fmt.Fprintf(&buf, "\n  [%d] %s %s", n+1, ev.Step, ev.Status)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertDocumentField:
			err = assertDocumentField(result.Document, a)
		default:
			err = fmt.Errorf("unsupported type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func describeStep(step, status string) string {
	if status == "" {
		return step
	}
	return step + " " + status
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	if countMatches(trace, a.Step, a.Status) > 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describeStep(a.Step, a.Status),
		Actual:   "no matching event",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the steps occur in the trace as a subsequence.
// Each step is searched for after the event that matched the step before it.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for n, step := range a.Steps {
		found := slices.IndexFunc(trace[next:], func(ev TraceEvent) bool { return ev.Step == step })
		if found < 0 {
			actual := fmt.Sprintf("no %s in trace", step)
			if n > 0 {
				actual = fmt.Sprintf("no %s after %s at event %d", step, a.Steps[n-1], next)
			}
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: strings.Join(a.Steps, " -> "),
				Actual:   actual,
				Trace:    trace,
			}
		}
		next += found + 1
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	got := countMatches(trace, a.Step, a.Status)
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d x %s", a.Count, describeStep(a.Step, a.Status)),
		Actual:   fmt.Sprintf("%d x %s", got, describeStep(a.Step, a.Status)),
		Trace:    trace,
	}
}

func countMatches(trace []TraceEvent, step, status string) int {
	n := 0
	for _, ev := range trace {
		if ev.Step == step && (status == "" || ev.Status == status) {
			n++
		}
	}
	return n
}

// assertDocumentField compares the value at a.Field with a.Equals in
// canonical JSON form, so 3 and 3.0 are equal and key order does not matter.
func assertDocumentField(document []byte, a Assertion) error {
	fail := func(actual string) error {
		return &AssertionError{
			Type:     AssertDocumentField,
			Expected: fmt.Sprintf("%s = %s", a.Field, mustJSON(a.Equals)),
			Actual:   actual,
		}
	}

	if len(document) == 0 {
		return fail("no document was saved")
	}

	decoder := json.NewDecoder(bytes.NewReader(document))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return fail(fmt.Sprintf("invalid document: %v", err))
	}

	value, ok := lookupField(doc, strings.Split(a.Field, "."))
	if !ok {
		return fail("field not found")
	}

	want, err := canonical.MarshalValue(a.Equals)
	if err != nil {
		return fail(err.Error())
	}
	got, err := canonical.MarshalValue(value)
	if err != nil {
		return fail(err.Error())
	}
	if !bytes.Equal(normalizeNumber(want), normalizeNumber(got)) {
		return fail(string(got))
	}
	return nil
}

func lookupField(v any, path []string) (any, bool) {
	for _, segment := range path {
		switch node := v.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			v = next
		case []any:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			v = node[i]
		default:
			return nil, false
		}
	}
	return v, true
}

// normalizeNumber turns a bare JSON number into its shortest float form.
// Other values are returned unchanged.
func normalizeNumber(data []byte) []byte {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return data
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64))
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
