package harness

// Trace step names.
const (
	StepCreate   = "create"
	StepSource   = "source_space"
	StepTarget   = "target_space"
	StepTasks    = "tasks"
	StepSave     = "save"
	StepVerify   = "verify_document"
	StepValidate = "validate_schema"
	StepDeploy   = "deploy"
	StepRun      = "run"
	StepUndeploy = "undeploy"
)

// Trace step outcomes. Change request steps record the final change request
// status instead.
const (
	StepOK     = "OK"
	StepFailed = "FAILED"
)

// TraceEvent is one step of a scenario run.
type TraceEvent struct {
	Step   string `json:"step"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	RunID       string `json:"run_id"`
	Scenario    string `json:"scenario"`
	Replication string `json:"replication"`

	// Pass is true when no step failed and every expectation held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors is empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Document is the replication document as saved to the repository.
	Document []byte `json:"-"`
}

// NewResult creates a new passing result.
func NewResult(runID, scenario, replicationName string) *Result {
	return &Result{
		RunID:       runID,
		Scenario:    scenario,
		Replication: replicationName,
		Pass:        true,
		Trace:       []TraceEvent{},
		Errors:      []string{},
	}
}

// AddError adds an error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(step, status, detail string) {
	r.Trace = append(r.Trace, TraceEvent{Step: step, Status: status, Detail: detail})
}
