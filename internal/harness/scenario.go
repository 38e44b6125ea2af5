package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/replication"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/rms"
)

// Scenario describes one replication flow to build, deploy and check.
type Scenario struct {
	// Name identifies the scenario in results and in the run ledger.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	// Replication is the name of the replication flow. Defaults to Name.
	Replication string `yaml:"replication,omitempty"`

	Source SpaceSpec  `yaml:"source"`
	Target TargetSpec `yaml:"target"`
	Tasks  []TaskSpec `yaml:"tasks"`

	// Run requests a run-or-resume of all inactive tasks after the deploy.
	Run bool `yaml:"run,omitempty"`

	// Undeploy removes the flow at the end of the scenario.
	Undeploy bool `yaml:"undeploy,omitempty"`

	// Expect holds the final change request status expected per operation.
	// Unset operations expect COMPLETED.
	Expect Expect `yaml:"expect,omitempty"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// SpaceSpec names a connection and a container inside it.
type SpaceSpec struct {
	Connection string `yaml:"connection"`
	Container  string `yaml:"container"`
}

// TargetSpec is a SpaceSpec with the dataset properties of file-like targets.
type TargetSpec struct {
	SpaceSpec `yaml:",inline"`

	GroupDeltaBy string `yaml:"groupDeltaBy,omitempty"`
	FileType     string `yaml:"fileType,omitempty"`
	Compression  string `yaml:"compression,omitempty"`
	Delimiter    string `yaml:"delimiter,omitempty"`
	Header       *bool  `yaml:"header,omitempty"`
}

// TaskSpec describes one task. Target defaults to Source.
type TaskSpec struct {
	Source      string       `yaml:"source"`
	Target      string       `yaml:"target,omitempty"`
	Description string       `yaml:"description,omitempty"`
	LoadType    string       `yaml:"loadType,omitempty"`
	Truncate    bool         `yaml:"truncate,omitempty"`
	Filters     []FilterSpec `yaml:"filters,omitempty"`
}

type FilterSpec struct {
	Field    string `yaml:"field"`
	Operator string `yaml:"operator"`
	Value    string `yaml:"value"`
}

type Expect struct {
	Deploy   string `yaml:"deploy,omitempty"`
	Run      string `yaml:"run,omitempty"`
	Undeploy string `yaml:"undeploy,omitempty"`
}

// ReplicationName returns the flow name the scenario deploys.
func (s *Scenario) ReplicationName() string {
	if s.Replication != "" {
		return s.Replication
	}
	return s.Name
}

// expected returns the status the operation must end in.
func (s *Scenario) expected(op rms.Operation) rms.Status {
	var v string
	switch op {
	case rms.OperationDeploy:
		v = s.Expect.Deploy
	case rms.OperationRun:
		v = s.Expect.Run
	case rms.OperationUndeploy:
		v = s.Expect.Undeploy
	}
	if v == "" {
		return rms.StatusCompleted
	}
	return rms.Status(v)
}

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario. Unknown fields are rejected so that a
// misspelled key fails instead of being ignored.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and every enumerated value.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Source.Connection == "" || s.Source.Container == "" {
		return fmt.Errorf("source: connection and container are required")
	}
	if s.Target.Connection == "" || s.Target.Container == "" {
		return fmt.Errorf("target: connection and container are required")
	}
	if err := s.Target.apply(replication.NewTargetSpace("", "", "")); err != nil {
		return fmt.Errorf("target: %w", err)
	}

	if len(s.Tasks) == 0 {
		return fmt.Errorf("tasks list is required and must be non-empty")
	}
	for i, task := range s.Tasks {
		if task.Source == "" {
			return fmt.Errorf("tasks[%d]: source is required", i)
		}
		if task.LoadType != "" {
			if _, err := replication.ParseLoadType(task.LoadType); err != nil {
				return fmt.Errorf("tasks[%d]: %w", i, err)
			}
		}
		for j, f := range task.Filters {
			if f.Field == "" {
				return fmt.Errorf("tasks[%d].filters[%d]: field is required", i, j)
			}
			if _, err := replication.ParseFilterOperator(f.Operator); err != nil {
				return fmt.Errorf("tasks[%d].filters[%d]: %w", i, j, err)
			}
		}
	}

	for name, v := range map[string]string{"deploy": s.Expect.Deploy, "run": s.Expect.Run, "undeploy": s.Expect.Undeploy} {
		if v == "" {
			continue
		}
		if _, err := rms.ParseStatus(v); err != nil {
			return fmt.Errorf("expect.%s: %w", name, err)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// apply sets the dataset properties of spec on t.
func (spec TargetSpec) apply(t *replication.TargetSpace) error {
	if spec.GroupDeltaBy != "" {
		v, err := replication.ParseGroupDeltaBy(spec.GroupDeltaBy)
		if err != nil {
			return err
		}
		t.SetGroupDeltaBy(v)
	}
	if spec.FileType != "" {
		v, err := replication.ParseFileType(spec.FileType)
		if err != nil {
			return err
		}
		t.SetFileType(v)
	}
	if spec.Compression != "" {
		v, err := replication.ParseFileCompression(spec.Compression)
		if err != nil {
			return err
		}
		t.SetFileCompression(v)
	}
	if spec.Delimiter != "" {
		v, err := replication.ParseFileDelimiter(spec.Delimiter)
		if err != nil {
			return err
		}
		t.SetFileDelimiter(v)
	}
	if spec.Header != nil {
		t.SetFileHeader(*spec.Header)
	}
	return nil
}

// addTasks creates one task per spec. tableSuffix is appended to every
// target dataset name.
func addTasks(r *replication.Replication, specs []TaskSpec, tableSuffix string) error {
	for _, spec := range specs {
		task, err := r.CreateTask(spec.Source)
		if err != nil {
			return err
		}
		task.Description = spec.Description
		if spec.Target != "" {
			task.TargetDataset = spec.Target
		}
		task.TargetDataset += tableSuffix
		if spec.LoadType != "" {
			lt, err := replication.ParseLoadType(spec.LoadType)
			if err != nil {
				return err
			}
			task.LoadType = lt
		}
		task.Truncate = spec.Truncate
		for _, f := range spec.Filters {
			op, err := replication.ParseFilterOperator(f.Operator)
			if err != nil {
				return err
			}
			task.Filters().Add(f.Field, op, f.Value)
		}
	}
	return nil
}

// Build creates the replication the scenario describes without contacting a
// cluster. Connection types stay unset.
func (s *Scenario) Build(tableSuffix string) (*replication.Replication, error) {
	r := replication.New(s.ReplicationName())
	r.SetDescription(s.Description)
	r.SetSourceSpace(s.Source.Connection, s.Source.Container)
	target := r.SetTargetSpace(s.Target.Connection, s.Target.Container)
	if err := s.Target.apply(target); err != nil {
		return nil, err
	}
	if err := addTasks(r, s.Tasks, tableSuffix); err != nil {
		return nil, err
	}
	return r, nil
}
