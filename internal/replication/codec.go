package replication

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type documentJSON struct {
	Name        *string     `json:"name"`
	Description string      `json:"description"`
	Version     *string     `json:"version"`
	Source      []spaceJSON `json:"sourceSpaces"`
	Target      []spaceJSON `json:"targetSpaces"`
	Tasks       []taskJSON  `json:"oneSourceOneTargetTasks"`
}

type spaceJSON struct {
	Name              string            `json:"name"`
	ConnectionID      string            `json:"connectionId"`
	ConnectionType    *string           `json:"connectionType"`
	TechnicalName     string            `json:"technicalName"`
	CCMConnectionID   string            `json:"ccmConnectionId"`
	CCMConnectionType *string           `json:"ccmConnectionType"`
	Container         string            `json:"container"`
	DatasetProperties map[string]string `json:"datasetProperties,omitempty"`
}

type taskJSON struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	SourceDataset string            `json:"sourceDataset"`
	SourceSpace   string            `json:"sourceSpace"`
	TargetDataset string            `json:"targetDataset"`
	TargetSpace   string            `json:"targetSpace"`
	Filter        []FilterGroup     `json:"filter"`
	Mappings      []json.RawMessage `json:"mappings"`
	LoadType      string            `json:"loadType"`
	Truncate      bool              `json:"truncate"`
}

// Marshal encodes r as the replication document the service consumes.
func Marshal(r *Replication) ([]byte, error) {
	doc := documentJSON{
		Name:        &r.name,
		Description: r.description,
		Source:      []spaceJSON{encodeSpace(r.source)},
		Tasks:       make([]taskJSON, 0, len(r.tasks)),
	}
	if r.version != "" {
		v := string(r.version)
		doc.Version = &v
	}
	if r.target != nil {
		doc.Target = []spaceJSON{encodeSpace(&r.target.Space)}
	} else {
		doc.Target = []spaceJSON{encodeSpace(nil)}
	}
	for _, t := range r.tasks {
		doc.Tasks = append(doc.Tasks, encodeTask(t))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode replication %s: %w", r.name, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalIndent is Marshal with two-space indentation.
func MarshalIndent(r *Replication) ([]byte, error) {
	data, err := Marshal(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeSpace writes an unset space as a placeholder whose fields are all "".
func encodeSpace(s *Space) spaceJSON {
	if s == nil {
		empty := ""
		return spaceJSON{ConnectionType: &empty, CCMConnectionType: &empty}
	}
	return spaceJSON{
		Name:              s.name,
		ConnectionID:      s.connectionID,
		ConnectionType:    s.connectionType,
		TechnicalName:     s.connectionID,
		CCMConnectionID:   s.connectionID,
		CCMConnectionType: s.ccmConnectionType,
		Container:         s.container,
		DatasetProperties: s.DatasetProperties(),
	}
}

func encodeTask(t *Task) taskJSON {
	groups := t.filters.Groups()
	mappings := t.Mappings
	if mappings == nil {
		mappings = []json.RawMessage{}
	}
	return taskJSON{
		Name:          t.Name,
		Description:   t.Description,
		SourceDataset: t.SourceDataset,
		SourceSpace:   t.SourceSpace,
		TargetDataset: t.TargetDataset,
		TargetSpace:   t.TargetSpace,
		Filter:        groups,
		Mappings:      mappings,
		LoadType:      string(t.LoadType),
		Truncate:      t.Truncate,
	}
}

// Unmarshal decodes a replication document.
//
// Both space arrays must hold at least one entry; only the first is read.
// A placeholder entry (empty name and connectionId) leaves the space unset.
func Unmarshal(data []byte) (*Replication, error) {
	var doc documentJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedDocumentError{Field: "document", Message: "invalid JSON", Err: err}
	}
	if doc.Name == nil {
		return nil, &MalformedDocumentError{Field: "name", Message: "missing"}
	}
	if len(doc.Source) == 0 {
		return nil, &MalformedDocumentError{Field: "sourceSpaces", Message: "expected at least one entry"}
	}
	if len(doc.Target) == 0 {
		return nil, &MalformedDocumentError{Field: "targetSpaces", Message: "expected at least one entry"}
	}

	r := &Replication{name: *doc.Name, description: doc.Description}
	if doc.Version != nil {
		r.version = Version(*doc.Version)
	}

	source, err := decodeSpace("sourceSpaces[0]", doc.Source[0])
	if err != nil {
		return nil, err
	}
	r.source = source

	target, err := decodeSpace("targetSpaces[0]", doc.Target[0])
	if err != nil {
		return nil, err
	}
	if target != nil {
		r.target = &TargetSpace{Space: *target}
	}

	for i, tj := range doc.Tasks {
		t, err := decodeTask(tj)
		if err != nil {
			return nil, &MalformedDocumentError{
				Field:   fmt.Sprintf("oneSourceOneTargetTasks[%d]", i),
				Message: "invalid task",
				Err:     err,
			}
		}
		r.tasks = append(r.tasks, t)
	}
	return r, nil
}

func decodeSpace(field string, sj spaceJSON) (*Space, error) {
	if sj.Name == "" && sj.ConnectionID == "" {
		return nil, nil
	}
	if sj.DatasetProperties != nil && len(sj.DatasetProperties) == 0 {
		return nil, &MalformedDocumentError{Field: field + ".datasetProperties", Message: "must not be empty when present"}
	}
	s := &Space{
		name:              sj.Name,
		connectionID:      sj.ConnectionID,
		container:         sj.Container,
		connectionType:    sj.ConnectionType,
		ccmConnectionType: sj.CCMConnectionType,
	}
	if sj.DatasetProperties != nil {
		s.properties = make(map[string]string, len(sj.DatasetProperties))
		for k, v := range sj.DatasetProperties {
			s.properties[k] = v
		}
	}
	return s, nil
}

func decodeTask(tj taskJSON) (*Task, error) {
	if tj.Name == "" {
		return nil, fmt.Errorf("task name is empty")
	}
	loadType, err := ParseLoadType(tj.LoadType)
	if err != nil {
		return nil, err
	}
	for _, g := range tj.Filter {
		for i, e := range g.Elements {
			op, err := ParseFilterOperator(string(e.Comparison))
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", g.Name, err)
			}
			g.Elements[i].Comparison = op
		}
	}

	t := &Task{
		Name:          tj.Name,
		Description:   tj.Description,
		SourceDataset: tj.SourceDataset,
		TargetDataset: tj.TargetDataset,
		SourceSpace:   tj.SourceSpace,
		TargetSpace:   tj.TargetSpace,
		LoadType:      loadType,
		Truncate:      tj.Truncate,
	}
	if len(tj.Mappings) > 0 {
		t.Mappings = tj.Mappings
	}
	t.filters.setGroups(tj.Filter)
	return t, nil
}
