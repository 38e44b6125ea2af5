package monitoring

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// TaskStatus is the runtime state of a replication task.
type TaskStatus string

const (
	TaskCreated        TaskStatus = "CREATED"
	TaskInitialRunning TaskStatus = "INITIAL_RUNNING"
	TaskDeltaRunning   TaskStatus = "DELTA_RUNNING"
	TaskSuspending     TaskStatus = "SUSPENDING"
	TaskSuspended      TaskStatus = "SUSPENDED"
	TaskRetrying       TaskStatus = "RETRYING"
	TaskCompleted      TaskStatus = "COMPLETED"
	TaskError          TaskStatus = "ERROR"
)

// ParseTaskStatus maps a wire value to a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch v := TaskStatus(s); v {
	case TaskCreated, TaskInitialRunning, TaskDeltaRunning, TaskSuspending,
		TaskSuspended, TaskRetrying, TaskCompleted, TaskError:
		return v, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// TaskMonitor is the runtime state of one replication task.
type TaskMonitor struct {
	Name                       string
	Status                     TaskStatus
	StatusInfo                 string
	Partitions                 []Partition
	NumberOfRecordsTransferred int64
	StartTime                  *time.Time
	LastRuntimeUpdated         *time.Time
	InitialLoadEndTime         *time.Time
}

type taskMonitorJSON struct {
	Name                       string                   `json:"name"`
	Status                     string                   `json:"status"`
	StatusInfo                 string                   `json:"statusInfo"`
	Partitions                 map[string]partitionJSON `json:"partitions"`
	NumberOfRecordsTransferred int64                    `json:"numberOfRecordsTransferred"`
	StartTime                  string                   `json:"startTime"`
	LastRuntimeUpdated         string                   `json:"lastRuntimeUpdated"`
	InitialLoadEndTime         string                   `json:"initialLoadEndTime"`
}

// UnmarshalJSON orders partitions by id.
func (m *TaskMonitor) UnmarshalJSON(data []byte) error {
	var v taskMonitorJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	status, err := ParseTaskStatus(v.Status)
	if err != nil {
		return fmt.Errorf("task %s: %w", v.Name, err)
	}

	out := TaskMonitor{
		Name:                       v.Name,
		Status:                     status,
		StatusInfo:                 v.StatusInfo,
		NumberOfRecordsTransferred: v.NumberOfRecordsTransferred,
	}
	times := []struct {
		field string
		raw   string
		dst   **time.Time
	}{
		{"startTime", v.StartTime, &out.StartTime},
		{"lastRuntimeUpdated", v.LastRuntimeUpdated, &out.LastRuntimeUpdated},
		{"initialLoadEndTime", v.InitialLoadEndTime, &out.InitialLoadEndTime},
	}
	for _, ts := range times {
		if *ts.dst, err = parseTimestamp(ts.raw); err != nil {
			return fmt.Errorf("task %s: %s: %w", v.Name, ts.field, err)
		}
	}

	for id, p := range v.Partitions {
		partition, err := p.partition(id)
		if err != nil {
			return fmt.Errorf("task %s: partition %s: %w", v.Name, id, err)
		}
		out.Partitions = append(out.Partitions, partition)
	}
	slices.SortFunc(out.Partitions, func(a, b Partition) int { return strings.Compare(a.ID, b.ID) })

	*m = out
	return nil
}

// Partition is one unit of transfer of a task. Timestamps the service left
// empty are nil and missing counters are 0.
type Partition struct {
	ID         string
	Status     string
	StatusInfo string

	FirstActivatedAt *time.Time
	LastAccessedAt   *time.Time
	LastRetriedAt    *time.Time
	LastErrorAt      *time.Time
	CompletedAt      *time.Time

	SourceBytes          int64
	SourceRecordCount    int64
	SourceProcessingTime int64 // milliseconds
	TransformBytes       int64
	TransformRecordCount int64
	TargetBytes          int64
	TargetRecordCount    int64
	TargetProcessingTime int64 // milliseconds
}

type partitionJSON struct {
	Status     string `json:"status"`
	StatusInfo string `json:"statusInfo"`
	Metrics    struct {
		FirstActivatedAt     string `json:"firstActivatedAt"`
		LastAccessedAt       string `json:"lastAccessedAt"`
		LastRetriedAt        string `json:"lastRetriedAt"`
		LastErrorAt          string `json:"lastErrorAt"`
		CompletedAt          string `json:"completedAt"`
		SourceBytes          int64  `json:"sourceBytes"`
		SourceRecordCount    int64  `json:"sourceRecordCount"`
		SourceProcessingTime int64  `json:"sourceProcessingTime"`
		TransformBytes       int64  `json:"transformBytes"`
		TransformRecordCount int64  `json:"transformRecordCount"`
		TargetBytes          int64  `json:"targetBytes"`
		TargetRecordCount    int64  `json:"targetRecordCount"`
		TargetProcessingTime int64  `json:"targetProcessingTime"`
	} `json:"partitionMetrics"`
}

func (p partitionJSON) partition(id string) (Partition, error) {
	m := p.Metrics
	out := Partition{
		ID:                   id,
		Status:               p.Status,
		StatusInfo:           p.StatusInfo,
		SourceBytes:          m.SourceBytes,
		SourceRecordCount:    m.SourceRecordCount,
		SourceProcessingTime: m.SourceProcessingTime,
		TransformBytes:       m.TransformBytes,
		TransformRecordCount: m.TransformRecordCount,
		TargetBytes:          m.TargetBytes,
		TargetRecordCount:    m.TargetRecordCount,
		TargetProcessingTime: m.TargetProcessingTime,
	}
	var err error
	for _, ts := range []struct {
		raw string
		dst **time.Time
	}{
		{m.FirstActivatedAt, &out.FirstActivatedAt},
		{m.LastAccessedAt, &out.LastAccessedAt},
		{m.LastRetriedAt, &out.LastRetriedAt},
		{m.LastErrorAt, &out.LastErrorAt},
		{m.CompletedAt, &out.CompletedAt},
	} {
		if *ts.dst, err = parseTimestamp(ts.raw); err != nil {
			return Partition{}, err
		}
	}
	return out, nil
}

// The service writes UTC timestamps without a zone and with up to seven
// fractional digits. Status payloads carry a trailing Z.
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}

func parseTimestamp(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid timestamp %q", s)
}
