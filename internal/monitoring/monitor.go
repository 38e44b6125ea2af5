package monitoring

import "fmt"

// ReplicationMonitor is the runtime summary of one replication flow.
// Status is empty for flows that never ran.
type ReplicationMonitor struct {
	Name        string       `json:"name"`
	Status      string       `json:"status"`
	TaskMetrics *TaskMetrics `json:"taskMetrics"`
}

func (m ReplicationMonitor) String() string {
	metrics := "None"
	if m.TaskMetrics != nil {
		metrics = m.TaskMetrics.String()
	}
	status := m.Status
	if status == "" {
		status = "None"
	}
	return fmt.Sprintf("%s:\t%s - %s", m.Name, status, metrics)
}

// TaskMetrics counts the tasks of a flow per state. Missing counters are 0.
type TaskMetrics struct {
	Total            int `json:"total"`
	Completed        int `json:"completed"`
	Error            int `json:"error"`
	InitialCompleted int `json:"initialCompleted"`
	Created          int `json:"created"`
}

func (m TaskMetrics) String() string {
	return fmt.Sprintf("Total:\t%d, Error:\t%d, Completed:\t%d, Initial completed:\t%d, Created:\t%d",
		m.Total, m.Error, m.Completed, m.InitialCompleted, m.Created)
}
