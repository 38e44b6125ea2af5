package rms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Status is the state of a change request.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusValidating Status = "VALIDATING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusError      Status = "ERROR"
)

// BusyStatuses is the busy set used by WaitWhileBusy.
var BusyStatuses = []Status{StatusValidating, StatusProcessing}

// ParseStatus maps a wire value to a Status.
func ParseStatus(s string) (Status, error) {
	switch v := Status(s); v {
	case StatusPending, StatusValidating, StatusProcessing, StatusCompleted, StatusError:
		return v, nil
	}
	return "", fmt.Errorf("unknown change request status %q", s)
}

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

func (s Status) in(set []Status) bool {
	return slices.Contains(set, s)
}

// ChangeRequestObject is one object touched by a change request.
type ChangeRequestObject struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ChangeRequestStatus is one poll result. Raw keeps the full payload for
// diagnostics.
type ChangeRequestStatus struct {
	Status             Status
	RequestType        string
	RequestedAt        string
	RequestCompletedAt string
	NewObjects         []ChangeRequestObject
	Raw                json.RawMessage
}

type changeRequestStatusJSON struct {
	Status             string                `json:"status"`
	RequestType        string                `json:"requestType"`
	RequestedAt        string                `json:"requestedAt"`
	RequestCompletedAt string                `json:"requestCompletedAt"`
	NewObjects         []ChangeRequestObject `json:"newObjects"`
}

// ParseChangeRequestStatus decodes a status poll response.
func ParseChangeRequestStatus(data []byte) (*ChangeRequestStatus, error) {
	var v changeRequestStatusJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode change request status: %w", err)
	}
	status, err := ParseStatus(v.Status)
	if err != nil {
		return nil, err
	}
	return &ChangeRequestStatus{
		Status:             status,
		RequestType:        v.RequestType,
		RequestedAt:        v.RequestedAt,
		RequestCompletedAt: v.RequestCompletedAt,
		NewObjects:         v.NewObjects,
		Raw:                append(json.RawMessage(nil), data...),
	}, nil
}

// FailedObjects returns the objects whose status is ERROR.
func (s *ChangeRequestStatus) FailedObjects() []ChangeRequestObject {
	var out []ChangeRequestObject
	for _, o := range s.NewObjects {
		if o.Status == string(StatusError) {
			out = append(out, o)
		}
	}
	return out
}

// String returns the raw payload indented.
func (s *ChangeRequestStatus) String() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, s.Raw, "", "    "); err != nil {
		return string(s.Raw)
	}
	return buf.String()
}
