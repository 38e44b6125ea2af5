package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/canonical"
)

// marshalErrors converts run errors to canonical JSON TEXT for storage.
// A nil slice is stored as [].
func marshalErrors(errs []string) (string, error) {
	if errs == nil {
		errs = []string{}
	}
	data, err := canonical.MarshalValue(errs)
	if err != nil {
		return "", fmt.Errorf("marshal errors: %w", err)
	}
	return string(data), nil
}

func unmarshalErrors(data string) ([]string, error) {
	var errs []string
	if err := json.Unmarshal([]byte(data), &errs); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	if len(errs) == 0 {
		return nil, nil
	}
	return errs, nil
}

// marshalPayload stores a poll payload in canonical form so that equal
// payloads compare equal as TEXT.
func marshalPayload(payload json.RawMessage) (string, error) {
	if len(payload) == 0 {
		return "null", nil
	}
	data, err := canonical.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// timeLayout has fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
