package store

import (
	"path/filepath"
	"testing"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/testutil"
)

// createTestStore creates a new store in a temporary directory with a fake clock.
func createTestStore(t *testing.T) (*Store, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(clock))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}
