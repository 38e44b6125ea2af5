package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/testutil"
)

// environment lists the variables that would leak host settings into a test.
var environment = []string{
	"VSYSTEM_ENDPOINT", "VORA_USERNAME", "VORA_PASSWORD", "VORA_TENANT", "TABLE_SUFFIX",
	"DIQA_CLUSTER_NAME", "DIQA_CLUSTER_ENDPOINT", "DIQA_CLUSTER_USER", "DIQA_CLUSTER_PASSWORD",
	"DIQA_CLUSTER_TENANT", "DIQA_CLUSTER_TIMEOUT", "DIQA_POLL_INTERVAL", "DIQA_POLL_MAX_ATTEMPTS",
	"DIQA_STORE_PATH", "DIQA_REPOSITORY_BACKEND", "DIQA_REPOSITORY_SPACE", "DIQA_TABLE_SUFFIX",
}

// testEnv is a temporary working area with a config file for a local backend.
type testEnv struct {
	dir    string
	config string
	db     string
	doer   *testutil.FakeDoer
	opts   *RootOptions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, name := range environment {
		t.Setenv(name, "")
	}

	db := filepath.Join(dir, "diqa.db")
	config := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"cluster:",
		"  name: POD-INT",
		"  endpoint: https://cluster",
		"  user: tester",
		"  password: secret",
		"poll:",
		"  interval: 0s",
		"  max_attempts: 3",
		"store:",
		"  path: " + db,
		"repository:",
		"  backend: local",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(config, []byte(content), 0o644))

	doer := testutil.NewFakeDoer()
	return &testEnv{
		dir:    dir,
		config: config,
		db:     db,
		doer:   doer,
		opts:   &RootOptions{Doer: doer, IDs: testutil.NewFixedIDs("run-0001", "run-0002")},
	}
}

// execute runs the CLI with the env's config and returns stdout.
func (e *testEnv) execute(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCommand(e.opts)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// login queues a successful login.
func (e *testEnv) login() *testutil.FakeDoer {
	return e.doer.RespondJSON(`{}`)
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "diqa", cmd.Use)
	assert.Contains(t, cmd.Long, "VSYSTEM_ENDPOINT")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "run", "open", "undeploy", "monitor", "history", "graph", "documents"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	dbFlag := runCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)

	filterFlag := runCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
	assert.Equal(t, "", filterFlag.DefValue)
}

func TestHistoryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	historyCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)

	limitFlag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "20", limitFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.execute("--format", "xml", "monitor")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Empty(t, env.doer.Requests())
}

func TestClusterNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.config, []byte("cluster:\n  endpoint: https://cluster\n"), 0o644))

	out, err := env.execute("monitor")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]: cluster is not configured")
	assert.Contains(t, err.Error(), "cluster.user, cluster.password")
	assert.Empty(t, env.doer.Requests())
}

func TestLoginFailed(t *testing.T) {
	env := newTestEnv(t)
	env.doer.Respond(401, `{"message": "invalid credentials"}`)

	out, err := env.execute("monitor")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]: login failed")
}
