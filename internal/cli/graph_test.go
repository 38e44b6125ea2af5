package cli

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/graph"
)

const graphHandle = "4f1d2e6c8a9b4c0d9e1f2a3b4c5d6e7f"

func graphBody(status graph.Status) string {
	return `{"handle":"` + graphHandle + `","src":"qa.slt.reader","name":"slt","status":"` + string(status) + `",` +
		`"configurationSubstitutions":{"MT_ID":"73H"}}`
}

func TestGraphRun(t *testing.T) {
	env := newTestEnv(t)
	env.login().RespondJSON(graphBody(graph.StatusPending))

	out, err := env.execute("graph", "run", "qa.slt.reader", "--name", "slt", "--set", "MT_ID=73H", "--snapshot-period", "30")
	require.NoError(t, err)
	assert.Equal(t, graphHandle+"\tpending\tqa.slt.reader\n", out)

	var body map[string]any
	require.NoError(t, json.Unmarshal(env.doer.Last().Body, &body))
	assert.Equal(t, "slt", body["name"])
	assert.Equal(t, map[string]any{"MT_ID": "73H"}, body["configurationSubstitutions"])
	assert.Equal(t, map[string]any{"enabled": true, "periodSeconds": float64(30)}, body["snapshotConfig"])
}

func TestGraphRunWait(t *testing.T) {
	env := newTestEnv(t)
	env.login().
		RespondJSON(graphBody(graph.StatusPending)).
		RespondJSON(graphBody(graph.StatusRunning)).
		RespondJSON(graphBody(graph.StatusCompleted))

	out, err := env.execute("--format", "json", "graph", "run", "qa.slt.reader", "--wait")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "completed", resp.Data.(map[string]any)["status"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(env.doer.Requests()[1].Body, &body))
	assert.Equal(t, "qa.slt.reader", body["name"])
}

func TestGraphRunDead(t *testing.T) {
	env := newTestEnv(t)
	env.login().
		RespondJSON(graphBody(graph.StatusPending)).
		RespondJSON(graphBody(graph.StatusDead))

	out, err := env.execute("graph", "run", "qa.slt.reader", "--wait")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "error: graph "+graphHandle+" ended dead")
}

func TestGraphRunStillRunning(t *testing.T) {
	env := newTestEnv(t)
	env.login().RespondJSON(graphBody(graph.StatusPending))
	for range 3 {
		env.doer.RespondJSON(graphBody(graph.StatusRunning))
	}

	_, err := env.execute("graph", "run", "qa.slt.reader", "--wait")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "still running")
}

func TestGraphRunRejected(t *testing.T) {
	env := newTestEnv(t)
	env.login().Respond(http.StatusNotFound, "")

	out, err := env.execute("graph", "run", "qa.slt.missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "failed to run graph qa.slt.missing")
}

func TestGraphStatus(t *testing.T) {
	env := newTestEnv(t)
	env.login().RespondJSON(graphBody(graph.StatusRunning))

	out, err := env.execute("graph", "status", graphHandle)
	require.NoError(t, err)
	assert.Equal(t, graphHandle+"\trunning\tqa.slt.reader\n", out)

	env.login().RespondJSON(`[` + graphBody(graph.StatusCompleted) + `]`)
	out, err = env.execute("graph", "status", "--name", "slt")
	require.NoError(t, err)
	assert.Equal(t, graphHandle+"\tcompleted\tqa.slt.reader\n", out)
	assert.Equal(t, "https://cluster"+graph.QueryPath, env.doer.Last().URL)
}

func TestGraphStatusErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.execute("graph", "status")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	_, err = env.execute("graph", "status", graphHandle, "--name", "slt")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, env.doer.Requests())

	env.login().RespondJSON(`[]`)
	out, err := env.execute("graph", "status", "--name", "missing")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "graph not found")
}

func TestGraphMassTransferID(t *testing.T) {
	env := newTestEnv(t)
	env.login().RespondJSON(graphBody(graph.StatusRunning))

	out, err := env.execute("graph", "mtid", graphHandle)
	require.NoError(t, err)
	assert.Equal(t, "73H\n", out)

	env.login().RespondJSON(graphBody(graph.StatusRunning))
	out, err = env.execute("--format", "json", "graph", "mtid", graphHandle)
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "73H", resp.Data.(map[string]any)["massTransferId"])

	env.login().Respond(http.StatusNotFound, "")
	out, err = env.execute("graph", "mtid", graphHandle)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "graph "+graphHandle+" not found")

	env.login().RespondJSON(`{"handle":"` + graphHandle + `","configurationSubstitutions":{}}`)
	out, err = env.execute("graph", "mtid", graphHandle)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "has no MT_ID substitution")
}
