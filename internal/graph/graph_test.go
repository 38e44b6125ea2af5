package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/cluster"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/testutil"
)

const (
	sltSrc    = "qa.slt.slt_reader_initial_load"
	sltHandle = "4f1d2e6c8a9b4c0d9e1f2a3b4c5d6e7f"
)

func newTestClient(t *testing.T, opts ...Option) (*Client, *testutil.FakeDoer) {
	t.Helper()
	doer := testutil.NewFakeDoer()
	c, err := cluster.New(cluster.ConnectionData{Name: "POD-INT", BaseURL: "https://cluster"}, cluster.WithDoer(doer))
	require.NoError(t, err)
	opts = append([]Option{WithPollInterval(0)}, opts...)
	return New(c, opts...), doer
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func instanceBody(status Status) string {
	return `{"handle":"` + sltHandle + `","src":"` + sltSrc + `","status":"` + string(status) + `"}`
}

func TestRun(t *testing.T) {
	client, doer := newTestClient(t)
	doer.RespondJSON(fixture(t, "run_accepted.json"))

	g, err := client.Run(context.Background(), sltSrc, "slt_initial", RunOptions{
		Substitutions: map[string]string{"MT_ID": "73H", "TABLENAME": "SNWD_SO"},
		Snapshot:      SnapshotConfig{Enabled: true, PeriodSeconds: 30},
	})
	require.NoError(t, err)
	assert.Equal(t, sltSrc, g.Src())
	assert.Equal(t, sltHandle, g.Handle())
	assert.Equal(t, StatusPending, g.Status())
	require.NotNil(t, g.Instance())
	assert.Equal(t, "SNWD_SO", g.Instance().ConfigurationSubstitutions["TABLENAME"])

	last := doer.Last()
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "https://cluster/app/pipeline-modeler/service/v1/runtime/graphs", last.URL)
	assert.JSONEq(t, `{
		"src": "qa.slt.slt_reader_initial_load",
		"name": "slt_initial",
		"traceLevel": "DEBUG",
		"snapshotConfig": {"enabled": true, "periodSeconds": 30},
		"configurationSubstitutions": {"MT_ID": "73H", "TABLENAME": "SNWD_SO"}
	}`, string(last.Body))
}

func TestRunDefaults(t *testing.T) {
	client, doer := newTestClient(t)
	doer.RespondJSON(instanceBody(StatusPending))

	_, err := client.Run(context.Background(), sltSrc, "slt", RunOptions{})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(doer.Last().Body, &body))
	assert.Equal(t, map[string]any{}, body["snapshotConfig"])
	assert.Equal(t, map[string]any{}, body["configurationSubstitutions"])
}

func TestRunRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, ""},
		{"created is not accepted", http.StatusCreated, instanceBody(StatusPending)},
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, doer := newTestClient(t)
			doer.Respond(tt.status, tt.body)

			g, err := client.Run(context.Background(), "qa.cds.pipeline", "cds", RunOptions{})
			assert.Nil(t, g)

			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, "run", reqErr.Op)
			assert.Equal(t, "qa.cds.pipeline", reqErr.Graph)
			assert.Equal(t, tt.status, reqErr.StatusCode)
			assert.Contains(t, err.Error(), "qa.cds.pipeline")
		})
	}
}

func TestRunWithoutHandle(t *testing.T) {
	client, doer := newTestClient(t)
	doer.RespondJSON(`{"status":"pending"}`)

	g, err := client.Run(context.Background(), sltSrc, "slt", RunOptions{})
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrNoHandle)
}

func TestRefresh(t *testing.T) {
	client, doer := newTestClient(t)
	g := client.Graph(sltHandle)
	assert.Empty(t, g.Status())

	doer.RespondJSON(instanceBody(StatusRunning))
	status, err := g.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, status)
	assert.Equal(t, StatusRunning, g.Status())
	assert.Equal(t, sltSrc, g.Src())
	assert.Equal(t, "https://cluster/app/pipeline-modeler/service/v1/runtime/graphs/"+sltHandle, doer.Last().URL)

	doer.Respond(http.StatusNotFound, "")
	_, err = g.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGraphNotFound)
	assert.Empty(t, g.Status())
}

func TestRefreshWithoutHandle(t *testing.T) {
	client, doer := newTestClient(t)

	_, err := client.Graph("").Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoHandle)
	assert.Empty(t, doer.Requests())
}

func TestStatusByName(t *testing.T) {
	client, doer := newTestClient(t)
	doer.RespondJSON(fixture(t, "instances.json"))

	g, err := client.StatusByName(context.Background(), "slt_initial")
	require.NoError(t, err)
	assert.Equal(t, sltHandle, g.Handle())
	assert.Equal(t, StatusRunning, g.Status())
	assert.Equal(t, sltSrc, g.Src())

	last := doer.Last()
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "https://cluster/app/pipeline-modeler/service/v1/runtime/graphsquery", last.URL)
	assert.JSONEq(t, `{"filter":["equal","parent",""],"detailLevel":"graph"}`, string(last.Body))
}

func TestStatusByNameMissing(t *testing.T) {
	client, doer := newTestClient(t)
	doer.RespondJSON(fixture(t, "instances.json")).RespondJSON(`[]`)

	_, err := client.StatusByName(context.Background(), "other")
	assert.ErrorIs(t, err, ErrGraphNotFound)

	_, err = client.StatusByName(context.Background(), "slt_initial")
	assert.ErrorIs(t, err, ErrGraphNotFound)
}

func TestStatusByNameRejected(t *testing.T) {
	client, doer := newTestClient(t)
	doer.Respond(http.StatusInternalServerError, "")

	_, err := client.StatusByName(context.Background(), "slt_initial")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "query", reqErr.Op)
	assert.NotErrorIs(t, err, ErrGraphNotFound)
}

func TestMassTransferID(t *testing.T) {
	client, doer := newTestClient(t)
	g := client.Graph(sltHandle)

	doer.RespondJSON(`{"handle":"` + sltHandle + `","configurationSubstitutions":{"MT_ID":"5BV"}}`)
	id, err := g.MassTransferID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5BV", id)

	doer.RespondJSON(`{"handle":"` + sltHandle + `","configurationSubstitutions":{"MTID":"73H"}}`)
	_, err = g.MassTransferID(context.Background())
	assert.ErrorIs(t, err, ErrNoMassTransferID)

	doer.Respond(http.StatusNotFound, "")
	_, err = g.MassTransferID(context.Background())
	assert.ErrorIs(t, err, ErrGraphNotFound)
	assert.Contains(t, err.Error(), sltHandle)
}

func TestWait(t *testing.T) {
	client, doer := newTestClient(t)
	doer.RespondJSON(instanceBody(StatusPending)).
		RespondJSON(instanceBody(StatusRunning)).
		RespondJSON(instanceBody(StatusCompleted))

	status, err := client.Graph(sltHandle).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	assert.Len(t, doer.Requests(), 3)
}

func TestWaitDead(t *testing.T) {
	client, doer := newTestClient(t)
	doer.RespondJSON(instanceBody(StatusDead))

	status, err := client.Graph(sltHandle).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusDead, status)
	assert.False(t, status.Active())
}

func TestWaitTimeout(t *testing.T) {
	client, doer := newTestClient(t, WithMaxAttempts(2))
	doer.RespondJSON(instanceBody(StatusRunning)).RespondJSON(instanceBody(StatusRunning))

	status, err := client.Graph(sltHandle).Wait(context.Background())
	assert.Equal(t, StatusRunning, status)
	assert.ErrorIs(t, err, ErrWaitTimeout)

	var timeout *WaitTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 2, timeout.Attempts)
	assert.Equal(t, 0, doer.Pending())
}

func TestWaitCancelled(t *testing.T) {
	client, doer := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Graph(sltHandle).Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, doer.Requests())
}

func TestStatusActive(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusRunning, StatusStopping} {
		assert.True(t, s.Active(), s)
	}
	for _, s := range []Status{StatusCompleted, StatusDead, ""} {
		assert.False(t, s.Active(), s)
	}
}
