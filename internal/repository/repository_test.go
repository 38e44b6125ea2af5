package repository

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/cluster"
	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/testutil"
)

func newTestRepository(t *testing.T) (*Repository, *testutil.FakeDoer) {
	t.Helper()
	doer := testutil.NewFakeDoer()
	c, err := cluster.New(cluster.ConnectionData{Name: "POD-INT", BaseURL: "https://cluster"}, cluster.WithDoer(doer))
	require.NoError(t, err)
	return New(c), doer
}

func TestOperationsURLs(t *testing.T) {
	repo, doer := newTestRepository(t)
	doer.Respond(200, "").Respond(200, "").Respond(200, "").Respond(200, "filecontent")
	ctx := context.Background()

	_, err := repo.Stat(ctx, "user", "files/rms/R.replication")
	require.NoError(t, err)
	assert.Equal(t, "https://cluster/repository/v2/files/user/files/rms/R.replication?op=stat", doer.Last().URL)

	require.NoError(t, repo.Write(ctx, "user", "files/rms/R.replication", []byte("filecontent")))
	assert.Equal(t, http.MethodPost, doer.Last().Method)
	assert.Equal(t, "https://cluster/repository/v2/files/user/files/rms/R.replication?op=write", doer.Last().URL)
	assert.Equal(t, "filecontent", string(doer.Last().Body))

	require.NoError(t, repo.Remove(ctx, "user", "files/rms/R.replication"))
	assert.Equal(t, http.MethodDelete, doer.Last().Method)
	assert.Equal(t, "https://cluster/repository/v2/files/user/files/rms/R.replication?op=remove", doer.Last().URL)

	content, err := repo.Read(ctx, "user", "files/rms/R.replication")
	require.NoError(t, err)
	assert.Equal(t, "filecontent", string(content))
	assert.Equal(t, "https://cluster/repository/v2/files/user/files/rms/R.replication?op=read", doer.Last().URL)
}

func TestExists(t *testing.T) {
	repo, doer := newTestRepository(t)
	doer.Respond(200, "").Respond(404, "")

	exists, err := repo.Exists(context.Background(), "spacetype", "path")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(context.Background(), "spacetype", "path")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReadMissing(t *testing.T) {
	repo, doer := newTestRepository(t)
	doer.Respond(404, "")

	_, err := repo.Read(context.Background(), "user", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteRejected(t *testing.T) {
	repo, doer := newTestRepository(t)
	doer.Respond(403, "forbidden")

	err := repo.Write(context.Background(), "user", "p", []byte("x"))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 403, statusErr.StatusCode)
	assert.Equal(t, "forbidden", statusErr.Body)
}
