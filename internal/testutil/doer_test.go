package testutil

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeDoer_ReplaysInOrder(t *testing.T) {
	d := NewFakeDoer().Respond(202, `{"url":"/x"}`).Respond(404, "")

	req, err := http.NewRequest(http.MethodPost, "https://cluster/a", strings.NewReader("payload"))
	require.NoError(t, err)

	resp, err := d.Do(req)
	require.NoError(t, err)
	assert.Equal(t, 202, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"url":"/x"}`, string(body))

	resp, err = d.Do(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	assert.Equal(t, 0, d.Pending())
	assert.Len(t, d.Requests(), 2)
	assert.Equal(t, "https://cluster/a", d.Last().URL)
	assert.Equal(t, "payload", string(d.Requests()[0].Body))
}

func TestFakeDoer_EmptyQueue(t *testing.T) {
	d := NewFakeDoer()
	req, err := http.NewRequest(http.MethodGet, "https://cluster/a", http.NoBody)
	require.NoError(t, err)

	_, err = d.Do(req)
	assert.ErrorIs(t, err, ErrNoResponse)
	assert.Equal(t, http.MethodGet, d.Last().Method)
}

func TestFakeDoer_Fail(t *testing.T) {
	boom := errors.New("boom")
	d := NewFakeDoer().Fail(boom)
	req, err := http.NewRequest(http.MethodGet, "https://cluster/a", http.NoBody)
	require.NoError(t, err)

	_, err = d.Do(req)
	assert.ErrorIs(t, err, boom)
}
