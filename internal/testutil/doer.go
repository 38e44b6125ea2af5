package testutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// FakeDoer replays queued HTTP responses and records every request.
//
// Responses are consumed in FIFO order. A request with an empty queue fails
// with ErrNoResponse so a test never blocks on a missing response.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FakeDoer struct {
	mu        sync.Mutex
	responses []fakeResponse
	requests  []RecordedRequest
}

// RecordedRequest is a request seen by FakeDoer, with its body read.
type RecordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

type fakeResponse struct {
	status int
	body   string
	err    error
}

// ErrNoResponse is returned when a request arrives and no response is queued.
var ErrNoResponse = errors.New("testutil: no queued response")

// NewFakeDoer creates a FakeDoer with an empty queue.
func NewFakeDoer() *FakeDoer {
	return &FakeDoer{}
}

// Respond queues a response with the given status and body.
func (d *FakeDoer) Respond(status int, body string) *FakeDoer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.responses = append(d.responses, fakeResponse{status: status, body: body})
	return d
}

// RespondJSON queues a 200 response with the given body.
func (d *FakeDoer) RespondJSON(body string) *FakeDoer {
	return d.Respond(http.StatusOK, body)
}

// Fail queues a transport failure.
func (d *FakeDoer) Fail(err error) *FakeDoer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.responses = append(d.responses, fakeResponse{err: err})
	return d
}

// Do implements cluster.Doer.
func (d *FakeDoer) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("testutil: read request body: %w", err)
		}
		body = b
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests = append(d.requests, RecordedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})

	if len(d.responses) == 0 {
		return nil, ErrNoResponse
	}
	next := d.responses[0]
	d.responses = d.responses[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &http.Response{
		StatusCode: next.status,
		Status:     http.StatusText(next.status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(next.body)),
		Request:    req,
	}, nil
}

// Requests returns every recorded request in order.
func (d *FakeDoer) Requests() []RecordedRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]RecordedRequest(nil), d.requests...)
}

// Last returns the most recent request. It panics if there was none.
func (d *FakeDoer) Last() RecordedRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.requests) == 0 {
		panic("testutil: no request recorded")
	}
	return d.requests[len(d.requests)-1]
}

// Pending returns the number of queued responses not yet consumed.
func (d *FakeDoer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.responses)
}
