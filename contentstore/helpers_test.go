package contentstore_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// pendingCall is a request held by fakeAPI until the test resolves it.
type pendingCall struct {
	path string
	done chan response
}

type response struct {
	body string
	err  error
}

func (p *pendingCall) respond(body string) {
	p.done <- response{body: body}
}

func (p *pendingCall) fail(err error) {
	p.done <- response{err: err}
}

// fakeAPI is a transport whose responses are released by the test, so the
// order in which requests resolve can be controlled. It ignores ctx, like a
// transport that has no cancellation.
type fakeAPI struct {
	calls chan *pendingCall
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(chan *pendingCall, 16)}
}

func (f *fakeAPI) Get(_ context.Context, path string, out any) error {
	call := &pendingCall{path: path, done: make(chan response, 1)}
	f.calls <- call

	r := <-call.done
	if r.err != nil {
		return r.err
	}
	return json.Unmarshal([]byte(r.body), out)
}

func (f *fakeAPI) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a request")
		return nil
	}
}

// async runs fn in a goroutine and returns a channel with its result.
func async(fn func() error) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- fn()
	}()
	return result
}

func wait(t *testing.T, result <-chan error) error {
	t.Helper()
	select {
	case err := <-result:
		return err
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timed out waiting for fetch to return")
		return nil
	}
}
