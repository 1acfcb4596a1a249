package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suar-net/suar-reactive/internal/codec"
	"github.com/suar-net/suar-reactive/internal/model"
	"github.com/suar-net/suar-reactive/internal/reactive"
)

type stubResponse struct {
	status      int
	contentType string
	body        string
	bodyErr     error
}

func (r *stubResponse) StatusCode() int { return r.status }

func (r *stubResponse) Header(name string) string {
	if name == "Content-Type" {
		return r.contentType
	}
	return ""
}

func (r *stubResponse) Body() ([]byte, error) { return []byte(r.body), r.bodyErr }

func respond(status int, contentType, body string) Transport {
	return TransportFunc(func(ctx context.Context, url string, d Descriptor) (Response, error) {
		return &stubResponse{status: status, contentType: contentType, body: body}, nil
	})
}

type networkError struct{ msg string }

func (e *networkError) Error() string { return "network error: " + e.msg }

func newController(cfg model.RequestConfig, transport Transport, opts ...ControllerOption) *RequestController {
	return NewRequestController(context.Background(), reactive.Static(cfg), transport, opts...)
}

func TestExecuteHTTPErrorPopulatesDataAndError(t *testing.T) {
	c := newController(model.RequestConfig{URL: "http://api.test/x"}, respond(404, "application/json", `{"message":"nf"}`))

	out := c.Execute(context.Background(), nil)

	wantData := map[string]any{"message": "nf"}
	assert.Equal(t, 404, c.Status.Read())
	assert.Equal(t, wantData, c.Data.Read())
	if diff := cmp.Diff(&model.HTTPError{Status: 404, Data: wantData}, c.Error.Read()); diff != "" {
		t.Errorf("error mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, c.IsSuccess.Read())
	assert.True(t, c.IsError.Read())
	assert.True(t, c.IsReady.Read())
	assert.False(t, c.IsLoading.Read())

	assert.Equal(t, 404, out.Status)
	assert.Equal(t, wantData, out.Data)
	var httpErr *model.HTTPError
	require.ErrorAs(t, out.Error, &httpErr)
	assert.Equal(t, 404, httpErr.Status)
}

func TestExecuteSuccess(t *testing.T) {
	c := newController(model.RequestConfig{URL: "http://api.test/x"}, respond(200, "text/plain", "pong"))

	assert.False(t, c.IsReady.Read(), "not ready before the first execution")

	out := c.Execute(context.Background(), nil)

	assert.Equal(t, model.Outcome{Data: "pong", Status: 200}, out)
	assert.True(t, c.IsSuccess.Read())
	assert.False(t, c.IsError.Read())
	assert.True(t, c.IsReady.Read())
}

func TestExecuteTransportFailure(t *testing.T) {
	fail := false
	thrown := &networkError{msg: "timeout"}
	transport := TransportFunc(func(ctx context.Context, url string, d Descriptor) (Response, error) {
		if fail {
			return nil, thrown
		}
		return &stubResponse{status: 200, contentType: "application/json", body: `{"ok":true}`}, nil
	})
	c := newController(model.RequestConfig{URL: "http://api.test/x"}, transport)

	c.Execute(context.Background(), nil)
	require.True(t, c.IsSuccess.Read())

	fail = true
	out := c.Execute(context.Background(), nil)

	assert.Same(t, thrown, c.Error.Read())
	assert.Same(t, thrown, out.Error)
	assert.False(t, c.IsLoading.Read())
	assert.Equal(t, map[string]any{"ok": true}, c.Data.Read(), "data keeps the previous value")
	assert.Equal(t, 0, c.Status.Read(), "status stays cleared")
	assert.True(t, c.IsError.Read())
	assert.False(t, c.IsReady.Read())
}

func TestExecuteTransportPanic(t *testing.T) {
	boom := errors.New("boom")
	c := newController(model.RequestConfig{URL: "http://api.test/x"}, TransportFunc(func(ctx context.Context, url string, d Descriptor) (Response, error) {
		panic(boom)
	}))

	out := c.Execute(context.Background(), nil)

	assert.Same(t, boom, out.Error)
	assert.False(t, c.IsLoading.Read())
}

func TestExecuteBodyReadAndParseFailures(t *testing.T) {
	readErr := errors.New("connection reset")
	c := newController(model.RequestConfig{URL: "http://api.test/x"}, TransportFunc(func(ctx context.Context, url string, d Descriptor) (Response, error) {
		return &stubResponse{status: 200, bodyErr: readErr}, nil
	}))
	out := c.Execute(context.Background(), nil)
	assert.Same(t, readErr, out.Error)
	assert.Equal(t, 200, out.Status, "status is set before the body is read")

	c = newController(model.RequestConfig{URL: "http://api.test/x"}, respond(200, "application/json", `{"broken"`))
	out = c.Execute(context.Background(), nil)
	assert.ErrorContains(t, out.Error, "decode json response")
	assert.Nil(t, out.Data)
}

func TestExecuteMissingURL(t *testing.T) {
	called := false
	c := newController(model.RequestConfig{}, TransportFunc(func(ctx context.Context, url string, d Descriptor) (Response, error) {
		called = true
		return nil, nil
	}))

	out := c.Execute(context.Background(), nil)

	assert.ErrorIs(t, out.Error, ErrMissingURL)
	assert.False(t, called)
	assert.False(t, c.IsLoading.Read())
}

func TestExecuteBuildsURLAndBody(t *testing.T) {
	var gotURL string
	var gotDesc Descriptor
	transport := TransportFunc(func(ctx context.Context, url string, d Descriptor) (Response, error) {
		gotURL = url
		gotDesc = d
		return &stubResponse{status: 201}, nil
	})
	c := newController(model.RequestConfig{
		URL:     "http://api.test/users?v=1",
		Method:  model.MethodPost,
		Headers: map[string]string{"X-Trace": "abc"},
		Query:   map[string]any{"dry": true, "skip": nil},
		Body:    map[string]any{"name": "ada"},
	}, transport)

	c.Execute(context.Background(), nil)

	assert.Equal(t, "http://api.test/users?v=1&dry=true", gotURL)
	assert.Equal(t, model.MethodPost, gotDesc.Method)
	assert.Equal(t, map[string]string{"X-Trace": "abc", "Content-Type": "application/json"}, gotDesc.Headers)
	require.NotNil(t, gotDesc.Body)
	assert.JSONEq(t, `{"name":"ada"}`, string(gotDesc.Body.Content))
}

func TestExecuteReusesFormDataBody(t *testing.T) {
	fd := codec.NewFormData()
	require.NoError(t, fd.AddField("name", "ada"))

	var bodies [][]byte
	transport := TransportFunc(func(ctx context.Context, url string, d Descriptor) (Response, error) {
		require.NotNil(t, d.Body)
		bodies = append(bodies, d.Body.Content)
		return &stubResponse{status: 204}, nil
	})
	c := newController(model.RequestConfig{URL: "http://api.test/upload", Method: model.MethodPost, Body: fd}, transport)

	c.Execute(context.Background(), nil)
	c.Execute(context.Background(), nil)

	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
	assert.NoError(t, c.Error.Read())
}

func TestExecuteOverrideAndReactiveConfig(t *testing.T) {
	var urls []string
	var methods []model.Method
	transport := TransportFunc(func(ctx context.Context, url string, d Descriptor) (Response, error) {
		urls = append(urls, url)
		methods = append(methods, d.Method)
		return &stubResponse{status: 204}, nil
	})

	cfg := reactive.NewCell(model.RequestConfig{URL: "http://api.test/a", Query: map[string]any{"p": 1}})
	c := NewRequestController(context.Background(), cfg, transport)

	c.Execute(context.Background(), nil)

	method := model.MethodDelete
	c.Execute(context.Background(), &model.RequestOverride{Method: &method, Query: map[string]any{"q": "x"}})

	cfg.Write(model.RequestConfig{URL: "http://api.test/b"})
	c.Execute(context.Background(), nil)

	assert.Equal(t, []string{"http://api.test/a?p=1", "http://api.test/a?q=x", "http://api.test/b"}, urls)
	assert.Equal(t, []model.Method{model.MethodGet, model.MethodDelete, model.MethodGet}, methods)
}

func TestExecuteLoadingDuringCall(t *testing.T) {
	var c *RequestController
	var loadingInside bool
	c = newController(model.RequestConfig{URL: "http://api.test/x"}, TransportFunc(func(ctx context.Context, url string, d Descriptor) (Response, error) {
		loadingInside = c.IsLoading.Read()
		assert.Nil(t, c.Error.Read())
		assert.Equal(t, 0, c.Status.Read())
		return &stubResponse{status: 200}, nil
	}))

	c.Execute(context.Background(), nil)

	assert.True(t, loadingInside)
	assert.False(t, c.IsLoading.Read())
}

func TestImmediateExecutesOnce(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{}, 1)
	transport := TransportFunc(func(ctx context.Context, url string, d Descriptor) (Response, error) {
		calls.Add(1)
		done <- struct{}{}
		return &stubResponse{status: 200}, nil
	})

	c := newController(model.RequestConfig{URL: "/x", Immediate: true}, transport)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("immediate execution did not run")
	}
	require.Eventually(t, func() bool { return c.IsReady.Read() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	lazy := newController(model.RequestConfig{URL: "/x"}, transport)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, lazy.IsReady.Read())
}

// overlapping starts a slow call to /slow, completes a fast call to /fast
// while the slow one is in flight, then lets the slow one finish.
func overlapping(t *testing.T, opts ...ControllerOption) *RequestController {
	t.Helper()
	entered := make(chan struct{})
	release := make(chan struct{})
	transport := TransportFunc(func(ctx context.Context, url string, d Descriptor) (Response, error) {
		if url == "/slow" {
			close(entered)
			<-release
			return &stubResponse{status: 200, body: "slow"}, nil
		}
		return &stubResponse{status: 200, body: "fast"}, nil
	})
	c := newController(model.RequestConfig{URL: "/fast"}, transport, opts...)

	slow := "/slow"
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Execute(context.Background(), &model.RequestOverride{URL: &slow})
	}()
	<-entered

	c.Execute(context.Background(), nil)
	close(release)
	wg.Wait()
	return c
}

func TestOverlappingCallsLastWriteWins(t *testing.T) {
	c := overlapping(t)
	assert.Equal(t, "slow", c.Data.Read())
	assert.False(t, c.IsLoading.Read())
}

func TestOverlappingCallsWithStaleGuard(t *testing.T) {
	c := overlapping(t, WithStaleGuard())
	assert.Equal(t, "fast", c.Data.Read())
	assert.False(t, c.IsLoading.Read())
}

func TestCancellationIsATransportFailure(t *testing.T) {
	c := newController(model.RequestConfig{URL: "http://api.test/x"}, TransportFunc(func(ctx context.Context, url string, d Descriptor) (Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := c.Execute(ctx, nil)

	assert.ErrorIs(t, out.Error, context.Canceled)
	assert.False(t, c.IsLoading.Read())
}

type recorderFunc func(ctx context.Context, e Execution)

func (f recorderFunc) Record(ctx context.Context, e Execution) { f(ctx, e) }

func TestRecordersSeeEachExecution(t *testing.T) {
	var got []Execution
	var loadingDuringRecord []bool
	var c *RequestController
	c = newController(model.RequestConfig{URL: "http://api.test/x", Query: map[string]any{"a": 1}},
		respond(500, "application/json", `{"err":"x"}`),
		WithRecorder(recorderFunc(func(ctx context.Context, e Execution) {
			got = append(got, e)
			loadingDuringRecord = append(loadingDuringRecord, c.IsLoading.Read())
		})),
	)

	c.Execute(context.Background(), nil)

	require.Len(t, got, 1)
	assert.Equal(t, "http://api.test/x?a=1", got[0].URL)
	assert.Equal(t, model.MethodGet, got[0].Config.Method)
	assert.Equal(t, 500, got[0].Outcome.Status)
	assert.Error(t, got[0].Outcome.Error)
	assert.Equal(t, []bool{false}, loadingDuringRecord)
	assert.False(t, got[0].Started.IsZero())
}
