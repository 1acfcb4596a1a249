package service

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suar-net/suar-reactive/internal/codec"
	"github.com/suar-net/suar-reactive/internal/config"
	"github.com/suar-net/suar-reactive/internal/model"
	"github.com/suar-net/suar-reactive/internal/reactive"
)

// newTestTransport allows private targets since httptest listens on loopback.
func newTestTransport(t *testing.T, cfg config.TransportConfig) *HTTPTransport {
	t.Helper()
	cfg.AllowPrivateTargets = true
	tr, err := NewHTTPTransport(cfg)
	require.NoError(t, err)
	return tr
}

func TestHTTPTransportDo(t *testing.T) {
	var gotMethod, gotBody, gotContentType, gotTrace string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotTrace = r.Header.Get("X-Trace")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, config.TransportConfig{})
	resp, err := tr.Do(context.Background(), srv.URL+"/users", Descriptor{
		Method:  "post",
		Headers: map[string]string{"X-Trace": "abc", "Content-Type": "application/json"},
		Body:    &codec.Body{Content: []byte(`{"name":"ada"}`)},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, `{"name":"ada"}`, gotBody)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "abc", gotTrace)

	assert.Equal(t, http.StatusCreated, resp.StatusCode())
	assert.Equal(t, "application/json", resp.Header("content-type"))
	body, err := resp.Body()
	require.NoError(t, err)
	assert.Equal(t, `{"id":7}`, string(body))
}

func TestHTTPTransportFormData(t *testing.T) {
	var gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		gotName = r.FormValue("name")
	}))
	defer srv.Close()

	fd := codec.NewFormData()
	require.NoError(t, fd.AddField("name", "ada"))
	body, headers, err := codec.ResolveBody(fd, nil)
	require.NoError(t, err)

	tr := newTestTransport(t, config.TransportConfig{})
	_, err = tr.Do(context.Background(), srv.URL, Descriptor{Method: model.MethodPost, Headers: headers, Body: body})
	require.NoError(t, err)
	assert.Equal(t, "ada", gotName)
}

func TestHTTPTransportBaseURLAndCredentials(t *testing.T) {
	var cookies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
			return
		}
		c, err := r.Cookie("session")
		if err != nil {
			cookies = append(cookies, "")
			return
		}
		cookies = append(cookies, c.Value)
	}))
	defer srv.Close()

	tr := newTestTransport(t, config.TransportConfig{BaseURL: srv.URL})
	ctx := context.Background()

	_, err := tr.Do(ctx, "/login", Descriptor{Credentials: model.CredentialsInclude})
	require.NoError(t, err)

	for _, mode := range []model.Credentials{"", model.CredentialsSameOrigin, model.CredentialsInclude, model.CredentialsOmit} {
		_, err = tr.Do(ctx, "/me", Descriptor{Credentials: mode})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"s1", "s1", "s1", ""}, cookies)
}

func TestHTTPTransportErrors(t *testing.T) {
	t.Run("invalid scheme", func(t *testing.T) {
		tr := newTestTransport(t, config.TransportConfig{})
		_, err := tr.Do(context.Background(), "ftp://example.com", Descriptor{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unsupported method", func(t *testing.T) {
		tr := newTestTransport(t, config.TransportConfig{})
		_, err := tr.Do(context.Background(), "http://example.com", Descriptor{Method: "BREW"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("response too large", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(strings.Repeat("x", 64)))
		}))
		defer srv.Close()

		tr := newTestTransport(t, config.TransportConfig{MaxResponseBodySize: 16})
		_, err := tr.Do(context.Background(), srv.URL, Descriptor{})
		assert.ErrorIs(t, err, ErrResponseTooLarge)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		tr := newTestTransport(t, config.TransportConfig{RequestTimeout: 20 * time.Millisecond})
		_, err := tr.Do(context.Background(), srv.URL, Descriptor{})
		assert.ErrorIs(t, err, ErrRequestTimeout)
	})

	t.Run("caller cancellation is not a timeout", func(t *testing.T) {
		tr := newTestTransport(t, config.TransportConfig{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := tr.Do(ctx, "http://example.com", Descriptor{})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.False(t, errors.Is(err, ErrRequestTimeout))
	})
}

func TestHTTPTransportPrivateTargets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr, err := NewHTTPTransport(config.TransportConfig{})
	require.NoError(t, err)

	for _, target := range []string{srv.URL, "http://10.1.2.3/", "http://192.168.0.1/", "http://169.254.169.254/latest", "http://[::1]/"} {
		t.Run(target, func(t *testing.T) {
			_, err := tr.Do(context.Background(), target, Descriptor{})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	t.Run("redirect to loopback is refused", func(t *testing.T) {
		hop := httptest.NewRequest(http.MethodGet, srv.URL, nil)
		assert.ErrorIs(t, tr.checkRedirect(hop, nil), ErrInvalidInput)
	})

	t.Run("allowed when switched on", func(t *testing.T) {
		resp, err := newTestTransport(t, config.TransportConfig{}).Do(context.Background(), srv.URL, Descriptor{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode())
	})
}

func TestIsPrivateIP(t *testing.T) {
	tests := map[string]bool{
		"127.0.0.1":     true,
		"10.0.0.8":      true,
		"172.16.4.1":    true,
		"172.32.0.1":    false,
		"192.168.1.1":   true,
		"169.254.1.1":   true,
		"0.0.0.0":       true,
		"::1":           true,
		"fd00::1":       true,
		"93.184.216.34": false,
		"2606:4700::1":  false,
	}
	for ip, want := range tests {
		assert.Equal(t, want, isPrivateIP(net.ParseIP(ip)), ip)
	}
}

func TestControllerOverHTTPTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"nf","path":"` + r.URL.RequestURI() + `"}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, config.TransportConfig{BaseURL: srv.URL})
	c := NewRequestController(context.Background(), reactive.Static(model.RequestConfig{
		URL:   "/items",
		Query: map[string]any{"id": 3},
	}), tr)

	out := c.Execute(context.Background(), nil)

	assert.Equal(t, 404, out.Status)
	assert.Equal(t, map[string]any{"message": "nf", "path": "/items?id=3"}, out.Data)
	assert.True(t, c.IsError.Read())
}
