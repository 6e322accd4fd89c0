package intervals

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type recordedRequest struct {
	resource string
	method   string
	status   string
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeRecorder) RecordIntervalsRequest(_ context.Context, resource, method, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{resource: resource, method: method, status: status})
}

func newTestClient(t *testing.T, baseURL, apiKey string) *Client {
	t.Helper()
	c := NewClient(Options{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Timeout: 5 * time.Second,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDo_MissingAPIKeyMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	data, err := c.Get(context.Background(), "/athlete/1/events", "", nil)

	require.Error(t, err)
	assert.Nil(t, data)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindConfig, apiErr.Kind)
	assert.Equal(t, MissingAPIKeyMessage, apiErr.Message)
	assert.Equal(t, int32(0), hits.Load())
}

func TestDo_AuthAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "API_KEY", user)
		assert.Equal(t, "call-key", pass)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		assert.Equal(t, "/athlete/i42/events", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("oldest"))
		assert.Equal(t, "2024-01-31", r.URL.Query().Get("newest"))
		_, _ = w.Write([]byte(`[{"id": 1, "name": "Ride"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "default-key")
	data, err := c.Get(context.Background(), "/athlete/i42/events", "call-key", map[string]string{
		"oldest": "2024-01-01",
		"newest": "2024-01-31",
	})

	require.NoError(t, err)
	events, ok := data.([]any)
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, "Ride", events[0].(map[string]any)["name"])
}

func TestDo_DefaultAPIKeyIsUsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pass, _ := r.BasicAuth()
		assert.Equal(t, "default-key", pass)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "default-key")
	assert.True(t, c.HasDefaultAPIKey())
	_, err := c.Get(context.Background(), "/athlete/1", "", nil)
	assert.NoError(t, err)
}

func TestDo_PostSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "WORKOUT", body["category"])

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id": 99}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "k")
	data, err := c.Post(context.Background(), "/athlete/1/events", "", map[string]any{"category": "WORKOUT"})

	require.NoError(t, err)
	assert.Equal(t, float64(99), data.(map[string]any)["id"])
}

func TestDo_EmptyBodyIsEmptyObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "k")
	data, err := c.Delete(context.Background(), "/athlete/1/events/5", "")

	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, data)
}

func TestDo_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "unauthorized mentions api key",
			status:      http.StatusUnauthorized,
			body:        `{"status":401}`,
			wantMessage: "401 Unauthorized: Please check your API key.",
		},
		{
			name:        "not found",
			status:      http.StatusNotFound,
			wantMessage: "404 Not Found: The requested endpoint or ID doesn't exist.",
		},
		{
			name:        "rate limited",
			status:      http.StatusTooManyRequests,
			body:        `{}`,
			wantMessage: "429 Too Many Requests: Too many requests in a short time period.",
		},
		{
			name:        "unmapped status falls back to body",
			status:      http.StatusTeapot,
			body:        `"short and stout"`,
			wantMessage: `"short and stout"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL, "k")
			_, err := c.Get(context.Background(), "/athlete/1/activities", "", nil)

			apiErr, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, KindStatus, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

func TestDo_InvalidJSONOnSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "k")
	_, err := c.Get(context.Background(), "/athlete/1/wellness", "", nil)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindDecode, apiErr.Kind)
	assert.Equal(t, InvalidJSONMessage, apiErr.Message)
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, "k")
	_, err := c.Get(context.Background(), "/athlete/1/events", "", nil)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, apiErr.Kind)
	assert.Contains(t, apiErr.Message, "Request error: ")
}

func TestDo_RecreatesClosedConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "k")
	first, err := c.connection()
	require.NoError(t, err)
	first.close()

	data, err := c.Get(context.Background(), "/athlete/1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, true, data.(map[string]any)["ok"])

	current, err := c.connection()
	require.NoError(t, err)
	assert.NotSame(t, first, current)
}

func TestDo_RetriesOnceWhenConnectionClosedInFlight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "e1"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "k")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var created atomic.Int32
	c.newConn = func() *connection {
		n := created.Add(1)
		opts := connectionOptions{timeout: 5 * time.Second, userAgent: DefaultUserAgent, logger: logger}
		if n == 1 {
			opts.transport = roundTripperFunc(func(*http.Request) (*http.Response, error) {
				return nil, ErrConnectionClosed
			})
		}
		return newConnection(opts)
	}

	data, err := c.Get(context.Background(), "/athlete/1/event/e1", "", nil)

	require.NoError(t, err)
	assert.Equal(t, "e1", data.(map[string]any)["id"])
	assert.Equal(t, int32(2), created.Load())
}

func TestDo_SecondClosedFaultSurfaces(t *testing.T) {
	c := newTestClient(t, "http://intervals.invalid", "k")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var created atomic.Int32
	c.newConn = func() *connection {
		created.Add(1)
		return newConnection(connectionOptions{
			timeout: time.Second,
			logger:  logger,
			transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
				return nil, ErrConnectionClosed
			}),
		})
	}

	_, err := c.Get(context.Background(), "/athlete/1", "", nil)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, apiErr.Kind)
	assert.ErrorIs(t, err, ErrConnectionClosed)
	assert.Equal(t, int32(2), created.Load())
}

func TestClose_IsIdempotentAndFinal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "k")
	_, err := c.Get(context.Background(), "/athlete/1", "", nil)
	require.NoError(t, err)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())

	_, err = c.Get(context.Background(), "/athlete/1", "", nil)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, apiErr.Kind)
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDo_RecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	recorder := &fakeRecorder{}
	c := NewClient(Options{
		BaseURL: srv.URL,
		APIKey:  "k",
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: recorder,
	})
	defer c.Close()

	_, err := c.Get(context.Background(), "/athlete/1/activities", "", nil)
	require.NoError(t, err)
	_, err = c.Delete(context.Background(), "/athlete/1/events/7", "")
	require.Error(t, err)

	assert.Equal(t, []recordedRequest{
		{resource: "activities", method: http.MethodGet, status: "success"},
		{resource: "events", method: http.MethodDelete, status: "error"},
	}, recorder.requests)
}

func TestResourceName(t *testing.T) {
	tests := map[string]string{
		"/athlete/1/activities":   "activities",
		"/athlete/i1/events/22":   "events",
		"/athlete/1/event/22":     "event",
		"/athlete/1/wellness":     "wellness",
		"/activity/i55":           "activity",
		"/activity/i55/intervals": "activity_intervals",
		"/activity/i55/streams":   "activity_streams",
		"/":                       "unknown",
	}

	for path, want := range tests {
		assert.Equal(t, want, resourceName(path), path)
	}
}

func TestStatusMessage(t *testing.T) {
	assert.Contains(t, StatusMessage(http.StatusForbidden, ""), "permission")
	assert.Contains(t, StatusMessage(http.StatusUnprocessableEntity, ""), "invalid parameters")
	assert.Contains(t, StatusMessage(http.StatusServiceUnavailable, ""), "maintenance")
	assert.Equal(t, "boom", StatusMessage(http.StatusBadGateway, " boom "))
	assert.Equal(t, "HTTP 502 Bad Gateway", StatusMessage(http.StatusBadGateway, ""))
}
