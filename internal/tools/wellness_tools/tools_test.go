package wellness_tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/intervals-mcp/internal/config"
	"github.com/teemow/intervals-mcp/internal/intervals"
	"github.com/teemow/intervals-mcp/internal/server"
)

func setup(t *testing.T, status int, body string) (*server.ServerContext, *url.URL) {
	t.Helper()
	var last url.URL
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = *r.URL
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)

	sc, err := server.NewServerContext(context.Background(),
		&config.Config{AthleteID: "i1", APIKey: "key"},
		server.WithClient(intervals.NewClient(intervals.Options{BaseURL: ts.URL, APIKey: "key"})))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, &last
}

func run(t *testing.T, sc *server.ServerContext, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := handleGetWellnessData(sc)(context.Background(), req)
	require.NoError(t, err)
	tc, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return tc.Text, result.IsError
}

func TestRegisterWellnessTools(t *testing.T) {
	sc, _ := setup(t, http.StatusOK, `[]`)
	s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))

	require.NoError(t, RegisterWellnessTools(s, sc))
	assert.Contains(t, s.ListTools(), "get_wellness_data")
}

func TestGetWellnessData_DateKeyed(t *testing.T) {
	sc, last := setup(t, http.StatusOK, `{
		"2024-01-02": {"ctl": 50, "restingHR": 48},
		"2024-01-01": {"ctl": 49, "sleepSecs": 27000}
	}`)

	text, isErr := run(t, sc, map[string]any{"start_date": "2024-01-01", "end_date": "2024-01-02"})

	require.False(t, isErr)
	assert.True(t, strings.HasPrefix(text, "Wellness Data:\n\n"))
	assert.Contains(t, text, "Date: 2024-01-01")
	assert.Contains(t, text, "Fitness (CTL): 49")
	assert.Contains(t, text, "Resting HR: 48 bpm")
	assert.Less(t, strings.Index(text, "2024-01-01"), strings.Index(text, "2024-01-02"))

	assert.Equal(t, "/athlete/i1/wellness", last.Path)
	assert.Equal(t, "2024-01-01", last.Query().Get("oldest"))
	assert.Equal(t, "2024-01-02", last.Query().Get("newest"))
}

func TestGetWellnessData_List(t *testing.T) {
	sc, last := setup(t, http.StatusOK, `[{"id": "2024-03-01", "weight": 70}]`)

	text, isErr := run(t, sc, map[string]any{})

	require.False(t, isErr)
	assert.Contains(t, text, "Date: 2024-03-01")
	assert.Contains(t, text, "Weight: 70 kg")

	now := time.Now()
	assert.Equal(t, now.AddDate(0, 0, -30).Format(time.DateOnly), last.Query().Get("oldest"))
	assert.Equal(t, now.Format(time.DateOnly), last.Query().Get("newest"))
}

func TestGetWellnessData_Empty(t *testing.T) {
	sc, _ := setup(t, http.StatusOK, `{}`)

	text, isErr := run(t, sc, map[string]any{})

	assert.False(t, isErr)
	assert.Equal(t, "No wellness data found for athlete i1 in the specified date range.", text)
}

func TestGetWellnessData_Error(t *testing.T) {
	sc, _ := setup(t, http.StatusServiceUnavailable, `{}`)

	text, isErr := run(t, sc, map[string]any{})

	assert.True(t, isErr)
	assert.Equal(t, "Error fetching wellness data: 503 Service Unavailable: The Intervals.icu server might be down or undergoing maintenance.", text)
}
