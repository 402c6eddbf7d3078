package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tennisdata/ingestion/internal/ingest"
	"tennisdata/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDate(t *testing.T) time.Time {
	t.Helper()
	d, err := time.Parse(models.DateLayout, "2024-01-15")
	require.NoError(t, err)
	return d
}

func TestClient_FetchFixtures_RequestShape(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`{"success": 1, "result": []}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret-key", time.Second)
	_, err := c.FetchFixtures(context.Background(), testDate(t), "America/Monterrey")
	require.NoError(t, err)

	assert.Equal(t, "get_fixtures", gotQuery["method"])
	assert.Equal(t, "secret-key", gotQuery["APIkey"])
	assert.Equal(t, "2024-01-15", gotQuery["date_start"])
	assert.Equal(t, "2024-01-15", gotQuery["date_stop"])
	assert.Equal(t, "America/Monterrey", gotQuery["timezone"])
}

func TestClient_FetchFixtures_ParsesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": 1,
			"result": [{"event_key": "7", "event_first_player": "A", "event_second_player": "B"}]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "k", time.Second)
	env, err := c.FetchFixtures(context.Background(), testDate(t), "UTC")
	require.NoError(t, err)

	assert.True(t, env.OK())
	require.Len(t, env.Result, 1)
	assert.Equal(t, "7", string(env.Result[0].EventKey))
}

func TestClient_FetchFixtures_DoesNotInspectSuccessFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": 0, "message": "bad key"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "k", time.Second)
	env, err := c.FetchFixtures(context.Background(), testDate(t), "UTC")
	require.NoError(t, err, "a parseable envelope is returned as-is, success flag included")
	assert.False(t, env.OK())
	assert.Equal(t, "bad key", env.Message)
}

func TestClient_FetchFixtures_HTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server blew up", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, "k", time.Second)
	_, err := c.FetchFixtures(context.Background(), testDate(t), "UTC")
	require.Error(t, err)

	var netErr *ingest.NetworkError
	assert.ErrorAs(t, err, &netErr, "non-2xx must surface as NetworkError")
}

func TestClient_FetchFixtures_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	c := NewClient(server.URL, "k", time.Second)
	_, err := c.FetchFixtures(context.Background(), testDate(t), "UTC")
	require.Error(t, err)

	var netErr *ingest.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestClient_FetchFixtures_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway error</html>`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "k", time.Second)
	_, err := c.FetchFixtures(context.Background(), testDate(t), "UTC")
	require.Error(t, err)

	var netErr *ingest.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient("http://example.invalid", "k", 0)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}
