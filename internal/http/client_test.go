package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/handiism/trackflyer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPayloadServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/track.mp3" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_OpenYieldsProgressThenSuccess(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), 256*1024)
	srv := newPayloadServer(t, payload)

	client := NewClient(5*time.Second, 0)

	var results []model.DownloadResult
	for res := range client.Open(context.Background(), srv.URL+"/track.mp3") {
		results = append(results, res)
	}

	require.NotEmpty(t, results)
	last := results[len(results)-1]
	require.Equal(t, model.ResultSuccess, last.Kind)
	assert.Equal(t, payload, last.Data)

	prev := 0.0
	for _, res := range results[:len(results)-1] {
		require.Equal(t, model.ResultProgress, res.Kind)
		assert.GreaterOrEqual(t, res.Progress, prev)
		assert.LessOrEqual(t, res.Progress, 1.0)
		prev = res.Progress
	}
}

func TestClient_OpenReportsHTTPError(t *testing.T) {
	srv := newPayloadServer(t, []byte("x"))
	client := NewClient(5*time.Second, 0)

	var results []model.DownloadResult
	for res := range client.Open(context.Background(), srv.URL+"/missing.mp3") {
		results = append(results, res)
	}

	require.Len(t, results, 1)
	assert.Equal(t, model.ResultError, results[0].Kind)
	assert.Contains(t, results[0].Err.Error(), "404")
}

func TestClient_OpenStopsWhenConsumerBreaks(t *testing.T) {
	payload := bytes.Repeat([]byte("b"), 512*1024)
	srv := newPayloadServer(t, payload)
	client := NewClient(5*time.Second, 0)

	count := 0
	for res := range client.Open(context.Background(), srv.URL+"/track.mp3") {
		count++
		if res.Kind == model.ResultProgress {
			break
		}
	}
	assert.Equal(t, 1, count)
}

func TestClient_OpenCancelledContext(t *testing.T) {
	srv := newPayloadServer(t, []byte("x"))
	client := NewClient(5*time.Second, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var results []model.DownloadResult
	for res := range client.Open(ctx, srv.URL+"/track.mp3") {
		results = append(results, res)
	}
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestClient_GetString(t *testing.T) {
	srv := newPayloadServer(t, []byte("<html></html>"))
	client := NewClient(5*time.Second, 0)

	body, err := client.GetString(context.Background(), srv.URL+"/track.mp3")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", body)
}
