package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, frames []string) (*httptest.Server, *string) {
	t.Helper()
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/briefings/generate" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, f := range frames {
			fmt.Fprint(w, f)
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &auth
}

func frame(stage string, payload string) string {
	return fmt.Sprintf("event: %s\ndata: {\"stage\":%q,\"payload\":%s}\n\n", stage, stage, payload)
}

// TestGenerateCmd_Remote tests following a server-side run
func TestGenerateCmd_Remote(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()

	srv, auth := sseServer(t, []string{
		frame("started", `{"providers":["gmail","trends"]}`),
		frame("aggregating", `{"items":7,"succeeded":2,"failed":0}`),
		frame("completed", `{"briefing_id":"b9","audio_url":"https://cdn.example.com/b9.mp3"}`),
	})

	out, err := execute("generate", "--remote", srv.URL, "--token", "tok")

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", *auth)
	assert.Contains(t, out, "Generating on "+srv.URL)
	assert.Contains(t, out, "providers: gmail, trends")
	assert.Contains(t, out, "7 items, 2 providers ok, 0 failed")
	assert.Contains(t, out, "https://cdn.example.com/b9.mp3")
	assert.Empty(t, ts.pipeline.lastReq.UserID, "local pipeline must not run")
}

// TestRemoteGenerate_StopsAfterTerminal tests that the follower shuts the
// stream down cleanly while the server keeps writing, and never reconnects
func TestRemoteGenerate_StopsAfterTerminal(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		// A short retry makes any reconnect visible within the test.
		fmt.Fprint(w, "retry: 50\n")
		fmt.Fprint(w, frame("started", `{"providers":["gmail"]}`))
		fmt.Fprint(w, frame("completed", `{"briefing_id":"b1"}`))
		w.(http.Flusher).Flush()
		for i := 0; i < 20; i++ {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
			fmt.Fprint(w, frame("aggregating", `{"items":1}`))
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	rc := &remoteClient{baseURL: srv.URL, token: "tok", client: &http.Client{}}
	for i := 0; i < 5; i++ {
		last, err := rc.generate(context.Background(), nil, nil, newProgressPrinter(io.Discard))
		require.NoError(t, err)
		assert.Equal(t, "completed", string(last.Stage))
	}

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(5), posts.Load())
}

// TestGenerateCmd_RemoteError tests a run that ends in the error stage
func TestGenerateCmd_RemoteError(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	srv, _ := sseServer(t, []string{
		frame("started", `{"providers":["gmail"]}`),
		frame("error", `{"message":"Nothing to brief on today.","code":"no_content"}`),
	})

	_, err := execute("generate", "--remote", srv.URL, "--token", "tok")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nothing to brief on today.")
}

// TestGenerateCmd_RemoteRejected tests authentication failures
func TestGenerateCmd_RemoteRejected(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token","code":"unauthorized"}`))
	}))
	defer srv.Close()

	_, err := execute("generate", "--remote", srv.URL, "--token", "bad")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server:")
	assert.Contains(t, err.Error(), "invalid token")
}

// TestGenerateCmd_RemoteNeedsToken tests that a URL without a token is refused
func TestGenerateCmd_RemoteNeedsToken(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute("generate", "--remote", "http://127.0.0.1:1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is required")
}

// TestBriefingTodayCmd_Remote tests fetching today's briefing from a server
func TestBriefingTodayCmd_Remote(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	found := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/briefings/today" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if !found {
			_, _ = w.Write([]byte("null"))
			return
		}
		_ = json.NewEncoder(w).Encode(sampleRecord())
	}))
	defer srv.Close()

	out, err := execute("briefing", "today", "--remote", srv.URL, "--token", "tok")
	require.NoError(t, err)
	assert.Contains(t, out, "Sunday edition")

	found = false
	out, err = execute("briefing", "today", "--remote", srv.URL, "--token", "tok")
	require.NoError(t, err)
	assert.Contains(t, out, "No briefing for today yet")
}

// TestResolveRemote_Profile tests falling back to the saved profile
func TestResolveRemote_Profile(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	rc, err := resolveRemote("", "")
	require.NoError(t, err)
	assert.Nil(t, rc)

	p, err := openProfile()
	require.NoError(t, err)
	require.NoError(t, p.Set(profileURLKey, "https://brief.example.com/"))
	require.NoError(t, p.Set(profileTokenKey, "saved-token"))

	rc, err = resolveRemote("", "")
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.Equal(t, "https://brief.example.com", rc.baseURL)
	assert.Equal(t, "saved-token", rc.token)

	rc, err = resolveRemote("http://other:8080", "flag-token")
	require.NoError(t, err)
	assert.Equal(t, "http://other:8080", rc.baseURL)
	assert.Equal(t, "flag-token", rc.token)
}

// TestDecodeRemoteError tests server error formatting
func TestDecodeRemoteError(t *testing.T) {
	err := decodeRemoteError(http.StatusForbidden, []byte(`{"error":"nope","code":"forbidden"}`))
	assert.EqualError(t, err, "server: nope (forbidden)")

	err = decodeRemoteError(http.StatusBadGateway, []byte("upstream down\n"))
	assert.EqualError(t, err, "server returned 502: upstream down")
}
