package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/donovanhide/eventsource"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// remoteClient talks to a running briefcast server.
type remoteClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// resolveRemote returns a client when --remote or the saved profile names a
// server, or nil for local execution.
func resolveRemote(flagURL, flagToken string) (*remoteClient, error) {
	url, token := flagURL, flagToken
	if url == "" || token == "" {
		if p, err := openProfile(); err == nil {
			if url == "" {
				url = p.GetString(profileURLKey)
			}
			if token == "" {
				token = p.GetString(profileTokenKey)
			}
		}
	}
	if url == "" {
		return nil, nil
	}
	if token == "" {
		return nil, errors.New("a token is required for remote use; run \"briefcast token\" on the server")
	}
	return &remoteClient{
		baseURL: strings.TrimRight(url, "/"),
		token:   token,
		client:  &http.Client{},
	}, nil
}

func (c *remoteClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// remoteError is the server's JSON error body.
type remoteError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeRemoteError(status int, body []byte) error {
	var e remoteError
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("server: %s (%s)", e.Error, e.Code)
	}
	return fmt.Errorf("server returned %d: %s", status, strings.TrimSpace(string(body)))
}

// getJSON fetches path into out. It reports whether the resource exists.
func (c *remoteClient) getJSON(ctx context.Context, path string, out any) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("contacting server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, decodeRemoteError(resp.StatusCode, body)
	}
	return true, json.Unmarshal(body, out)
}

// generate starts a run and forwards its events to sink until a terminal
// event arrives. The request is cancelled after the terminal event so the
// subscription never reconnects and starts a second run.
func (c *remoteClient) generate(ctx context.Context, providers, topics []string, sink driven.ProgressSink) (domain.ProgressEvent, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	req, err := c.newRequest(reqCtx, http.MethodPost, "/api/briefings/generate", map[string][]string{
		"providers": providers,
		"topics":    topics,
	})
	if err != nil {
		cancel()
		return domain.ProgressEvent{}, err
	}

	stream, err := eventsource.SubscribeWith("", c.client, req)
	if err != nil {
		cancel()
		var subErr eventsource.SubscriptionError
		if errors.As(err, &subErr) {
			return domain.ProgressEvent{}, decodeRemoteError(subErr.Code, []byte(subErr.Message))
		}
		return domain.ProgressEvent{}, fmt.Errorf("contacting server: %w", err)
	}

	// The stream's reader may still be blocked sending on Events or Errors,
	// and Close panics it in that state. Close only once the reader has
	// reported the end of the connection and is waiting to reconnect.
	readerDone := false
	defer func() {
		cancel()
		if readerDone {
			stream.Close()
			return
		}
		go drainAndClose(stream)
	}()

	for {
		select {
		case <-ctx.Done():
			return domain.ProgressEvent{}, ctx.Err()
		case ev := <-stream.Events:
			var pe domain.ProgressEvent
			if err := json.Unmarshal([]byte(ev.Data()), &pe); err != nil {
				return domain.ProgressEvent{}, fmt.Errorf("decoding event: %w", err)
			}
			if pe.Timestamp.IsZero() {
				pe.Timestamp = time.Now()
			}
			_ = sink.Send(ctx, pe)
			if pe.Stage.IsTerminal() {
				return pe, nil
			}
		case err := <-stream.Errors:
			readerDone = true
			if errors.Is(err, io.EOF) {
				return domain.ProgressEvent{}, errors.New("event stream closed before the run finished")
			}
			return domain.ProgressEvent{}, fmt.Errorf("event stream: %w", err)
		}
	}
}

// drainAndClose discards pending events until the reader reports the end of
// the cancelled connection, then closes the stream.
func drainAndClose(stream *eventsource.Stream) {
	for {
		select {
		case <-stream.Events:
		case <-stream.Errors:
			stream.Close()
			return
		}
	}
}
