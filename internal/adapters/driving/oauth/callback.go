// Package oauth receives provider consent redirects on a loopback address so
// the command line can connect providers without the API server running.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// ErrNotLoopback is returned for redirect URLs that do not point at this machine.
var ErrNotLoopback = errors.New("redirect URL is not a loopback address")

// Callback is the result of one consent redirect.
type Callback struct {
	Code  string
	State string
}

// CallbackServer listens on the host and path of a redirect URL and hands
// the first callback it receives to Wait. State validation is left to the
// caller.
type CallbackServer struct {
	mu       sync.Mutex
	addr     string
	path     string
	results  chan Callback
	errs     chan error
	server   *http.Server
	listener net.Listener
}

// NewCallbackServer creates a server for redirectURL, which must use a
// loopback host such as localhost or 127.0.0.1.
func NewCallbackServer(redirectURL string) (*CallbackServer, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("parse redirect URL: %w", err)
	}
	if !isLoopback(u.Hostname()) {
		return nil, fmt.Errorf("%w: %s", ErrNotLoopback, u.Host)
	}
	port := u.Port()
	if port == "" {
		port = "80"
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return &CallbackServer{
		addr:    net.JoinHostPort("127.0.0.1", port),
		path:    path,
		results: make(chan Callback, 1),
		errs:    make(chan error, 1),
	}, nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Start begins listening.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.addr = listener.Addr().String()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.report(err)
		}
	}()
	return nil
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if errParam := q.Get("error"); errParam != "" {
		s.report(fmt.Errorf("provider denied access: %s %s", errParam, q.Get("error_description")))
		_, _ = fmt.Fprint(w, resultHTML("Authorization failed", q.Get("error_description")))
		return
	}

	code := q.Get("code")
	if code == "" {
		s.report(errors.New("no authorization code received"))
		_, _ = fmt.Fprint(w, resultHTML("Authorization failed", "No authorization code was received."))
		return
	}

	select {
	case s.results <- Callback{Code: code, State: q.Get("state")}:
	default:
	}
	_, _ = fmt.Fprint(w, resultHTML("Provider connected", "You can close this window and return to the terminal."))
}

func (s *CallbackServer) report(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// Wait blocks until a callback arrives, the server fails or ctx is done.
func (s *CallbackServer) Wait(ctx context.Context) (Callback, error) {
	select {
	case cb := <-s.results:
		return cb, nil
	case err := <-s.errs:
		return Callback{}, err
	case <-ctx.Done():
		return Callback{}, fmt.Errorf("waiting for authorization callback: %w", ctx.Err())
	}
}

// Stop shuts the server down.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the listen address. After Start it carries the bound port.
func (s *CallbackServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func resultHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>Briefcast</title>
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; display: flex;
               justify-content: center; align-items: center; height: 100vh; margin: 0; background: #F7F7F5; }
        .card { text-align: center; background: white; padding: 40px 56px; border-radius: 12px;
                border: 1px solid #D9D9D4; }
        h1 { color: #2B2D33; margin: 0 0 8px 0; font-size: 22px; }
        p { color: #6F7178; margin: 0; }
    </style>
</head>
<body>
    <div class="card">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(message))
}

// OpenBrowser opens the default browser at url.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
