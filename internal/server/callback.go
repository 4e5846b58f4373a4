package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/mattdurrant/favourite-albums/internal/shared"
)

// AuthResult carries the outcome of an authorization code flow.
type AuthResult struct {
	Token *oauth2.Token
	err   error
}

func (r AuthResult) Error() error {
	return r.err
}

// CallbackServer runs a temporary local HTTP server that receives a single
// OAuth2 authorization callback, exchanges the code, and shuts down.
type CallbackServer struct {
	config *oauth2.Config
	state  string
	path   string

	httpServer *http.Server
	results    chan AuthResult
	once       sync.Once
	mu         sync.Mutex
	handled    bool
}

// NewCallbackServer builds a callback server listening on the host, port and
// path of the OAuth config's redirect URL. The state token should be
// cryptographically random.
func NewCallbackServer(config *oauth2.Config, state string) (*CallbackServer, error) {
	redirect, err := url.Parse(config.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redirect URI %q", shared.ErrInvalidConfig, config.RedirectURL)
	}
	if redirect.Host == "" {
		return nil, fmt.Errorf("%w: redirect URI %q has no host", shared.ErrInvalidConfig, config.RedirectURL)
	}

	path := redirect.Path
	if path == "" {
		path = "/callback"
	}

	s := &CallbackServer{
		config:  config,
		state:   state,
		path:    path,
		results: make(chan AuthResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, s.handleCallback)
	s.httpServer = &http.Server{Addr: redirect.Host, Handler: mux}

	return s, nil
}

// Start begins serving in a goroutine. Listen failures surface on the result
// channel so callers only wait in one place.
func (s *CallbackServer) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.send(AuthResult{err: fmt.Errorf("%w: callback server: %v", shared.ErrAuthFailed, err)})
		}
	}()
}

// Result returns the channel the flow's outcome arrives on. Exactly one
// result is delivered, then the channel is closed.
func (s *CallbackServer) Result() <-chan AuthResult {
	return s.results
}

// Shutdown gracefully stops the HTTP server.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.handled {
		s.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	s.handled = true
	s.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != s.state {
		s.send(AuthResult{err: fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		s.send(AuthResult{err: fmt.Errorf("%w: %s - %s",
			shared.ErrAuthFailed, query.Get("error"), query.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := s.config.Exchange(r.Context(), code)
	if err != nil {
		s.send(AuthResult{err: fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	s.send(AuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

func (s *CallbackServer) send(result AuthResult) {
	s.once.Do(func() {
		s.results <- result
		close(s.results)
	})
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>&#10003; Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
