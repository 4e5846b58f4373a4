package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattdurrant/favourite-albums/internal/server"
	"github.com/mattdurrant/favourite-albums/internal/services"
	"github.com/mattdurrant/favourite-albums/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 3 * time.Minute

// tokenPath resolves where the OAuth token is persisted between runs.
func (r *Runner) tokenPath() (string, error) {
	if p := r.config.Credentials.Spotify.TokenPath; p != "" {
		return p, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".favourite-albums", "token.json"), nil
}

func (r *Runner) saveToken(token *oauth2.Token) error {
	path, err := r.tokenPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	r.logger.Info("token saved", "path", path)
	return nil
}

func (r *Runner) loadToken() (*oauth2.Token, error) {
	path, err := r.tokenPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: no saved token, run 'favourites auth login'", shared.ErrNotAuthenticated)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: corrupt token file at %s", shared.ErrNotAuthenticated, path)
	}

	return &token, nil
}

// ensureAuthenticated installs the persisted token on the Spotify service.
// Called by every command that talks to the API.
func (r *Runner) ensureAuthenticated() (*services.SpotifyService, error) {
	svc, err := r.requireSpotify()
	if err != nil {
		return nil, err
	}

	if svc.Token() != nil {
		return svc, nil
	}

	token, err := r.loadToken()
	if err != nil {
		return nil, err
	}

	svc.SetToken(token)
	return svc, nil
}

// AuthLogin runs the OAuth2 authorization code flow with a local callback
// server and persists the resulting token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.requireSpotify()
	if err != nil {
		return err
	}

	if code := cmd.String("code"); code != "" {
		if err := svc.Authenticate(ctx, map[string]string{"auth_code": code}); err != nil {
			return err
		}
		if err := r.saveToken(svc.Token()); err != nil {
			return err
		}
		return r.writePlain("✓ Authenticated with Spotify\n")
	}

	state := shared.GenerateID()
	authURL := svc.GetAuthURL(state)

	callbackSrv, err := server.NewCallbackServer(svc.OAuthConfig(), state)
	if err != nil {
		return err
	}
	callbackSrv.Start()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", authTimeout)

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.AuthResult
	select {
	case result = <-callbackSrv.Result():
	case <-timeout.C:
		callbackSrv.Shutdown(context.Background())
		return fmt.Errorf("%w: authorization timed out after %v, retry or pass the code with --code",
			shared.ErrTimeout, authTimeout)
	case <-ctx.Done():
		callbackSrv.Shutdown(context.Background())
		return ctx.Err()
	}

	if err := callbackSrv.Shutdown(context.Background()); err != nil {
		r.logger.Warn("error shutting down callback server", "error", err)
	}

	if result.Error() != nil {
		return result.Error()
	}

	svc.SetToken(result.Token)
	if err := r.saveToken(result.Token); err != nil {
		return err
	}

	return r.writePlain("✓ Authenticated with Spotify\n")
}

// AuthStatus reports whether a saved token exists and when it expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token, err := r.loadToken()
	if err != nil {
		r.writePlain("✗ Not authenticated\n")
		r.writePlain("Run 'favourites auth login' to authorize.\n")
		return nil
	}

	r.writePlain("✓ Authenticated\n")
	if !token.Expiry.IsZero() {
		if time.Now().After(token.Expiry) {
			r.writePlain("Token expired at %s (will refresh on next use)\n", token.Expiry.Format(time.RFC1123))
		} else {
			r.writePlain("Token valid until %s\n", token.Expiry.Format(time.RFC1123))
		}
	}

	return nil
}

// authCommand handles Spotify authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize via OAuth2 in the browser",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "code",
						Usage: "Authorization code for manual (headless) login",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show current authentication state",
				Action: r.AuthStatus,
			},
		},
	}
}
