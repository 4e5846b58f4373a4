package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattdurrant/favourite-albums/internal/shared"
	"golang.org/x/oauth2"
)

func testRunner(output *bytes.Buffer) *Runner {
	return NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		Logger: shared.NewLogger(output),
		Output: output,
	})
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be constructed")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := testRunner(&bytes.Buffer{}).register()

		got := make(map[string]bool)
		for _, command := range commands {
			got[command.Name] = true
		}

		for _, want := range []string{"setup", "auth", "rank", "tidy", "cache"} {
			if !got[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := testRunner(output)

		if err := runner.writeJSON(map[string]int{"albums": 3}, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if got := output.String(); got != "{\"albums\":3}\n" {
			t.Errorf("unexpected output %q", got)
		}

		output.Reset()
		if err := runner.writeJSON(map[string]int{"albums": 3}, true); err != nil {
			t.Fatalf("writeJSON pretty failed: %v", err)
		}
		if !strings.Contains(output.String(), "  \"albums\": 3") {
			t.Errorf("expected indented output, got %q", output.String())
		}
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := testRunner(output)

		runner.writePlain("ranked %d albums\n", 12)
		if output.String() != "ranked 12 albums\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestTokenPersistence(t *testing.T) {
	output := &bytes.Buffer{}
	runner := testRunner(output)
	runner.config.Credentials.Spotify.TokenPath = filepath.Join(t.TempDir(), "nested", "token.json")

	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := runner.saveToken(token); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}

	info, err := os.Stat(runner.config.Credentials.Spotify.TokenPath)
	if err != nil {
		t.Fatalf("expected token file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	loaded, err := runner.loadToken()
	if err != nil {
		t.Fatalf("loadToken failed: %v", err)
	}
	if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" {
		t.Errorf("unexpected token %+v", loaded)
	}
	if !loaded.Expiry.Equal(token.Expiry) {
		t.Errorf("expiry mismatch: %v", loaded.Expiry)
	}
}

func TestLoadTokenMissing(t *testing.T) {
	runner := testRunner(&bytes.Buffer{})
	runner.config.Credentials.Spotify.TokenPath = filepath.Join(t.TempDir(), "token.json")

	if _, err := runner.loadToken(); err == nil {
		t.Error("expected error for missing token file")
	}
}

func TestLoadStartupConfig(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		config, err := loadStartupConfig(filepath.Join(t.TempDir(), "config.toml"))
		if err != nil {
			t.Fatalf("expected defaults for missing file, got %v", err)
		}
		if config == nil || config.Ranking.TopK != 100 {
			t.Errorf("expected default config, got %+v", config)
		}
	})

	t.Run("unparseable file is fatal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if _, err := loadStartupConfig(path); err == nil {
			t.Error("expected error for malformed config file")
		}
	})

	t.Run("valid file is loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[ranking]\ntop_k = 25\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := loadStartupConfig(path)
		if err != nil {
			t.Fatalf("loadStartupConfig failed: %v", err)
		}
		if config.Ranking.TopK != 25 {
			t.Errorf("expected parsed top_k 25, got %d", config.Ranking.TopK)
		}
	})
}

func TestRequireSpotifyUnconfigured(t *testing.T) {
	runner := testRunner(&bytes.Buffer{})

	if _, err := runner.requireSpotify(); err == nil {
		t.Error("expected error when Spotify service is not configured")
	}
}
