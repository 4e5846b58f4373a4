package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattdurrant/favourite-albums/internal/repositories"
	"github.com/mattdurrant/favourite-albums/internal/services"
	"github.com/mattdurrant/favourite-albums/internal/shared"
	"github.com/mattdurrant/favourite-albums/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	spotify services.SourceService
	cache   *repositories.TracklistRepository
	logger  *log.Logger
	output  io.Writer
	engine  *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Spotify services.SourceService
	Cache   *repositories.TracklistRepository
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		spotify: opts.Spotify,
		cache:   opts.Cache,
		logger:  opts.Logger,
		output:  opts.Output,
		engine:  tasks.NewEngine(opts.Spotify, opts.Cache),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, rankCommand, tidyCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// requireSpotify returns the configured Spotify service or a fatal
// configuration error naming what is missing.
func (r *Runner) requireSpotify() (*services.SpotifyService, error) {
	svc, ok := r.spotify.(*services.SpotifyService)
	if !ok || svc == nil {
		return nil, fmt.Errorf("%w: spotify credentials not configured, run 'favourites setup' and fill in config.toml",
			shared.ErrMissingConfig)
	}
	return svc, nil
}

// consumeProgress drains engine progress updates into a per-command child
// logger until the channel closes. Returns a done channel the caller waits on.
func (r *Runner) consumeProgress(command string, progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	logger := shared.WithLogger(r.logger, "command", command)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			logger.Info(update.Message, "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
		}
	}()
	return done
}
