// Package cli is the dreams command line: the interactive diary plus
// scriptable commands over the same Store Client.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/dreams/internal/backend"
	"github.com/Makepad-fr/dreams/internal/config"
	"github.com/Makepad-fr/dreams/internal/diary"
	"github.com/Makepad-fr/dreams/internal/logger"
	"github.com/Makepad-fr/dreams/internal/tui"
	"github.com/Makepad-fr/dreams/internal/ui"
)

// App carries root flags and the resources commands open.
type App struct {
	ConfigPath string
	Driver     string
	LogLevel   string
	Theme      string

	cfg *config.Config

	in  io.Reader
	out io.Writer

	closers []io.Closer
}

func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dreams",
		Short:         "A dream diary in your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		Example: strings.TrimSpace(`
  # Open the interactive diary
  dreams

  # Scriptable commands
  dreams add "Flying over the ocean"
  dreams ls --json
  dreams edit <id> "Falling, then flying"
  dreams rm <id>

  # Use a local backend instead of Firestore
  dreams --driver sqlite ls
`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		// Loading the config may log before the configured logger exists.
		logger.InitConsole(cmd.ErrOrStderr())
		if err := app.load(); err != nil {
			return err
		}
		// The TUI owns the terminal; its diagnostics go to the log file.
		if cmd == cmd.Root() {
			closer, err := logger.InitFile(app.cfg)
			if err != nil {
				return err
			}
			app.closers = append(app.closers, closer)
			return nil
		}
		logger.Init(cmd.ErrOrStderr(), app.cfg)
		return nil
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{msg: err.Error()}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigPath, "config", "", "Path to a JSONC config file (default ~/.dreams/config.jsonc)")
	pf.StringVar(&app.Driver, "driver", "", "Store driver ("+strings.Join(config.Drivers, "|")+")")
	pf.StringVar(&app.LogLevel, "log-level", "", "Log level (trace|debug|info|warn|error)")
	pf.StringVar(&app.Theme, "theme", "", "Colour theme (gold|neon|mono)")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newAuthCmd(app))
	cmd.AddCommand(newServeCmd(app))

	return cmd
}

// load reads configuration and applies flag overrides.
func (app *App) load() error {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return err
	}
	if app.Driver != "" {
		cfg.Store.Driver = app.Driver
		if err := cfg.Validate(); err != nil {
			return usageError{msg: err.Error()}
		}
	}
	if app.LogLevel != "" {
		cfg.Log.Level = app.LogLevel
	}
	if app.Theme != "" {
		cfg.UI.Theme = app.Theme
	}
	ui.SetTheme(cfg.UI.Theme)

	app.cfg = cfg
	return nil
}

// openDiary connects the configured backend. The store is closed when the
// command returns.
func (app *App) openDiary(ctx context.Context) (*diary.Client, error) {
	s, err := backend.Open(ctx, app.cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, s)
	return diary.New(s, app.cfg.Timeout()), nil
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
	app.closers = nil
}

func runTUI(ctx context.Context, app *App) error {
	d, err := app.openDiary(ctx)
	if err != nil {
		return err
	}
	return tui.Run(ctx, d)
}
