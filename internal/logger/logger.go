package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Makepad-fr/dreams/internal/config"
)

// InitConsole points the global logger at w with a console writer at info
// level. It covers the window before a config has been loaded.
func InitConsole(w io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Init points the global logger at w with a console writer and applies the
// configured level.
func Init(w io.Writer, cfg *config.Config) {
	InitConsole(w)
	SetLogLevel(cfg)
}

// InitFile sends logs to cfg.Log.File instead of the terminal. The TUI owns
// stdout and stderr while it runs, so diagnostics go here. The returned
// closer flushes the file.
func InitFile(cfg *config.Config) (io.Closer, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	SetLogLevel(cfg)

	if cfg.Log.File == "" {
		log.Logger = zerolog.Nop()
		return io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o700); err != nil {
		return nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return f, nil
}

func ErrorWithStack(err error) {
	log.Error().Msgf("%+v", errors.WithStack(err))
}

func SetLogLevel(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
		log.Trace().Str("loglevel", level.String()).Msg("no valid log level configured, using default")
	}

	zerolog.SetGlobalLevel(level)
}
