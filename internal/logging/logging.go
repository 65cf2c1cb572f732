package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Field names shared by every log line.
const (
	ActionField    = "action"
	ServerField    = "server"
	RequestIDField = "req_id"
	ClientIDField  = "client_id"
	SeqField       = "seq"
	PathField      = "path"
	StatusField    = "status"
)

// Setup sets the global level and output. pretty selects zerolog's console writer.
func Setup(level string, out io.Writer, pretty bool) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(l)

	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// OpenFile opens path for appending, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

// DefaultFilePath returns $XDG_STATE_HOME/jobctl/jobctl.log, falling back to
// ~/.local/state/jobctl/jobctl.log.
func DefaultFilePath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "jobctl", "jobctl.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "jobctl.log")
	}
	return filepath.Join(home, ".local", "state", "jobctl", "jobctl.log")
}
