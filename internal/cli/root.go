package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/s22625/jobctl/internal/api"
	"github.com/s22625/jobctl/internal/config"
	"github.com/s22625/jobctl/internal/logging"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	ExitOK            = 0
	ExitRejected      = 2
	ExitTransport     = 3
	ExitInternalError = 10
)

// GlobalOptions holds options shared across all commands
type GlobalOptions struct {
	Server     string
	ConfigPath string
	JSON       bool
	Quiet      bool
	LogLevel   string
	LogFile    string
}

var globalOpts = &GlobalOptions{}

// logFile is the monitor's log destination, closed on exit.
var logFile *os.File

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "jobctl",
	Short: "Control panel for a long-running job server",
	Long: `jobctl drives a job server over its HTTP control API.

It starts a job from a set of named fields, stops, pauses and resumes it,
and polls its progress: per-thread status, overall progress and the server log.
Use "jobctl monitor" for the interactive dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd.Name())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.Server, "server", "", "Job server URL (or set JOBCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.ConfigPath, "config", "", "Use this config file instead of the layered lookup")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.JSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.Quiet, "quiet", false, "Suppress human-readable output")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogLevel, "log-level", "", "Log level (error|warn|info|debug, default warn)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogFile, "log-file", "", "Log file for the monitor")

	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newPauseCmd())
	rootCmd.AddCommand(newResumeCmd())
	rootCmd.AddCommand(newClearLogCmd())
	rootCmd.AddCommand(newProgressCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newMonitorCmd())
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if logFile != nil {
		_ = logFile.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	var rejected *api.RejectedError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &rejected):
		return ExitRejected
	case api.IsTransport(err):
		return ExitTransport
	default:
		return ExitInternalError
	}
}

// loadConfig loads configuration and applies flag overrides.
// Precedence: flags > --config file, or repo-local .jobctl/config.yaml > JOBCTL_* env > ~/.config/jobctl/config.yaml
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if globalOpts.ConfigPath != "" {
		cfg, err = config.LoadFile(globalOpts.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if globalOpts.Server != "" {
		cfg.Server = globalOpts.Server
	}
	if globalOpts.LogLevel != "" {
		cfg.LogLevel = globalOpts.LogLevel
	}
	if globalOpts.LogFile != "" {
		cfg.LogFile = config.ExpandPath(globalOpts.LogFile, "")
	}
	return cfg, nil
}

// setupLogging sends logs to stderr, or to a file for the monitor so the
// dashboard's screen stays intact.
func setupLogging(command string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if command != "monitor" {
		return logging.Setup(cfg.LogLevel, os.Stderr, true)
	}

	path := cfg.LogFile
	if path == "" {
		path = logging.DefaultFilePath()
	}
	f, err := logging.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	return logging.Setup(cfg.LogLevel, f, false)
}

// newClient builds an API client from the effective configuration.
func newClient(cfg *config.Config) (*api.Client, error) {
	paths := api.DefaultPaths()
	paths.Start = cfg.StartPath
	paths.ClearLog = cfg.ClearLogPath
	client, err := api.New(api.Options{
		BaseURL: cfg.Server,
		Timeout: cfg.RequestTimeout,
		Paths:   paths,
	})
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str(logging.ServerField, client.BaseURL()).
		Str(logging.ClientIDField, client.ClientID()).
		Msg("client ready")
	return client, nil
}
