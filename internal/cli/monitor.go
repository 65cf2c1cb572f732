package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/s22625/jobctl/internal/monitor"
	"github.com/s22625/jobctl/internal/panel"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Interactive dashboard for the running job",
		Long: `Open a full-screen dashboard that polls progress and drives the job.

Keys: s start, x stop, p pause/resume, c clear log, r refresh, ? help, q quit.
Logs go to --log-file so the screen stays intact. Changes to poll_interval in
the config file apply without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd.Context())
		},
	}
}

func runMonitor(ctx context.Context) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("monitor needs an interactive terminal; use watch instead")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	reload := func() (time.Duration, error) {
		next, err := loadConfig()
		if err != nil {
			return 0, err
		}
		return next.PollInterval, nil
	}

	d := monitor.NewDashboard(client, panel.New(), monitor.Options{
		Server:          client.BaseURL(),
		RefreshInterval: cfg.PollInterval,
		RequestTimeout:  cfg.RequestTimeout,
		Fields:          cfg.Form.Fields,
		ConfigPath:      cfg.Primary(),
		Reload:          reload,
	})
	return d.Run(ctx)
}
