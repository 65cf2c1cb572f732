package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/s22625/jobctl/internal/api"
	"github.com/spf13/cobra"
)

// controlFunc is one of the body-less control requests.
type controlFunc func(c *api.Client, ctx context.Context) error

func newStopCmd() *cobra.Command {
	return newControlCmd("stop", "Stop the running job", "Job stopped", (*api.Client).Stop)
}

func newPauseCmd() *cobra.Command {
	return newControlCmd("pause", "Pause all threads of the running job", "Job paused", (*api.Client).Pause)
}

func newResumeCmd() *cobra.Command {
	return newControlCmd("resume", "Resume paused threads", "Job resumed", (*api.Client).Resume)
}

func newClearLogCmd() *cobra.Command {
	return newControlCmd("clear-log", "Clear the server log", "Log cleared", (*api.Client).ClearLog)
}

func newControlCmd(name, short, done string, fn controlFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runControl(cmd.Context(), name, done, fn)
		},
	}
}

func runControl(ctx context.Context, name, done string, fn controlFunc) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	if err := fn(client, ctx); err != nil {
		return err
	}

	if globalOpts.JSON {
		output := struct {
			OK     bool   `json:"ok"`
			Action string `json:"action"`
		}{
			OK:     true,
			Action: name,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	if !globalOpts.Quiet {
		fmt.Println(done)
	}
	return nil
}
