package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/s22625/jobctl/internal/model"
	"github.com/spf13/cobra"
)

func newProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show one progress snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgress(cmd.Context())
		},
	}
}

func runProgress(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	snap, err := client.Progress(ctx)
	if err != nil {
		return err
	}

	if globalOpts.JSON {
		return writeProgressJSON(os.Stdout, snap)
	}
	if !globalOpts.Quiet {
		return writeProgressTable(os.Stdout, snap)
	}
	return nil
}

// progressOutput is the --json form of a snapshot. Threads stays null when
// the server sent none.
type progressOutput struct {
	OK              bool                 `json:"ok"`
	Finished        bool                 `json:"finished"`
	Timestamp       string               `json:"timestamp,omitempty"`
	OverallProgress *model.Percent       `json:"overall_progress,omitempty"`
	Threads         []model.ThreadStatus `json:"threads"`
	Result          string               `json:"result"`
}

func newProgressOutput(snap *model.ProgressSnapshot) progressOutput {
	return progressOutput{
		OK:              true,
		Finished:        snap.Finished,
		Timestamp:       snap.Timestamp,
		OverallProgress: snap.OverallProgress,
		Threads:         snap.Threads,
		Result:          snap.Result,
	}
}

func writeProgressJSON(w io.Writer, snap *model.ProgressSnapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newProgressOutput(snap))
}

func writeProgressTable(w io.Writer, snap *model.ProgressSnapshot) error {
	state := "running"
	if snap.Finished {
		state = "finished"
	}
	fmt.Fprintf(w, "State:    %s\n", state)
	if snap.Timestamp != "" {
		fmt.Fprintf(w, "Updated:  %s\n", snap.Timestamp)
	}
	if overall, ok := snap.Overall(); ok {
		fmt.Fprintf(w, "Overall:  %d%%\n", overall)
	}

	if snap.HasThreads() {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "THREAD\tSTATUS\tPROGRESS")
		for _, t := range snap.Threads {
			fmt.Fprintf(tw, "%s\t%s\t%d%%\n", t.ID, t.Status, t.Progress)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if log := strings.TrimRight(snap.Result, "\n"); log != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, log)
	}
	return nil
}
