package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/s22625/jobctl/internal/model"
	"github.com/s22625/jobctl/internal/panel"
	"github.com/s22625/jobctl/internal/poller"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type watchOptions struct {
	Interval  time.Duration
	UntilDone bool
}

func newWatchCmd() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll progress and print changes",
		Long: `Poll the server's progress on a fixed interval and print what changed:
new log lines, thread status lines and overall progress.

With --until-done the command exits once the job finishes. An idle server
already reports finished, so watch waits until it has seen the job running.
With --json each applied snapshot is printed as one JSON line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "Poll interval (default from config, 2s)")
	cmd.Flags().BoolVar(&opts.UntilDone, "until-done", false, "Exit once the job finishes")

	return cmd
}

func runWatch(ctx context.Context, opts *watchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = cfg.PollInterval
	}

	printer := newWatchPrinter(os.Stdout, colorEnabled(os.Stdout))
	printer.json = globalOpts.JSON
	printer.quiet = globalOpts.Quiet

	p := poller.New(client, panel.New(), poller.Options{
		Interval:  interval,
		UntilDone: opts.UntilDone,
		OnTick:    printer.Print,
	})
	return p.Run(ctx)
}

// colorEnabled reports whether w is a terminal that accepts colour.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return !termenv.EnvNoColor()
}

// watchPrinter prints the difference between consecutive panel views.
type watchPrinter struct {
	w     io.Writer
	json  bool
	quiet bool

	lastLog      string
	lastThreads  string
	lastOverall  string
	lastFailures int

	threadStyles map[model.ThreadState]lipgloss.Style
	muted        lipgloss.Style
	warn         lipgloss.Style
}

func newWatchPrinter(w io.Writer, color bool) *watchPrinter {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &watchPrinter{
		w: w,
		threadStyles: map[model.ThreadState]lipgloss.Style{
			model.ThreadActive:  r.NewStyle().Foreground(lipgloss.Color("42")),
			model.ThreadPaused:  r.NewStyle().Foreground(lipgloss.Color("214")),
			model.ThreadStopped: r.NewStyle().Foreground(lipgloss.Color("39")),
		},
		muted: r.NewStyle().Foreground(lipgloss.Color("245")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// Print is a poller tick callback.
func (p *watchPrinter) Print(v panel.View, applied bool) {
	if !applied {
		if v.PollFailures > p.lastFailures {
			fmt.Fprintln(p.w, p.warn.Render(fmt.Sprintf("poll failed (%d): %s", v.PollFailures, v.LastPollError)))
		}
		p.lastFailures = v.PollFailures
		return
	}
	p.lastFailures = 0

	if p.json {
		p.printJSON(v)
		return
	}

	if delta := logDelta(p.lastLog, v.Log); delta != "" {
		fmt.Fprintln(p.w, strings.TrimRight(delta, "\n"))
	}
	p.lastLog = v.Log

	if p.quiet {
		return
	}

	// An emptied thread list prints nothing but forgets the last line.
	if threads := p.renderThreads(v.Threads); threads != p.lastThreads {
		if threads != "" {
			fmt.Fprintln(p.w, threads)
		}
		p.lastThreads = threads
	}

	if v.HasOverall {
		overall := fmt.Sprintf("overall %d%%", v.Overall)
		if v.Timestamp != "" {
			overall += "  " + v.Timestamp
		}
		if overall != p.lastOverall {
			fmt.Fprintln(p.w, p.muted.Render(overall))
			p.lastOverall = overall
		}
	}
}

func (p *watchPrinter) renderThreads(threads []model.ThreadStatus) string {
	parts := make([]string, 0, len(threads))
	for _, t := range threads {
		style := p.muted
		if t.Status.Known() {
			style = p.threadStyles[t.Status]
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s %d%%", t.Label(), t.Progress)))
	}
	return strings.Join(parts, "  ")
}

func (p *watchPrinter) printJSON(v panel.View) {
	snap := &model.ProgressSnapshot{
		Result:    v.Log,
		Threads:   v.Threads,
		Finished:  v.Finished,
		Timestamp: v.Timestamp,
	}
	if v.HasOverall {
		snap.OverallProgress = model.PercentPtr(v.Overall)
	}
	_ = json.NewEncoder(p.w).Encode(newProgressOutput(snap))
}

// logDelta returns what was appended to prev, or all of next when the log
// was cleared or replaced.
func logDelta(prev, next string) string {
	if strings.HasPrefix(next, prev) {
		return strings.TrimPrefix(next, prev)
	}
	return next
}
