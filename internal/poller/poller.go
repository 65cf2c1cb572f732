package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/s22625/jobctl/internal/logging"
	"github.com/s22625/jobctl/internal/model"
	"github.com/s22625/jobctl/internal/panel"
)

// DefaultInterval matches the control panel's refresh cadence.
const DefaultInterval = 2 * time.Second

// Fetcher returns the current progress snapshot.
type Fetcher interface {
	Progress(ctx context.Context) (*model.ProgressSnapshot, error)
}

// Options configures a Poller.
type Options struct {
	Interval time.Duration
	// UntilDone stops the loop once a finished snapshot follows an
	// unfinished one.
	UntilDone bool
	// OnTick is called after every tick with the resulting view and whether
	// a new snapshot was applied.
	OnTick func(view panel.View, applied bool)
	Logger *zerolog.Logger
}

// Poller fetches progress on a fixed interval and applies it to a panel.
type Poller struct {
	fetcher   Fetcher
	panel     *panel.Panel
	interval  time.Duration
	untilDone bool
	onTick    func(panel.View, bool)
	logger    zerolog.Logger

	sawRunning bool
}

// New creates a poller feeding p.
func New(f Fetcher, p *panel.Panel, opts Options) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Poller{
		fetcher:   f,
		panel:     p,
		interval:  interval,
		untilDone: opts.UntilDone,
		onTick:    opts.OnTick,
		logger:    logger,
	}
}

// Run polls until ctx is done or, with UntilDone, the job finishes.
// The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if p.Tick(ctx) {
		return nil
	}

	for {
		select {
		case <-ticker.C:
			if p.Tick(ctx) {
				return nil
			}
		case <-ctx.Done():
			p.logger.Debug().Msg("poller stopped")
			return nil
		}
	}
}

// Tick performs one poll. It reports whether the loop should end.
func (p *Poller) Tick(ctx context.Context) bool {
	seq := p.panel.NextPollSeq()
	snap, err := p.fetcher.Progress(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.panel.PollFailed(seq, err)
		p.logger.Debug().Uint64(logging.SeqField, seq).Err(err).Msg("poll failed")
		p.notify(false)
		return false
	}

	applied := p.panel.ApplySnapshot(seq, snap)
	p.notify(applied)

	if !applied {
		return false
	}
	if !snap.Finished {
		p.sawRunning = true
		return false
	}
	return p.untilDone && p.sawRunning
}

func (p *Poller) notify(applied bool) {
	if p.onTick != nil {
		p.onTick(p.panel.View(), applied)
	}
}
