package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/s22625/jobctl/internal/config"
	"github.com/s22625/jobctl/internal/logging"
	"github.com/s22625/jobctl/internal/model"
	"github.com/s22625/jobctl/internal/panel"
)

// Backend is the job server as seen by the dashboard.
type Backend interface {
	Start(ctx context.Context, req model.StartRequest) (*model.StartResponse, error)
	Stop(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	ClearLog(ctx context.Context) error
	Progress(ctx context.Context) (*model.ProgressSnapshot, error)
}

type dashboardMode int

const (
	modeDashboard dashboardMode = iota
	modeStartForm
	modeAlert
	modeHelp
)

// Options configures a Dashboard.
type Options struct {
	Server          string
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
	Fields          []config.FieldConfig
	// ConfigPath is watched for changes when set; Reload then supplies the
	// new refresh interval.
	ConfigPath string
	Reload     func() (time.Duration, error)
}

// Dashboard is the bubbletea model for the monitor UI.
type Dashboard struct {
	backend Backend
	panel   *panel.Panel
	server  string
	fields  []config.FieldConfig

	width  int
	height int

	mode    dashboardMode
	message string
	form    *startForm
	pending map[panel.Action]bool

	keymap KeyMap
	styles Styles

	lastRefresh     time.Time
	refreshInterval time.Duration
	requestTimeout  time.Duration
	configPath      string
	reload          func() (time.Duration, error)
	now             func() time.Time
}

type tickMsg time.Time

type progressMsg struct {
	seq  uint64
	snap *model.ProgressSnapshot
	err  error
}

type startMsg struct {
	resp *model.StartResponse
	err  error
}

type actionMsg struct {
	action panel.Action
	err    error
}

type intervalMsg struct {
	interval time.Duration
	err      error
}

// NewDashboard creates a dashboard model driving p.
func NewDashboard(b Backend, p *panel.Panel, opts Options) *Dashboard {
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Dashboard{
		backend:         b,
		panel:           p,
		server:          opts.Server,
		fields:          opts.Fields,
		mode:            modeDashboard,
		pending:         make(map[panel.Action]bool),
		keymap:          DefaultKeyMap(),
		styles:          DefaultStyles(),
		refreshInterval: interval,
		requestTimeout:  timeout,
		configPath:      opts.ConfigPath,
		reload:          opts.Reload,
		now:             time.Now,
	}
}

// Run starts the dashboard UI.
func (d *Dashboard) Run(ctx context.Context) error {
	program := tea.NewProgram(d, tea.WithAltScreen(), tea.WithContext(ctx))

	if d.configPath != "" && d.reload != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := config.Watch(watchCtx, d.configPath, func() {
				interval, err := d.reload()
				program.Send(intervalMsg{interval: interval, err: err})
			})
			if err != nil {
				log.Warn().Err(err).Str(logging.PathField, d.configPath).Msg("config watch stopped")
			}
		}()
	}

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.pollCmd(), d.tickCmd())
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, d.forwardToForm(msg)
	case tickMsg:
		// Every tick polls, even while earlier polls are outstanding.
		return d, tea.Batch(d.pollCmd(), d.tickCmd())
	case progressMsg:
		d.applyProgress(msg)
		return d, nil
	case startMsg:
		return d, d.applyStart(msg)
	case actionMsg:
		return d, d.applyAction(msg)
	case intervalMsg:
		d.applyInterval(msg)
		return d, nil
	case tea.KeyMsg:
		return d.handleKey(msg)
	}
	return d, d.forwardToForm(msg)
}

func (d *Dashboard) applyProgress(msg progressMsg) {
	if msg.err != nil {
		d.panel.PollFailed(msg.seq, msg.err)
		log.Debug().Uint64(logging.SeqField, msg.seq).Err(msg.err).Msg("poll failed")
		return
	}
	if d.panel.ApplySnapshot(msg.seq, msg.snap) {
		d.lastRefresh = d.now()
	}
}

func (d *Dashboard) applyStart(msg startMsg) tea.Cmd {
	delete(d.pending, panel.ActionStart)
	if msg.err != nil {
		d.panel.ActionFailed(panel.ActionStart, msg.err)
		log.Error().Err(msg.err).Str(logging.ActionField, string(panel.ActionStart)).Msg("request failed")
		return nil
	}
	if !d.panel.StartCompleted(msg.resp) {
		d.mode = modeAlert
		return nil
	}
	d.message = "job started"
	if msg.resp != nil && msg.resp.Result != "" {
		d.message = msg.resp.Result
	}
	return nil
}

func (d *Dashboard) applyAction(msg actionMsg) tea.Cmd {
	delete(d.pending, msg.action)
	if msg.err != nil {
		d.panel.ActionFailed(msg.action, msg.err)
		log.Error().Err(msg.err).Str(logging.ActionField, string(msg.action)).Msg("request failed")
		return nil
	}
	d.panel.Completed(msg.action)
	switch msg.action {
	case panel.ActionStop:
		d.message = "job stopped"
	case panel.ActionPause:
		d.message = "job paused"
	case panel.ActionResume:
		d.message = "job resumed"
	case panel.ActionClearLog:
		d.message = "log cleared"
		return d.pollCmd()
	}
	return nil
}

func (d *Dashboard) applyInterval(msg intervalMsg) {
	if msg.err != nil {
		d.message = fmt.Sprintf("config reload failed: %v", msg.err)
		d.panel.Notice(d.message)
		log.Warn().Err(msg.err).Msg("config reload failed")
		return
	}
	if msg.interval > 0 && msg.interval != d.refreshInterval {
		d.refreshInterval = msg.interval
		d.message = fmt.Sprintf("poll interval set to %s", msg.interval)
	}
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return d, tea.Quit
	}

	switch d.mode {
	case modeDashboard:
		return d.handleDashboardKey(msg)
	case modeStartForm:
		return d.handleFormKey(msg)
	case modeAlert:
		d.panel.DismissAlert()
		d.mode = modeDashboard
		return d, nil
	case modeHelp:
		d.mode = modeDashboard
		return d, nil
	default:
		return d, nil
	}
}

func (d *Dashboard) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case d.keymap.Quit:
		return d, tea.Quit
	case d.keymap.Help:
		d.mode = modeHelp
		return d, nil
	case d.keymap.Refresh:
		return d, d.pollCmd()
	case d.keymap.Start:
		return d, d.openStartForm()
	case d.keymap.Stop:
		if !d.panel.Controls().StopEnabled {
			d.message = "no running job to stop"
			return d, nil
		}
		return d, d.actionCmd(panel.ActionStop)
	case d.keymap.Toggle:
		if !d.panel.Controls().PauseEnabled {
			d.message = "no running job to pause"
			return d, nil
		}
		action := d.panel.ToggleAction()
		if d.pending[panel.ActionPause] || d.pending[panel.ActionResume] {
			return d, nil
		}
		return d, d.actionCmd(action)
	case d.keymap.ClearLog:
		return d, d.actionCmd(panel.ActionClearLog)
	}
	return d, nil
}

func (d *Dashboard) openStartForm() tea.Cmd {
	if d.pending[panel.ActionStart] {
		d.message = "start already in flight"
		return nil
	}
	d.form = newStartForm(d.fields)
	d.mode = modeStartForm
	d.message = ""
	return d.form.form.Init()
}

func (d *Dashboard) closeStartForm() {
	d.form = nil
	d.mode = modeDashboard
}

func (d *Dashboard) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		d.closeStartForm()
		d.message = "start canceled"
		return d, nil
	}
	return d, d.forwardToForm(msg)
}

// forwardToForm passes msg to the open start form and submits it once
// completed. The form's own quit command is dropped.
func (d *Dashboard) forwardToForm(msg tea.Msg) tea.Cmd {
	if d.mode != modeStartForm || d.form == nil {
		return nil
	}
	updated, cmd := d.form.form.Update(msg)
	if form, ok := updated.(*huh.Form); ok {
		d.form.form = form
	}
	if d.form.form.State != huh.StateCompleted {
		return cmd
	}

	req, err := d.form.Request()
	d.closeStartForm()
	if err != nil {
		d.message = err.Error()
		return nil
	}
	return d.submitStart(req)
}

func (d *Dashboard) submitStart(req model.StartRequest) tea.Cmd {
	d.pending[panel.ActionStart] = true
	d.message = "starting..."
	return func() tea.Msg {
		ctx, cancel := d.requestContext()
		defer cancel()
		resp, err := d.backend.Start(ctx, req)
		return startMsg{resp: resp, err: err}
	}
}

func (d *Dashboard) actionCmd(action panel.Action) tea.Cmd {
	if d.pending[action] {
		return nil
	}
	d.pending[action] = true
	return func() tea.Msg {
		ctx, cancel := d.requestContext()
		defer cancel()
		var err error
		switch action {
		case panel.ActionStop:
			err = d.backend.Stop(ctx)
		case panel.ActionPause:
			err = d.backend.Pause(ctx)
		case panel.ActionResume:
			err = d.backend.Resume(ctx)
		case panel.ActionClearLog:
			err = d.backend.ClearLog(ctx)
		default:
			err = fmt.Errorf("unsupported action %q", action)
		}
		return actionMsg{action: action, err: err}
	}
}

// pollCmd takes the sequence number now so responses can be ordered by
// issue time regardless of arrival.
func (d *Dashboard) pollCmd() tea.Cmd {
	seq := d.panel.NextPollSeq()
	return func() tea.Msg {
		ctx, cancel := d.requestContext()
		defer cancel()
		snap, err := d.backend.Progress(ctx)
		return progressMsg{seq: seq, snap: snap, err: err}
	}
}

func (d *Dashboard) tickCmd() tea.Cmd {
	return tea.Tick(d.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (d *Dashboard) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.requestTimeout)
}
