// Package panel holds the control panel state: which controls are enabled,
// the pause toggle, and the last applied progress snapshot.
package panel

import (
	"fmt"
	"sync"

	"github.com/s22625/jobctl/internal/model"
)

// Toggle labels.
const (
	LabelPause  = "Pause"
	LabelResume = "Resume"
)

// alertPrefix starts every start-rejection alert.
const alertPrefix = "Error: "

// maxNotices bounds the notice history.
const maxNotices = 5

// Action is a user intent forwarded to the server.
type Action string

const (
	ActionStart    Action = "start"
	ActionStop     Action = "stop"
	ActionPause    Action = "pause"
	ActionResume   Action = "resume"
	ActionClearLog Action = "clear-log"
)

// State is the client-side job state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Controls describes the stop and pause/resume controls.
type Controls struct {
	StopEnabled  bool
	PauseEnabled bool
	PauseLabel   string
}

// View is a copy of the panel state for rendering.
type View struct {
	Controls      Controls
	State         State
	Log           string
	Threads       []model.ThreadStatus
	Overall       model.Percent
	HasOverall    bool
	Finished      bool
	Timestamp     string
	Alert         string
	Notices       []string
	PollFailures  int
	LastPollError string
	Polled        bool
}

// Panel is the control panel state machine. It is safe for concurrent use.
type Panel struct {
	mu sync.Mutex

	stopEnabled  bool
	pauseEnabled bool
	paused       bool

	log        string
	threads    []model.ThreadStatus
	overall    model.Percent
	hasOverall bool
	finished   bool
	timestamp  string
	polled     bool

	// issued is the last poll sequence handed out, applied the last one
	// whose snapshot was applied. Snapshots from polls issued at or before
	// toggledAt may not reconcile the pause flag, and those issued at or
	// before startedAt may not end the job.
	issued    uint64
	applied   uint64
	toggledAt uint64
	startedAt uint64

	alert         string
	notices       []string
	pollFailures  int
	lastPollError string
}

// New returns an idle panel.
func New() *Panel {
	return &Panel{}
}

// Controls returns the current control states.
func (p *Panel) Controls() Controls {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.controlsLocked()
}

func (p *Panel) controlsLocked() Controls {
	label := LabelPause
	if p.paused {
		label = LabelResume
	}
	return Controls{
		StopEnabled:  p.stopEnabled,
		PauseEnabled: p.pauseEnabled,
		PauseLabel:   label,
	}
}

// State reports idle, running or paused.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Panel) stateLocked() State {
	switch {
	case !p.stopEnabled && !p.pauseEnabled:
		return StateIdle
	case p.paused:
		return StatePaused
	default:
		return StateRunning
	}
}

// ToggleAction returns the request the pause control issues next: pause when
// not paused, resume otherwise.
func (p *Panel) ToggleAction() Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		return ActionResume
	}
	return ActionPause
}

// StartCompleted applies a start response. A rejection raises the alert and
// leaves the controls untouched. It reports whether the start was accepted.
func (p *Panel) StartCompleted(resp *model.StartResponse) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if resp.Rejected() {
		p.alert = alertPrefix + resp.Error
		return false
	}
	p.stopEnabled = true
	p.pauseEnabled = true
	p.setPausedLocked(false)
	p.startedAt = p.issued
	return true
}

// StopCompleted disables both controls and resets the toggle.
func (p *Panel) StopCompleted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopEnabled = false
	p.pauseEnabled = false
	p.setPausedLocked(false)
}

// PauseCompleted marks the job paused. It does nothing once the toggle is
// disabled, so a pause answered after a stop leaves the idle panel alone.
func (p *Panel) PauseCompleted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pauseEnabled {
		p.setPausedLocked(true)
	}
}

// ResumeCompleted marks the job running. Like PauseCompleted it is ignored
// while the toggle is disabled.
func (p *Panel) ResumeCompleted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pauseEnabled {
		p.setPausedLocked(false)
	}
}

// Completed applies the success of a body-less action.
func (p *Panel) Completed(a Action) {
	switch a {
	case ActionStop:
		p.StopCompleted()
	case ActionPause:
		p.PauseCompleted()
	case ActionResume:
		p.ResumeCompleted()
	}
}

// ActionFailed records a failed request. Control state does not change.
func (p *Panel) ActionFailed(a Action, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addNoticeLocked(fmt.Sprintf("%s failed: %v", a, err))
}

// setPausedLocked is the only writer of paused outside reconciliation.
func (p *Panel) setPausedLocked(paused bool) {
	p.paused = paused
	p.toggledAt = p.issued
}

// NextPollSeq returns the sequence number for a new poll.
func (p *Panel) NextPollSeq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued++
	return p.issued
}

// ApplySnapshot applies the snapshot of poll seq. Responses not newer than
// the last applied one are dropped; it reports whether snap was applied.
func (p *Panel) ApplySnapshot(seq uint64, snap *model.ProgressSnapshot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if snap == nil || seq <= p.applied {
		return false
	}
	p.applied = seq
	p.polled = true
	p.pollFailures = 0
	p.lastPollError = ""

	p.log = snap.Result
	p.timestamp = snap.Timestamp

	if snap.HasThreads() {
		threads := make([]model.ThreadStatus, len(snap.Threads))
		copy(threads, snap.Threads)
		p.threads = threads
		if seq > p.toggledAt {
			p.reconcileLocked()
		}
	}

	if overall, ok := snap.Overall(); ok {
		p.overall = overall
		p.hasOverall = true
	}

	p.finished = snap.Finished
	if snap.Finished && seq > p.startedAt {
		p.stopEnabled = false
		p.pauseEnabled = false
		p.paused = false
	}
	return true
}

// reconcileLocked derives the pause flag from reported thread states while a
// job is running: any active thread means running, otherwise a paused thread
// means paused. A list of only stopped or unknown states changes nothing.
func (p *Panel) reconcileLocked() {
	if !p.stopEnabled && !p.pauseEnabled {
		return
	}
	var active, paused bool
	for _, t := range p.threads {
		switch t.Status {
		case model.ThreadActive:
			active = true
		case model.ThreadPaused:
			paused = true
		}
	}
	switch {
	case active:
		p.paused = false
	case paused:
		p.paused = true
	}
}

// PollFailed records a failed poll of seq. The displayed state is kept.
func (p *Panel) PollFailed(seq uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seq <= p.applied {
		return
	}
	p.pollFailures++
	p.lastPollError = err.Error()
}

// Alert returns the pending alert text, or "".
func (p *Panel) Alert() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alert
}

// DismissAlert clears the pending alert.
func (p *Panel) DismissAlert() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alert = ""
}

// Notice records an informational line.
func (p *Panel) Notice(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addNoticeLocked(text)
}

func (p *Panel) addNoticeLocked(text string) {
	p.notices = append(p.notices, text)
	if len(p.notices) > maxNotices {
		p.notices = p.notices[len(p.notices)-maxNotices:]
	}
}

// View returns a copy of the state for rendering.
func (p *Panel) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	var threads []model.ThreadStatus
	if p.threads != nil {
		threads = make([]model.ThreadStatus, len(p.threads))
		copy(threads, p.threads)
	}
	notices := make([]string, len(p.notices))
	copy(notices, p.notices)

	return View{
		Controls:      p.controlsLocked(),
		State:         p.stateLocked(),
		Log:           p.log,
		Threads:       threads,
		Overall:       p.overall,
		HasOverall:    p.hasOverall,
		Finished:      p.finished,
		Timestamp:     p.timestamp,
		Alert:         p.alert,
		Notices:       notices,
		PollFailures:  p.pollFailures,
		LastPollError: p.lastPollError,
		Polled:        p.polled,
	}
}
