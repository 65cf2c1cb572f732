package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// ThreadState is the server-reported state of one worker thread.
type ThreadState string

const (
	ThreadActive  ThreadState = "active"
	ThreadPaused  ThreadState = "paused"
	ThreadStopped ThreadState = "stopped"
)

// Known reports whether s is one of the states the server documents.
func (s ThreadState) Known() bool {
	switch s {
	case ThreadActive, ThreadPaused, ThreadStopped:
		return true
	default:
		return false
	}
}

// ThreadID identifies a thread. The server may send it as a JSON number or
// string; it is kept in its textual form either way.
type ThreadID string

// UnmarshalJSON accepts numbers and strings.
func (id *ThreadID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("thread id: %w", err)
		}
		*id = ThreadID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("thread id: %w", err)
	}
	*id = ThreadID(n.String())
	return nil
}

// Percent is a progress value bounded to 0..100.
type Percent int

// ClampPercent rounds f and bounds it to 0..100. NaN maps to 0.
func ClampPercent(f float64) Percent {
	switch {
	case math.IsNaN(f), f <= 0:
		return 0
	case f >= 100:
		return 100
	default:
		return Percent(math.Round(f))
	}
}

// UnmarshalJSON accepts any JSON number and clamps it.
func (p *Percent) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("progress: %w", err)
	}
	*p = ClampPercent(f)
	return nil
}

// Fraction returns p as 0..1 for progress bars.
func (p Percent) Fraction() float64 {
	return float64(p) / 100
}

// ThreadStatus is one entry of the per-thread status list.
type ThreadStatus struct {
	ID       ThreadID    `json:"id"`
	Status   ThreadState `json:"status"`
	Progress Percent     `json:"progress"`
}

// Label returns the display label, e.g. "Thread 3: paused".
func (t ThreadStatus) Label() string {
	return fmt.Sprintf("Thread %s: %s", t.ID, t.Status)
}
