package model

// ProgressSnapshot is the body of GET /progress. Every field is optional.
//
// A nil Threads slice means the server did not send a thread list; an empty
// non-nil slice means it sent an empty one. OverallProgress is nil when absent.
type ProgressSnapshot struct {
	Result          string         `json:"result,omitempty"`
	Threads         []ThreadStatus `json:"threads"`
	OverallProgress *Percent       `json:"overall_progress,omitempty"`
	Finished        bool           `json:"finished,omitempty"`
	Timestamp       string         `json:"timestamp,omitempty"`
}

// HasThreads reports whether the snapshot carries a thread list.
func (s *ProgressSnapshot) HasThreads() bool {
	return s != nil && s.Threads != nil
}

// Overall returns the aggregate progress and whether it was present.
func (s *ProgressSnapshot) Overall() (Percent, bool) {
	if s == nil || s.OverallProgress == nil {
		return 0, false
	}
	return *s.OverallProgress, true
}

// PercentPtr is a helper for building snapshots.
func PercentPtr(p Percent) *Percent {
	return &p
}
