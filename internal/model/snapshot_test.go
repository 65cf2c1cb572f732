package model

import (
	"encoding/json"
	"testing"
)

func TestProgressSnapshotDecode(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantThreads bool
		wantCount   int
		wantOverall bool
		overall     Percent
		finished    bool
	}{
		{
			name:        "empty object",
			body:        `{}`,
			wantThreads: false,
		},
		{
			name:        "null threads is absent",
			body:        `{"threads": null}`,
			wantThreads: false,
		},
		{
			name:        "empty thread list is present",
			body:        `{"threads": []}`,
			wantThreads: true,
			wantCount:   0,
		},
		{
			name:        "zero overall progress is present",
			body:        `{"overall_progress": 0}`,
			wantOverall: true,
			overall:     0,
		},
		{
			name:        "full snapshot",
			body:        `{"result":"line","threads":[{"id":1,"status":"active","progress":50},{"id":2,"status":"stopped","progress":100}],"overall_progress":75,"finished":true,"timestamp":"2025-01-01 10:00:00"}`,
			wantThreads: true,
			wantCount:   2,
			wantOverall: true,
			overall:     75,
			finished:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var snap ProgressSnapshot
			if err := json.Unmarshal([]byte(tt.body), &snap); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if snap.HasThreads() != tt.wantThreads {
				t.Fatalf("HasThreads() = %v, want %v", snap.HasThreads(), tt.wantThreads)
			}
			if len(snap.Threads) != tt.wantCount {
				t.Fatalf("len(Threads) = %d, want %d", len(snap.Threads), tt.wantCount)
			}
			overall, ok := snap.Overall()
			if ok != tt.wantOverall || overall != tt.overall {
				t.Fatalf("Overall() = %d, %v; want %d, %v", overall, ok, tt.overall, tt.wantOverall)
			}
			if snap.Finished != tt.finished {
				t.Fatalf("Finished = %v, want %v", snap.Finished, tt.finished)
			}
		})
	}
}

func TestThreadStatusDecode(t *testing.T) {
	var threads []ThreadStatus
	body := `[{"id":1,"status":"active","progress":49.6},{"id":"w-2","status":"paused","progress":-3},{"id":3,"status":"mystery","progress":250}]`
	if err := json.Unmarshal([]byte(body), &threads); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []ThreadStatus{
		{ID: "1", Status: ThreadActive, Progress: 50},
		{ID: "w-2", Status: ThreadPaused, Progress: 0},
		{ID: "3", Status: "mystery", Progress: 100},
	}
	for i, w := range want {
		if threads[i] != w {
			t.Errorf("threads[%d] = %+v, want %+v", i, threads[i], w)
		}
	}
	if threads[2].Status.Known() {
		t.Error("unexpected state should not be Known()")
	}
	if got := threads[1].Label(); got != "Thread w-2: paused" {
		t.Errorf("Label() = %q", got)
	}
}

func TestThreadIDRejectsBool(t *testing.T) {
	var th ThreadStatus
	if err := json.Unmarshal([]byte(`{"id":true}`), &th); err == nil {
		t.Fatal("expected error for boolean id")
	}
}

func TestPercentRejectsString(t *testing.T) {
	var th ThreadStatus
	if err := json.Unmarshal([]byte(`{"progress":"50"}`), &th); err == nil {
		t.Fatal("expected error for string progress")
	}
}
