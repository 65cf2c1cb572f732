package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/s22625/jobctl/internal/jobtest"
	"github.com/s22625/jobctl/internal/model"
	"github.com/s22625/jobctl/internal/panel"
)

func TestLogDelta(t *testing.T) {
	tests := []struct {
		prev, next, want string
	}{
		{"", "a\n", "a\n"},
		{"a\n", "a\nb\n", "b\n"},
		{"a\nb\n", "a\nb\n", ""},
		{"a\nb\n", "c\n", "c\n"},
		{"a\n", "", ""},
	}
	for _, tt := range tests {
		if got := logDelta(tt.prev, tt.next); got != tt.want {
			t.Errorf("logDelta(%q, %q) = %q, want %q", tt.prev, tt.next, got, tt.want)
		}
	}
}

func TestWatchPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newWatchPrinter(&buf, false)

	running := panel.View{
		Log:        "one\n",
		Threads:    []model.ThreadStatus{{ID: "1", Status: model.ThreadActive, Progress: 10}},
		Overall:    10,
		HasOverall: true,
	}
	p.Print(running, true)
	p.Print(running, true)

	running.Log = "one\ntwo\n"
	p.Print(running, true)

	p.Print(panel.View{PollFailures: 1, LastPollError: "connection refused", Log: running.Log}, false)

	out := buf.String()
	want := "one\nThread 1: active 10%\noverall 10%\ntwo\npoll failed (1): connection refused\n"
	if out != want {
		t.Fatalf("output =\n%q\nwant\n%q", out, want)
	}
}

func TestWatchPrinterThreadsReappear(t *testing.T) {
	var buf bytes.Buffer
	p := newWatchPrinter(&buf, false)

	busy := panel.View{Threads: []model.ThreadStatus{{ID: "1", Status: model.ThreadActive, Progress: 10}}}
	p.Print(busy, true)
	p.Print(panel.View{Threads: []model.ThreadStatus{}}, true)
	p.Print(busy, true)
	p.Print(panel.View{Threads: []model.ThreadStatus{{ID: "2", Status: "mystery", Progress: 5}}}, true)

	want := "Thread 1: active 10%\nThread 1: active 10%\nThread 2: mystery 5%\n"
	if got := buf.String(); got != want {
		t.Fatalf("output =\n%q\nwant\n%q", got, want)
	}
}

func TestRunWatchUntilDone(t *testing.T) {
	srv := jobtest.New(t)
	srv.SetSnapshot(model.ProgressSnapshot{
		Result:  "working\n",
		Threads: []model.ThreadStatus{{ID: "1", Status: model.ThreadActive, Progress: 30}},
	})
	useServer(t, srv.URL)

	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for srv.Count("/progress") < 2 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		srv.SetSnapshot(model.ProgressSnapshot{Result: "working\ndone\n", Finished: true})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out := captureStdout(t, func() {
		if err := runWatch(ctx, &watchOptions{UntilDone: true}); err != nil {
			t.Fatalf("runWatch: %v", err)
		}
	})

	if ctx.Err() != nil {
		t.Fatal("watch ended by timeout")
	}
	if strings.Count(out, "working") != 1 || !strings.Contains(out, "done") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "Thread 1: active 30%") {
		t.Fatalf("thread line missing: %q", out)
	}
}
