package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/s22625/jobctl/internal/jobtest"
	"github.com/s22625/jobctl/internal/model"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: baseURL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewValidatesURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		want    string
	}{
		{name: "plain", url: "http://127.0.0.1:5000", want: "http://127.0.0.1:5000"},
		{name: "trailing slash trimmed", url: "https://jobs.example.com/panel/", want: "https://jobs.example.com/panel"},
		{name: "missing scheme", url: "127.0.0.1:5000", wantErr: true},
		{name: "unsupported scheme", url: "ftp://example.com", wantErr: true},
		{name: "no host", url: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Options{BaseURL: tt.url})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("New(%q) expected error", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q): %v", tt.url, err)
			}
			if c.BaseURL() != tt.want {
				t.Fatalf("BaseURL() = %q, want %q", c.BaseURL(), tt.want)
			}
		})
	}
}

func TestStartSendsFormInOrder(t *testing.T) {
	srv := jobtest.New(t)
	c := newTestClient(t, srv.URL)

	var req model.StartRequest
	req.Set("target_address", "abc def")
	req.Set("mode", "random")

	resp, err := c.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.Rejected() {
		t.Fatalf("unexpected rejection: %+v", resp)
	}

	got, ok := srv.Last("/")
	if !ok {
		t.Fatal("start request not received")
	}
	if got.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", got.Method)
	}
	if got.RawBody != "target_address=abc+def&mode=random" {
		t.Errorf("body = %q", got.RawBody)
	}
	if got.Form.Get("target_address") != "abc def" {
		t.Errorf("form target_address = %q", got.Form.Get("target_address"))
	}
	if got.RequestID == "" || got.ClientID != c.ClientID() {
		t.Errorf("headers: request id %q, client id %q (want %q)", got.RequestID, got.ClientID, c.ClientID())
	}
}

func TestStartRejected(t *testing.T) {
	srv := jobtest.New(t)
	srv.SetStartError("Start must be <= End.")
	c := newTestClient(t, srv.URL)

	resp, err := c.Start(context.Background(), model.StartRequest{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !resp.Rejected() || resp.Error != "Start must be <= End." {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStartRejectedWithStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad range"}`))
	}))
	defer server.Close()

	resp, err := newTestClient(t, server.URL).Start(context.Background(), model.StartRequest{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.Error != "bad range" {
		t.Fatalf("Error = %q, want %q", resp.Error, "bad range")
	}
}

func TestStartNonJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	if _, err := newTestClient(t, server.URL).Start(context.Background(), model.StartRequest{}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCommands(t *testing.T) {
	srv := jobtest.New(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	if err := c.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if !srv.Paused() {
		t.Fatal("server not paused")
	}
	if err := c.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if srv.Paused() {
		t.Fatal("server still paused")
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := c.ClearLog(ctx); err != nil {
		t.Fatalf("ClearLog: %v", err)
	}

	wantMethods := map[string]string{
		"/pause":     http.MethodPost,
		"/resume":    http.MethodPost,
		"/stop":      http.MethodPost,
		"/clear_log": http.MethodGet,
	}
	for path, method := range wantMethods {
		got, ok := srv.Last(path)
		if !ok {
			t.Errorf("%s not requested", path)
			continue
		}
		if got.Method != method {
			t.Errorf("%s method = %s, want %s", path, got.Method, method)
		}
		if got.RawBody != "" {
			t.Errorf("%s body = %q, want empty", path, got.RawBody)
		}
	}
}

func TestCommandStatusError(t *testing.T) {
	srv := jobtest.New(t)
	srv.Fail("/pause", http.StatusInternalServerError)
	c := newTestClient(t, srv.URL)

	err := c.Pause(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Pause error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError || statusErr.Path != "/pause" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestCommandIgnoresNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("done"))
	}))
	defer server.Close()

	if err := newTestClient(t, server.URL).Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestProgress(t *testing.T) {
	srv := jobtest.New(t)
	srv.SetSnapshot(model.ProgressSnapshot{
		Result: "[10:00:00] started",
		Threads: []model.ThreadStatus{
			{ID: "1", Status: model.ThreadActive, Progress: 50},
			{ID: "2", Status: model.ThreadStopped, Progress: 100},
		},
		OverallProgress: model.PercentPtr(75),
		Timestamp:       "2025-01-01 10:00:00",
	})
	c := newTestClient(t, srv.URL)

	snap, err := c.Progress(context.Background())
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if snap.Result != "[10:00:00] started" || len(snap.Threads) != 2 || snap.Finished {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if overall, ok := snap.Overall(); !ok || overall != 75 {
		t.Fatalf("Overall() = %d, %v", overall, ok)
	}
	if snap.Threads[0].ID != "1" || snap.Threads[1].Status != model.ThreadStopped {
		t.Fatalf("unexpected threads: %+v", snap.Threads)
	}
}

func TestProgressIdleServerHasNoThreads(t *testing.T) {
	srv := jobtest.New(t)
	snap, err := newTestClient(t, srv.URL).Progress(context.Background())
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if snap.HasThreads() || !snap.Finished {
		t.Fatalf("unexpected idle snapshot: %+v", snap)
	}
}

func TestProgressMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"threads": "lots"}`))
	}))
	defer server.Close()

	if _, err := newTestClient(t, server.URL).Progress(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRequestTimeout(t *testing.T) {
	srv := jobtest.New(t)
	srv.Delay("/progress", 2*time.Second)

	c, err := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Progress(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestCustomPaths(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, err := New(Options{BaseURL: server.URL, Paths: Paths{Start: "/start"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Start(context.Background(), model.StartRequest{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if gotPath != "/start" {
		t.Fatalf("path = %q, want /start", gotPath)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if gotPath != "/stop" {
		t.Fatalf("path = %q, want default /stop", gotPath)
	}
}

func TestRejectedErrorMessage(t *testing.T) {
	err := &RejectedError{Message: "busy"}
	if err.Error() != "Error: busy" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestIsTransport(t *testing.T) {
	srv := jobtest.New(t)
	srv.Fail("/stop", http.StatusBadGateway)
	c := newTestClient(t, srv.URL)

	if err := c.Stop(context.Background()); !IsTransport(err) {
		t.Fatalf("status error not classified as transport: %v", err)
	}

	down := newTestClient(t, "http://127.0.0.1:1")
	if _, err := down.Progress(context.Background()); !IsTransport(err) {
		t.Fatalf("connection error not classified as transport: %v", err)
	}

	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"finished": "yes"}`))
	}))
	defer malformed.Close()
	if _, err := newTestClient(t, malformed.URL).Progress(context.Background()); !IsTransport(err) {
		t.Fatalf("decode error not classified as transport: %v", err)
	}

	if IsTransport(errors.New("unrelated")) || IsTransport(&RejectedError{Message: "busy"}) {
		t.Fatal("unrelated errors classified as transport")
	}
}
