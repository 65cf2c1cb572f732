package cli

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/s22625/jobctl/internal/api"
	"github.com/s22625/jobctl/internal/jobtest"
	"github.com/spf13/pflag"
)

func TestFieldFlag(t *testing.T) {
	var f fieldFlag
	fs := pflag.NewFlagSet("start", pflag.ContinueOnError)
	fs.Var(&f, "field", "")

	err := fs.Parse([]string{"--field", "target=abc def", "--field", "mode=random", "--field", "target=xyz"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := f.String(); got != "target=xyz&mode=random" {
		t.Fatalf("String() = %q", got)
	}
	if f.Type() != "name=value" {
		t.Fatalf("Type() = %q", f.Type())
	}

	if err := f.Set("novalue"); err == nil {
		t.Fatal("expected error for field without '='")
	}
}

func TestRunStart(t *testing.T) {
	srv := jobtest.New(t)
	useServer(t, srv.URL)

	opts := &startOptions{}
	_ = opts.Fields.Set("target=abc")
	_ = opts.Fields.Set("threads=4")

	out := captureStdout(t, func() {
		if err := runStart(context.Background(), opts); err != nil {
			t.Fatalf("runStart: %v", err)
		}
	})

	if strings.TrimSpace(out) != "Search started." {
		t.Fatalf("output = %q", out)
	}
	got, ok := srv.Last("/")
	if !ok || got.RawBody != "target=abc&threads=4" {
		t.Fatalf("start request = %+v", got)
	}
	if !srv.Running() {
		t.Fatal("server not running after start")
	}
}

func TestRunStartRejected(t *testing.T) {
	srv := jobtest.New(t)
	srv.SetStartError("Invalid range.")
	useServer(t, srv.URL)
	globalOpts.JSON = true

	var err error
	out := captureStdout(t, func() {
		err = runStart(context.Background(), &startOptions{})
	})

	var rejected *api.RejectedError
	if !errors.As(err, &rejected) || err.Error() != "Error: Invalid range." {
		t.Fatalf("err = %v, want RejectedError", err)
	}
	if exitCode(err) != ExitRejected {
		t.Fatalf("exitCode = %d, want %d", exitCode(err), ExitRejected)
	}

	var got struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if got.OK || got.Error != "Invalid range." {
		t.Fatalf("unexpected output: %+v", got)
	}
}
