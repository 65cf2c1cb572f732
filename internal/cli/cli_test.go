package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}

	os.Stdout = w
	defer func() {
		os.Stdout = orig
	}()

	fn()

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	return string(out)
}

func resetGlobalOpts(t *testing.T) {
	t.Helper()
	orig := *globalOpts
	t.Cleanup(func() {
		*globalOpts = orig
	})
}

// useServer points the commands at serverURL through a temporary config file.
func useServer(t *testing.T, serverURL string) {
	t.Helper()
	resetGlobalOpts(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "server: " + serverURL + "\npoll_interval: 10ms\nrequest_timeout: 2s\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	globalOpts.ConfigPath = path
}
