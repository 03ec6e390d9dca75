package watch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/punctuality-cli/internal/utils"
)

func TestRunReportsReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state", "filters.yaml")
	w, err := New(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan string, 4)
	stopped := make(chan error, 1)
	go func() { stopped <- w.Run(ctx, func(p string) { changed <- p }) }()

	if err := utils.SafeWriteFile(filepath.Join(dir, "state", "other.yaml"), []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := utils.SafeWriteFile(path, []byte("date_start: 2024-01\n")); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got != w.Path() {
			t.Fatalf("changed = %q, want %q", got, w.Path())
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no change reported")
	}

	cancel()
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop")
	}
}
