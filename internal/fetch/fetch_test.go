package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/punctuality-cli/internal/record/recordtest"
)

var sampleHeader = strings.SplitN(recordtest.SampleCSV, "\n", 2)[0] + "\n"

func TestFetchWritesValidDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(recordtest.SampleCSV))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "data", "source.csv")
	res, err := New(srv.URL, dest, 5*time.Second, nil).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Rows != 5 || res.Path != dest || res.Bytes != len(recordtest.SampleCSV) {
		t.Fatalf("result = %+v", res)
	}
	b, err := os.ReadFile(dest)
	if err != nil || string(b) != recordtest.SampleCSV {
		t.Fatalf("dest content mismatch: %v", err)
	}
}

func TestFetchKeepsExistingFileOnBadDownload(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) { http.Error(w, "gone", http.StatusNotFound) }, "HTTP 404"},
		{"empty", func(w http.ResponseWriter, r *http.Request) {}, "empty response"},
		{"schema", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("a;b\n1;2\n")) }, "validate download"},
		{"header only", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(sampleHeader)) }, "dataset has no rows"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(c.handler)
			defer srv.Close()
			dest := filepath.Join(t.TempDir(), "source.csv")
			if err := os.WriteFile(dest, []byte("previous"), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := New(srv.URL, dest, 5*time.Second, nil).Fetch(context.Background())
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Fatalf("err = %v, want %q", err, c.wantErr)
			}
			b, _ := os.ReadFile(dest)
			if string(b) != "previous" {
				t.Fatalf("destination overwritten: %q", b)
			}
		})
	}
}

func TestFetchHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := New(srv.URL, filepath.Join(t.TempDir(), "x.csv"), time.Minute, nil).Fetch(ctx); err == nil {
		t.Fatalf("expected deadline error")
	}
}

func TestSchedule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(recordtest.SampleCSV))
	}))
	defer srv.Close()

	if _, err := Schedule("every day", New(srv.URL, "x", time.Second, nil), time.Second, nil); err == nil {
		t.Fatalf("expected invalid schedule error")
	}

	done := make(chan Result, 1)
	f := New(srv.URL, filepath.Join(t.TempDir(), "source.csv"), 5*time.Second, nil)
	c, err := Schedule("@every 1s", f, 5*time.Second, func(res Result, err error) {
		if err == nil {
			select {
			case done <- res:
			default:
			}
		}
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	defer c.Stop()
	select {
	case res := <-done:
		if res.Rows != 5 {
			t.Fatalf("rows = %d, want 5", res.Rows)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduled fetch did not run")
	}
}
