// Package fetch downloads the monthly dataset and keeps it fresh on a
// schedule.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/robfig/cron"

	"github.com/KaramelBytes/punctuality-cli/internal/parser"
	"github.com/KaramelBytes/punctuality-cli/internal/record"
	"github.com/KaramelBytes/punctuality-cli/internal/utils"
)

// Fetcher downloads one source URL into one file.
type Fetcher struct {
	URL  string
	Dest string

	httpClient *http.Client
	log        *slog.Logger
}

// New returns a fetcher with a request timeout.
func New(url, dest string, timeout time.Duration, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		URL:        url,
		Dest:       dest,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Result describes a completed download.
type Result struct {
	Path    string
	Bytes   int
	Rows    int
	Elapsed time.Duration
}

// Fetch downloads the dataset, checks that it cleans into a canonical table
// and only then replaces the destination file.
func (f *Fetcher) Fetch(ctx context.Context) (Result, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", f.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("HTTP %d from %s", resp.StatusCode, f.URL)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return Result{}, fmt.Errorf("empty response from %s", f.URL)
	}

	df, err := parser.ReadCSV(bytes.NewReader(body), 0)
	if err != nil {
		return Result{}, fmt.Errorf("parse download: %w", err)
	}
	t, err := record.Clean(df)
	if err != nil {
		return Result{}, fmt.Errorf("validate download: %w", err)
	}
	if t.Len() == 0 {
		return Result{}, fmt.Errorf("validate download: %w", record.ErrEmptyDataset)
	}

	if err := utils.EnsureDir(filepath.Dir(f.Dest)); err != nil {
		return Result{}, fmt.Errorf("ensure data dir: %w", err)
	}
	if err := utils.SafeWriteFile(f.Dest, body); err != nil {
		return Result{}, fmt.Errorf("write dataset: %w", err)
	}
	res := Result{Path: f.Dest, Bytes: len(body), Rows: t.Len(), Elapsed: time.Since(start)}
	f.log.Info("dataset downloaded", "path", res.Path, "bytes", res.Bytes, "rows", res.Rows, "elapsed", res.Elapsed)
	return res, nil
}

// Schedule runs the fetcher on a cron spec ("@every 24h", "0 0 6 * * *")
// until the returned cron is stopped. Each run is bounded by timeout and
// reported to done.
func Schedule(spec string, f *Fetcher, timeout time.Duration, done func(Result, error)) (*cron.Cron, error) {
	if _, err := cron.Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	c := cron.New()
	err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := f.Fetch(ctx)
		if err != nil {
			f.log.Error("scheduled fetch failed", "url", f.URL, "err", err)
		}
		if done != nil {
			done(res, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("add schedule: %w", err)
	}
	c.Start()
	f.log.Info("fetch scheduled", "spec", spec, "url", f.URL)
	return c, nil
}
