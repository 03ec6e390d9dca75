// Package session holds the application context of one analysis session: the
// canonical table loaded once, its catalog, the station lookup and the
// current filter state.
package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/punctuality-cli/internal/aggregate"
	"github.com/KaramelBytes/punctuality-cli/internal/config"
	"github.com/KaramelBytes/punctuality-cli/internal/filter"
	"github.com/KaramelBytes/punctuality-cli/internal/geo"
	"github.com/KaramelBytes/punctuality-cli/internal/memo"
	"github.com/KaramelBytes/punctuality-cli/internal/parser"
	"github.com/KaramelBytes/punctuality-cli/internal/quality"
	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// Config locates the session inputs.
type Config struct {
	SourcePath   string
	CachePath    string
	StationsPath string
	StatePath    string

	MemoSize int
	TopN     int
	Quality  quality.Options

	// Observer is told about memo hits and misses.
	Observer memo.Observer
	Logger   *slog.Logger
	// Read parses the source on a cache miss; parser.LoadTable when nil.
	Read record.Reader
}

// ConfigFrom maps the global configuration onto session inputs.
func ConfigFrom(g *config.Global) Config {
	return Config{
		SourcePath:   g.SourcePath(),
		CachePath:    g.CachePath(),
		StationsPath: g.StationsPath(),
		StatePath:    g.StatePath(),
		MemoSize:     g.MemoSize,
		TopN:         g.DefaultTopN,
		Quality:      quality.Options{Method: quality.Method(g.OutlierMethod), Threshold: g.OutlierThreshold},
	}
}

// Session owns the read-only canonical table. Only the filter state changes
// after Open.
type Session struct {
	ID        string
	OpenedAt  time.Time
	Table     *record.Table
	Catalog   record.Catalog
	Lookup    *geo.Lookup
	FromCache bool

	cfg  Config
	log  *slog.Logger
	memo *memo.Cache

	mu    sync.RWMutex
	state filter.State
}

// Open loads the canonical table (from cache when fresh), builds the catalog,
// loads station coordinates and restores the saved filter state. Only a
// failure to load the table is fatal.
func Open(cfg Config) (*Session, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	read := cfg.Read
	if read == nil {
		read = parser.LoadTable
	}

	t, fromCache, cacheErr := record.Load(cfg.SourcePath, cfg.CachePath, read)
	if t == nil {
		return nil, fmt.Errorf("load dataset: %w", cacheErr)
	}
	if cacheErr != nil {
		log.Warn("dataset cache unavailable", "path", cfg.CachePath, "err", cacheErr)
	}
	// No months means no default filter state, so no view could be answered.
	if t.Len() == 0 {
		return nil, fmt.Errorf("load dataset: %w: %s", record.ErrEmptyDataset, cfg.SourcePath)
	}

	s := &Session{
		ID:        uuid.NewString(),
		OpenedAt:  time.Now(),
		Table:     t,
		Catalog:   record.BuildCatalog(t),
		FromCache: fromCache,
		cfg:       cfg,
		log:       log,
		memo:      memo.New(cfg.MemoSize, cfg.Observer),
	}

	s.Lookup = geo.NewLookup(nil)
	if cfg.StationsPath != "" {
		l, err := geo.LoadLookup(cfg.StationsPath)
		if err != nil {
			log.Warn("station coordinates unavailable", "path", cfg.StationsPath, "err", err)
		}
		s.Lookup = l
	}

	if _, err := s.ReloadState(); err != nil {
		log.Warn("saved filter state ignored", "path", cfg.StatePath, "err", err)
		s.state = filter.Default(s.Catalog)
	}

	log.Info("session opened",
		"session", s.ID,
		"rows", t.Len(),
		"from_cache", fromCache,
		"stations", s.Lookup.Len(),
		"months", len(s.Catalog.Months),
	)
	return s, nil
}

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.log }

// State returns the current filter state.
func (s *Session) State() filter.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState validates and replaces the current filter state.
func (s *Session) SetState(st filter.State) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

// SaveState writes the current filter state to the configured file.
func (s *Session) SaveState() error {
	if s.cfg.StatePath == "" {
		return errors.New("no filter state file configured")
	}
	return filter.SaveState(s.cfg.StatePath, s.State())
}

// ReloadState reads the filter state file again. A missing file restores the
// default state; an invalid one is an error and leaves the state unchanged.
func (s *Session) ReloadState() (filter.State, error) {
	st := filter.Default(s.Catalog)
	if s.cfg.StatePath != "" {
		loaded, ok, err := filter.LoadState(s.cfg.StatePath)
		if err != nil {
			return s.State(), err
		}
		if ok {
			st = loaded
		}
	}
	if err := s.SetState(st); err != nil {
		return s.State(), err
	}
	return st, nil
}

// DefaultOptions returns the view options of a fresh request, with the
// configured top N when it is in range.
func (s *Session) DefaultOptions() aggregate.Options {
	o := aggregate.DefaultOptions()
	if n := s.cfg.TopN; n >= 5 && n <= 30 {
		o.TopN = n
	}
	return o
}

// QualityOptions returns the configured outlier options.
func (s *Session) QualityOptions() quality.Options {
	if err := s.cfg.Quality.Validate(); err != nil {
		return quality.DefaultOptions()
	}
	return s.cfg.Quality
}

// Filtered applies a filter state to the canonical table. Results are
// memoized by the canonical form of the state.
func (s *Session) Filtered(st filter.State) (*record.Table, error) {
	key := memo.Key("filter", st.Key())
	if v, ok := s.memo.Get(key); ok {
		if t, ok := v.(*record.Table); ok {
			return t, nil
		}
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	t, err := filter.Apply(s.Table, st)
	if err != nil {
		return nil, err
	}
	s.memo.Set(key, t)
	return t, nil
}
