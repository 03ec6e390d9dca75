package record

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/punctuality-cli/internal/utils"
)

const cacheVersion = 1

// cacheFile is the columnar on-disk form: one slice per column. Derived fields
// are recomputed on load.
type cacheFile struct {
	Version int
	Present []Column
	Extra   []string

	Row   []int
	Date  []int64
	Ints  map[Column][]int64
	Valid map[Column][]bool
	Float map[Column][]float64
	Text  map[Column][]string
	// ExtraValues is column-major, aligned with Extra.
	ExtraValues [][]string
}

// SaveCache writes the table to path as a versioned gob file.
func SaveCache(path string, t *Table) error {
	n := t.Len()
	cf := cacheFile{
		Version:     cacheVersion,
		Present:     t.Present(),
		Extra:       t.Extra,
		Row:         make([]int, n),
		Date:        make([]int64, n),
		Ints:        make(map[Column][]int64, len(intFields)),
		Valid:       make(map[Column][]bool, len(intFields)),
		Float:       make(map[Column][]float64, len(floatFields)),
		Text:        make(map[Column][]string, len(textFields)),
		ExtraValues: make([][]string, len(t.Extra)),
	}
	for c := range intFields {
		cf.Ints[c] = make([]int64, n)
		cf.Valid[c] = make([]bool, n)
	}
	for c := range floatFields {
		cf.Float[c] = make([]float64, n)
	}
	for c := range textFields {
		cf.Text[c] = make([]string, n)
	}
	for j := range cf.ExtraValues {
		cf.ExtraValues[j] = make([]string, n)
	}

	for i := range t.Records {
		r := &t.Records[i]
		cf.Row[i] = r.Row
		cf.Date[i] = r.Date.Unix()
		for c, f := range intFields {
			v := f(r)
			cf.Ints[c][i], cf.Valid[c][i] = v.V, v.Valid
		}
		for c, f := range floatFields {
			cf.Float[c][i] = *f(r)
		}
		for c, f := range textFields {
			cf.Text[c][i] = *f(r)
		}
		for j := range cf.ExtraValues {
			if j < len(r.Extra) {
				cf.ExtraValues[j][i] = r.Extra[j]
			}
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&cf); err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("ensure cache dir: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// LoadCache reads a table written by SaveCache.
func LoadCache(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	defer f.Close()

	var cf cacheFile
	if err := gob.NewDecoder(f).Decode(&cf); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	if cf.Version != cacheVersion {
		return nil, fmt.Errorf("cache version %d, want %d", cf.Version, cacheVersion)
	}

	n := len(cf.Date)
	records := make([]Record, n)
	for i := range records {
		r := &records[i]
		r.Row = cf.Row[i]
		r.Date = time.Unix(cf.Date[i], 0).UTC()
		for c, f := range intFields {
			if col, ok := cf.Ints[c]; ok && i < len(col) {
				*f(r) = Int{V: col[i], Valid: cf.Valid[c][i]}
			}
		}
		for c, f := range floatFields {
			if col, ok := cf.Float[c]; ok && i < len(col) {
				*f(r) = col[i]
			}
		}
		for c, f := range textFields {
			if col, ok := cf.Text[c]; ok && i < len(col) {
				*f(r) = col[i]
			}
		}
		if len(cf.ExtraValues) > 0 {
			r.Extra = make([]string, len(cf.ExtraValues))
			for j, col := range cf.ExtraValues {
				r.Extra[j] = col[i]
			}
		}
		r.Derive()
	}
	return NewTable(records, cf.Present, cf.Extra), nil
}

// Reader parses and cleans a source file.
type Reader func(path string) (*Table, error)

// Load returns the canonical table, preferring a cache that is newer than the
// source. A fresh clean is written back to the cache; the returned cacheErr is
// only informational.
func Load(source, cachePath string, read Reader) (t *Table, fromCache bool, cacheErr error) {
	srcInfo, srcErr := os.Stat(source)
	if cachePath != "" {
		if cInfo, err := os.Stat(cachePath); err == nil {
			if srcErr != nil || !cInfo.ModTime().Before(srcInfo.ModTime()) {
				t, err := LoadCache(cachePath)
				if err == nil {
					return t, true, nil
				}
				cacheErr = err
			}
		}
	}
	if srcErr != nil {
		if errors.Is(srcErr, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("%w: %s", ErrNoSource, source)
		}
		return nil, false, fmt.Errorf("stat source: %w", srcErr)
	}

	t, err := read(source)
	if err != nil {
		return nil, false, err
	}
	if cachePath != "" {
		if err := SaveCache(cachePath, t); err != nil {
			cacheErr = err
		}
	}
	return t, false, cacheErr
}
