package parser

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/punctuality-cli/internal/record"
)

// Parser reads one source format into a string-typed frame.
type Parser interface {
	CanParse(filename string) bool
	Parse(path string) (dataframe.DataFrame, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ParseFile selects a parser based on filename and returns the raw frame.
func ParseFile(path string) (dataframe.DataFrame, error) {
	if _, err := os.Stat(path); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open source: %w", err)
	}
	for _, p := range registry {
		if p.CanParse(path) {
			return p.Parse(path)
		}
	}
	return dataframe.DataFrame{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

// LoadTable parses and cleans a source file into the canonical table.
func LoadTable(path string) (*record.Table, error) {
	df, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	t, err := record.Clean(df)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", path, err)
	}
	return t, nil
}

// nanValues are the cell tokens treated as missing.
var nanValues = []string{"", "NA", "NaN", "<nil>", "nan"}

// frameFromRecords builds a string-typed frame from a header row plus data
// rows. A header with no data rows yields an empty frame with its columns.
func frameFromRecords(records [][]string) (dataframe.DataFrame, error) {
	if len(records) == 0 {
		return dataframe.DataFrame{}, errors.New("source has no header row")
	}
	header := records[0]
	for _, row := range records[1:] {
		if len(row) != len(header) {
			return dataframe.DataFrame{}, fmt.Errorf("row has %d fields, header has %d", len(row), len(header))
		}
	}
	if len(records) == 1 {
		cols := make([]series.Series, len(header))
		for i, h := range header {
			cols[i] = series.New([]string{}, series.String, h)
		}
		df := dataframe.New(cols...)
		return df, df.Err
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	return df, df.Err
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported source format")
