package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/punctuality-cli/internal/utils"
)

// Format names accepted by Export.
const (
	FormatMarkdown = "md"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatXLSX     = "xlsx"
)

// Formats lists the export formats.
var Formats = []string{FormatMarkdown, FormatCSV, FormatJSON, FormatXLSX}

// ParseFormat normalizes a format name.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown format %q (want one of %s)", s, strings.Join(Formats, ", "))
}

func safeCell(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// Markdown renders tables as bracketed sections with pipe tables.
func Markdown(w io.Writer, tables ...Table) error {
	var b strings.Builder
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("[%s]\n", t.heading()))
		if len(t.Rows) == 0 {
			b.WriteString("(no rows)\n")
			continue
		}
		b.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(t.Columns)) + "\n")
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = safeCell(Format(v, 2, Placeholder))
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// records is the header plus the text form of every row. Undefined numbers
// are left empty.
func (t Table) records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Columns...))
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = Format(v, -1, "")
		}
		out = append(out, rec)
	}
	return out
}

// CSV writes one table with a header row.
func CSV(w io.Writer, t Table) error {
	recs := t.records()
	if len(t.Rows) == 0 {
		// gota refuses a header-only frame.
		return csv.NewWriter(w).WriteAll(recs)
	}
	df := dataframe.LoadRecords(recs,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return fmt.Errorf("build frame %s: %w", t.Name, df.Err)
	}
	return df.WriteCSV(w)
}

// JSONTable is the wire form of a table. Undefined numbers are null.
type JSONTable struct {
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ToJSON converts tables to their wire form.
func ToJSON(tables ...Table) []JSONTable {
	out := make([]JSONTable, len(tables))
	for i, t := range tables {
		rows := make([][]any, len(t.Rows))
		for r, row := range t.Rows {
			rows[r] = jsonRow(row)
		}
		out[i] = JSONTable{Name: t.Name, Title: t.heading(), Columns: t.Columns, Rows: rows}
	}
	return out
}

// JSON writes the tables as an indented array.
func JSON(w io.Writer, tables ...Table) error {
	b, err := utils.PrettyJSON(ToJSON(tables...))
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

func jsonRow(row []any) []any {
	out := make([]any, len(row))
	for j, v := range row {
		if f, ok := v.(float64); ok && !defined(f) {
			continue
		}
		out[j] = v
	}
	return out
}

// sheetName fits a table name into the 31 characters Excel allows.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, name)
	if len(name) > 31 {
		name = name[:31]
	}
	if name == "" {
		name = "Sheet"
	}
	return name
}

// XLSX writes a workbook with one sheet per table.
func XLSX(w io.Writer, tables ...Table) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	seen := map[string]bool{}
	for i, t := range tables {
		name := sheetName(t.Name)
		if seen[name] {
			name = sheetName(fmt.Sprintf("%d_%s", i+1, t.Name))
		}
		seen[name] = true
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("name sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
		header := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			header[j] = c
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("write header %s: %w", name, err)
		}
		for r, row := range t.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			vals := jsonRow(row)
			if err := f.SetSheetRow(name, cell, &vals); err != nil {
				return fmt.Errorf("write row %s: %w", name, err)
			}
		}
	}
	return f.Write(w)
}

// Export writes the tables into dir in one format and returns the files it
// wrote. CSV produces one file per table; the other formats a single report.
func Export(dir, format string, tables []Table) ([]string, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure export dir: %w", err)
	}
	write := func(name string, render func(io.Writer) error) (string, error) {
		var buf bytes.Buffer
		if err := render(&buf); err != nil {
			return "", fmt.Errorf("render %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
		return path, nil
	}

	var paths []string
	switch format {
	case FormatCSV:
		for _, t := range tables {
			t := t
			p, err := write(t.Name+".csv", func(w io.Writer) error { return CSV(w, t) })
			if err != nil {
				return paths, err
			}
			paths = append(paths, p)
		}
	case FormatJSON:
		p, err := write("report.json", func(w io.Writer) error { return JSON(w, tables...) })
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	case FormatXLSX:
		p, err := write("report.xlsx", func(w io.Writer) error { return XLSX(w, tables...) })
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	default:
		p, err := write("report.md", func(w io.Writer) error { return Markdown(w, tables...) })
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
