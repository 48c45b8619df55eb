// Package output renders command results as tables, JSON, YAML or markdown.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	md "github.com/nao1215/markdown"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/respawnmetrics/respawn/internal/cmd/table"
)

// Format is an output format name accepted by --format.
type Format string

const (
	FormatTable    Format = "table"
	FormatWide     Format = "wide"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// NarrowCellWidth is the longest cell the table format prints before
// truncating. The wide format never truncates.
const NarrowCellWidth = 60

// Data is the tabular form of a result.
type Data = table.Data

// Formatter writes a value in one format.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter returns the formatter for format. Unknown formats render as
// a table.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	case FormatWide:
		return &TableFormatter{Wide: true}
	default:
		return &TableFormatter{}
	}
}

// Structured reports whether the format encodes values rather than tables.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatYAML
}

// Write renders rows for tabular formats and raw for structured ones.
func Write(w io.Writer, format Format, rows Data, raw any) error {
	if format.Structured() {
		return NewFormatter(format).Format(w, raw)
	}
	return NewFormatter(format).Format(w, rows)
}

// JSONFormatter writes one JSON document.
type JSONFormatter struct {
	Indent string
}

func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.Indent)
	return enc.Encode(data)
}

// YAMLFormatter writes one YAML document.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	out, err := yaml.MarshalWithOptions(data, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// MarkdownFormatter writes a GitHub flavored markdown table.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, data any) error {
	d, err := tabular(data)
	if err != nil {
		return fmt.Errorf("markdown output: %w", err)
	}
	return md.NewMarkdown(w).Table(md.TableSet{Header: d.Headers, Rows: d.Rows}).Build()
}

// TableFormatter writes a terminal table. Values that are not Data are
// flattened by reflection, or written as JSON when that fails.
type TableFormatter struct {
	Wide bool
}

func (f *TableFormatter) Format(w io.Writer, data any) error {
	d, err := tabular(data)
	if err != nil {
		return (&JSONFormatter{Indent: "  "}).Format(w, data)
	}

	var cfg tablewriter.Config
	if len(d.ColumnAlignment) > 0 {
		align := make([]tw.Align, len(d.ColumnAlignment))
		for i, a := range d.ColumnAlignment {
			align[i] = twAlign[a]
		}
		cfg.Header.Alignment = tw.CellAlignment{PerColumn: align}
		cfg.Row.Alignment = tw.CellAlignment{PerColumn: align}
	}

	tbl := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))
	if len(d.Headers) > 0 {
		tbl.Header(cells(d.Headers, 0)...)
	}
	width := NarrowCellWidth
	if f.Wide {
		width = 0
	}
	for _, row := range d.Rows {
		if err := tbl.Append(cells(row, width)...); err != nil {
			return err
		}
	}
	return tbl.Render()
}

var twAlign = map[table.Align]tw.Align{
	table.AlignDefault: tw.Skip,
	table.AlignLeft:    tw.AlignLeft,
	table.AlignCenter:  tw.AlignCenter,
	table.AlignRight:   tw.AlignRight,
}

// cells converts a row for tablewriter, truncating to width runes when
// width is positive.
func cells(row []string, width int) []any {
	out := make([]any, len(row))
	for i, c := range row {
		if r := []rune(c); width > 0 && len(r) > width {
			c = string(r[:width-1]) + "…"
		}
		out[i] = c
	}
	return out
}

// DetectFormat returns explicit when set, otherwise table on a terminal and
// JSON when stdout is piped.
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	if fd := os.Stdout.Fd(); isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return FormatTable
	}
	return FormatJSON
}

// ParseFormat validates a --format value. Empty means auto-detect.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatTable, FormatWide, FormatJSON, FormatYAML, FormatMarkdown:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: table, json, yaml, wide, markdown", s)
	}
}

// tabular returns data as Data. A struct becomes a property table and a
// slice of structs one row per element.
func tabular(data any) (Data, error) {
	if d, ok := data.(Data); ok {
		return d, nil
	}

	v := reflect.ValueOf(data)
	switch {
	case v.Kind() == reflect.Struct:
		fields := columns(v.Type())
		d := Data{Headers: []string{"Property", "Value"}}
		for _, c := range fields {
			d.Rows = append(d.Rows, []string{c.title, fmt.Sprint(v.Field(c.index).Interface())})
		}
		return d, nil
	case v.Kind() == reflect.Slice && v.Len() > 0 && v.Index(0).Kind() == reflect.Struct:
		fields := columns(v.Index(0).Type())
		d := Data{Rows: make([][]string, 0, v.Len())}
		for _, c := range fields {
			d.Headers = append(d.Headers, c.title)
		}
		for i := range v.Len() {
			row := make([]string, len(fields))
			for j, c := range fields {
				row[j] = fmt.Sprint(v.Index(i).Field(c.index).Interface())
			}
			d.Rows = append(d.Rows, row)
		}
		return d, nil
	default:
		return Data{}, fmt.Errorf("%T is not tabular", data)
	}
}

type column struct {
	index int
	title string
}

// columns lists exported fields not tagged json:"-", titled from their json
// name.
func columns(t reflect.Type) []column {
	titler := cases.Title(language.English)
	var out []column
	for i := range t.NumField() {
		field := t.Field(i)
		tag, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if !field.IsExported() || tag == "-" {
			continue
		}
		title := field.Name
		if tag != "" {
			title = titler.String(strings.ReplaceAll(tag, "_", " "))
		}
		out = append(out, column{index: i, title: title})
	}
	return out
}
