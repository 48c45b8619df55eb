package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/respawnmetrics/respawn/pkg/constants"
)

// Text writes the summary in the plain text report layout.
func Text(w io.Writer, s *Summary) error {
	var b strings.Builder

	b.WriteString("RespawnMetrics Dataset Merge Summary\n")
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	if s.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	}
	fmt.Fprintf(&b, "Generated: %s\n\n", s.GeneratedAt.Format(constants.TimeFormatReport))

	b.WriteString("Original Datasets:\n")
	for _, d := range s.Inputs {
		writeDataset(&b, d)
	}
	fmt.Fprintf(&b, "Total original records: %s\n\n", thousands(s.InputRecords))

	if s.Master != nil {
		fmt.Fprintf(&b, "Master Dataset: %s records\n", thousands(s.Master.Records))
		fmt.Fprintf(&b, "  Columns: %s\n\n", columnList(s.Master.Columns))
	}

	b.WriteString("Specialized Datasets:\n")
	for _, d := range s.Specialized {
		writeDataset(&b, d)
	}

	if g := s.Games; g != nil {
		fmt.Fprintf(&b, "Wellbeing and Steam Games: %s records\n", thousands(g.Dataset.Records))
		fmt.Fprintf(&b, "  Matched games: %s\n", thousands(g.Matched))
		fmt.Fprintf(&b, "  Unmatched games: %s\n\n", thousands(g.Unmatched))
	}

	if len(s.Distribution) > 0 {
		b.WriteString("Data Source Distribution:\n")
		for _, sh := range s.Distribution {
			fmt.Fprintf(&b, "  %s: %s records (%.1f%%)\n", sh.Source, thousands(sh.Records), sh.Percent)
		}
		b.WriteString("\n")
	}

	if len(s.Failures) > 0 {
		b.WriteString("Rejected Sources:\n")
		for _, f := range s.Failures {
			fmt.Fprintf(&b, "  %s %s: %s\n", f.Source, failureScope(f), f.Message)
		}
		b.WriteString("\n")
	}

	if len(s.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, msg := range s.Warnings {
			fmt.Fprintf(&b, "  %s\n", msg)
		}
		b.WriteString("\n")
	}

	if s.OutputDir != "" {
		fmt.Fprintf(&b, "Output: %s\n", s.OutputDir)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeDataset(b *strings.Builder, d Dataset) {
	fmt.Fprintf(b, "  %s: %s records, %d columns\n", d.Name, thousands(d.Records), len(d.Columns))
	fmt.Fprintf(b, "    Columns: %s\n\n", columnList(d.Columns))
}

func failureScope(f Failure) string {
	scope := "[" + f.Kind + ", " + f.Stage
	if f.Target != "" {
		scope += ", " + f.Target
	}
	return scope + "]"
}

func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = "'" + c + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// thousands formats n with comma separators.
func thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}

// Markdown writes the summary as a markdown document.
func Markdown(w io.Writer, s *Summary) error {
	doc := md.NewMarkdown(w).H1("RespawnMetrics Dataset Merge Summary")

	meta := []string{"Generated: " + s.GeneratedAt.Format(constants.TimeFormatReport)}
	if s.RunID != "" {
		meta = append(meta, "Run: "+md.Code(s.RunID))
	}
	if s.OutputDir != "" {
		meta = append(meta, "Output: "+md.Code(s.OutputDir))
	}
	doc.BulletList(meta...)

	doc.H2("Original Datasets")
	doc.Table(datasetTable(s.Inputs))
	doc.PlainTextf("Total original records: %s", md.Bold(thousands(s.InputRecords))).LF()

	if s.Master != nil {
		doc.H2("Master Dataset")
		doc.PlainTextf("%s records", thousands(s.Master.Records)).LF()
		doc.BulletList(codes(s.Master.Columns)...)
	}

	doc.H2("Specialized Datasets")
	doc.Table(datasetTable(s.Specialized))

	if g := s.Games; g != nil {
		doc.H2("Wellbeing and Steam Games")
		doc.BulletList(
			fmt.Sprintf("%s records in %s", thousands(g.Dataset.Records), md.Code(g.Dataset.Name)),
			"Matched games: "+thousands(g.Matched),
			"Unmatched games: "+thousands(g.Unmatched),
		)
	}

	if len(s.Distribution) > 0 {
		doc.H2("Data Source Distribution")
		rows := make([][]string, len(s.Distribution))
		for i, sh := range s.Distribution {
			rows[i] = []string{sh.Source, thousands(sh.Records), fmt.Sprintf("%.1f%%", sh.Percent)}
		}
		doc.Table(md.TableSet{Header: []string{"Source", "Records", "Share"}, Rows: rows})
	}

	if len(s.Failures) > 0 {
		doc.H2("Rejected Sources")
		rows := make([][]string, len(s.Failures))
		for i, f := range s.Failures {
			target := f.Target
			if target == "" {
				target = "all"
			}
			rows[i] = []string{f.Source, target, f.Stage, f.Kind, f.Message}
		}
		doc.Table(md.TableSet{Header: []string{"Source", "Target", "Stage", "Kind", "Reason"}, Rows: rows})
	}

	if len(s.Warnings) > 0 {
		doc.H2("Warnings")
		doc.BulletList(s.Warnings...)
	}

	return doc.Build()
}

func datasetTable(ds []Dataset) md.TableSet {
	rows := make([][]string, len(ds))
	for i, d := range ds {
		rows[i] = []string{d.Name, thousands(d.Records), strconv.Itoa(len(d.Columns))}
	}
	return md.TableSet{Header: []string{"Dataset", "Records", "Columns"}, Rows: rows}
}

func codes(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = md.Code(s)
	}
	return out
}
