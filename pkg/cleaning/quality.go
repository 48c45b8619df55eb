package cleaning

import (
	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Quality summarizes how complete a source table is. Completeness is the
// percentage of cells that are set.
type Quality struct {
	Dataset        string   `json:"dataset" yaml:"dataset"`
	Records        int      `json:"records" yaml:"records"`
	Columns        int      `json:"columns" yaml:"columns"`
	MissingColumns []string `json:"missing_columns,omitempty" yaml:"missing_columns,omitempty"`
	Completeness   float64  `json:"completeness" yaml:"completeness"`
	DuplicateRows  int      `json:"duplicate_rows" yaml:"duplicate_rows"`
	Valid          bool     `json:"valid" yaml:"valid"`
}

// Assess measures t against spec. A table is valid when it carries every
// required column and at least constants.MinCompleteness percent of its cells
// are set. A table without cells is 0% complete.
func Assess(spec datasets.Spec, t *table.Table) Quality {
	q := Quality{Dataset: spec.Name, Records: t.Len(), Columns: t.Schema().Len()}
	for _, c := range spec.Schema.Columns() {
		if c.Required && !t.Schema().Has(c.Name) {
			q.MissingColumns = append(q.MissingColumns, c.Name)
		}
	}

	if cells := q.Records * q.Columns; cells > 0 {
		set := 0
		for _, r := range t.Rows() {
			for _, v := range r {
				if !v.IsNull() {
					set++
				}
			}
		}
		q.Completeness = float64(set) / float64(cells) * 100
	}
	_, q.DuplicateRows = DropDuplicates(t)
	q.Valid = len(q.MissingColumns) == 0 && q.Completeness >= constants.MinCompleteness
	return q
}
