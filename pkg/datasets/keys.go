package datasets

import (
	"strings"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Keys is the outcome of a key check.
type Keys struct {
	// Kept lists the table rows that carry a key, in order.
	Kept []int
	// Empty counts rows whose key is unset or blank.
	Empty int
}

// KeyText is the comparable form of a key cell. Blank keys read as "".
func KeyText(v table.Value) string {
	return strings.TrimSpace(v.String())
}

// CheckKeys checks the key column of t. The column must exist and no key may
// occur twice; rows with an empty key are skipped and counted. rows maps table
// rows to the positions reported in a DuplicateKeyError; nil reports table
// rows.
func (s Spec) CheckKeys(t *table.Table, rows []int) (Keys, error) {
	if !t.Schema().Has(s.KeyColumn) {
		return Keys{}, errors.NewMissingKeyError(s.Name, s.KeyColumn)
	}

	var (
		keys  Keys
		order []string
	)
	positions := make(map[string][]int)
	for i := range t.Len() {
		k := KeyText(t.Value(i, s.KeyColumn))
		if k == "" {
			keys.Empty++
			continue
		}
		if _, seen := positions[k]; !seen {
			order = append(order, k)
		}
		pos := i
		if rows != nil {
			pos = rows[i]
		}
		positions[k] = append(positions[k], pos)
		keys.Kept = append(keys.Kept, i)
	}

	for _, k := range order {
		if at := positions[k]; len(at) > 1 {
			if len(at) > constants.MaxDuplicateRowsReported {
				at = at[:constants.MaxDuplicateRowsReported]
			}
			return Keys{}, errors.NewDuplicateKeyError(s.Name, s.KeyColumn, k, at)
		}
	}
	return keys, nil
}
