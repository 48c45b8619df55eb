package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/logging"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// DefaultIndexColumns are indexed in every table that has them.
var DefaultIndexColumns = []string{
	datasets.ParticipantIDColumn,
	datasets.AppIDColumn,
	datasets.DataSourceColumn,
	datasets.SourceDatasetColumn,
	"game_title",
}

// SQLiteSink writes each table into a SQLite database. Each Write replaces
// the table inside one transaction.
type SQLiteSink struct {
	db      *sql.DB
	path    string
	indexes []string
}

// SQLiteOption configures a SQLiteSink.
type SQLiteOption func(*SQLiteSink)

// WithIndexColumns replaces the columns indexed when present.
func WithIndexColumns(columns ...string) SQLiteOption {
	return func(s *SQLiteSink) {
		s.indexes = columns
	}
}

// NewSQLiteSink opens or creates the database at path.
func NewSQLiteSink(path string, opts ...SQLiteOption) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	// One connection keeps writes sequential.
	db.SetMaxOpenConns(1)

	s := &SQLiteSink{db: db, path: path, indexes: DefaultIndexColumns}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns "sqlite".
func (s *SQLiteSink) Name() string { return "sqlite" }

// Location returns the database path and table name.
func (s *SQLiteSink) Location(name string) string {
	return s.path + "#" + name
}

// DB returns the underlying database handle.
func (s *SQLiteSink) DB() *sql.DB { return s.db }

// Write creates the table, inserts every row and builds the indexes.
func (s *SQLiteSink) Write(ctx context.Context, t *table.Table) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapResource("begin", "sqlite table", t.Name(), err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck
		}
	}()

	name := quote(t.Name())
	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return errors.WrapResource("drop", "sqlite table", t.Name(), err)
	}
	if _, err = tx.ExecContext(ctx, createStatement(t)); err != nil {
		return errors.WrapResource("create", "sqlite table", t.Name(), err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", t.Schema().Len()), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", name, placeholders))
	if err != nil {
		return errors.WrapResource("prepare", "sqlite table", t.Name(), err)
	}
	defer stmt.Close() //nolint:errcheck

	args := make([]any, t.Schema().Len())
	for i, row := range t.Rows() {
		for j, v := range row {
			args[j] = sqlValue(v)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return errors.WrapResource("insert", "sqlite table", fmt.Sprintf("%s row %d", t.Name(), i), err)
		}
	}

	for _, col := range s.indexes {
		if !t.Schema().Has(col) {
			continue
		}
		idx := quote("idx_" + t.Name() + "_" + col)
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("CREATE INDEX %s ON %s(%s)", idx, name, quote(col))); err != nil {
			return errors.WrapResource("index", "sqlite table", t.Name(), err)
		}
		logging.FromContext(ctx).Debug().Str("column", col).Msg("Indexed")
	}

	if err = tx.Commit(); err != nil {
		return errors.WrapResource("commit", "sqlite table", t.Name(), err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func createStatement(t *table.Table) string {
	cols := make([]string, 0, t.Schema().Len())
	for _, c := range t.Schema().Columns() {
		cols = append(cols, quote(c.Name)+" "+sqlType(c.Kind))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quote(t.Name()), strings.Join(cols, ", "))
}

func sqlType(k table.Kind) string {
	switch k {
	case table.KindInt, table.KindBool:
		return "INTEGER"
	case table.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// sqlValue converts a cell to a driver value; unset cells become NULL.
func sqlValue(v table.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case table.KindInt:
		i, _ := v.Int64()
		return i
	case table.KindFloat:
		f, _ := v.Float64()
		return f
	case table.KindBool:
		b, _ := v.Boolean()
		if b {
			return int64(1)
		}
		return int64(0)
	case table.KindTime:
		t, _ := v.Timestamp()
		return t.UTC().Format(time.RFC3339)
	default:
		return v.String()
	}
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Tables lists the user tables in the database, sorted.
func (s *SQLiteSink) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return nil, errors.WrapResource("list", "sqlite tables", s.path, err)
	}
	defer rows.Close() //nolint:errcheck

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, rows.Err()
}
