// Package merge is the dataset merge engine.
//
// The engine takes loaded source tables and produces one master dataset,
// projected onto a declared column list, and a set of specialized datasets
// that keep source-specific columns. Every output row carries a provenance
// tag naming its source, and the engine records the exact source row behind
// it.
//
// A merge runs as a fixed sequence of stages. Each stage takes the previous
// stage's output and returns a new value; nothing is accumulated outside the
// call:
//
//	standardize -> validateKeys -> buildMaster -> buildSpecialized -> joinGames -> summarize
//
// A source that lacks its key, repeats a key, or has a column whose kind
// cannot be reconciled is rejected and recorded in Result.Failures; the other
// sources proceed.
package merge

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/logging"
	"github.com/respawnmetrics/respawn/pkg/provenance"
	"github.com/respawnmetrics/respawn/pkg/reconcile"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Engine merges source tables. It holds configuration only and is safe for
// concurrent use.
type Engine struct {
	registry *datasets.Registry
	targets  []Target
	master   []table.Column
	aliases  reconcile.Aliases
	gameJoin bool
	logger   *zerolog.Logger
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	master := slices.Clone(o.master)
	if !slices.ContainsFunc(master, func(c table.Column) bool { return c.Name == datasets.DataSourceColumn }) {
		master = append(master, table.Column{Name: datasets.DataSourceColumn, Kind: table.KindString})
	}

	return &Engine{
		registry: o.registry,
		targets:  slices.Clone(o.targets),
		master:   master,
		aliases:  o.aliases,
		gameJoin: o.gameJoin,
		logger:   o.logger,
	}, nil
}

// Targets returns the specialized datasets the engine builds.
func (e *Engine) Targets() []Target { return slices.Clone(e.targets) }

// MasterColumns returns the declared master column list.
func (e *Engine) MasterColumns() []table.Column { return slices.Clone(e.master) }

// source is one input table moving through the stages.
type source struct {
	spec  datasets.Spec
	table *table.Table
	rows  []int // position of each row in the loaded table
}

// state is the value passed from stage to stage.
type state struct {
	sources        []source
	inputs         []Input
	renames        []reconcile.Rename
	failures       []Failure
	warnings       []string
	rowsIn         int
	rowsWithoutKey int
}

func (s state) reject(src string, stage string, err error) state {
	s.failures = append(slices.Clone(s.failures), Failure{
		Source: src,
		Stage:  stage,
		Kind:   errors.Kind(err),
		Err:    err,
	})
	return s
}

// Merge merges the tables, keyed by source name. When every source is
// rejected it returns a MergeError together with the partial result, so the
// failures can still be reported.
func (e *Engine) Merge(ctx context.Context, tables map[string]*table.Table) (*Result, error) {
	start := time.Now()
	logger := e.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	// Step 1: Order the inputs and standardize column names
	st := e.standardize(e.inputs(tables), logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 2: Validate keys, dropping keyless rows and rejecting duplicates
	st = validateKeys(st, logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tracker := provenance.NewTracker()
	if len(st.sources) == 0 {
		result := summarize(st, outputs{}, tracker, start)
		return result, errors.NewMergeError("", result.Rejected(), errors.ErrNoUsableSources)
	}

	// Step 3: Build the master dataset
	master, st, err := e.buildMaster(st, tracker, logger)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 4: Build each specialized dataset
	specialized, st, err := e.buildSpecialized(st, tracker, logger)
	if err != nil {
		return nil, err
	}

	// Step 5: Join the wellbeing survey to the Steam catalog
	out := outputs{master: master, specialized: specialized}
	if e.gameJoin {
		if out.games, out.match, st, err = joinGames(st, tracker, logger); err != nil {
			return nil, err
		}
	}

	// Step 6: Summarize and audit lineage
	result := summarize(st, out, tracker, start)
	if err := result.Lineage.Audit(result.Stats.RowsOut); err != nil {
		return nil, errors.NewMergeError("", result.Rejected(), err)
	}

	logger.Info().
		Int("sources", result.Stats.SourcesUsed).
		Int("rejected", result.Stats.SourcesRejected).
		Dur("duration", result.Duration).
		Msg(result.Summary())
	return result, nil
}

// inputs pairs each table with its spec, in registry order followed by
// undeclared names in lexical order.
func (e *Engine) inputs(tables map[string]*table.Table) []source {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	order := e.registry.Names()
	sort.SliceStable(names, func(i, j int) bool {
		pi, pj := slices.Index(order, names[i]), slices.Index(order, names[j])
		switch {
		case pi >= 0 && pj >= 0:
			return pi < pj
		case pi >= 0 || pj >= 0:
			return pi >= 0
		default:
			return names[i] < names[j]
		}
	})

	out := make([]source, 0, len(names))
	for _, name := range names {
		t := tables[name]
		if t == nil {
			continue
		}
		spec, err := e.registry.Lookup(name)
		if err != nil {
			spec = datasets.Spec{
				Name:      name,
				KeyColumn: datasets.ParticipantIDColumn,
				Entity:    datasets.EntityParticipant,
			}
		}
		out = append(out, source{spec: spec, table: t.Named(name), rows: identity(t.Len())})
	}
	return out
}

func identity(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// standardize renames columns onto canonical names.
func (e *Engine) standardize(srcs []source, logger *zerolog.Logger) state {
	var st state
	for _, src := range srcs {
		st.rowsIn += src.table.Len()
		std, renames, err := reconcile.Standardize(src.table, e.aliases.Merge(src.spec.Aliases))
		if err != nil {
			logger.Warn().Err(err).Str("dataset", src.spec.Name).Msg("Rejected while standardizing")
			st = st.reject(src.spec.Name, StageStandardize, err)
			continue
		}
		for _, r := range renames {
			logger.Debug().Str("dataset", r.Dataset).Str("from", r.From).Str("to", r.To).Msg("Renamed column")
		}
		st.renames = append(st.renames, renames...)
		st.inputs = append(st.inputs, Input{Name: src.spec.Name, Records: std.Len(), Columns: std.Schema().Names()})
		st.sources = append(st.sources, source{spec: src.spec, table: std, rows: src.rows})
	}
	return st
}

// validateKeys checks every source for its key column, drops rows with an
// empty key, and rejects sources that repeat a key.
func validateKeys(prev state, logger *zerolog.Logger) state {
	st := prev
	st.sources = nil

	for _, src := range prev.sources {
		key := src.spec.KeyColumn
		keys, err := src.spec.CheckKeys(src.table, src.rows)
		if err != nil {
			msg := "Rejected: duplicate key"
			if errors.IsMissingKey(err) {
				msg = "Rejected: missing key"
			}
			logger.Warn().Err(err).Str("dataset", src.spec.Name).Msg(msg)
			st = st.reject(src.spec.Name, StageKeys, err)
			continue
		}
		st.rowsWithoutKey += keys.Empty
		kept := keys.Kept

		if dropped := src.table.Len() - len(kept); dropped > 0 {
			st.warnings = append(slices.Clone(st.warnings),
				fmt.Sprintf("%s: %d rows without %s were skipped", src.spec.Name, dropped, key))
		}
		if len(kept) == 0 {
			st.warnings = append(slices.Clone(st.warnings),
				fmt.Sprintf("%s: no usable rows after filtering", src.spec.Name))
			logger.Warn().Str("dataset", src.spec.Name).Msg("Source contributes no usable rows")
		}

		keep := make(map[int]bool, len(kept))
		rows := make([]int, len(kept))
		for i, k := range kept {
			keep[k] = true
			rows[i] = src.rows[k]
		}
		filtered := src.table.Filter(func(i int, _ table.Row) bool { return keep[i] })
		st.sources = append(st.sources, source{spec: src.spec, table: filtered, rows: rows})
	}
	return st
}

// member is a source contributing selected columns to one output.
type member struct {
	src     source
	columns []string
}

// buildMaster projects participant sources onto the declared master columns.
func (e *Engine) buildMaster(prev state, tracker provenance.Tracker, logger *zerolog.Logger) (*Dataset, state, error) {
	st := prev
	names := make([]string, len(e.master))
	for i, c := range e.master {
		names[i] = c.Name
	}

	var candidates []member
	var schemas []reconcile.Member
	for _, src := range st.sources {
		if !src.spec.Participant() {
			continue
		}
		if src.table.Schema().Has(datasets.DataSourceColumn) {
			st = st.rejectFor(src.spec.Name, constants.MasterDataset, reservedColumn(src.spec.Name, datasets.DataSourceColumn))
			continue
		}
		cols := present(src.table.Schema(), names)
		candidates = append(candidates, member{src: src, columns: cols})
		schemas = append(schemas, reconcile.Member{Name: src.spec.Name, Schema: src.table.Schema()})
	}

	rec, err := reconcile.Intersect(e.master, schemas...)
	if err != nil {
		return nil, st, err
	}
	for _, m := range candidates {
		if rejectErr, rejected := rec.Rejected[m.src.spec.Name]; rejected {
			logger.Warn().Err(rejectErr).Str("dataset", m.src.spec.Name).Msg("Rejected from master")
			st = st.rejectFor(m.src.spec.Name, constants.MasterDataset, rejectErr)
		}
	}
	accepted := slices.DeleteFunc(candidates, func(m member) bool { return rec.IsRejected(m.src.spec.Name) })

	ds, err := concat(constants.MasterDataset, datasets.DataSourceColumn, rec.Schema, accepted, tracker)
	if err != nil {
		return nil, st, err
	}
	logger.Info().Int("records", ds.Records()).Strs("columns", ds.Columns()).Msg("Master dataset built")
	return ds, st, nil
}

// buildSpecialized builds one dataset per target from the sources its
// selector accepts.
func (e *Engine) buildSpecialized(prev state, tracker provenance.Tracker, logger *zerolog.Logger) ([]*Dataset, state, error) {
	st := prev
	var out []*Dataset

	for _, target := range e.targets {
		var candidates []member
		var schemas []reconcile.Member
		for _, src := range st.sources {
			cols, ok := target.Select(src.spec, src.table.Schema())
			if !ok {
				continue
			}
			if slices.Contains(cols, datasets.SourceDatasetColumn) {
				st = st.rejectFor(src.spec.Name, target.Name, reservedColumn(src.spec.Name, datasets.SourceDatasetColumn))
				continue
			}
			projected, err := src.table.Schema().Project(cols...)
			if err != nil {
				return nil, st, fmt.Errorf("target %s: %w", target.Name, err)
			}
			candidates = append(candidates, member{src: src, columns: cols})
			schemas = append(schemas, reconcile.Member{Name: src.spec.Name, Schema: projected})
		}

		if len(candidates) == 0 {
			st.warnings = append(slices.Clone(st.warnings), fmt.Sprintf("%s: no source contributes", target.Name))
			logger.Warn().Str("target", target.Name).Msg("Skipping dataset with no contributing source")
			continue
		}

		rec, err := reconcile.Union(schemas...)
		if err != nil {
			return nil, st, err
		}
		for _, m := range candidates {
			if rejectErr, rejected := rec.Rejected[m.src.spec.Name]; rejected {
				logger.Warn().Err(rejectErr).Str("dataset", m.src.spec.Name).Str("target", target.Name).Msg("Rejected from dataset")
				st = st.rejectFor(m.src.spec.Name, target.Name, rejectErr)
			}
		}
		accepted := slices.DeleteFunc(candidates, func(m member) bool { return rec.IsRejected(m.src.spec.Name) })

		schema, err := rec.Schema.Append(table.Column{Name: datasets.SourceDatasetColumn, Kind: table.KindString})
		if err != nil {
			return nil, st, err
		}
		ds, err := concat(target.Name, datasets.SourceDatasetColumn, schema, accepted, tracker)
		if err != nil {
			return nil, st, err
		}
		logger.Info().Str("target", target.Name).Int("records", ds.Records()).Int("columns", len(ds.Columns())).Msg("Specialized dataset built")
		out = append(out, ds)
	}
	return out, st, nil
}

func (s state) rejectFor(src, target string, err error) state {
	s.failures = append(slices.Clone(s.failures), Failure{
		Source: src,
		Target: target,
		Stage:  StageSchema,
		Kind:   errors.Kind(err),
		Err:    err,
	})
	return s
}

func reservedColumn(dataset, column string) error {
	return &errors.SchemaMismatchError{
		Dataset:  dataset,
		Column:   column,
		Expected: "provenance tag",
		Actual:   "source column",
		Row:      -1,
		Message:  "column name is reserved for provenance",
	}
}

// concat stacks the members' selected columns onto schema, tags each row with
// its source in provCol, and records its origin. Members must already have
// unique keys; a repeat fails the build rather than dropping a row.
func concat(name, provCol string, schema table.Schema, members []member, tracker provenance.Tracker) (*Dataset, error) {
	b := table.NewBuilder(name, schema)
	ds := &Dataset{Name: name, ProvenanceColumn: provCol}

	for _, m := range members {
		srcName := m.src.spec.Name
		srcSchema := m.src.table.Schema()
		idx := make([]int, schema.Len())
		for i := range idx {
			idx[i] = -1
			col := schema.At(i).Name
			if slices.Contains(m.columns, col) {
				idx[i] = srcSchema.Index(col)
			}
		}

		seen := make(map[string]int, m.src.table.Len())
		for r := 0; r < m.src.table.Len(); r++ {
			key := datasets.KeyText(m.src.table.Value(r, m.src.spec.KeyColumn))
			if first, ok := seen[key]; ok {
				dup := errors.NewDuplicateKeyError(srcName, m.src.spec.KeyColumn, key, []int{first, m.src.rows[r]})
				return nil, fmt.Errorf("building %s: %w", name, dup)
			}
			seen[key] = m.src.rows[r]

			in := m.src.table.Row(r)
			row := make(table.Row, schema.Len())
			for i, k := range idx {
				col := schema.At(i)
				switch {
				case col.Name == provCol:
					row[i] = table.String(srcName)
				case k >= 0:
					v, err := in[k].Convert(col.Kind)
					if err != nil {
						return nil, &errors.SchemaMismatchError{
							Dataset: srcName, Column: col.Name,
							Expected: col.Kind.String(), Actual: in[k].Kind().String(),
							Row: m.src.rows[r], Message: err.Error(),
						}
					}
					row[i] = v
				}
			}
			if err := b.AddRow(row); err != nil {
				return nil, err
			}
			tracker.Track(name, provenance.Origin{Source: srcName, Key: key, SourceRow: m.src.rows[r]})
		}
		ds.Sources = append(ds.Sources, srcName)
	}

	ds.Table = b.Build()
	return ds, nil
}

// outputs are the datasets a merge built.
type outputs struct {
	master      *Dataset
	specialized []*Dataset
	games       *Dataset
	match       *GameMatch
}

// summarize assembles the result.
func summarize(st state, out outputs, tracker provenance.Tracker, start time.Time) *Result {
	r := &Result{
		Inputs:      st.inputs,
		Master:      out.master,
		Specialized: out.specialized,
		Games:       out.games,
		GameMatch:   out.match,
		Renames:     st.renames,
		Failures:    st.failures,
		Warnings:    st.warnings,
		Lineage:     tracker.Lineage(),
		Duration:    time.Since(start),
	}

	r.Stats = Stats{
		SourcesIn:      len(st.inputs) + countStage(st.failures, StageStandardize),
		SourcesUsed:    len(st.sources),
		RowsIn:         st.rowsIn,
		RowsWithoutKey: st.rowsWithoutKey,
		RowsOut:        make(map[string]int),
	}
	r.Stats.SourcesRejected = len(r.Rejected())
	for _, d := range r.Datasets() {
		r.Stats.RowsOut[d.Name] = d.Records()
	}
	return r
}

func countStage(failures []Failure, stage string) int {
	n := 0
	for _, f := range failures {
		if f.Stage == stage {
			n++
		}
	}
	return n
}
