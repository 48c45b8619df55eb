package respawn

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/respawnmetrics/respawn/pkg/cleaning"
	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/export"
	"github.com/respawnmetrics/respawn/pkg/logging"
	"github.com/respawnmetrics/respawn/pkg/merge"
	"github.com/respawnmetrics/respawn/pkg/report"
	"github.com/respawnmetrics/respawn/pkg/samples"
	"github.com/respawnmetrics/respawn/pkg/sources"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Result is the outcome of a pipeline run.
type Result struct {
	RunID    string           `json:"run_id" yaml:"run_id"`
	Cleaned  *CleanResult     `json:"cleaned,omitempty" yaml:"cleaned,omitempty"`
	Missing  []string         `json:"missing,omitempty" yaml:"missing,omitempty"`
	Loaded   *sources.Loaded  `json:"-" yaml:"-"`
	Merge    *merge.Result    `json:"merge" yaml:"merge"`
	Written  []export.Written `json:"written,omitempty" yaml:"written,omitempty"`
	Summary  *report.Summary  `json:"summary" yaml:"summary"`
	Duration time.Duration    `json:"duration" yaml:"duration"`
}

// CleanResult is the outcome of cleaning raw sources.
type CleanResult struct {
	Stats     []cleaning.Stats  `json:"stats" yaml:"stats"`
	Generated []string          `json:"generated,omitempty" yaml:"generated,omitempty"`
	Failures  []sources.Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Written   []export.Written  `json:"written,omitempty" yaml:"written,omitempty"`
}

// Run cleans (when enabled), loads, merges, exports and reports.
func (c *client) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	// Step 1: Tag the run
	runID := c.options.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = logging.WithRun(logging.WithLogger(ctx, c.logger), runID)
	logger := logging.FromContext(ctx)
	result := &Result{RunID: runID}

	// Step 2: Clean raw sources into the input directory
	if c.options.cleaning {
		cleaned, err := c.clean(ctx)
		if err != nil {
			return nil, err
		}
		result.Cleaned = cleaned
	}

	// Step 3: Load every source behind the barrier
	loaded, missing, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	result.Loaded, result.Missing = loaded, missing

	// Step 4: Merge
	merged, err := c.engine.Merge(ctx, loaded.Tables)
	if merged != nil {
		for _, f := range merged.Failures {
			c.hooks.sourceRejected(Rejection{Source: f.Source, Target: f.Target, Stage: f.Stage, Kind: f.Kind, Err: f.Err})
		}
	}
	if merged == nil {
		return nil, err
	}
	result.Merge = merged

	// A merge that rejected every source still reports why.
	if err != nil {
		if rerr := c.summarize(result, loaded, missing); rerr != nil {
			logger.Error().Err(rerr).Msg("Writing reports")
		}
		result.Duration = time.Since(start)
		return result, err
	}

	// Step 5: Export datasets
	if result.Written, err = c.export(ctx, merged); err != nil {
		return nil, err
	}

	// Step 6: Summarize and write reports
	if err := c.summarize(result, loaded, missing); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	logger.Info().
		Int("datasets", len(merged.Datasets())).
		Int("rejections", len(result.Summary.Failures)).
		Dur("duration", result.Duration).
		Msg("Pipeline completed")
	return result, nil
}

// summarize builds result.Summary from the merge and load outcomes and writes
// the reports when enabled.
func (c *client) summarize(result *Result, loaded *sources.Loaded, missing []string) error {
	summary := report.New(result.Merge,
		report.WithRunID(result.RunID),
		report.WithLoaded(loaded),
		report.WithOutputDir(c.options.outputDir),
	)
	for _, name := range missing {
		summary.Warnings = append(summary.Warnings, name+": no cleaned file in "+c.options.inputDir)
	}
	result.Summary = summary
	if !c.options.reports {
		return nil
	}
	return c.writeReports(summary, result.Merge)
}

// Load discovers and loads the cleaned sources in the input directory.
func (c *client) Load(ctx context.Context) (*sources.Loaded, error) {
	loaded, _, err := c.load(logging.WithLogger(ctx, c.logger))
	return loaded, err
}

func (c *client) load(ctx context.Context) (*sources.Loaded, []string, error) {
	logger := logging.FromContext(ctx)

	srcs, missing, err := sources.Discover(c.options.inputDir, c.options.registry)
	if err != nil {
		return nil, nil, err
	}
	for _, name := range missing {
		logger.Warn().Str("dataset", name).Str("dir", c.options.inputDir).Msg("Source file not found")
	}
	if len(srcs) == 0 {
		return nil, missing, errors.NewMergeError("", missing, errors.ErrNoUsableSources)
	}

	loaded, err := sources.LoadAll(ctx, srcs,
		sources.WithConcurrency(c.options.concurrency),
		sources.WithTimeout(c.options.loadTimeout),
		sources.WithLogger(logger),
		sources.WithObserver(func(name string, t *table.Table, err error) {
			if err != nil {
				c.hooks.sourceRejected(Rejection{Source: name, Stage: report.StageLoad, Kind: errors.Kind(err), Err: err})
				return
			}
			c.hooks.sourceLoaded(name, t.Len())
		}),
	)
	if err != nil {
		return nil, missing, err
	}
	return loaded, missing, nil
}

func (c *client) export(ctx context.Context, merged *merge.Result) ([]export.Written, error) {
	csvSink, err := export.NewCSVSink(c.options.outputDir)
	if err != nil {
		return nil, err
	}
	sinks := []export.Sink{csvSink}

	if path := c.options.sqlitePathIn(); path != "" {
		sqliteSink, err := export.NewSQLiteSink(path)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sqliteSink)
	}
	defer func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				logging.FromContext(ctx).Warn().Err(err).Str("sink", s.Name()).Msg("Closing sink")
			}
		}
	}()

	tables := make([]*table.Table, 0, len(merged.Datasets()))
	for _, d := range merged.Datasets() {
		tables = append(tables, d.Table)
	}
	return export.WriteAll(ctx, sinks, tables, c.hooks.datasetWritten)
}

func (c *client) writeReports(summary *report.Summary, merged *merge.Result) error {
	dir := c.options.outputDir
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	text, err := os.Create(filepath.Join(dir, constants.SummaryFileName))
	if err != nil {
		return errors.WrapIO("create", constants.SummaryFileName, err)
	}
	defer text.Close() //nolint:errcheck
	if err := report.Text(text, summary); err != nil {
		return errors.WrapIO("write", text.Name(), err)
	}

	mdFile, err := os.Create(filepath.Join(dir, constants.SummaryMarkdownFileName))
	if err != nil {
		return errors.WrapIO("create", constants.SummaryMarkdownFileName, err)
	}
	defer mdFile.Close() //nolint:errcheck
	if err := report.Markdown(mdFile, summary); err != nil {
		return errors.WrapIO("write", mdFile.Name(), err)
	}

	return merged.Lineage.Save(filepath.Join(dir, constants.LineageFileName))
}

// Clean cleans every registered source from the raw directory into the input
// directory. A source without a raw file is replaced by generated sample data.
// Failures are per source and do not stop the others.
func (c *client) Clean(ctx context.Context) (*CleanResult, error) {
	return c.clean(logging.WithLogger(ctx, c.logger))
}

func (c *client) clean(ctx context.Context) (*CleanResult, error) {
	logger := logging.FromContext(ctx)
	result := &CleanResult{}
	var cleaned []*table.Table

	for _, spec := range c.options.registry.Specs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, generated, err := c.raw(ctx, spec)
		if err == nil {
			var stats cleaning.Stats
			var t *table.Table
			if t, stats, err = cleaning.Clean(spec.Name, raw); err == nil {
				cleaned = append(cleaned, t)
				result.Stats = append(result.Stats, stats)
				if generated {
					result.Generated = append(result.Generated, spec.Name)
				}
				logger.Info().
					Str("dataset", spec.Name).
					Int("records", stats.Output).
					Int("duplicates", stats.DuplicatesRemoved).
					Bool("generated", generated).
					Msg("Cleaned")
				continue
			}
		}
		logger.Warn().Err(err).Str("dataset", spec.Name).Msg("Cleaning failed")
		result.Failures = append(result.Failures, sources.Failure{Source: spec.Name, Kind: errors.Kind(err), Err: err})
	}

	registry := c.options.registry
	sink, err := export.NewCSVSink(c.options.inputDir, export.WithFileNames(func(name string) string {
		spec, err := registry.Lookup(name)
		if err != nil {
			return name + ".csv"
		}
		return spec.FileName
	}))
	if err != nil {
		return nil, err
	}
	defer sink.Close() //nolint:errcheck

	if result.Written, err = export.WriteAll(ctx, []export.Sink{sink}, cleaned, c.hooks.datasetWritten); err != nil {
		return nil, err
	}
	return result, nil
}

// raw loads the raw file for spec, or generates sample data when none exists.
func (c *client) raw(ctx context.Context, spec datasets.Spec) (*table.Table, bool, error) {
	path, ok := sources.FindRaw(c.options.rawDir, spec)
	if !ok {
		logging.FromContext(ctx).Warn().
			Str("dataset", spec.Name).
			Str("dir", c.options.rawDir).
			Msg("Raw file not found, generating sample data")
		t, err := samples.Generate(spec.Name)
		return t, true, err
	}
	t, err := sources.NewCSVSource(spec, path).Load(ctx)
	return t, false, err
}
