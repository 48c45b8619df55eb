package merge

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respawnmetrics/respawn/cmd/application"
	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/samples"
)

func setup(t *testing.T) (input, output string) {
	t.Helper()
	input = t.TempDir()
	output = filepath.Join(t.TempDir(), "merged")
	_, err := samples.Write(context.Background(), input, datasets.Default(), samples.CleanFileName)
	require.NoError(t, err)
	return input, output
}

func execute(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(&application.Mock{OutputFormatFunc: func() string { return format }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMergeText(t *testing.T) {
	input, output := setup(t)

	out, err := execute(t, "", "--input", input, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "RespawnMetrics Dataset Merge Summary")
	assert.Contains(t, out, "Data Source Distribution")
	assert.FileExists(t, filepath.Join(output, constants.MasterFileName))
	assert.FileExists(t, filepath.Join(output, constants.LineageFileName))
}

func TestMergeMarkdownWithoutReports(t *testing.T) {
	input, output := setup(t)

	out, err := execute(t, "markdown", "--input", input, "--output", output, "--no-reports")
	require.NoError(t, err)
	assert.Contains(t, out, "# RespawnMetrics Dataset Merge Summary")
	assert.NoFileExists(t, filepath.Join(output, constants.SummaryFileName))
	assert.FileExists(t, filepath.Join(output, constants.MasterFileName))
}

func TestMergeStrict(t *testing.T) {
	input, output := setup(t)
	spec, err := datasets.Default().Lookup(datasets.Aggression)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(input, spec.FileName), []byte("participant_id,age\nG1,20\nG1,21\n"), 0o644))

	_, err = execute(t, "yaml", "--input", input, "--output", output)
	require.NoError(t, err)

	out, err := execute(t, "yaml", "--input", input, "--output", output, "--strict")
	require.Error(t, err)
	assert.Contains(t, out, "DuplicateKeyError")
}

func TestMergeNoSources(t *testing.T) {
	_, err := execute(t, "", "--input", t.TempDir(), "--output", t.TempDir())
	require.Error(t, err)
}

func TestMergeReportsWhenEverySourceIsRejected(t *testing.T) {
	input, output := t.TempDir(), filepath.Join(t.TempDir(), "merged")
	spec, err := datasets.Default().Lookup(datasets.Anxiety)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(input, spec.FileName), []byte("participant_id,age\nA1,20\nA1,21\n"), 0o644))

	out, err := execute(t, "", "--input", input, "--output", output)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoUsableSources)
	assert.Contains(t, out, "Rejected Sources")
	assert.Contains(t, out, "DuplicateKeyError")
	assert.FileExists(t, filepath.Join(output, constants.SummaryFileName))
}

func TestMergeTable(t *testing.T) {
	input, output := setup(t)

	out, err := execute(t, "table", "--input", input, "--output", output, "--no-reports")
	require.NoError(t, err)
	assert.Contains(t, out, "DATASET")
	assert.Contains(t, out, constants.MasterDataset)
	assert.NotContains(t, out, "MESSAGE")
}
