package sample

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respawnmetrics/respawn/cmd/application"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/export"
	"github.com/respawnmetrics/respawn/pkg/samples"
)

func TestSampleWritesRawFiles(t *testing.T) {
	raw := t.TempDir()
	mock := &application.Mock{
		OutputFormatFunc: func() string { return "json" },
		DirectoriesFunc:  func() application.Directories { return application.Directories{Raw: raw, Input: t.TempDir()} },
	}

	cmd := NewCommand(mock)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	var written []export.Written
	require.NoError(t, json.Unmarshal(out.Bytes(), &written))
	require.Len(t, written, datasets.Default().Len())

	for _, spec := range datasets.Default().Specs() {
		assert.FileExists(t, filepath.Join(raw, samples.RawFileName(spec)))
	}
}

func TestSampleDirOverride(t *testing.T) {
	dir := t.TempDir()
	cmd := NewCommand(&application.Mock{OutputFormatFunc: func() string { return "table" }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--cleaned", "--dir", dir})
	require.NoError(t, cmd.Execute())

	spec, err := datasets.Default().Lookup(datasets.SteamGames)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, spec.FileName))
	assert.Contains(t, out.String(), datasets.SteamGames)
}
