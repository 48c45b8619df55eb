package schema

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respawnmetrics/respawn/cmd/application"
	"github.com/respawnmetrics/respawn/pkg/datasets"
)

func run(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(&application.Mock{OutputFormatFunc: func() string { return format }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSchemaListsSources(t *testing.T) {
	out, err := run(t, "table")
	require.NoError(t, err)
	for _, name := range datasets.Default().Names() {
		assert.Contains(t, out, name)
	}
}

func TestSchemaShowsColumns(t *testing.T) {
	out, err := run(t, "json", datasets.SteamGames)
	require.NoError(t, err)

	var columns []struct {
		Name     string `json:"name"`
		Required bool   `json:"required"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &columns))
	require.NotEmpty(t, columns)
	assert.Equal(t, datasets.AppIDColumn, columns[0].Name)
	assert.True(t, columns[0].Required)

	out, err = run(t, "table", datasets.SteamGames)
	require.NoError(t, err)
	assert.Contains(t, out, "alias name")
}

func TestSchemaUnknownDataset(t *testing.T) {
	_, err := run(t, "table", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), datasets.Anxiety)
}
