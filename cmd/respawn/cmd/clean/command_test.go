package clean

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respawnmetrics/respawn/cmd/application"
	"github.com/respawnmetrics/respawn/pkg/datasets"
)

func TestCleanGeneratesMissingRawFiles(t *testing.T) {
	input := t.TempDir()
	cmd := NewCommand(&application.Mock{OutputFormatFunc: func() string { return "table" }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--raw", filepath.Join(t.TempDir(), "absent"), "--input", input})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "sample")
	for _, spec := range datasets.Default().Specs() {
		assert.FileExists(t, filepath.Join(input, spec.FileName))
	}
}
