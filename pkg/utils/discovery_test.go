package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverConfigs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"b.yaml",
		"a.YML",
		"notes.txt",
		"nested/c.yaml",
		".git/ignored.yaml",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	configs, err := DiscoverConfigs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.YML"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, configs)
}

func TestDiscoverConfigsMissingDir(t *testing.T) {
	_, err := DiscoverConfigs(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "failed to scan")
}

func TestIsConfigFile(t *testing.T) {
	assert.True(t, IsConfigFile("run.yaml"))
	assert.True(t, IsConfigFile("run.yml"))
	assert.False(t, IsConfigFile("coma.pickle"))
	assert.False(t, IsConfigFile("yaml"))
}
