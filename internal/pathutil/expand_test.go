package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_HomeShortcut(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := Expand("~/.chatlab/eval_results.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".chatlab", "eval_results.json"), got)
}

func TestExpand_EnvVar(t *testing.T) {
	t.Setenv("CHATLAB_PATH_TEST", "/tmp/chatlab-path")

	got, err := Expand("$CHATLAB_PATH_TEST/results.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/tmp/chatlab-path/results.json"), got)
}

func TestExpand_Empty(t *testing.T) {
	got, err := Expand("   ")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestEnsureParent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "deeper", "file.json")
	require.NoError(t, EnsureParent(target))

	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, EnsureParent("relative.json"))
}
