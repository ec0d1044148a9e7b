package workspace_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.fiblab.net/sim/mobility/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMap(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "city.osm")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestChecksumStable(t *testing.T) {
	dir := t.TempDir()
	p := writeMap(t, dir, "<osm></osm>")
	a, err := workspace.Checksum(p)
	require.NoError(t, err)
	b, err := workspace.Checksum(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	require.NoError(t, os.WriteFile(p, []byte("<osm version=\"0.6\"></osm>"), 0o644))
	c, err := workspace.Checksum(p)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestResolveFirstWritable(t *testing.T) {
	dir := t.TempDir()
	p := writeMap(t, dir, "<osm></osm>")
	root1 := filepath.Join(dir, "root1")
	root2 := filepath.Join(dir, "root2")

	ws, err := workspace.Resolve(p, []string{root1, root2})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ws, root1))
	assert.True(t, strings.HasPrefix(filepath.Base(ws), "city.osm"))
	stat, err := os.Stat(ws)
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}

func TestResolveFallback(t *testing.T) {
	dir := t.TempDir()
	p := writeMap(t, dir, "<osm></osm>")
	// 普通文件不能作为目录使用
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))
	fallback := filepath.Join(dir, "fallback")

	ws, err := workspace.Resolve(p, []string{blocked, fallback})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ws, fallback))
}

func TestResolveUnavailable(t *testing.T) {
	dir := t.TempDir()
	p := writeMap(t, dir, "<osm></osm>")
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	_, err := workspace.Resolve(p, []string{blocked})
	assert.ErrorIs(t, err, workspace.ErrWorkspaceUnavailable)
}

func TestResolveMissingMap(t *testing.T) {
	_, err := workspace.Resolve(filepath.Join(t.TempDir(), "nope.osm"), nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, workspace.ErrWorkspaceUnavailable)
}
