package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tilde only", "~", home},
		{"tilde prefix", "~/.pkgjson/cache", filepath.Join(home, ".pkgjson/cache")},
		{"absolute path", "/tmp/cache", "/tmp/cache"},
		{"relative path", "cache", "cache"},
		{"tilde in the middle", "a/~/b", "a/~/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandPath(tt.input))
		})
	}
}

func TestAbsPath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	got, err := AbsPath("")
	require.NoError(t, err)
	assert.Equal(t, wd, got)

	got, err = AbsPath("a/../b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "b"), got)
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "a", "b", "file.json")

	require.NoError(t, EnsureDir(path))
	assert.True(t, IsDir(filepath.Join(tmpDir, "a", "b")))
	assert.False(t, IsDir(path))
}

func TestAncestors(t *testing.T) {
	dirs := Ancestors(filepath.FromSlash("/work/pkg/src/"))
	assert.Equal(t, []string{
		filepath.FromSlash("/work/pkg/src"),
		filepath.FromSlash("/work/pkg"),
		filepath.FromSlash("/work"),
		filepath.FromSlash("/"),
	}, dirs)

	assert.Equal(t, []string{filepath.FromSlash("/")}, Ancestors(filepath.FromSlash("/")))
}

func TestJoinTarget(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("/work/pkg/dist/index.js"), JoinTarget("/work/pkg", "./dist/index.js"))
	assert.Equal(t, filepath.FromSlash("/work/pkg/main.js"), JoinTarget("/work/pkg", "main.js"))
}

func TestIsWithin(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"same directory", "/work/pkg", true},
		{"child", "/work/pkg/dist/index.js", true},
		{"sibling with shared prefix", "/work/pkg2/index.js", false},
		{"parent", "/work", false},
		{"dotdot file name inside", "/work/pkg/..data", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsWithin(filepath.FromSlash("/work/pkg"), filepath.FromSlash(tt.path)))
		})
	}
}
