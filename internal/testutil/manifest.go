package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile writes content to dir/name, creating parent directories
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// WriteManifest writes a package.json into dir and returns its path
func WriteManifest(t *testing.T, dir, content string) string {
	t.Helper()
	return WriteFile(t, dir, "package.json", content)
}

// NewPackage creates a package directory under a fresh temp dir holding
// the given package.json
func NewPackage(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	WriteManifest(t, dir, content)
	return dir
}

// DualPackage is a package.json with conditional exports and imports,
// shaped like a dual ESM/CommonJS package
const DualPackage = `{
  "name": "dual",
  "version": "1.0.0",
  "type": "module",
  "main": "./dist/index.cjs",
  "exports": {
    ".": {
      "import": "./dist/index.js",
      "require": "./dist/index.cjs"
    },
    "./feature": {
      "node": "./dist/feature-node.js",
      "default": "./dist/feature.js"
    },
    "./internal/*": null,
    "./lib/*": "./dist/lib/*.js",
    "./package.json": "./package.json"
  },
  "imports": {
    "#dep": {
      "node": "dep-node-native",
      "default": "./dep-polyfill.js"
    },
    "#utils/*": "./src/utils/*.js"
  },
  "dependencies": {
    "dep-node-native": "^1.0.0"
  }
}`
