package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/quantmind-br/pkgjson-go/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv isolates config and cache state under a temp HOME
func setupEnv(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PKGJSON_CACHE_DIRECTORY", filepath.Join(home, "cache"))
	t.Setenv("PKGJSON_LOGGING_LEVEL", "error")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	viper.Reset()
	t.Cleanup(viper.Reset)
	return home
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeDistFiles(t *testing.T, dir string) {
	t.Helper()
	for _, f := range []string{"dist/index.js", "dist/index.cjs", "dist/feature-node.js", "dist/feature.js", "dep-polyfill.js"} {
		testutil.WriteFile(t, dir, f, "")
	}
}

func TestVersionCmd(t *testing.T) {
	setupEnv(t)

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pkgjson ")

	out, _, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
}

func TestResolveCmd(t *testing.T) {
	setupEnv(t)
	dir := testutil.NewPackage(t, testutil.DualPackage)

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"default conditions", []string{"resolve", "./feature", dir}, "./dist/feature-node.js"},
		{"require", []string{"resolve", ".", dir, "--require"}, "./dist/index.cjs"},
		{"explicit conditions", []string{"resolve", "./feature", dir, "-C", "browser"}, "./dist/feature.js"},
		{"import", []string{"resolve", "#dep", dir}, "dep-node-native"},
		{"self reference", []string{"resolve", "dual", dir}, "./dist/index.js"},
		{"absolute", []string{"resolve", "./lib/x", dir, "--absolute"}, filepath.Join(dir, "dist", "lib", "x.js")},
		{"absolute bare target", []string{"resolve", "#dep", dir, "--absolute"}, "dep-node-native"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, strings.TrimSpace(out))
		})
	}
}

func TestResolveCmd_LegacyMain(t *testing.T) {
	setupEnv(t)
	dir := testutil.NewPackage(t, `{"name": "plain", "main": "index.js"}`)

	out, _, err := execute(t, "resolve", ".", dir, "--absolute")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index.js"), strings.TrimSpace(out))

	out, _, err = execute(t, "resolve", ".", dir)
	require.NoError(t, err)
	assert.Equal(t, "index.js", strings.TrimSpace(out))

	out, _, err = execute(t, "resolve", ".", dir, "--format", "json")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, true, res["legacy"])
	assert.Equal(t, filepath.Join(dir, "index.js"), res["path"])

	out, _, err = execute(t, "audit", dir, "--no-progress", "--set", "node")
	require.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, out, "MISSING")

	testutil.WriteFile(t, dir, "index.js", "")
	_, _, err = execute(t, "audit", dir, "--no-progress", "--set", "node")
	require.NoError(t, err)
}

func TestResolveCmd_StructuredOutput(t *testing.T) {
	setupEnv(t)
	dir := testutil.NewPackage(t, testutil.DualPackage)

	out, _, err := execute(t, "resolve", "#utils/log", dir, "--format", "json")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "import", res["kind"])
	assert.Equal(t, "./src/utils/log.js", res["target"])
	assert.Equal(t, "dual", res["package_name"])

	out, _, err = execute(t, "resolve", ".", dir, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: subpath")
	assert.Contains(t, out, "target: ./dist/index.js")

	out, _, err = execute(t, "resolve", "dual", dir, "--format", "toml")
	require.NoError(t, err)
	assert.Contains(t, out, "kind = 'self'")
	assert.Contains(t, out, "target = './dist/index.js'")
}

func TestResolveCmd_Errors(t *testing.T) {
	setupEnv(t)
	dir := testutil.NewPackage(t, testutil.DualPackage)

	_, _, err := execute(t, "resolve", "./internal/secret", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `is not defined by "exports"`)

	_, _, err = execute(t, "resolve", ".", dir, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --format")

	_, _, err = execute(t, "resolve")
	assert.Error(t, err)
}

func TestResolveCmd_NoCache(t *testing.T) {
	home := setupEnv(t)
	dir := testutil.NewPackage(t, testutil.DualPackage)

	out, _, err := execute(t, "--no-cache", "resolve", ".", dir)
	require.NoError(t, err)
	assert.Equal(t, "./dist/index.js", strings.TrimSpace(out))

	_, statErr := os.Stat(filepath.Join(home, "cache"))
	assert.True(t, os.IsNotExist(statErr), "no cache directory is created")
}

func TestResolveCmd_ConfigFile(t *testing.T) {
	setupEnv(t)
	dir := testutil.NewPackage(t, testutil.DualPackage)
	cfgPath := testutil.WriteFile(t, t.TempDir(), "custom.yaml", "resolution:\n  conditions: [browser, import]\n")

	out, _, err := execute(t, "--config", cfgPath, "resolve", "./feature", dir)
	require.NoError(t, err)
	assert.Equal(t, "./dist/feature.js", strings.TrimSpace(out))
}

func TestInspectCmd(t *testing.T) {
	setupEnv(t)
	dir := testutil.NewPackage(t, testutil.DualPackage)

	out, _, err := execute(t, "inspect", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "name:")
	assert.Contains(t, out, "dual")
	assert.Contains(t, out, "./feature")
	assert.Contains(t, out, "#utils/*")

	out, _, err = execute(t, "inspect", dir, "--format", "json")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "dual", doc["name"])
	assert.True(t, strings.Index(out, `"./feature"`) < strings.Index(out, `"./lib/*"`), "key order is kept")

	out, _, err = execute(t, "inspect", dir, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: dual")
}

func TestDepsCmd(t *testing.T) {
	setupEnv(t)
	dir := testutil.NewPackage(t, `{
		"name": "app",
		"dependencies": {"left": "^1.0.0", "bad": "file:../bad"},
		"devDependencies": {"alias": "npm:real@2"}
	}`)

	out, _, err := execute(t, "deps", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "left@^1.0.0")
	assert.Contains(t, out, "real@2")
	assert.Contains(t, out, "error:")

	out, _, err = execute(t, "deps", dir, "--format", "json")
	require.NoError(t, err)
	var rows []depRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, depRow{Field: "dependencies", Alias: "left", Value: "left@^1.0.0"}, rows[0])
	assert.NotEmpty(t, rows[1].Error)
	assert.Equal(t, "devDependencies", rows[2].Field)
}

func TestAuditCmd(t *testing.T) {
	setupEnv(t)
	dir := testutil.NewPackage(t, testutil.DualPackage)
	writeDistFiles(t, dir)

	out, _, err := execute(t, "audit", dir, "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "dual: 12 ok, 0 failed, 0 missing, 0 unavailable, 3 skipped")

	out, _, err = execute(t, "audit", dir, "--set", "browser,import", "--format", "json")
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "dual", report["package_name"])

	out, _, err = execute(t, "audit", dir, "--set", "node", "--format", "toml")
	require.NoError(t, err)
	assert.Contains(t, out, "[[results]]")
	assert.Contains(t, out, "status = 'ok'")
}

func TestAuditCmd_Failures(t *testing.T) {
	setupEnv(t)
	dir := testutil.NewPackage(t, testutil.DualPackage)

	out, _, err := execute(t, "audit", dir, "--no-progress")
	require.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, out, "MISSING")
}

func TestCheckCmd(t *testing.T) {
	setupEnv(t)
	dir := testutil.NewPackage(t, testutil.DualPackage)
	planDir := filepath.Dir(dir)
	rel := filepath.Base(dir)

	passing := testutil.WriteFile(t, planDir, "pass.yaml", `
checks:
  - package: `+rel+`
    request: "."
    expect: ./dist/index.js
  - package: `+rel+`
    request: "./internal/x"
    expect_error: not_exported
`)
	out, _, err := execute(t, "check", passing)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "2/2 checks passed")

	failing := testutil.WriteFile(t, planDir, "fail.yaml", `
checks:
  - package: `+rel+`
    request: "."
    expect: ./wrong.js
  - package: `+rel+`
    request: "./feature"
`)
	out, _, err = execute(t, "check", failing, "--continue-on-error")
	require.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "1/2 checks passed")

	stopping := testutil.WriteFile(t, planDir, "stop.yaml", `
options:
  concurrency: 1
checks:
  - package: `+rel+`
    request: "./feature"
    expect: ./wrong.js
  - package: `+rel+`
    request: "."
`)
	out, _, err = execute(t, "check", stopping)
	require.ErrorIs(t, err, errChecksFailed)
	assert.Regexp(t, `(?m)^FAIL  \S*`+regexp.QuoteMeta(rel)+` \./feature: `, out)
	assert.Regexp(t, `(?m)^SKIP  \S*`+regexp.QuoteMeta(rel)+` \.$`, out)
	assert.Contains(t, out, "0/2 checks passed, 1 skipped")

	_, _, err = execute(t, "check", filepath.Join(planDir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan file not found")
}

func TestCacheCmd(t *testing.T) {
	home := setupEnv(t)
	dir := testutil.NewPackage(t, testutil.DualPackage)

	_, _, err := execute(t, "resolve", ".", dir)
	require.NoError(t, err)

	out, _, err := execute(t, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(home, "cache"))
	assert.Contains(t, out, "entries:")

	out, _, err = execute(t, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared manifest cache")
}
