package pkgjson

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExport_LegacyFallback(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"main first", `{"main": "./main.js", "module": "./module.js", "browser": "./browser.js"}`, "./main.js"},
		{"module when no main", `{"module": "./module.js", "browser": "./browser.js"}`, "./module.js"},
		{"browser last", `{"browser": "./browser.js"}`, "./browser.js"},
		{"empty main skipped", `{"main": "", "module": "./module.js"}`, "./module.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveExport(mustParse(t, tt.src), ".", ImportConditions())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveExport_NoExportsFailures(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		subpath string
	}{
		{"nothing declared", `{}`, "."},
		{"browser map is not an entry point", `{"browser": {"./a.js": false}}`, "."},
		{"deep subpath", `{"main": "./main.js"}`, "./lib/x.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveExport(mustParse(t, tt.src), tt.subpath, ImportConditions())
			assert.ErrorIs(t, err, ErrPackagePathNotExported)
		})
	}
}

func TestResolveExport_Sugar(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		subpath  string
		expected string
		wantErr  error
	}{
		{"string", `{"exports": "./index.js", "main": "./main.js"}`, ".", "./index.js", nil},
		{"string deep subpath", `{"exports": "./index.js"}`, "./other", "", ErrPackagePathNotExported},
		{"array", `{"exports": ["./a.js", "./b.js"]}`, ".", "./a.js", nil},
		{"array deep subpath", `{"exports": ["./a.js"]}`, "./a.js", "", ErrPackagePathNotExported},
		{"conditions", `{"exports": {"require": "./a.cjs", "import": "./a.mjs"}}`, ".", "./a.mjs", nil},
		{"conditions deep subpath", `{"exports": {"import": "./a.mjs"}}`, "./x", "", ErrPackagePathNotExported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveExport(mustParse(t, tt.src), tt.subpath, ImportConditions())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveExport_ExactBeatsPattern(t *testing.T) {
	m := mustParse(t, `{"exports": {
		"./feature/*.js": "./dist/pattern/*.js",
		"./feature/x.js": "./dist/exact.js"
	}}`)

	got, err := ResolveExport(m, "./feature/x.js", ImportConditions())
	require.NoError(t, err)
	assert.Equal(t, "./dist/exact.js", got)

	got, err = ResolveExport(m, "./feature/y.js", ImportConditions())
	require.NoError(t, err)
	assert.Equal(t, "./dist/pattern/y.js", got)
}

func TestResolveExport_PatternsInDocumentOrder(t *testing.T) {
	m := mustParse(t, `{"exports": {
		"./feature/*": "./first/*",
		"./feature/*.js": "./second/*.js"
	}}`)
	got, err := ResolveExport(m, "./feature/x.js", ImportConditions())
	require.NoError(t, err)
	assert.Equal(t, "./first/x.js", got)

	m = mustParse(t, `{"exports": {
		"./feature/*.js": "./second/*.js",
		"./feature/*": "./first/*"
	}}`)
	got, err = ResolveExport(m, "./feature/x.js", ImportConditions())
	require.NoError(t, err)
	assert.Equal(t, "./second/x.js", got)
}

func TestResolveExport_ConditionOrder(t *testing.T) {
	m := mustParse(t, `{"exports": {".": {"import": "./a.mjs", "node": "./a.js", "default": "./a.cjs"}}}`)

	tests := []struct {
		name       string
		conditions Conditions
		expected   string
	}{
		{"document order decides", NewConditions("import", "node"), "./a.mjs"},
		{"reversed active set", NewConditions("node", "import"), "./a.mjs"},
		{"node only", NewConditions("node"), "./a.js"},
		{"default", NewConditions("browser"), "./a.cjs"},
		{"zero value", Conditions{}, "./a.cjs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveExport(m, ".", tt.conditions)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveExport_NoConditionMatches(t *testing.T) {
	m := mustParse(t, `{"name": "pkg", "exports": {".": {"browser": "./b.js"}}}`)

	_, err := ResolveExport(m, ".", NewConditions("node"))
	require.ErrorIs(t, err, ErrPackagePathNotExported)

	var rErr *ResolutionError
	require.ErrorAs(t, err, &rErr)
	assert.Equal(t, ".", rErr.Subpath)
	assert.Equal(t, "pkg", rErr.PackageName)
	assert.Equal(t, `No "exports" main defined in package "pkg"`, rErr.Error())
}

func TestResolveExport_NullTargets(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		subpath    string
		conditions Conditions
		expected   string
		wantErr    error
	}{
		{
			name:       "null subpath is not exported",
			src:        `{"exports": {".": "./index.js", "./internal/*": null, "./*": "./*"}}`,
			subpath:    "./internal/x.js",
			conditions: ImportConditions(),
			wantErr:    ErrPackagePathNotExported,
		},
		{
			name:       "null condition stops the scan",
			src:        `{"exports": {".": {"node": null, "default": "./index.js"}}}`,
			subpath:    ".",
			conditions: NewConditions("node"),
			wantErr:    ErrPackagePathNotExported,
		},
		{
			name:       "null condition inactive is skipped",
			src:        `{"exports": {".": {"node": null, "default": "./index.js"}}}`,
			subpath:    ".",
			conditions: NewConditions("browser"),
			expected:   "./index.js",
		},
		{
			name:       "nested object without a match continues",
			src:        `{"exports": {".": {"node": {"require": "./a.cjs"}, "default": "./index.js"}}}`,
			subpath:    ".",
			conditions: NewConditions("node", "import"),
			expected:   "./index.js",
		},
		{
			name:       "nested null stops the outer scan",
			src:        `{"exports": {".": {"node": {"import": null}, "default": "./index.js"}}}`,
			subpath:    ".",
			conditions: NewConditions("node", "import"),
			wantErr:    ErrPackagePathNotExported,
		},
		{
			name:       "null in a fallback array is skipped",
			src:        `{"exports": {".": [null, "./b.js"]}}`,
			subpath:    ".",
			conditions: ImportConditions(),
			expected:   "./b.js",
		},
		{
			name:       "empty fallback array",
			src:        `{"exports": {".": []}}`,
			subpath:    ".",
			conditions: ImportConditions(),
			wantErr:    ErrPackagePathNotExported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveExport(mustParse(t, tt.src), tt.subpath, tt.conditions)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveExport_FallbackArray(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
		wantErr  error
	}{
		{"absolute first element skipped", `{"exports": ["/abs/a.js", "./b.js"]}`, "./b.js", nil},
		{"url first element skipped", `{"exports": ["https://x.test/a.js", "./b.js"]}`, "./b.js", nil},
		{"unmatched conditions skipped", `{"exports": [{"browser": "./web.js"}, "./b.js"]}`, "./b.js", nil},
		{"nested arrays", `{"exports": [["../escape.js"], ["./c.js"]]}`, "./c.js", nil},
		{"all invalid reports the last failure", `{"exports": ["/a.js", "../b.js"]}`, "", ErrInvalidPackageTarget},
		{"conditions then invalid", `{"exports": [{"browser": "./web.js"}, "/a.js"]}`, "", ErrInvalidPackageTarget},
		{"invalid then unmatched keeps the invalid target", `{"exports": ["/a.js", {"browser": "./web.js"}]}`, "", ErrInvalidPackageTarget},
		{"invalid then nested unmatched", `{"exports": [" /abs.js", [{"browser": "./web.js"}]]}`, "", ErrInvalidPackageTarget},
		{"invalid then null", `{"exports": ["/a.js", null]}`, "", ErrPackagePathNotExported},
		{"only unmatched", `{"exports": [{"browser": "./web.js"}]}`, "", ErrPackagePathNotExported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveExport(mustParse(t, tt.src), ".", ImportConditions())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveExport_InvalidTargets(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"absolute", "/abs/index.js"},
		{"parent", "../index.js"},
		{"bare", "index.js"},
		{"url", "file:///index.js"},
		{"escapes inside", "./dist/../../index.js"},
		{"node_modules", "./node_modules/dep/index.js"},
		{"encoded dot segment", "./dist/%2e%2e/index.js"},
		{"uppercase node_modules", "./NODE_MODULES/dep.js"},
		{"backslash dot segment", "./dist\\..\\x.js"},
		{"empty segment", "./dist//x.js"},
		{"package root", "./"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `{"name": "pkg", "exports": {"./x": ` + quote(tt.target) + `}}`
			_, err := ResolveExport(mustParse(t, src), "./x", ImportConditions())
			require.ErrorIs(t, err, ErrInvalidPackageTarget)

			var rErr *ResolutionError
			require.ErrorAs(t, err, &rErr)
			assert.Equal(t, tt.target, rErr.Target)
			assert.Equal(t, "./x", rErr.Subpath)
		})
	}
}

func TestResolveExport_PatternCaptureWithInvalidSegment(t *testing.T) {
	m := mustParse(t, `{"exports": {"./lib/*": "./dist/*"}}`)

	_, err := ResolveExport(m, "./lib/../../secret.js", ImportConditions())
	assert.ErrorIs(t, err, ErrInvalidModuleSpecifier)

	got, err := ResolveExport(m, "./lib/nested/dir/file.js", ImportConditions())
	require.NoError(t, err)
	assert.Equal(t, "./dist/nested/dir/file.js", got)
}

func TestResolveExport_PatternSubstitutesEveryStar(t *testing.T) {
	m := mustParse(t, `{"exports": {"./*": {"types": "./types/*.d.ts", "default": "./dist/*/index.js"}}}`)

	got, err := ResolveExport(m, "./button", NewConditions("types"))
	require.NoError(t, err)
	assert.Equal(t, "./types/button.d.ts", got)

	got, err = ResolveExport(m, "./button", NewConditions())
	require.NoError(t, err)
	assert.Equal(t, "./dist/button/index.js", got)
}

func TestResolveExport_NotExported(t *testing.T) {
	m := mustParse(t, `{"name": "pkg", "exports": {".": "./index.js"}}`)

	_, err := ResolveExport(m, "./missing.js", ImportConditions())
	require.ErrorIs(t, err, ErrPackagePathNotExported)
	assert.Equal(t, `Package subpath './missing.js' is not defined by "exports" in package "pkg"`, err.Error())
}

func TestResolveExport_SelfReference(t *testing.T) {
	m := mustParse(t, `{"name": "pkg", "exports": {".": "./index.js", "./utils/*": "./src/utils/*.js"}}`)

	byName, err := ResolveExport(m, "pkg", ImportConditions())
	require.NoError(t, err)
	bySubpath, err := ResolveExport(m, ".", ImportConditions())
	require.NoError(t, err)
	assert.Equal(t, bySubpath, byName)
	assert.Equal(t, "./index.js", byName)

	got, err := ResolveExport(m, "pkg/utils/strings", ImportConditions())
	require.NoError(t, err)
	assert.Equal(t, "./src/utils/strings.js", got)

	got, err = ResolveSelf(m, "pkg/utils/x", ImportConditions())
	require.NoError(t, err)
	assert.Equal(t, "./src/utils/x.js", got)

	_, err = ResolveExport(m, "pkg/missing", ImportConditions())
	var rErr *ResolutionError
	require.ErrorAs(t, err, &rErr)
	assert.ErrorIs(t, err, ErrPackagePathNotExported)
	assert.Equal(t, "./missing", rErr.Subpath)
	assert.Equal(t, "pkg/missing", rErr.Specifier)
}

func TestResolveExport_SelfReferenceFailures(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		specifier string
		wantErr   error
	}{
		{"other package", `{"name": "pkg", "exports": "./index.js"}`, "other", ErrInvalidModuleSpecifier},
		{"name prefix is not enough", `{"name": "pkg", "exports": "./index.js"}`, "pkgx", ErrInvalidModuleSpecifier},
		{"no name", `{"exports": "./index.js"}`, "pkg", ErrInvalidModuleSpecifier},
		{"empty specifier", `{"name": "pkg", "exports": "./index.js"}`, "", ErrInvalidModuleSpecifier},
		{"no exports", `{"name": "pkg", "main": "./main.js"}`, "pkg", ErrPackagePathNotExported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveExport(mustParse(t, tt.src), tt.specifier, ImportConditions())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := ResolveSelf(mustParse(t, `{"name": "pkg", "exports": "./index.js"}`), ".", ImportConditions())
	assert.ErrorIs(t, err, ErrInvalidModuleSpecifier)
}

func TestResolveImport(t *testing.T) {
	m := mustParse(t, `{
		"name": "pkg",
		"imports": {
			"#dep": {"node": "dep-node-native", "default": "./dep-polyfill.js"},
			"#internal/*.js": "./src/internal/*.js",
			"#internal/special.js": "./src/special.js",
			"#fs": "node:fs",
			"#scoped/*": "@scope/lib/*",
			"#disabled": null,
			"#bad": "/etc/passwd",
			"#url": "https://example.com/x.js"
		}
	}`)

	tests := []struct {
		name       string
		specifier  string
		conditions Conditions
		expected   string
		wantErr    error
	}{
		{"bare package under node", "#dep", NewConditions("node"), "dep-node-native", nil},
		{"relative default", "#dep", NewConditions("browser"), "./dep-polyfill.js", nil},
		{"pattern", "#internal/util.js", ImportConditions(), "./src/internal/util.js", nil},
		{"exact beats pattern", "#internal/special.js", ImportConditions(), "./src/special.js", nil},
		{"node builtin", "#fs", ImportConditions(), "node:fs", nil},
		{"bare pattern", "#scoped/a/b", ImportConditions(), "@scope/lib/a/b", nil},
		{"disabled", "#disabled", ImportConditions(), "", ErrPackageImportNotDefined},
		{"absolute target", "#bad", ImportConditions(), "", ErrInvalidPackageTarget},
		{"url target", "#url", ImportConditions(), "", ErrInvalidPackageTarget},
		{"missing key", "#missing", ImportConditions(), "", ErrPackageImportNotDefined},
		{"no hash", "missing-no-hash", ImportConditions(), "", ErrInvalidModuleSpecifier},
		{"bare hash", "#", ImportConditions(), "", ErrInvalidModuleSpecifier},
		{"hash slash", "#/x", ImportConditions(), "", ErrInvalidModuleSpecifier},
		{"trailing slash", "#dep/", ImportConditions(), "", ErrInvalidModuleSpecifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveImport(m, tt.specifier, tt.conditions)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveImport_NoImportsField(t *testing.T) {
	_, err := ResolveImport(mustParse(t, `{"name": "pkg"}`), "#a", ImportConditions())
	require.ErrorIs(t, err, ErrPackageImportNotDefined)
	assert.Equal(t, `Package import specifier "#a" is not defined in package "pkg"`, err.Error())
}

func TestResolveImport_InvalidSpecifierBeforeLookup(t *testing.T) {
	// the check happens even when imports would be unusable anyway
	_, err := ResolveImport(mustParse(t, `{}`), "missing-no-hash", ImportConditions())
	require.ErrorIs(t, err, ErrInvalidModuleSpecifier)

	var rErr *ResolutionError
	require.ErrorAs(t, err, &rErr)
	assert.Equal(t, "missing-no-hash", rErr.Specifier)
}

func TestResolveImport_NormalizedSpecifier(t *testing.T) {
	m := mustParse(t, `{"imports": {"#caf\u00e9": "./cafe.js"}}`)

	got, err := ResolveImport(m, "#cafe\u0301", ImportConditions())
	require.NoError(t, err)
	assert.Equal(t, "./cafe.js", got)
}

func TestResolve_ConcurrentReaders(t *testing.T) {
	m := mustParse(t, `{"name": "pkg", "exports": {"./*": "./dist/*.js"}, "imports": {"#a": "./a.js"}, "dependencies": {"x": "1"}}`)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ResolveExport(m, "./mod", ImportConditions())
			assert.NoError(t, err)
			assert.Equal(t, "./dist/mod.js", got)

			got, err = ResolveImport(m, "#a", RequireConditions())
			assert.NoError(t, err)
			assert.Equal(t, "./a.js", got)

			_, ok := m.Dependencies().Get("x")
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

func quote(s string) string {
	out := []byte{'"'}
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' || s[i] == '"' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(append(out, '"'))
}
