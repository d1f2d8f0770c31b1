package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(level string, buf *bytes.Buffer) *Logger {
	return NewLogger(LoggerOptions{
		Level:  level,
		Format: "json",
		Output: buf,
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		newJSONLogger("info", &buf).Info().Msg("manifest loaded")
		assert.Contains(t, buf.String(), `"message":"manifest loaded"`)
		assert.Contains(t, buf.String(), `"time":`)
	})

	t.Run("pretty output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LoggerOptions{Level: "info", Format: "pretty", Output: &buf})
		logger.Info().Msg("manifest loaded")
		assert.Contains(t, buf.String(), "manifest loaded")
		assert.NotContains(t, buf.String(), `"message"`)
	})

	t.Run("verbose overrides level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LoggerOptions{Level: "error", Format: "json", Output: &buf, Verbose: true})
		logger.Debug().Msg("resolving")
		assert.Contains(t, buf.String(), "resolving")
	})

	t.Run("stderr by default", func(t *testing.T) {
		require.NotNil(t, NewLogger(LoggerOptions{Level: "info", Format: "json"}))
	})
}

func TestNewNopLogger(t *testing.T) {
	logger := NewNopLogger()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() {
		logger.Error().Msg("discarded")
		logger.WithComponent("cache").Debug().Msg("discarded")
	})
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		level    string
		debug    bool
		info     bool
		warn     bool
		errorLog bool
	}{
		{"debug", true, true, true, true},
		{"info", false, true, true, true},
		{"warn", false, false, true, true},
		{"warning", false, false, true, true},
		{"error", false, false, false, true},
		{" ERROR ", false, false, false, true},
		{"", false, true, true, true},
		{"verbose", false, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			emitted := func(log func(*Logger)) bool {
				var buf bytes.Buffer
				log(newJSONLogger(tt.level, &buf))
				return buf.Len() > 0
			}

			assert.Equal(t, tt.debug, emitted(func(l *Logger) { l.Debug().Msg("x") }), "debug")
			assert.Equal(t, tt.info, emitted(func(l *Logger) { l.Info().Msg("x") }), "info")
			assert.Equal(t, tt.warn, emitted(func(l *Logger) { l.Warn().Msg("x") }), "warn")
			assert.Equal(t, tt.errorLog, emitted(func(l *Logger) { l.Error().Msg("x") }), "error")
		})
	}
}

func TestLoggerFieldHelpers(t *testing.T) {
	tests := []struct {
		name   string
		derive func(*Logger) *Logger
		field  string
		value  string
	}{
		{"component", func(l *Logger) *Logger { return l.WithComponent("loader") }, "component", "loader"},
		{"path", func(l *Logger) *Logger { return l.WithPath("/work/pkg/package.json") }, "path", "/work/pkg/package.json"},
		{"package", func(l *Logger) *Logger { return l.WithPackage("/work/pkg") }, "package", "/work/pkg"},
		{"specifier", func(l *Logger) *Logger { return l.WithSpecifier("#dep") }, "specifier", "#dep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := newJSONLogger("info", &buf)

			derived := tt.derive(base)
			require.NotNil(t, derived)
			derived.Info().Msg("resolved")
			assert.Contains(t, buf.String(), `"`+tt.field+`":"`+tt.value+`"`)

			// the parent logger is not changed
			buf.Reset()
			base.Info().Msg("plain")
			assert.NotContains(t, buf.String(), `"`+tt.field+`"`)
		})
	}
}

func TestLoggerChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger("info", &buf)

	chained := logger.WithComponent("resolver").
		WithPackage("/work/dual").
		WithPath("/work/dual/package.json").
		WithSpecifier("./feature")
	require.NotNil(t, chained)

	chained.Info().Str("target", "./dist/feature-node.js").Msg("Resolved")
	output := buf.String()

	assert.Contains(t, output, `"component":"resolver"`)
	assert.Contains(t, output, `"package":"/work/dual"`)
	assert.Contains(t, output, `"path":"/work/dual/package.json"`)
	assert.Contains(t, output, `"specifier":"./feature"`)
	assert.Contains(t, output, `"target":"./dist/feature-node.js"`)
}
