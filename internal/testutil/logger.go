package testutil

import (
	"io"
	"testing"

	"github.com/quantmind-br/pkgjson-go/internal/utils"
	"github.com/rs/zerolog"
)

// NewTestLogger creates a test logger that discards output
func NewTestLogger(t *testing.T) *utils.Logger {
	t.Helper()

	zlogger := zerolog.New(io.Discard).With().
		Timestamp().
		Str("test", t.Name()).
		Logger()

	return &utils.Logger{Logger: zlogger}
}

// NewBufferLogger creates a debug-level JSON logger writing to w
func NewBufferLogger(t *testing.T, w io.Writer) *utils.Logger {
	t.Helper()

	return utils.NewLogger(utils.LoggerOptions{
		Level:  "debug",
		Format: "json",
		Output: w,
	})
}
