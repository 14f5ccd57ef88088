package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelError, ParseLogLevel(" ERROR "))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelWarn).WithComponent("Estimation").WithOutput(&buf)

	logger.Info("hidden %d", 1)
	logger.Warn("batch row %d failed", 3)

	assert.Equal(t, "[WARN] [Estimation] batch row 3 failed\n", buf.String())
}
