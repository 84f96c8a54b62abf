package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleFiltering(t *testing.T) {
	var buf bytes.Buffer
	prev := Root()
	defer SetDefault(prev)

	require.NoError(t, Setup(Options{Level: "trace", Output: &buf}))
	DisableModule(Memory)

	Trace(Memory, "hidden read", "offset", 1)
	assert.Empty(t, buf.String())

	EnableModule(Memory)
	Trace(Memory, "visible read", "offset", 2)
	assert.Contains(t, buf.String(), "visible read")
	assert.Contains(t, buf.String(), "TRACE")
	assert.Contains(t, buf.String(), "module="+Memory)
	DisableModule(Memory)

	buf.Reset()
	Info(Simulator, "always shown")
	assert.Contains(t, buf.String(), "always shown")
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewJSONHandlerWithLevel(&buf, LevelInfo))
	l.Debug(CLI, "dropped")
	l.Warn(CLI, "kept", "k", "v")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("crit")
	require.NoError(t, err)
	assert.Equal(t, LevelCrit, lvl)
	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
