package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"), "unknown levels fall back to info")
}

func TestNewAtomic(t *testing.T) {
	log, atom := NewAtomic("info", "json")

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))

	atom.SetLevel(zapcore.DebugLevel)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel), "level changes apply to the built logger")
}
