package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	log := New("debug", "json", buf)
	require.Equal(t, 0, buf.Len())

	log.Debug().Msg("Test")
	assert.Contains(t, buf.String(), `"message":"Test"`)
	assert.Contains(t, buf.String(), `"time"`)
}

func TestNewLevelFallback(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	log := New("nonsense", "json", buf)

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewConsole(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	log := New("info", "console", buf)

	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}
