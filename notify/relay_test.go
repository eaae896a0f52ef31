package notify

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type shown struct {
	level   Level
	message string
}

func TestRelayForwardsEachLevel(t *testing.T) {
	var got []shown
	r := NewRelay(DisplayFunc(func(level Level, message string) {
		got = append(got, shown{level, message})
	}))

	r.Success("Note saved")
	r.Error("Could not save")
	r.Info("Folder deleted")
	r.Warning("Offline")

	assert.Equal(t, []shown{
		{LevelSuccess, "Note saved"},
		{LevelError, "Could not save"},
		{LevelInfo, "Folder deleted"},
		{LevelWarning, "Offline"},
	}, got)
}

func TestMultiShowsOnEveryDisplay(t *testing.T) {
	var a, b int
	m := Multi{
		DisplayFunc(func(Level, string) { a++ }),
		DisplayFunc(func(Level, string) { b++ }),
	}

	NewRelay(m).Info("hi")

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestLogDisplay(t *testing.T) {
	var buf bytes.Buffer
	d := NewLogDisplay(zerolog.New(&buf))

	d.Show(LevelError, "Could not load notes")

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "Could not load notes")
}
