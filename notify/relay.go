// Package notify relays short user-facing messages to whatever displays
// them. The relay keeps no state of its own.
package notify

import "github.com/rs/zerolog"

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Display shows a message. Return values of the underlying mechanism are
// not relied upon.
type Display interface {
	Show(level Level, message string)
}

type DisplayFunc func(level Level, message string)

func (f DisplayFunc) Show(level Level, message string) { f(level, message) }

// Multi shows every message on each of its displays in order.
type Multi []Display

func (m Multi) Show(level Level, message string) {
	for _, d := range m {
		d.Show(level, message)
	}
}

type Relay struct {
	display Display
}

func NewRelay(display Display) *Relay {
	return &Relay{display: display}
}

func (r *Relay) Success(message string) { r.display.Show(LevelSuccess, message) }
func (r *Relay) Error(message string)   { r.display.Show(LevelError, message) }
func (r *Relay) Info(message string)    { r.display.Show(LevelInfo, message) }
func (r *Relay) Warning(message string) { r.display.Show(LevelWarning, message) }

// LogDisplay writes toasts to a zerolog logger.
type LogDisplay struct {
	log zerolog.Logger
}

func NewLogDisplay(log zerolog.Logger) LogDisplay {
	return LogDisplay{log: log.With().Str("component", "toast").Logger()}
}

func (d LogDisplay) Show(level Level, message string) {
	var ev *zerolog.Event
	switch level {
	case LevelError:
		ev = d.log.Error()
	case LevelWarning:
		ev = d.log.Warn()
	default:
		ev = d.log.Info()
	}
	ev.Str("level_name", string(level)).Msg(message)
}
