package env

import (
	"fmt"
	"log/slog"
)

type Mode string

const (
	Test  Mode = "test"
	Local Mode = "local"
	Dev   Mode = "dev"
	Prod  Mode = "prod"
)

var currentMode = Test

func SetMode(mode Mode) {
	if !mode.Validate() {
		panic("invalid mode: " + mode.String())
	}
	currentMode = mode
}

func Current() Mode {
	return currentMode
}

// ParseMode returns the mode named by s, or an error for unknown names.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Validate() {
		return "", fmt.Errorf("unknown mode %q, expected one of: test, local, dev, prod", s)
	}
	return m, nil
}

func (e Mode) String() string {
	return string(e)
}

func (e Mode) Validate() bool {
	switch e {
	case Local, Test, Dev, Prod:
		return true
	default:
		return false
	}
}

// Deployed reports whether the mode serves real users, where emails must
// resolve to a registrable domain and outbound mail must really be delivered.
func (e Mode) Deployed() bool {
	return e == Dev || e == Prod
}

func (e Mode) SlogLevel() slog.Level {
	switch e {
	case Test, Local, Dev:
		return slog.LevelDebug
	case Prod:
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}
