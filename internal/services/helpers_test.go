package services

import (
	"io"
	"log/slog"
	"time"

	applog "lifetrack/internal/log"
)

func testLogger() *applog.Logger {
	return applog.NewText(io.Discard, slog.LevelError, "test")
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
