package ui

import (
	"context"
	"log/slog"

	"github.com/bamsammich/agcli/internal/event"
)

// LogEvents drains events into logger as "agcli.event" records until the
// channel closes. Phase boundaries log at Info, per-file damage and repair
// failures at Warn, everything else at Debug.
func LogEvents(events <-chan event.Event, logger *slog.Logger) {
	for ev := range events {
		level := slog.LevelDebug
		switch ev.Type {
		case event.FileDamaged, event.RepairFailed:
			level = slog.LevelWarn
		case event.FetchComplete, event.VerifyStarted, event.VerifyComplete,
			event.RepairStarted, event.RepairComplete, event.Done:
			level = slog.LevelInfo
		}

		attrs := []slog.Attr{
			slog.String("type", ev.Type.String()),
			slog.Time("at", ev.Timestamp),
		}
		if ev.Path != "" {
			attrs = append(attrs, slog.String("path", ev.Path), slog.Int64("size", ev.Size))
		}
		if ev.WorkerID > 0 {
			attrs = append(attrs, slog.Int("worker", ev.WorkerID))
		}
		if ev.Total > 0 || ev.TotalSize > 0 {
			attrs = append(attrs, slog.Int64("total", ev.Total), slog.Int64("total_size", ev.TotalSize))
		}
		if ev.Error != nil {
			attrs = append(attrs, slog.String("error", ev.Error.Error()))
		}
		logger.LogAttrs(context.Background(), level, "agcli.event", attrs...)
	}
}
