// Package logging provides structured JSON logging for caskdeck.
//
// It wraps log/slog with a small [Logger] type that carries persistent
// attributes (task id, package, component) into child loggers, and a
// size-based [RotatingWriter] so the long-running daemon never grows its
// log file without bound.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(stateDir, logging.LevelInfo, logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	taskLog := logger.WithTask(t.ID).WithPackage(t.PackageID)
//	taskLog.Info("task started", "action", t.Action)
//
// An empty directory logs to stderr. Use [NopLogger] in tests.
//
// # Log Format
//
// Each line is one JSON object:
//
//	{"time":"2026-01-15T10:30:00Z","level":"INFO","msg":"task started","task_id":"4f1c…","package":"firefox","action":"install"}
package logging
