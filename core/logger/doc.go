// Package logger builds the zap logger shared by the CLI and the HTTP server.
//
// Level accepts any zap level name; "debug" switches to the development
// preset. Format selects json (default) or console output.
//
// Request handlers derive a child logger with WithRayID so sync logs carry
// the ray id set by the rayid middleware:
//
//	l := logger.WithRayID(log, c)
//	l.Error("Sync failed", zap.String("entity", entity), zap.Error(err))
package logger
