// Package logger provides structured logging built on zerolog.
//
// Components obtain tagged loggers from a shared root:
//
//	log := logger.GetGlobalLogger().WithComponent("stream")
//	log.Info("session opened", logger.Fields("session_id", id))
//
// Package-level Debug/Info/Warn/Error delegate to the global logger for
// code paths that have no injected logger.
package logger
