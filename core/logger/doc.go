// Package logger provides slog attribute helpers with consistent keys.
//
// All helpers return an empty slog.Attr for zero values (nil errors, empty
// strings), which slog silently drops. This keeps call sites free of nil
// checks:
//
//	log.Debug("session resolved",
//		logger.Component("session"),
//		logger.Handle(kernel.Handle),
//		logger.Error(err), // no-op when err is nil
//	)
package logger
