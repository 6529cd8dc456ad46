// Package log provides geyserstream's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. It is backed by the standard library
// slog package so records can be rendered as text or JSON without each
// component knowing which.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormat(log.FormatText),
//	)
//	l = l.With(log.Component("broadcast"), log.Str("category", "account"))
//	l.Info("subscriber attached", log.Str("subscriber", id.String()))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config (level and
// format). The plugin reads GEYSER_LOG_LEVEL and GEYSER_LOG_FORMAT through
// the config package and hands the result to ApplyConfig.
//
// # Interop
//
// Libraries that log through the standard library log package (grpc's
// default logger, for instance) can be redirected with RedirectStdLog.
package log
