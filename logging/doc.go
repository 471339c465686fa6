// Package logging provides a minimal logging interface and slog backed adapters
// for agentroom.
//
// Components depend on the Logger interface only. The package offers:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - RoomLogger with component / room / session scoping and domain helpers
//   - NoOpLogger for silent operation (tests, embedded use)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	c, err := chat.New(store, selector, terminator, func(o *chat.Options) { o.Logger = logger })
//
// Event names are dotted ("chat.turn.start", "selection.fallback") and all
// extra data is passed as slog key / value pairs.
package logging
