// Package runner drives room turn loops in the background.
//
// A Runner wraps a room.Session and turns each Send into an asynchronous run
// with an id: envelopes and the terminal error are delivered on channels,
// and a run can be cancelled by id. Transports that cannot range over an
// iterator (websocket writers, tests with timeouts) use the Runner instead of
// the Session directly.
package runner
