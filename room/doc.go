// Package room turns declarative room definitions into running chats.
//
// A Definition names a room, its agents and its selection / termination
// strategies. The Registry validates definitions and builds a chat.Chat per
// request; a Session holds one chat per room for a single client connection
// and serializes turns: while a room's loop is running further messages for
// that room are rejected with core.ErrTurnInProgress.
package room
