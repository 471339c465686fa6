// Package server exposes rooms over WebSocket.
//
// Clients send JSON messages {userId, transactionId, action, subAction,
// content}. The action "rooms" with subAction "get" lists the rooms; any
// room name as action talks to that room (subAction "chat" or empty sends a
// message, "reset" clears the history, "cancel" stops a running loop).
// Every progress step of a running loop is sent back as a "chunk" reply
// carrying the agent name, its emoji and the stage hints.
package server
