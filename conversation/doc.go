// Package conversation holds a room's ordered message history together with
// its agent roster.
//
// Store is the contract used by the orchestrator; InMemoryStore is a volatile
// implementation safe for concurrent reads. History does not survive process
// restarts. Other backends can implement Store without changing callers.
package conversation
