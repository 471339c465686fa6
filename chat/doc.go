// Package chat implements the streaming orchestrator that drives a room's
// conversation.
//
// A Chat owns a conversation.Store, a strategy.Selector and a
// strategy.Terminator. Stream runs the turn loop:
//
//	for each iteration (bounded by MaxIterations):
//	    select the next agent            -> select-* stages
//	    stream the agent's reply         -> agent stage, one emission per chunk
//	    append the answer to history     -> IsMessageDone
//	    ask whether to terminate         -> terminate-* stages
//
// Every sub-step yields a snapshot of the iteration's core.Envelope, so a
// transport can forward progress as it happens. The loop is pull based:
// nothing runs ahead of the consumer. Cancelling the context ends the
// sequence silently without committing partial output.
package chat
