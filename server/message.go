package server

import (
	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/room"
)

// Actions and sub actions of the wire protocol.
const (
	ActionRooms   = "rooms"
	ActionError   = "error"
	ActionUnknown = "unknown"

	SubActionGet      = "get"
	SubActionRoomList = "room list"
	SubActionChat     = "chat"
	SubActionChunk    = "chunk"
	SubActionReset    = "reset"
	SubActionCancel   = "cancel"
	SubActionError    = "error"
)

// Defaults used in chunk replies before an agent is selected.
const (
	SystemUserID      = "system"
	DecidingAgentName = "Deciding..."
	DecidingEmoji     = "🤔"
)

// Message is an inbound client message and the base of every reply.
type Message struct {
	UserID        string `json:"userId"`
	TransactionID string `json:"transactionId"`
	Action        string `json:"action"`
	SubAction     string `json:"subAction"`
	Content       string `json:"content"`
}

// Reply is sent for chat progress, resets, cancellations and errors.
type Reply struct {
	Message

	AgentName      string                           `json:"agentName"`
	Emoji          string                           `json:"emoji"`
	Hints          map[core.Stage]core.StagePayload `json:"hints"`
	IsMessageDone  bool                             `json:"isMessageDone,omitempty"`
	IsChatComplete bool                             `json:"isChatComplete,omitempty"`
}

// RoomsReply answers a "rooms"/"get" request.
type RoomsReply struct {
	Message

	Rooms []room.Summary `json:"rooms"`
}

func newChunk(userID, transactionID, roomName string) Reply {
	return Reply{
		Message: Message{
			UserID:        userID,
			TransactionID: transactionID,
			Action:        roomName,
			SubAction:     SubActionChunk,
		},
		AgentName: DecidingAgentName,
		Emoji:     DecidingEmoji,
		Hints:     map[core.Stage]core.StagePayload{},
	}
}

// update copies an envelope snapshot into the reply.
func (r *Reply) update(def room.Definition, env *core.Envelope) {
	r.AgentName = DecidingAgentName
	r.Emoji = DecidingEmoji

	if env.AgentName != "" {
		r.AgentName = env.AgentName
		if a, ok := def.Agent(env.AgentName); ok {
			r.Emoji = a.DisplayEmoji()
		}
	}

	if agent, ok := env.Stage(core.StageAgent); ok {
		r.Content = agent.Content
	}

	r.Hints = env.Hints
	r.SubAction = SubActionChunk
	r.IsMessageDone = env.IsMessageDone
	r.IsChatComplete = env.IsChatComplete
}
