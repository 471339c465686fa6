package core

// Stage identifies one sub-step of a turn within an Envelope.
type Stage string

// Stage keys in the order they are produced during one iteration.
const (
	StageSelectHistory     Stage = "select-history"
	StageSelectContent     Stage = "select-content"
	StageSelectDecision    Stage = "select-decision"
	StageAgent             Stage = "agent"
	StageTerminateHistory  Stage = "terminate-history"
	StageTerminateContent  Stage = "terminate-content"
	StageTerminateDecision Stage = "terminate-decision"
)

var stageOrder = []Stage{
	StageSelectHistory,
	StageSelectContent,
	StageSelectDecision,
	StageAgent,
	StageTerminateHistory,
	StageTerminateContent,
	StageTerminateDecision,
}

// ReasonCode marks payloads produced deterministically rather than by a model.
const ReasonCode = "code"

// StagePayload is the latest state of one stage.
type StagePayload struct {
	Prompt  string `json:"prompt"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

// Envelope is the progress record for one orchestrator iteration. A fresh
// envelope is created per iteration; within it stages are only added or
// overwritten, never removed.
type Envelope struct {
	Hints          map[Stage]StagePayload `json:"hints"`
	AgentName      string                 `json:"agentName"`
	IsNewAgent     bool                   `json:"isNewAgent"`
	IsMessageDone  bool                   `json:"isMessageDone"`
	IsChatComplete bool                   `json:"isChatComplete"`
}

// NewEnvelope returns an empty envelope.
func NewEnvelope() *Envelope {
	return &Envelope{Hints: make(map[Stage]StagePayload, len(stageOrder))}
}

// SetStage records the latest payload for stage.
func (e *Envelope) SetStage(stage Stage, p StagePayload) {
	if e.Hints == nil {
		e.Hints = make(map[Stage]StagePayload, len(stageOrder))
	}
	e.Hints[stage] = p
}

// Stage returns the payload for stage, if present.
func (e *Envelope) Stage(stage Stage) (StagePayload, bool) {
	p, ok := e.Hints[stage]
	return p, ok
}

// Stages returns the present stage keys in canonical order.
func (e *Envelope) Stages() []Stage {
	out := make([]Stage, 0, len(e.Hints))
	for _, s := range stageOrder {
		if _, ok := e.Hints[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy safe to hand to observers.
func (e *Envelope) Clone() *Envelope {
	c := *e
	c.Hints = make(map[Stage]StagePayload, len(e.Hints))
	for k, v := range e.Hints {
		c.Hints[k] = v
	}
	return &c
}
