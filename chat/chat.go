package chat

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hupe1980/agentroom/conversation"
	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/logging"
	"github.com/hupe1980/agentroom/metrics"
	"github.com/hupe1980/agentroom/model"
	"github.com/hupe1980/agentroom/reasoning"
	"github.com/hupe1980/agentroom/strategy"
)

// State is the orchestrator's position in the turn loop.
type State int32

// Loop states.
const (
	StateIdle State = iota
	StateSelectingAgent
	StateStreamingResponse
	StateEvaluatingTermination
	StateComplete
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSelectingAgent:
		return "SelectingAgent"
	case StateStreamingResponse:
		return "StreamingResponse"
	case StateEvaluatingTermination:
		return "EvaluatingTermination"
	case StateComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Options configure a Chat.
type Options struct {
	// MaxIterations caps agent replies per Stream call. Zero defers to the
	// terminator's MaxIterations.
	MaxIterations int
	// Room labels logs and metrics.
	Room    string
	Logger  logging.Logger
	Metrics *metrics.Collector
	// Markers delimit reasoning in agent output.
	Markers reasoning.Markers
}

// Chat is the streaming orchestrator for one room.
//
// A Chat runs at most one loop at a time; a concurrent Stream call yields
// core.ErrTurnInProgress. History is read from and appended to the store;
// the roster is taken from the store when a loop starts.
type Chat struct {
	store      conversation.Store
	selector   strategy.Selector
	terminator strategy.Terminator
	opts       Options

	state   atomic.Int32
	running atomic.Bool
}

// New creates a Chat. All three collaborators are required.
func New(
	store conversation.Store,
	selector strategy.Selector,
	terminator strategy.Terminator,
	optFns ...func(o *Options),
) (*Chat, error) {
	if store == nil || selector == nil || terminator == nil {
		return nil, fmt.Errorf("chat: %w: store, selector and terminator are required", core.ErrInvalidState)
	}

	opts := Options{
		Logger:  logging.NoOpLogger{},
		Markers: reasoning.Default,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Chat{
		store:      store,
		selector:   selector,
		terminator: terminator,
		opts:       opts,
	}, nil
}

// Store returns the conversation store.
func (c *Chat) Store() conversation.Store { return c.store }

// State returns the current loop state.
func (c *Chat) State() State { return State(c.state.Load()) }

// Running reports whether a loop is active.
func (c *Chat) Running() bool { return c.running.Load() }

// MaxIterations returns the effective iteration cap.
func (c *Chat) MaxIterations() int {
	if c.opts.MaxIterations > 0 {
		return c.opts.MaxIterations
	}

	if n := c.terminator.MaxIterations(); n > 0 {
		return n
	}

	return strategy.DefaultMaxIterations
}

func (c *Chat) setState(s State) { c.state.Store(int32(s)) }

type outcome int

const (
	outcomeContinue outcome = iota
	outcomeComplete
	outcomeStopped
	outcomeFailed
)

// turn tracks one iteration's envelope and what has been forwarded.
type turn struct {
	ctx     context.Context
	env     *core.Envelope
	yield   func(*core.Envelope, error) bool
	emitted bool
}

// emit forwards a snapshot; the first one of the iteration is flagged
// IsNewAgent. It returns false when the context is done or the consumer
// stopped.
func (t *turn) emit() bool {
	if t.ctx.Err() != nil {
		return false
	}

	snap := t.env.Clone()
	snap.IsNewAgent = !t.emitted
	t.emitted = true

	return t.yield(snap, nil)
}

// Stream runs the turn loop and yields an envelope snapshot for every
// sub-step. It ends after a positive termination decision, after
// MaxIterations agent replies, on the first error (yielded once) or
// silently when ctx is cancelled or the consumer stops.
func (c *Chat) Stream(ctx context.Context) iter.Seq2[*core.Envelope, error] {
	return func(yield func(*core.Envelope, error) bool) {
		if !c.running.CompareAndSwap(false, true) {
			yield(nil, fmt.Errorf("chat: %w", core.ErrTurnInProgress))
			return
		}
		defer c.running.Store(false)

		agents := c.store.Agents()
		if len(agents) == 0 {
			yield(nil, fmt.Errorf("chat: %w: roster not initialized", core.ErrInvalidState))
			return
		}

		maxIters := c.MaxIterations()
		record := c.opts.Metrics.TurnStarted(c.opts.Room)
		result := metrics.OutcomeCancelled

		defer func() {
			if c.State() != StateComplete {
				c.setState(StateIdle)
			}
			record(result)
		}()

		c.opts.Logger.Info("chat.start", "room", c.opts.Room, "max_iterations", maxIters, "history", c.store.Len())

		var last *turn

		for i := 1; i <= maxIters; i++ {
			t := &turn{ctx: ctx, env: core.NewEnvelope(), yield: yield}
			last = t

			switch c.iterate(ctx, i, agents, t) {
			case outcomeComplete:
				result = metrics.OutcomeComplete
				c.opts.Logger.Info("chat.complete", "room", c.opts.Room, "iterations", i)

				return
			case outcomeStopped:
				c.opts.Logger.Info("chat.cancelled", "room", c.opts.Room, "iteration", i)
				return
			case outcomeFailed:
				result = metrics.OutcomeError
				return
			}
		}

		result = metrics.OutcomeMaxIterations
		c.setState(StateComplete)
		c.opts.Logger.Warn("chat.max_iterations", "room", c.opts.Room, "max_iterations", maxIters)

		last.env.IsChatComplete = true
		last.emit()
	}
}

func (c *Chat) iterate(ctx context.Context, iteration int, agents []*core.Agent, t *turn) outcome {
	start := time.Now()

	speaker, out := c.selectAgent(ctx, iteration, agents, t)
	if out != outcomeContinue {
		return out
	}

	c.opts.Logger.Debug("chat.turn.start", "room", c.opts.Room, "iteration", iteration, "agent", speaker.Name)

	if out := c.streamReply(ctx, iteration, speaker, t); out != outcomeContinue {
		return out
	}

	out = c.evaluateTermination(ctx, iteration, speaker, t)

	c.opts.Logger.Info("chat.turn.completed",
		"room", c.opts.Room,
		"agent", speaker.Name,
		"iteration", iteration,
		"duration", time.Since(start),
		"complete", out == outcomeComplete,
	)

	return out
}

func (c *Chat) selectAgent(ctx context.Context, iteration int, agents []*core.Agent, t *turn) (*core.Agent, outcome) {
	c.setState(StateSelectingAgent)

	var speaker *core.Agent

	for a, err := range c.selector.SelectNext(ctx, t.env, agents, c.store.History()) {
		if err != nil {
			return nil, c.fail(ctx, iteration, t, err)
		}

		speaker = a

		if !t.emit() {
			return nil, outcomeStopped
		}
	}

	if ctx.Err() != nil {
		return nil, outcomeStopped
	}

	if speaker == nil {
		return nil, c.fail(ctx, iteration, t, fmt.Errorf("chat: %w", core.ErrNoAgentSelected))
	}

	t.env.AgentName = speaker.Name

	if !t.emit() {
		return nil, outcomeStopped
	}

	return speaker, outcomeContinue
}

func (c *Chat) streamReply(ctx context.Context, iteration int, speaker *core.Agent, t *turn) outcome {
	c.setState(StateStreamingResponse)

	prompt := BuildPrompt(c.store.History(), speaker.Instructions)
	start := time.Now()

	var (
		buf    strings.Builder
		answer string
	)

	for chunk, err := range model.StreamText(ctx, speaker.Model, prompt) {
		if err != nil {
			if ctx.Err() != nil {
				return outcomeStopped
			}

			c.opts.Metrics.RecordModelCall(string(core.StageAgent), time.Since(start), err)

			return c.fail(ctx, iteration, t, fmt.Errorf("agent %s: %w: %w", speaker.Name, core.ErrUpstreamCompletion, err))
		}

		buf.WriteString(chunk)

		var thought string
		answer, thought = c.opts.Markers.Split(buf.String())

		t.env.SetStage(core.StageAgent, core.StagePayload{Prompt: prompt, Content: answer, Reason: thought})

		if !t.emit() {
			return outcomeStopped
		}
	}

	if ctx.Err() != nil {
		return outcomeStopped
	}

	c.opts.Metrics.RecordModelCall(string(core.StageAgent), time.Since(start), nil)

	if err := c.store.AppendMessage(speaker.Name, answer); err != nil {
		return c.fail(ctx, iteration, t, err)
	}

	c.opts.Metrics.RecordIteration(c.opts.Room, speaker.Name)

	t.env.IsMessageDone = true

	if !t.emit() {
		return outcomeStopped
	}

	return outcomeContinue
}

func (c *Chat) evaluateTermination(ctx context.Context, iteration int, speaker *core.Agent, t *turn) outcome {
	c.setState(StateEvaluatingTermination)

	complete := false

	for v, err := range c.terminator.ShouldTerminate(ctx, t.env, speaker, c.store.History()) {
		if err != nil {
			return c.fail(ctx, iteration, t, err)
		}

		complete = v

		if !t.emit() {
			return outcomeStopped
		}
	}

	if ctx.Err() != nil {
		return outcomeStopped
	}

	if !complete {
		return outcomeContinue
	}

	c.setState(StateComplete)
	t.env.IsChatComplete = true
	t.emit()

	return outcomeComplete
}

// fail yields err once unless the failure stems from cancellation.
func (c *Chat) fail(ctx context.Context, iteration int, t *turn, err error) outcome {
	if ctx.Err() != nil {
		return outcomeStopped
	}

	c.opts.Logger.Error("chat.turn.failed",
		"room", c.opts.Room,
		"iteration", iteration,
		"agent", t.env.AgentName,
		"kind", core.ErrorKind(err),
		"error", err.Error(),
	)

	t.yield(nil, err)

	return outcomeFailed
}
