package strategy

import (
	"context"
	"iter"

	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/decision"
	"github.com/hupe1980/agentroom/logging"
	"github.com/hupe1980/agentroom/metrics"
)

// DefaultMaxIterations caps a turn loop when nothing else is configured.
const DefaultMaxIterations = 10

// Selector chooses the next speaker. Intermediate yields carry a nil agent;
// the final yield carries the choice.
type Selector interface {
	SelectNext(ctx context.Context, env *core.Envelope, agents []*core.Agent, history []core.Message) iter.Seq2[*core.Agent, error]
}

// Terminator decides whether the conversation is complete after agent spoke.
// Intermediate yields are false; the final yield is the decision.
type Terminator interface {
	ShouldTerminate(ctx context.Context, env *core.Envelope, agent *core.Agent, history []core.Message) iter.Seq2[bool, error]
	// MaxIterations is the iteration cap the orchestrator enforces.
	MaxIterations() int
}

// Options configure any strategy.
type Options struct {
	// Preconditions are deterministic history filters ("last message",
	// "remove content") applied before the decision prompt.
	Preconditions []string
	// Filter is an optional instruction for model based history filtering.
	Filter string
	// MaxIterations is reported by terminators.
	MaxIterations int
	Logger        logging.Logger
	Metrics       *metrics.Collector
}

func newOptions(optFns []func(o *Options)) Options {
	opts := Options{
		MaxIterations: DefaultMaxIterations,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return opts
}

// WithLogger sets the strategy logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) func(o *Options) {
	return func(o *Options) { o.Metrics = c }
}

// SelectionDecision is the parsed result of a selection prompt.
type SelectionDecision struct {
	NextAgent string
	Rationale string
}

// ParseSelection reads nextAgent and rationale from decision text. ok is
// false when no agent name could be found.
func ParseSelection(text string) (SelectionDecision, bool) {
	text = decision.CleanJSON(text)

	next, ok := decision.ExtractField(text, "nextAgent")
	rationale, _ := decision.ExtractField(text, "rationale")

	return SelectionDecision{NextAgent: next, Rationale: rationale}, ok && next != ""
}

// TerminationDecision is the parsed result of a termination prompt.
type TerminationDecision struct {
	Reason          string
	ShouldTerminate bool
}

// ParseTermination reads reason and shouldTerminate from decision text. ok
// is false when shouldTerminate is missing or not a boolean literal; the
// decision then reads false.
func ParseTermination(text string) (TerminationDecision, bool) {
	text = decision.CleanJSON(text)

	reason, _ := decision.ExtractField(text, "reason")

	return TerminationDecision{
		Reason:          reason,
		ShouldTerminate: decision.ExtractBool(text, "shouldTerminate"),
	}, decision.HasBool(text, "shouldTerminate")
}
