package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/internal/testutil"
	"github.com/hupe1980/agentroom/model"
)

// blockingModel never answers; it waits for cancellation.
type blockingModel struct {
	started chan struct{}
}

func (b *blockingModel) Generate(ctx context.Context, _ model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		select {
		case b.started <- struct{}{}:
		default:
		}

		<-ctx.Done()
		errCh <- ctx.Err()
	}()

	return out, errCh
}

func (b *blockingModel) Info() model.Info { return model.Info{Name: "blocking", Provider: "mock"} }

func copyWriterDefinition() Definition {
	writer, director := testutil.CopyWriterRoom()

	return Definition{
		Name:        "Copywriting",
		Emoji:       "✍️",
		Agents:      []*core.Agent{writer, director},
		Selection:   StrategySpec{Type: StrategyRoundRobin},
		Termination: StrategySpec{Type: StrategyKeyword, Keywords: []string{"approved"}},
	}
}

func TestDefinition_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, copyWriterDefinition().Validate())
	})

	tests := []struct {
		name   string
		mutate func(d *Definition)
	}{
		{"blank name", func(d *Definition) { d.Name = " " }},
		{"no agents", func(d *Definition) { d.Agents = nil }},
		{"missing selection", func(d *Definition) { d.Selection = StrategySpec{} }},
		{"missing termination", func(d *Definition) { d.Termination = StrategySpec{} }},
		{"text selection without criteria", func(d *Definition) { d.Selection = StrategySpec{Type: StrategyText, Filter: "x", Keywords: []string{"x"}} }},
		{"keyword selection", func(d *Definition) { d.Selection = StrategySpec{Type: StrategyKeyword, Keywords: []string{"x"}} }},
		{"keyword termination without keywords", func(d *Definition) { d.Termination = StrategySpec{Type: StrategyKeyword, Description: "x"} }},
		{"duplicate agents", func(d *Definition) { d.Agents = append(d.Agents, d.Agents[0]) }},
		{"negative cap", func(d *Definition) { d.MaxIterations = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := copyWriterDefinition()
			tt.mutate(&d)
			assert.ErrorIs(t, d.Validate(), core.ErrInvalidState)
		})
	}
}

func TestDefinition_Summary(t *testing.T) {
	d := copyWriterDefinition()
	d.Agents[1].Emoji = "🎨"

	s := d.Summary()
	assert.Equal(t, "Copywriting", s.Name)
	assert.Equal(t, "✍️", s.Emoji)
	assert.Equal(t, []AgentSummary{{Name: "CopyWriter", Emoji: core.DefaultAgentEmoji}, {Name: "ArtDirector", Emoji: "🎨"}}, s.Agents)

	a, ok := d.Agent("artdirector")
	require.True(t, ok)
	assert.Equal(t, "ArtDirector", a.Name)
}

func TestRegistry_AddGetList(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Add(copyWriterDefinition()))

	second := copyWriterDefinition()
	second.Name = "Brainstorm"
	require.NoError(t, r.Add(second))

	err := r.Add(copyWriterDefinition())
	assert.ErrorIs(t, err, core.ErrInvalidState)

	_, ok := r.Get("COPYWRITING")
	assert.True(t, ok)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Copywriting", list[0].Name)
	assert.Equal(t, "Brainstorm", list[1].Name)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_TextStrategiesNeedModel(t *testing.T) {
	d := copyWriterDefinition()
	d.Selection = StrategySpec{Description: "CopyWriter first."}

	err := NewRegistry(nil).Add(d)
	assert.ErrorIs(t, err, core.ErrInvalidState)

	k := model.NewMockModel("kernel", "mock")
	assert.NoError(t, NewRegistry(k).Add(d))
}

func TestRegistry_NewChat(t *testing.T) {
	r := NewRegistry(nil, func(o *RegistryOptions) { o.MaxIterations = 4 })
	require.NoError(t, r.Add(copyWriterDefinition()))

	c, err := r.NewChat("copywriting")
	require.NoError(t, err)
	assert.Equal(t, 4, c.MaxIterations())
	assert.Equal(t, 0, c.Store().Len())
	assert.Len(t, c.Store().Agents(), 2)

	d := copyWriterDefinition()
	d.Name = "Capped"
	d.MaxIterations = 2
	require.NoError(t, r.Add(d))

	c, err = r.NewChat("Capped")
	require.NoError(t, err)
	assert.Equal(t, 2, c.MaxIterations())

	_, err = r.NewChat("missing")
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestSession_Send(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Add(copyWriterDefinition()))

	s := r.NewSession()
	assert.NotEmpty(t, s.ID())

	seq, err := s.Send(context.Background(), "Copywriting", "Write a slogan")
	require.NoError(t, err)
	assert.True(t, s.Busy("copywriting"))

	envs, err := testutil.Collect(seq)
	require.NoError(t, err)
	assert.False(t, s.Busy("copywriting"))

	require.NotEmpty(t, envs)
	assert.True(t, envs[len(envs)-1].IsChatComplete)

	c, err := s.Chat("Copywriting")
	require.NoError(t, err)

	history := c.Store().History()
	require.Len(t, history, 3)
	assert.Equal(t, core.NewUserMessage("Write a slogan"), history[0])
	assert.Equal(t, "ArtDirector", history[2].Author)
}

func TestSession_RejectsConcurrentTurn(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Add(copyWriterDefinition()))

	s := r.NewSession()

	seq, err := s.Send(context.Background(), "Copywriting", "first")
	require.NoError(t, err)

	_, err = s.Send(context.Background(), "Copywriting", "second")
	assert.ErrorIs(t, err, core.ErrTurnInProgress)

	_, err = testutil.Collect(seq)
	require.NoError(t, err)

	_, err = s.Send(context.Background(), "Copywriting", "third")
	assert.NoError(t, err)
}

func TestSession_RoomsAreIndependent(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Add(copyWriterDefinition()))

	other := copyWriterDefinition()
	other.Name = "Other"
	require.NoError(t, r.Add(other))

	s := r.NewSession()

	seq, err := s.Send(context.Background(), "Copywriting", "hello")
	require.NoError(t, err)
	_, err = testutil.Collect(seq)
	require.NoError(t, err)

	c, err := s.Chat("Other")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Store().Len())
}

func TestSession_UnknownRoom(t *testing.T) {
	s := NewRegistry(nil).NewSession()

	_, err := s.Send(context.Background(), "nowhere", "hi")
	assert.ErrorIs(t, err, core.ErrInvalidState)
	assert.ErrorIs(t, s.Reset(context.Background(), "nowhere"), core.ErrInvalidState)
	assert.False(t, s.Cancel("nowhere"))
}

func TestSession_CancelAndReset(t *testing.T) {
	blocker := &blockingModel{started: make(chan struct{}, 1)}

	d := copyWriterDefinition()
	d.Agents[0].Model = blocker

	r := NewRegistry(nil)
	require.NoError(t, r.Add(d))

	s := r.NewSession()

	seq, err := s.Send(context.Background(), "Copywriting", "hello")
	require.NoError(t, err)

	finished := make(chan error, 1)

	go func() {
		_, err := testutil.Collect(seq)
		finished <- err
	}()

	select {
	case <-blocker.started:
	case <-time.After(2 * time.Second):
		t.Fatal("agent never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, s.Reset(ctx, "Copywriting"))

	select {
	case err := <-finished:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	assert.False(t, s.Busy("Copywriting"))

	c, err := s.Chat("Copywriting")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Store().Len())
	assert.False(t, s.Cancel("Copywriting"))
}

func TestSession_Close(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Add(copyWriterDefinition()))

	s := r.NewSession()
	s.Close()

	_, err := s.Send(context.Background(), "Copywriting", "hi")
	assert.ErrorIs(t, err, core.ErrInvalidState)
}
