package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/internal/testutil"
	"github.com/hupe1980/agentroom/model"
	"github.com/hupe1980/agentroom/room"
)

func newRunner(t *testing.T, mutate func(d *room.Definition), optFns ...func(o *Options)) *Runner {
	t.Helper()

	writer, director := testutil.CopyWriterRoom()
	d := room.Definition{
		Name:        "Copywriting",
		Agents:      []*core.Agent{writer, director},
		Selection:   room.StrategySpec{Type: room.StrategyRoundRobin},
		Termination: room.StrategySpec{Type: room.StrategyKeyword, Keywords: []string{"approved"}},
	}

	if mutate != nil {
		mutate(&d)
	}

	reg := room.NewRegistry(nil)
	require.NoError(t, reg.Add(d))

	r := New(reg.NewSession(), optFns...)
	t.Cleanup(r.Close)

	return r
}

func drain(t *testing.T, envCh <-chan *core.Envelope, errCh <-chan error) ([]*core.Envelope, error) {
	t.Helper()

	var envs []*core.Envelope

	timeout := time.After(5 * time.Second)

	for envCh != nil {
		select {
		case env, ok := <-envCh:
			if !ok {
				envCh = nil
				continue
			}
			envs = append(envs, env)
		case <-timeout:
			t.Fatal("run did not finish")
		}
	}

	return envs, <-errCh
}

func TestRunner_Run(t *testing.T) {
	r := newRunner(t, nil)

	run, envCh, errCh, err := r.Run(context.Background(), "Copywriting", "Write a slogan")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "Copywriting", run.Room)

	envs, err := drain(t, envCh, errCh)
	require.NoError(t, err)
	require.NotEmpty(t, envs)
	assert.True(t, envs[len(envs)-1].IsChatComplete)
	assert.Len(t, testutil.Iterations(envs), 2)

	assert.Eventually(t, func() bool { return r.Active() == 0 }, time.Second, 10*time.Millisecond)
	assert.False(t, r.Session().Busy("Copywriting"))
}

func TestRunner_UnknownRoom(t *testing.T) {
	r := newRunner(t, nil)

	_, _, _, err := r.Run(context.Background(), "nowhere", "hi")
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestRunner_Error(t *testing.T) {
	upstream := errors.New("boom")

	r := newRunner(t, func(d *room.Definition) {
		m := model.NewMockModel("failing", "mock")
		m.AddError("", upstream)
		d.Agents[0].Model = m
	})

	_, envCh, errCh, err := r.Run(context.Background(), "Copywriting", "hi")
	require.NoError(t, err)

	_, err = drain(t, envCh, errCh)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUpstreamCompletion)
}

func TestRunner_Cancel(t *testing.T) {
	assert.Error(t, newRunner(t, nil).Cancel("missing"))

	started := make(chan struct{}, 1)

	r := newRunner(t, func(d *room.Definition) {
		d.Agents[0].Model = &stallingModel{started: started}
	})

	run, envCh, errCh, err := r.Run(context.Background(), "Copywriting", "hi")
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("agent never started")
	}

	_, _, _, err = r.Run(context.Background(), "Copywriting", "again")
	assert.ErrorIs(t, err, core.ErrTurnInProgress)

	require.NoError(t, r.Cancel(run.ID))

	_, err = drain(t, envCh, errCh)
	assert.NoError(t, err)
}

func TestRunner_CancelRoom(t *testing.T) {
	started := make(chan struct{}, 1)

	r := newRunner(t, func(d *room.Definition) {
		d.Agents[0].Model = &stallingModel{started: started}
	})

	assert.False(t, r.CancelRoom("Copywriting"))

	_, envCh, errCh, err := r.Run(context.Background(), "Copywriting", "hi")
	require.NoError(t, err)

	<-started

	assert.True(t, r.CancelRoom("copywriting"))

	_, err = drain(t, envCh, errCh)
	assert.NoError(t, err)
}

func TestRunner_RecoversPanic(t *testing.T) {
	r := newRunner(t, func(d *room.Definition) {
		d.Agents[0].Model = panickingModel{}
	})

	_, envCh, errCh, err := r.Run(context.Background(), "Copywriting", "hi")
	require.NoError(t, err)

	_, err = drain(t, envCh, errCh)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUpstreamCompletion)
	assert.Contains(t, err.Error(), "provider exploded")

	assert.Eventually(t, func() bool { return r.Active() == 0 }, time.Second, 10*time.Millisecond)
	assert.False(t, r.Session().Busy("Copywriting"))
}

func TestRunner_NonASCIIReasoning(t *testing.T) {
	r := newRunner(t, func(d *room.Definition) {
		m := model.NewMockModel("writer", "mock")
		m.SetChunkSize(3)
		m.SetDefault("ȺȺȺȺȺȺȺȺȺȺ<think>plan</think> approved")
		d.Agents[0].Model = m
	})

	_, envCh, errCh, err := r.Run(context.Background(), "Copywriting", "hi")
	require.NoError(t, err)

	envs, err := drain(t, envCh, errCh)
	require.NoError(t, err)
	require.NotEmpty(t, envs)

	last := envs[len(envs)-1]
	assert.True(t, last.IsChatComplete)
	c, err := r.Session().Chat("Copywriting")
	require.NoError(t, err)

	msg, ok := c.Store().Last()
	require.True(t, ok)
	assert.Equal(t, "ȺȺȺȺȺȺȺȺȺȺ approved", msg.Text)
}

// panickingModel panics inside Generate.
type panickingModel struct{}

func (panickingModel) Generate(context.Context, model.Request) (<-chan model.Response, <-chan error) {
	panic("provider exploded")
}

func (panickingModel) Info() model.Info { return model.Info{Name: "panicking", Provider: "mock"} }

// stallingModel blocks until its context is cancelled.
type stallingModel struct {
	started chan struct{}
}

func (s *stallingModel) Generate(ctx context.Context, _ model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		select {
		case s.started <- struct{}{}:
		default:
		}

		<-ctx.Done()
		errCh <- ctx.Err()
	}()

	return out, errCh
}

func (s *stallingModel) Info() model.Info { return model.Info{Name: "stalling", Provider: "mock"} }
