package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/internal/util"
	"github.com/hupe1980/agentroom/logging"
	"github.com/hupe1980/agentroom/room"
)

// Options holds configuration overrides passed to New().
type Options struct {
	// MaxConcurrentRuns limits runs executing at the same time across rooms.
	MaxConcurrentRuns int
	// EventBufferSize sets channel buffering for envelopes.
	EventBufferSize int
	// Logging services.
	Logger logging.Logger
}

// Run describes an accepted run.
type Run struct {
	ID   string
	Room string
}

// Runner executes session turns asynchronously. Public methods are safe for
// concurrent use.
type Runner struct {
	session *room.Session

	eventBufferSize int
	sem             *semaphore.Weighted
	logger          logging.Logger

	activeRuns map[string]*activeRun
	mu         sync.RWMutex
	wg         sync.WaitGroup
}

type activeRun struct {
	room   string
	cancel context.CancelFunc
}

// New constructs a Runner with optional overrides.
func New(session *room.Session, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxConcurrentRuns: 10,
		EventBufferSize:   100,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxConcurrentRuns <= 0 {
		opts.MaxConcurrentRuns = 1
	}

	if opts.EventBufferSize < 0 {
		opts.EventBufferSize = 0
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Runner{
		session:         session,
		eventBufferSize: opts.EventBufferSize,
		sem:             semaphore.NewWeighted(int64(opts.MaxConcurrentRuns)),
		logger:          opts.Logger,
		activeRuns:      make(map[string]*activeRun),
	}
}

// Session returns the underlying session.
func (r *Runner) Session() *room.Session { return r.session }

// Run appends text to the room's history and starts the turn loop in the
// background. The envelope channel closes when the loop ends; the error
// channel carries at most one error and closes after the envelope channel.
// Run fails synchronously when the room is unknown or already busy.
func (r *Runner) Run(
	ctx context.Context,
	roomName string,
	text string,
) (Run, <-chan *core.Envelope, <-chan error, error) {
	ctx, cancel := context.WithCancel(ctx)

	seq, err := r.session.Send(ctx, roomName, text)
	if err != nil {
		cancel()
		return Run{}, nil, nil, fmt.Errorf("failed to start run: %w", err)
	}

	run := Run{ID: util.NewID(), Room: roomName}

	r.mu.Lock()
	r.activeRuns[run.ID] = &activeRun{room: roomName, cancel: cancel}
	r.mu.Unlock()

	envCh := make(chan *core.Envelope, r.eventBufferSize)
	errCh := make(chan error, 1)

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer close(errCh)
		defer close(envCh)
		defer func() {
			cancel()
			r.mu.Lock()
			delete(r.activeRuns, run.ID)
			r.mu.Unlock()
		}()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("runner.run.panic", "run_id", run.ID, "room", roomName, "recover", rec)
				select {
				case errCh <- fmt.Errorf("%w: panic: %v", core.ErrUpstreamCompletion, rec):
				default:
				}
			}
		}()

		if err := r.sem.Acquire(ctx, 1); err != nil {
			// The sequence must still be ranged to release the room.
			for range seq {
				break
			}
			return
		}
		defer r.sem.Release(1)

		r.logger.Debug("runner.run.start", "run_id", run.ID, "room", roomName)

		for env, err := range seq {
			if err != nil {
				errCh <- err
				return
			}

			select {
			case <-ctx.Done():
				return
			case envCh <- env:
			}
		}

		r.logger.Debug("runner.run.done", "run_id", run.ID, "room", roomName)
	}()

	return run, envCh, errCh, nil
}

// Cancel cancels a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.RLock()
	ar, exists := r.activeRuns[runID]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	ar.cancel()

	return nil
}

// CancelRoom cancels every active run of the named room and reports whether
// one was found.
func (r *Runner) CancelRoom(roomName string) bool {
	found := r.session.Cancel(roomName)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ar := range r.activeRuns {
		if strings.EqualFold(ar.room, roomName) {
			ar.cancel()
			found = true
		}
	}

	return found
}

// Active returns the number of runs that have not finished.
func (r *Runner) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.activeRuns)
}

// Close cancels all runs, closes the session and waits for the background
// goroutines to exit.
func (r *Runner) Close() {
	r.mu.RLock()
	for _, ar := range r.activeRuns {
		ar.cancel()
	}
	r.mu.RUnlock()

	r.session.Close()
	r.wg.Wait()
}
