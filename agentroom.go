// Package agentroom wires configuration, models, rooms and the WebSocket
// server into a runnable multi-agent chat service. Most applications:
//  1. Load a config.Config (config.NewLoader().Load())
//  2. Create an AgentRoom via New()
//  3. Serve it (ListenAndServe) or drive rooms in-process (InvokeSync)
package agentroom

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hupe1980/agentroom/config"
	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/logging"
	"github.com/hupe1980/agentroom/metrics"
	"github.com/hupe1980/agentroom/model"
	"github.com/hupe1980/agentroom/model/anthropic"
	"github.com/hupe1980/agentroom/model/openai"
	"github.com/hupe1980/agentroom/room"
	"github.com/hupe1980/agentroom/runner"
	"github.com/hupe1980/agentroom/server"
)

// DefaultOllamaBaseURL is used by the ollama provider when no base URL is set.
const DefaultOllamaBaseURL = "http://localhost:11434/v1/"

// Options configures the AgentRoom instance.
type Options struct {
	// Model overrides the provider from the config for all agents and
	// strategies.
	Model model.Model
	// Logger defaults to a slog logger built from the config.
	Logger logging.Logger
	// Registry receives the metrics. A fresh registry with Go and process
	// collectors is created when nil.
	Registry *prometheus.Registry
	// SkipRoomsDir disables loading rooms from cfg.RoomsDir.
	SkipRoomsDir bool
}

// AgentRoom is the high-level façade aggregating rooms, models and transport.
type AgentRoom struct {
	cfg      config.Config
	logger   logging.Logger
	model    model.Model
	prom     *prometheus.Registry
	metrics  *metrics.Collector
	registry *room.Registry
	handler  *server.Handler
}

// New creates an AgentRoom from cfg. Rooms found in cfg.RoomsDir are
// registered; files that fail to load are logged and skipped.
func New(cfg *config.Config, optFns ...func(o *Options)) (*AgentRoom, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		level, _ := logging.ParseLevel(cfg.LogLevel)
		logger = logging.NewSlogLogger(level, cfg.LogFormat, false).WithComponent("agentroom")
	}

	m := opts.Model
	if m == nil {
		var err error
		if m, err = NewModel(cfg); err != nil {
			return nil, err
		}
	}

	prom := opts.Registry
	if prom == nil {
		prom = prometheus.NewRegistry()
		prom.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	collector := metrics.NewCollector(metrics.DefaultNamespace, prom)

	registry := room.NewRegistry(m, func(o *room.RegistryOptions) {
		o.MaxIterations = cfg.MaxIterations
		o.Logger = logger
		o.Metrics = collector
	})

	a := &AgentRoom{
		cfg:      *cfg,
		logger:   logger,
		model:    m,
		prom:     prom,
		metrics:  collector,
		registry: registry,
		handler: server.NewHandler(registry, func(o *server.Options) {
			o.MaxConcurrentRuns = cfg.MaxConcurrentRuns
			o.Logger = logger
			o.Metrics = collector
		}),
	}

	if !opts.SkipRoomsDir {
		if err := a.LoadRooms(cfg.RoomsDir); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// NewModel builds the completion model selected by cfg.Provider.
func NewModel(cfg *config.Config) (model.Model, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case config.ProviderOllama:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = "llama3.2"
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.BaseURL = DefaultOllamaBaseURL
			if cfg.BaseURL != "" {
				o.BaseURL = cfg.BaseURL
			}
			o.APIKey = "ollama"
			if cfg.APIKey != "" {
				o.APIKey = cfg.APIKey
			}
			o.Provider = config.ProviderOllama
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case config.ProviderMock:
		return model.NewMockModel("mock", config.ProviderMock), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// LoadRooms registers every room file of dir. It fails only when no room
// could be registered.
func (a *AgentRoom) LoadRooms(dir string) error {
	files, err := config.LoadRoomDir(dir)
	if err != nil {
		a.logger.Warn("agentroom.rooms.load", "dir", dir, "error", err.Error())
	}

	for _, rf := range files {
		if err := a.registry.Add(rf.Definition(a.model)); err != nil {
			a.logger.Warn("agentroom.rooms.skip", "file", rf.Path, "error", err.Error())
			continue
		}
	}

	if a.registry.Len() == 0 {
		return fmt.Errorf("no rooms loaded from %s: %w", dir, core.ErrInvalidState)
	}

	return nil
}

// AddRoom registers a room definition.
func (a *AgentRoom) AddRoom(def room.Definition) error { return a.registry.Add(def) }

// Registry returns the room registry.
func (a *AgentRoom) Registry() *room.Registry { return a.registry }

// Model returns the default completion model.
func (a *AgentRoom) Model() model.Model { return a.model }

// Handler returns the HTTP handler serving /ws, /healthz and /metrics.
func (a *AgentRoom) Handler() http.Handler { return server.NewMux(a.handler, a.prom) }

// ListenAndServe serves on cfg.Addr until ctx is done.
func (a *AgentRoom) ListenAndServe(ctx context.Context) error {
	srv := server.New(a.cfg.Addr, a.Handler(), func(o *server.ServerOptions) {
		o.ShutdownTimeout = a.cfg.ShutdownTimeout
		o.Logger = a.logger
	})

	return srv.ListenAndServe(ctx)
}

// Invoke starts a turn loop in a fresh session and returns its channels.
func (a *AgentRoom) Invoke(
	ctx context.Context,
	roomName string,
	text string,
) (string, <-chan *core.Envelope, <-chan error, error) {
	r := runner.New(a.registry.NewSession(), func(o *runner.Options) {
		o.Logger = a.logger
	})

	run, envCh, errCh, err := r.Run(ctx, roomName, text)
	if err != nil {
		return "", nil, nil, err
	}

	return run.ID, envCh, errCh, nil
}

// InvokeSync is a synchronous helper that drains the async channels and
// returns every envelope of the turn loop.
func (a *AgentRoom) InvokeSync(ctx context.Context, roomName, text string) ([]*core.Envelope, error) {
	_, envCh, errCh, err := a.Invoke(ctx, roomName, text)
	if err != nil {
		return nil, err
	}

	var envs []*core.Envelope

	for {
		select {
		case <-ctx.Done():
			return envs, ctx.Err()
		case env, ok := <-envCh:
			if !ok {
				return envs, <-errCh
			}

			envs = append(envs, env)
		}
	}
}
