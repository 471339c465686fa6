package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/internal/util"
	"github.com/hupe1980/agentroom/logging"
	"github.com/hupe1980/agentroom/metrics"
	"github.com/hupe1980/agentroom/room"
	"github.com/hupe1980/agentroom/runner"
)

// Options configure a Handler.
type Options struct {
	// MaxConcurrentRuns limits running loops per connection.
	MaxConcurrentRuns int
	// WriteTimeout bounds a single reply write.
	WriteTimeout time.Duration
	// ReadLimit is the maximum inbound message size in bytes.
	ReadLimit int64
	// AcceptOptions are passed to websocket.Accept.
	AcceptOptions *websocket.AcceptOptions

	Logger  logging.Logger
	Metrics *metrics.Collector
}

// Handler upgrades requests to WebSocket connections and serves the room
// protocol on them. Each connection gets its own room.Session.
type Handler struct {
	registry *room.Registry
	opts     Options
}

// NewHandler creates a Handler for the rooms in registry.
func NewHandler(registry *room.Registry, optFns ...func(o *Options)) *Handler {
	opts := Options{
		MaxConcurrentRuns: 4,
		WriteTimeout:      10 * time.Second,
		ReadLimit:         1 << 20,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Handler{registry: registry, opts: opts}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, h.opts.AcceptOptions)
	if err != nil {
		h.opts.Logger.Warn("server.accept.failed", "remote", r.RemoteAddr, "error", err.Error())
		return
	}

	ws.SetReadLimit(h.opts.ReadLimit)

	session := h.registry.NewSession(func(o *room.SessionOptions) {
		o.Logger = h.opts.Logger
	})

	rn := runner.New(session, func(o *runner.Options) {
		o.MaxConcurrentRuns = h.opts.MaxConcurrentRuns
		o.Logger = h.opts.Logger
	})

	c := &conn{
		h:      h,
		ws:     ws,
		log:    logging.Scoped(h.opts.Logger, "", session.ID()),
		runner: rn,
	}

	c.serve(r.Context())
}

// conn is one client connection.
type conn struct {
	h      *Handler
	ws     *websocket.Conn
	log    logging.Logger
	runner *runner.Runner

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func (c *conn) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	c.h.opts.Metrics.ConnectionOpened()
	c.log.Info("server.connection.open")

	defer func() {
		cancel()
		c.runner.Close()
		c.wg.Wait()
		_ = c.ws.Close(websocket.StatusNormalClosure, "")

		c.h.opts.Metrics.ConnectionClosed()
		c.log.Info("server.connection.closed")
	}()

	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if ctx.Err() == nil {
					c.log.Warn("server.read.failed", "error", err.Error())
				}
			}

			return
		}

		c.dispatch(ctx, data)
	}
}

func (c *conn) dispatch(ctx context.Context, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.write(ctx, Message{Action: ActionError, Content: "Invalid JSON format."})
		return
	}

	if strings.TrimSpace(msg.Action) == "" {
		c.write(ctx, Message{Action: ActionError, Content: "Invalid message format: 'action' is required."})
		return
	}

	if msg.Action == ActionRooms {
		c.handleRooms(ctx, msg)
		return
	}

	def, ok := c.h.registry.Get(msg.Action)
	if !ok {
		c.write(ctx, Reply{Message: Message{
			UserID:        msg.UserID,
			TransactionID: msg.TransactionID,
			Action:        ActionUnknown,
			Content:       fmt.Sprintf("Unknown action: %s", msg.Action),
		}})

		return
	}

	switch strings.ToLower(msg.SubAction) {
	case "", SubActionChat:
		c.handleChat(ctx, def, msg)
	case SubActionReset:
		c.handleReset(ctx, def, msg)
	case SubActionCancel:
		c.handleCancel(ctx, def, msg)
	default:
		c.writeError(ctx, msg.UserID, def.Name, fmt.Errorf("unknown subAction %q", msg.SubAction))
	}
}

func (c *conn) handleRooms(ctx context.Context, msg Message) {
	if msg.SubAction != SubActionGet {
		c.writeError(ctx, msg.UserID, ActionRooms, fmt.Errorf("unknown subAction %q", msg.SubAction))
		return
	}

	c.write(ctx, RoomsReply{
		Message: Message{
			UserID:        SystemUserID,
			TransactionID: msg.TransactionID,
			Action:        ActionRooms,
			SubAction:     SubActionRoomList,
			Content:       "List of available rooms",
		},
		Rooms: c.h.registry.List(),
	})
}

func (c *conn) handleChat(ctx context.Context, def room.Definition, msg Message) {
	run, envCh, errCh, err := c.runner.Run(ctx, def.Name, msg.Content)
	if err != nil {
		c.writeError(ctx, msg.UserID, def.Name, err)
		return
	}

	c.log.Debug("server.chat.start", "room", def.Name, "run_id", run.ID)

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		c.stream(ctx, def, msg, run, envCh, errCh)
	}()
}

// stream forwards envelopes as chunk replies. Every new agent iteration
// starts a new transaction.
func (c *conn) stream(
	ctx context.Context,
	def room.Definition,
	msg Message,
	run runner.Run,
	envCh <-chan *core.Envelope,
	errCh <-chan error,
) {
	reply := newChunk(msg.UserID, msg.TransactionID, def.Name)

	for env := range envCh {
		if env.IsNewAgent {
			reply = newChunk(msg.UserID, util.NewID(), def.Name)
		}

		reply.update(def, env)

		if err := c.write(ctx, reply); err != nil {
			_ = c.runner.Cancel(run.ID)
			for range envCh {
			}

			return
		}
	}

	if err := <-errCh; err != nil {
		c.writeError(ctx, msg.UserID, def.Name, err)
	}
}

func (c *conn) handleReset(ctx context.Context, def room.Definition, msg Message) {
	if err := c.runner.Session().Reset(ctx, def.Name); err != nil {
		c.writeError(ctx, msg.UserID, def.Name, err)
		return
	}

	c.write(ctx, Reply{Message: Message{
		UserID:        msg.UserID,
		TransactionID: msg.TransactionID,
		Action:        def.Name,
		SubAction:     SubActionReset,
		Content:       "Chat history cleared",
	}})
}

func (c *conn) handleCancel(ctx context.Context, def room.Definition, msg Message) {
	content := "Nothing to cancel"
	if c.runner.CancelRoom(def.Name) {
		content = "Cancelled"
	}

	c.write(ctx, Reply{Message: Message{
		UserID:        msg.UserID,
		TransactionID: msg.TransactionID,
		Action:        def.Name,
		SubAction:     SubActionCancel,
		Content:       content,
	}})
}

func (c *conn) writeError(ctx context.Context, userID, action string, err error) {
	c.log.Error("server.request.failed",
		"action", action,
		"kind", core.ErrorKind(err),
		"error", err.Error(),
	)

	c.write(ctx, Reply{Message: Message{
		UserID:        userID,
		TransactionID: util.NewID(),
		Action:        action,
		SubAction:     SubActionError,
		Content:       fmt.Sprintf("Error: %s", err.Error()),
	}})
}

// write sends v as JSON. WebSocket connections allow one writer at a time.
func (c *conn) write(ctx context.Context, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.h.opts.WriteTimeout)
	defer cancel()

	if err := wsjson.Write(ctx, c.ws, v); err != nil {
		if !errors.Is(err, context.Canceled) {
			c.log.Warn("server.write.failed", "error", err.Error())
		}

		return err
	}

	return nil
}
