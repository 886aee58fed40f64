package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/tablerock/holdem/internal/game"
)

// request is one unit of work for a table loop: an engine event and,
// for client submissions, the connection to answer.
type request struct {
	ev        game.TableEvent
	conn      *Connection
	playerID  string
	stateOnly bool // refresh the requester's view without an event
}

// tableRunner serializes all access to one engine. Client messages,
// timer firings and bot decisions all flow through the requests
// channel and are handled by a single goroutine, so tables are
// concurrent with each other but internally single-threaded.
type tableRunner struct {
	id     string
	name   string
	cfg    game.TableConfig
	engine *game.Engine
	logger *log.Logger

	requests chan request
	pending  []game.GameEvent
	seated   atomic.Int32

	mu          sync.RWMutex
	subscribers map[string]*Connection
}

func newTableRunner(id, name string, cfg game.TableConfig, logger *log.Logger, clock quartz.Clock, advisor game.Advisor) (*tableRunner, error) {
	r := &tableRunner{
		id:          id,
		name:        name,
		cfg:         cfg,
		logger:      logger.WithPrefix("table").With("table_id", id, "table", name),
		requests:    make(chan request, 64),
		subscribers: make(map[string]*Connection),
	}

	engine, err := game.NewEngine(id, cfg,
		game.WithClock(clock),
		game.WithLogger(logger),
		game.WithAdvisor(advisor),
		game.WithPublisher(func(ev game.GameEvent) {
			r.pending = append(r.pending, ev)
		}),
		game.WithScheduler(func(ev game.TableEvent) {
			// Runs on a timer goroutine; the loop picks it up like any
			// client event.
			r.requests <- request{ev: ev}
		}),
	)
	if err != nil {
		return nil, err
	}
	r.engine = engine
	return r, nil
}

// run drains the request channel until the context ends.
func (r *tableRunner) run(ctx context.Context) error {
	r.logger.Info("table loop started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("table loop stopped")
			return ctx.Err()
		case req := <-r.requests:
			r.handle(req)
		}
	}
}

func (r *tableRunner) handle(req request) {
	if req.stateOnly {
		r.sendState(req.playerID, req.conn)
		return
	}

	err := r.engine.HandleEvent(req.ev)
	if join, isJoin := req.ev.(game.JoinEvent); isJoin && errors.Is(err, game.ErrAlreadySeated) {
		// A returning player rejoins the table they never left; treat
		// it as a reconnection if the seat is waiting for one.
		err = r.engine.HandleEvent(game.ReconnectEvent{PlayerID: join.PlayerID})
	}
	if err != nil {
		code := "rejected"
		if errors.Is(err, game.ErrOutOfSequence) {
			// Duplicate or stale submission; nothing changed, tell the
			// client so it can resync.
			code = "out_of_sequence"
		}
		r.logger.Debug("rejected event", "player", req.playerID, "error", err)
		if req.conn != nil {
			req.conn.sendError(code, err.Error())
		}
		return
	}
	r.flush()
}

// post submits a request; it blocks only if the table loop is saturated.
func (r *tableRunner) post(req request) {
	r.requests <- req
}

// flush broadcasts the events the engine emitted for the last request,
// then a fresh per-viewer table state.
func (r *tableRunner) flush() {
	events := r.pending
	r.pending = nil
	if len(events) == 0 {
		return
	}

	r.mu.RLock()
	subscribers := make(map[string]*Connection, len(r.subscribers))
	for id, conn := range r.subscribers {
		subscribers[id] = conn
	}
	r.mu.RUnlock()

	for _, ev := range events {
		switch ev.(type) {
		case game.PlayerJoined:
			r.seated.Add(1)
		case game.PlayerLeft:
			r.seated.Add(-1)
		}
		msg, err := translateEvent(r.id, ev)
		if err != nil {
			r.logger.Error("translating event", "error", err)
			continue
		}
		for _, conn := range subscribers {
			_ = conn.Send(msg)
		}
	}

	for playerID, conn := range subscribers {
		conn.sendPayload(MessageTypeTableState, TableStateData{
			TableID: r.id,
			State:   r.engine.ViewFor(playerID),
		})
	}
}

// sendState answers a getState request from inside the loop, where the
// engine is safe to read.
func (r *tableRunner) sendState(playerID string, conn *Connection) {
	if conn == nil {
		return
	}
	conn.sendPayload(MessageTypeTableState, TableStateData{
		TableID: r.id,
		State:   r.engine.ViewFor(playerID),
	})
}

func (r *tableRunner) subscribe(playerID string, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[playerID] = conn
}

func (r *tableRunner) unsubscribe(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscribers, playerID)
}

// seatBot seats a configured bot player and flags it for advisor
// control. Called before the loop starts accepting client traffic.
func (r *tableRunner) seatBot(name string, buyIn int) error {
	if err := r.engine.HandleEvent(game.JoinEvent{PlayerID: name, BuyIn: buyIn, Seat: -1}); err != nil {
		return err
	}
	r.engine.SetBotSeat(name, true)
	r.seated.Add(1)
	r.pending = nil
	return nil
}

func (r *tableRunner) gameConfig() game.TableConfig { return r.cfg }

func (r *tableRunner) seatedCount() int { return int(r.seated.Load()) }
