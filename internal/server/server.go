package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/tablerock/holdem/internal/game"
	"github.com/tablerock/holdem/internal/gameid"
)

// Server accepts WebSocket clients and routes their messages to the
// per-table loops. It owns connection lifecycle; each tableRunner owns
// its game state.
type Server struct {
	cfg      *Config
	upgrader websocket.Upgrader
	logger   *log.Logger
	clock    quartz.Clock

	unregister chan *Connection

	mu           sync.RWMutex
	connections  map[*Connection]bool
	players      map[string]*Connection // authenticated name -> connection
	tables       map[string]*tableRunner
	tablesByName map[string]*tableRunner
}

// New builds a server and its tables from configuration.
func New(cfg *Config, logger *log.Logger, clock quartz.Clock) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:       logger.WithPrefix("server"),
		clock:        clock,
		unregister:   make(chan *Connection, 16),
		connections:  make(map[*Connection]bool),
		players:      make(map[string]*Connection),
		tables:       make(map[string]*tableRunner),
		tablesByName: make(map[string]*tableRunner),
	}

	for _, settings := range cfg.Tables {
		advisor := newBotAdvisor()
		id := gameid.NewTableID()
		runner, err := newTableRunner(id, settings.Name, settings.GameConfig(), logger, clock, advisor)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", settings.Name, err)
		}
		for _, bot := range cfg.BotsForTable(settings.Name) {
			if err := advisor.addBot(bot.Name, bot.Strategy); err != nil {
				return nil, fmt.Errorf("table %s: %w", settings.Name, err)
			}
			if err := runner.seatBot(bot.Name, bot.BuyIn); err != nil {
				return nil, fmt.Errorf("table %s: seating bot %s: %w", settings.Name, bot.Name, err)
			}
		}
		s.tables[id] = runner
		s.tablesByName[settings.Name] = runner
		s.logger.Info("table created", "table", settings.Name, "table_id", id)
	}
	return s, nil
}

// Run serves until the context is cancelled. The HTTP listener and
// every table loop run under one errgroup.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, runner := range s.tables {
		runner := runner
		g.Go(func() error { return runner.run(ctx) })
	}
	g.Go(func() error { return s.reapConnections(ctx) })

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	httpServer := &http.Server{Addr: s.cfg.ListenAddress(), Handler: mux}
	g.Go(func() error {
		<-ctx.Done()
		return httpServer.Shutdown(context.Background())
	})
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.cfg.ListenAddress())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	conn := newConnection(ws, s, s.logger)
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("client connected", "total", total)
	conn.start()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// reapConnections finalizes dropped clients: the seat survives as
// disconnected and the engine starts the reconnection grace timer.
func (s *Server) reapConnections(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case conn := <-s.unregister:
			s.dropConnection(conn)
		}
	}
}

func (s *Server) dropConnection(conn *Connection) {
	s.mu.Lock()
	delete(s.connections, conn)
	playerID := conn.PlayerID()
	if playerID != "" && s.players[playerID] == conn {
		delete(s.players, playerID)
	}
	s.mu.Unlock()

	tableID := conn.TableID()
	if playerID == "" || tableID == "" {
		return
	}
	if runner := s.table(tableID); runner != nil {
		runner.unsubscribe(playerID)
		runner.post(request{ev: game.DisconnectEvent{PlayerID: playerID}, playerID: playerID})
		s.logger.Info("player connection dropped", "player", playerID, "table_id", tableID)
	}
}

func (s *Server) table(tableID string) *tableRunner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[tableID]
}

// handleMessage routes one client message. Runs on the connection's
// read goroutine; everything engine-related is posted to a table loop.
func (s *Server) handleMessage(conn *Connection, msg *Message) {
	if msg.Type != MessageTypeAuth && conn.PlayerID() == "" {
		conn.sendError("unauthenticated", "authenticate first")
		return
	}

	switch msg.Type {
	case MessageTypeAuth:
		if data, ok := decodePayload[AuthData](conn, msg.Data); ok {
			s.handleAuth(conn, data)
		}
	case MessageTypeListTables:
		s.handleListTables(conn)
	case MessageTypeJoinTable:
		if data, ok := decodePayload[JoinTableData](conn, msg.Data); ok {
			s.handleJoinTable(conn, data)
		}
	case MessageTypeLeaveTable:
		if data, ok := decodePayload[LeaveTableData](conn, msg.Data); ok {
			s.handleLeaveTable(conn, data)
		}
	case MessageTypeSitOut:
		if data, ok := decodePayload[SitOutData](conn, msg.Data); ok {
			s.postEvent(conn, data.TableID, game.SitOutEvent{PlayerID: conn.PlayerID()})
		}
	case MessageTypeSitIn:
		if data, ok := decodePayload[SitInData](conn, msg.Data); ok {
			s.postEvent(conn, data.TableID, game.SitInEvent{PlayerID: conn.PlayerID()})
		}
	case MessageTypeAction:
		if data, ok := decodePayload[ActionData](conn, msg.Data); ok {
			s.handleAction(conn, data)
		}
	case MessageTypeGetState:
		if data, ok := decodePayload[GetStateData](conn, msg.Data); ok {
			if runner := s.table(data.TableID); runner != nil {
				runner.post(request{conn: conn, playerID: conn.PlayerID(), stateOnly: true})
			} else {
				conn.sendError("unknown_table", "no such table")
			}
		}
	default:
		conn.sendError("unknown_message", fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (s *Server) handleAuth(conn *Connection, data AuthData) {
	if data.PlayerName == "" {
		conn.sendPayload(MessageTypeAuthResponse, AuthResponseData{Error: "player name required"})
		return
	}

	s.mu.Lock()
	if _, taken := s.players[data.PlayerName]; taken {
		s.mu.Unlock()
		conn.sendPayload(MessageTypeAuthResponse, AuthResponseData{Error: "name already connected"})
		return
	}
	s.players[data.PlayerName] = conn
	s.mu.Unlock()

	conn.setPlayer(data.PlayerName)
	s.logger.Info("player authenticated", "player", data.PlayerName)
	conn.sendPayload(MessageTypeAuthResponse, AuthResponseData{Success: true, PlayerID: data.PlayerName})
}

func (s *Server) handleListTables(conn *Connection) {
	s.mu.RLock()
	infos := make([]TableInfo, 0, len(s.tables))
	for id, runner := range s.tables {
		cfg := runner.gameConfig()
		infos = append(infos, TableInfo{
			TableID:    id,
			Name:       runner.name,
			MaxPlayers: cfg.MaxPlayers,
			Seated:     runner.seatedCount(),
			SmallBlind: cfg.SmallBlind,
			BigBlind:   cfg.BigBlind,
			MinBuyIn:   cfg.MinBuyIn,
			MaxBuyIn:   cfg.MaxBuyIn,
		})
	}
	s.mu.RUnlock()
	conn.sendPayload(MessageTypeTableList, TableListData{Tables: infos})
}

func (s *Server) handleJoinTable(conn *Connection, data JoinTableData) {
	runner := s.table(data.TableID)
	if runner == nil {
		conn.sendError("unknown_table", "no such table")
		return
	}
	seat := -1
	if data.Seat != nil {
		seat = *data.Seat
	}
	playerID := conn.PlayerID()
	conn.setTable(data.TableID)
	runner.subscribe(playerID, conn)
	runner.post(request{
		ev:       game.JoinEvent{PlayerID: playerID, BuyIn: data.BuyIn, Seat: seat},
		conn:     conn,
		playerID: playerID,
	})
}

func (s *Server) handleLeaveTable(conn *Connection, data LeaveTableData) {
	runner := s.table(data.TableID)
	if runner == nil {
		conn.sendError("unknown_table", "no such table")
		return
	}
	playerID := conn.PlayerID()
	runner.post(request{
		ev:       game.LeaveEvent{PlayerID: playerID},
		conn:     conn,
		playerID: playerID,
	})
	runner.unsubscribe(playerID)
	conn.setTable("")
}

func (s *Server) handleAction(conn *Connection, data ActionData) {
	runner := s.table(data.TableID)
	if runner == nil {
		conn.sendError("unknown_table", "no such table")
		return
	}
	actionType, err := game.ParseActionType(data.Action)
	if err != nil {
		conn.sendError("invalid_action", err.Error())
		return
	}
	runner.post(request{
		ev: game.PlayerActionEvent{
			PlayerID: conn.PlayerID(),
			Type:     actionType,
			Amount:   data.Amount,
			Seq:      data.Seq,
		},
		conn:     conn,
		playerID: conn.PlayerID(),
	})
}

func (s *Server) postEvent(conn *Connection, tableID string, ev game.TableEvent) {
	runner := s.table(tableID)
	if runner == nil {
		conn.sendError("unknown_table", "no such table")
		return
	}
	runner.post(request{ev: ev, conn: conn, playerID: conn.PlayerID()})
}
