package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *Config) *Server {
	t.Helper()
	cfg.applyDefaults()
	srv, err := New(cfg, testLogger(), quartz.NewMock(t))
	require.NoError(t, err)
	return srv
}

// receive pulls the next queued outbound message off a connection that
// has no websocket behind it.
func receive(t *testing.T, conn *Connection) *Message {
	t.Helper()
	select {
	case msg := <-conn.send:
		return msg
	default:
		t.Fatal("no message queued")
		return nil
	}
}

func TestServerHealth(t *testing.T) {
	srv := newTestServer(t, DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	_, err := New(cfg, testLogger(), quartz.NewMock(t))
	assert.Error(t, err)
}

func TestNewBuildsTablesFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tables = append(cfg.Tables, TableSettings{Name: "turbo", SmallBlind: 5, BigBlind: 10})
	cfg.Bots = []BotSettings{{Name: "station", Strategy: StrategyCall, Tables: []string{"turbo"}, BuyIn: 500}}
	srv := newTestServer(t, cfg)

	require.Len(t, srv.tables, 2)
	require.Contains(t, srv.tablesByName, "main")
	require.Contains(t, srv.tablesByName, "turbo")

	turbo := srv.tablesByName["turbo"]
	assert.Equal(t, 1, turbo.seatedCount())
	assert.Equal(t, 10, turbo.gameConfig().BigBlind)
	assert.Equal(t, 0, srv.tablesByName["main"].seatedCount())
}

func TestAuthAssignsPlayer(t *testing.T) {
	srv := newTestServer(t, DefaultConfig())
	conn := newConnection(nil, srv, testLogger())

	srv.handleAuth(conn, AuthData{PlayerName: "alice"})

	msg := receive(t, conn)
	require.Equal(t, MessageTypeAuthResponse, msg.Type)
	var resp AuthResponseData
	require.NoError(t, json.Unmarshal(msg.Data, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "alice", resp.PlayerID)
	assert.Equal(t, "alice", conn.PlayerID())
}

func TestAuthRejectsDuplicateName(t *testing.T) {
	srv := newTestServer(t, DefaultConfig())
	first := newConnection(nil, srv, testLogger())
	srv.handleAuth(first, AuthData{PlayerName: "alice"})
	receive(t, first)

	second := newConnection(nil, srv, testLogger())
	srv.handleAuth(second, AuthData{PlayerName: "alice"})

	msg := receive(t, second)
	var resp AuthResponseData
	require.NoError(t, json.Unmarshal(msg.Data, &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	assert.Empty(t, second.PlayerID())
}

func TestAuthRequiresName(t *testing.T) {
	srv := newTestServer(t, DefaultConfig())
	conn := newConnection(nil, srv, testLogger())

	srv.handleAuth(conn, AuthData{})

	msg := receive(t, conn)
	var resp AuthResponseData
	require.NoError(t, json.Unmarshal(msg.Data, &resp))
	assert.False(t, resp.Success)
}

func TestUnauthenticatedMessagesRejected(t *testing.T) {
	srv := newTestServer(t, DefaultConfig())
	conn := newConnection(nil, srv, testLogger())

	srv.handleMessage(conn, &Message{Type: MessageTypeListTables})

	msg := receive(t, conn)
	require.Equal(t, MessageTypeError, msg.Type)
	var payload ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "unauthenticated", payload.Code)
}

func TestListTables(t *testing.T) {
	srv := newTestServer(t, DefaultConfig())
	conn := newConnection(nil, srv, testLogger())
	srv.handleAuth(conn, AuthData{PlayerName: "alice"})
	receive(t, conn)

	srv.handleListTables(conn)

	msg := receive(t, conn)
	require.Equal(t, MessageTypeTableList, msg.Type)
	var payload TableListData
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	require.Len(t, payload.Tables, 1)
	info := payload.Tables[0]
	assert.Equal(t, "main", info.Name)
	assert.Equal(t, 6, info.MaxPlayers)
	assert.Equal(t, 2, info.BigBlind)
	assert.Equal(t, 0, info.Seated)
	assert.NotEmpty(t, info.TableID)
}

func TestJoinUnknownTable(t *testing.T) {
	srv := newTestServer(t, DefaultConfig())
	conn := newConnection(nil, srv, testLogger())
	srv.handleAuth(conn, AuthData{PlayerName: "alice"})
	receive(t, conn)

	srv.handleJoinTable(conn, JoinTableData{TableID: "tbl_missing", BuyIn: 200})

	msg := receive(t, conn)
	require.Equal(t, MessageTypeError, msg.Type)
	var payload ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "unknown_table", payload.Code)
}

func TestActionRejectsUnknownVerb(t *testing.T) {
	srv := newTestServer(t, DefaultConfig())
	conn := newConnection(nil, srv, testLogger())
	srv.handleAuth(conn, AuthData{PlayerName: "alice"})
	receive(t, conn)

	var tableID string
	for id := range srv.tables {
		tableID = id
	}
	srv.handleAction(conn, ActionData{TableID: tableID, Action: "shove"})

	msg := receive(t, conn)
	require.Equal(t, MessageTypeError, msg.Type)
	var payload ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "invalid_action", payload.Code)
}

func TestDropConnectionFreesPlayerName(t *testing.T) {
	srv := newTestServer(t, DefaultConfig())
	conn := newConnection(nil, srv, testLogger())
	srv.mu.Lock()
	srv.connections[conn] = true
	srv.mu.Unlock()
	srv.handleAuth(conn, AuthData{PlayerName: "alice"})
	receive(t, conn)

	srv.dropConnection(conn)

	fresh := newConnection(nil, srv, testLogger())
	srv.handleAuth(fresh, AuthData{PlayerName: "alice"})
	msg := receive(t, fresh)
	var resp AuthResponseData
	require.NoError(t, json.Unmarshal(msg.Data, &resp))
	assert.True(t, resp.Success)
}
