package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tablerock/holdem/internal/deck"
	"github.com/tablerock/holdem/internal/game"
)

// MessageType tags the envelope payload.
type MessageType string

// Client to server.
const (
	MessageTypeAuth       MessageType = "auth"
	MessageTypeListTables MessageType = "listTables"
	MessageTypeJoinTable  MessageType = "joinTable"
	MessageTypeLeaveTable MessageType = "leaveTable"
	MessageTypeSitOut     MessageType = "sitOut"
	MessageTypeSitIn      MessageType = "sitIn"
	MessageTypeAction     MessageType = "action"
	MessageTypeGetState   MessageType = "getState"
)

// Server to client.
const (
	MessageTypeAuthResponse MessageType = "authResponse"
	MessageTypeError        MessageType = "error"
	MessageTypeTableList    MessageType = "tableList"
	MessageTypeTableState   MessageType = "tableState"
	MessageTypeHandStarted  MessageType = "handStarted"
	MessageTypeBlindPosted  MessageType = "blindPosted"
	MessageTypeActionDone   MessageType = "actionApplied"
	MessageTypePhaseChanged MessageType = "phaseChanged"
	MessageTypeShowdown     MessageType = "showdown"
	MessageTypeHandFinished MessageType = "handFinished"
	MessageTypePlayerJoined MessageType = "playerJoined"
	MessageTypePlayerLeft   MessageType = "playerLeft"
	MessageTypeSeatStatus   MessageType = "seatStatus"
)

// Message is the WebSocket envelope shared by both directions.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage wraps a payload in an envelope stamped with the current
// time.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      raw,
		Timestamp: time.Now(),
	}, nil
}

// Client to server payloads.

type AuthData struct {
	PlayerName string `json:"playerName"`
	Token      string `json:"token,omitempty"`
}

type JoinTableData struct {
	TableID string `json:"tableId"`
	Seat    *int   `json:"seat,omitempty"` // nil takes the first free seat
	BuyIn   int    `json:"buyIn"`
}

type LeaveTableData struct {
	TableID string `json:"tableId"`
}

type SitOutData struct {
	TableID string `json:"tableId"`
}

type SitInData struct {
	TableID string `json:"tableId"`
}

// ActionData is a betting decision. Seq must be exactly one past the
// last accepted action on the table; anything else is rejected as a
// duplicate or stale submission.
type ActionData struct {
	TableID string `json:"tableId"`
	Action  string `json:"action"`
	Amount  int    `json:"amount,omitempty"`
	Seq     uint64 `json:"seq"`
}

type GetStateData struct {
	TableID string `json:"tableId"`
}

// Server to client payloads.

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TableInfo struct {
	TableID    string `json:"tableId"`
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
	Seated     int    `json:"seated"`
	SmallBlind int    `json:"smallBlind"`
	BigBlind   int    `json:"bigBlind"`
	MinBuyIn   int    `json:"minBuyIn"`
	MaxBuyIn   int    `json:"maxBuyIn"`
}

type TableListData struct {
	Tables []TableInfo `json:"tables"`
}

// TableStateData carries a per-viewer rendering of a table; hole cards
// and legal actions appear only in the copy sent to their owner.
type TableStateData struct {
	TableID string    `json:"tableId"`
	State   game.View `json:"state"`
}

type HandStartedData struct {
	TableID    string   `json:"tableId"`
	HandNumber uint64   `json:"handNumber"`
	HandID     string   `json:"handId"`
	ButtonSeat int      `json:"buttonSeat"`
	PlayerIDs  []string `json:"playerIds"`
}

type BlindPostedData struct {
	TableID  string `json:"tableId"`
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount"`
	Big      bool   `json:"big"`
	AllIn    bool   `json:"allIn,omitempty"`
}

type ActionAppliedData struct {
	TableID  string `json:"tableId"`
	PlayerID string `json:"playerId"`
	Action   string `json:"action"`
	Amount   int    `json:"amount,omitempty"`
	Forced   bool   `json:"forced,omitempty"`
	Phase    string `json:"phase"`
	Pot      int    `json:"pot"`
}

type PhaseChangedData struct {
	TableID string   `json:"tableId"`
	Phase   string   `json:"phase"`
	Board   []string `json:"board"`
}

type RevealData struct {
	PlayerID    string   `json:"playerId"`
	HoleCards   []string `json:"holeCards"`
	Description string   `json:"description"`
}

type ShowdownData struct {
	TableID string         `json:"tableId"`
	Board   []string       `json:"board"`
	Reveals []RevealData   `json:"reveals"`
	Pots    []game.SidePot `json:"pots"`
}

type HandFinishedData struct {
	TableID    string         `json:"tableId"`
	HandNumber uint64         `json:"handNumber"`
	Pots       []game.SidePot `json:"pots"`
	Winners    []string       `json:"winners"`
	Payouts    map[string]int `json:"payouts"`
}

type PlayerJoinedData struct {
	TableID  string `json:"tableId"`
	PlayerID string `json:"playerId"`
	Seat     int    `json:"seat"`
	Chips    int    `json:"chips"`
}

type PlayerLeftData struct {
	TableID  string `json:"tableId"`
	PlayerID string `json:"playerId"`
	Seat     int    `json:"seat"`
	Chips    int    `json:"chips"`
}

type SeatStatusData struct {
	TableID  string `json:"tableId"`
	PlayerID string `json:"playerId"`
	Status   string `json:"status"`
}

func cardStrings(cards []deck.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// translateEvent maps an engine event to its broadcast message.
func translateEvent(tableID string, ev game.GameEvent) (*Message, error) {
	switch ev := ev.(type) {
	case game.HandStarted:
		return NewMessage(MessageTypeHandStarted, HandStartedData{
			TableID:    tableID,
			HandNumber: ev.HandNumber,
			HandID:     ev.HandID,
			ButtonSeat: ev.ButtonSeat,
			PlayerIDs:  ev.PlayerIDs,
		})
	case game.BlindPosted:
		return NewMessage(MessageTypeBlindPosted, BlindPostedData{
			TableID:  tableID,
			PlayerID: ev.PlayerID,
			Amount:   ev.Amount,
			Big:      ev.Big,
			AllIn:    ev.AllIn,
		})
	case game.ActionApplied:
		return NewMessage(MessageTypeActionDone, ActionAppliedData{
			TableID:  tableID,
			PlayerID: ev.PlayerID,
			Action:   ev.Type.String(),
			Amount:   ev.Amount,
			Forced:   ev.Forced,
			Phase:    ev.Phase.String(),
			Pot:      ev.Pot,
		})
	case game.PhaseChanged:
		return NewMessage(MessageTypePhaseChanged, PhaseChangedData{
			TableID: tableID,
			Phase:   ev.Phase.String(),
			Board:   cardStrings(ev.Board),
		})
	case game.ShowdownHeld:
		reveals := make([]RevealData, len(ev.Reveals))
		for i, r := range ev.Reveals {
			reveals[i] = RevealData{
				PlayerID:    r.PlayerID,
				HoleCards:   cardStrings(r.HoleCards),
				Description: r.Description,
			}
		}
		return NewMessage(MessageTypeShowdown, ShowdownData{
			TableID: tableID,
			Board:   cardStrings(ev.Board),
			Reveals: reveals,
			Pots:    ev.Pots,
		})
	case game.HandFinished:
		return NewMessage(MessageTypeHandFinished, HandFinishedData{
			TableID:    tableID,
			HandNumber: ev.HandNumber,
			Pots:       ev.Pots,
			Winners:    ev.Winners,
			Payouts:    ev.Payouts,
		})
	case game.PlayerJoined:
		return NewMessage(MessageTypePlayerJoined, PlayerJoinedData{
			TableID:  tableID,
			PlayerID: ev.PlayerID,
			Seat:     ev.Seat,
			Chips:    ev.Chips,
		})
	case game.PlayerLeft:
		return NewMessage(MessageTypePlayerLeft, PlayerLeftData{
			TableID:  tableID,
			PlayerID: ev.PlayerID,
			Seat:     ev.Seat,
			Chips:    ev.Chips,
		})
	case game.PlayerStatusChanged:
		return NewMessage(MessageTypeSeatStatus, SeatStatusData{
			TableID:  tableID,
			PlayerID: ev.PlayerID,
			Status:   ev.Status,
		})
	default:
		return nil, fmt.Errorf("unhandled game event %T", ev)
	}
}
