package game

import "github.com/tablerock/holdem/internal/deck"

// TableEvent is the closed set of inputs delivered to a table's
// serialized handler: player intents, seat lifecycle changes and timer
// firings. One variant per event kind, matched exhaustively.
type TableEvent interface {
	isTableEvent()
}

// PlayerActionEvent carries one betting action intent. Seq must equal
// the table's last accepted sequence number plus one.
type PlayerActionEvent struct {
	PlayerID string
	Type     ActionType
	Amount   int
	Seq      uint64
}

// JoinEvent seats a player. Seat -1 requests any free seat.
type JoinEvent struct {
	PlayerID string
	BuyIn    int
	Seat     int
}

// LeaveEvent vacates a player's seat, folding any live hand first.
type LeaveEvent struct {
	PlayerID string
}

// SitOutEvent marks a player sitting out from the next hand.
type SitOutEvent struct {
	PlayerID string
}

// SitInEvent returns a sitting-out player to play; only permitted
// between hands.
type SitInEvent struct {
	PlayerID string
}

// DisconnectEvent marks a player disconnected, auto-folding any live
// hand and starting the reconnection grace timer.
type DisconnectEvent struct {
	PlayerID string
}

// ReconnectEvent restores a disconnected player within grace.
type ReconnectEvent struct {
	PlayerID string
}

// TurnTimeoutEvent fires when the acting player's timer expires. Gen is
// the generation token captured when the timer was armed; a stale token
// makes the event a no-op.
type TurnTimeoutEvent struct {
	Gen uint64
}

// GraceTimeoutEvent fires when a disconnected player's grace period
// expires without a reconnect.
type GraceTimeoutEvent struct {
	PlayerID string
	Gen      uint64
}

func (PlayerActionEvent) isTableEvent() {}
func (JoinEvent) isTableEvent()         {}
func (LeaveEvent) isTableEvent()        {}
func (SitOutEvent) isTableEvent()       {}
func (SitInEvent) isTableEvent()        {}
func (DisconnectEvent) isTableEvent()   {}
func (ReconnectEvent) isTableEvent()    {}
func (TurnTimeoutEvent) isTableEvent()  {}
func (GraceTimeoutEvent) isTableEvent() {}

// GameEvent is the closed set of outputs the engine publishes for the
// transport layer to broadcast and for external persistence.
type GameEvent interface {
	isGameEvent()
}

// HandStarted announces a new hand. HandID is the hand's globally
// unique, time-sortable identifier.
type HandStarted struct {
	HandNumber uint64
	HandID     string
	ButtonSeat int
	PlayerIDs  []string
}

// BlindPosted announces a posted blind; a partial post is an all-in.
type BlindPosted struct {
	PlayerID string
	Amount   int
	Big      bool
	AllIn    bool
}

// ActionApplied announces an accepted betting action.
type ActionApplied struct {
	PlayerID string
	Type     ActionType
	Amount   int
	Forced   bool
	Phase    Phase
	Pot      int
}

// PhaseChanged announces entry to a new phase with the board so far.
type PhaseChanged struct {
	Phase Phase
	Board []deck.Card
}

// Reveal is one showdown hand in reveal order.
type Reveal struct {
	PlayerID    string
	HoleCards   []deck.Card
	Description string
}

// ShowdownHeld announces the showdown result with a deterministic
// reveal order: clockwise from the last aggressor, or from the
// dealer's left when the final street was checked through.
type ShowdownHeld struct {
	Board   []deck.Card
	Reveals []Reveal
	Pots    []SidePot
}

// HandFinished is the finished-hand summary handed to external
// persistence. Nothing is persisted mid-hand.
type HandFinished struct {
	HandNumber uint64
	Pots       []SidePot
	Winners    []string
	Payouts    map[string]int
}

// PlayerJoined announces a seated player.
type PlayerJoined struct {
	PlayerID string
	Seat     int
	Chips    int
}

// PlayerLeft announces a vacated seat; Chips is the stack to credit
// back externally.
type PlayerLeft struct {
	PlayerID string
	Seat     int
	Chips    int
}

// PlayerStatusChanged announces a seat status transition.
type PlayerStatusChanged struct {
	PlayerID string
	Status   string
}

func (HandStarted) isGameEvent()         {}
func (BlindPosted) isGameEvent()         {}
func (ActionApplied) isGameEvent()       {}
func (PhaseChanged) isGameEvent()        {}
func (ShowdownHeld) isGameEvent()        {}
func (HandFinished) isGameEvent()        {}
func (PlayerJoined) isGameEvent()        {}
func (PlayerLeft) isGameEvent()          {}
func (PlayerStatusChanged) isGameEvent() {}
