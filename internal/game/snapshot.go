package game

import (
	"fmt"

	"github.com/tablerock/holdem/internal/deck"
)

// SeatSnapshot is one occupied seat. For hand participants Chips is
// the stack at hand start; replaying the action logs re-derives the
// current stack.
type SeatSnapshot struct {
	PlayerID string     `json:"playerId"`
	Seat     int        `json:"seat"`
	Chips    int        `json:"chips"`
	Status   SeatStatus `json:"status"`
}

// PhaseLog is the ordered action log of one street.
type PhaseLog struct {
	Phase   Phase    `json:"phase"`
	Actions []Action `json:"actions"`
}

// Snapshot is a self-contained table image taken between events. A
// live hand is stored as its inputs, the starting deck order plus the
// per-street action logs, and reconstructed by replay rather than by
// serializing derived betting state. Participants records everyone the
// hand was dealt to with their hand-start stacks, independent of
// current seating, so a hand survives a mid-hand leave.
type Snapshot struct {
	TableID      string         `json:"tableId"`
	Config       TableConfig    `json:"config"`
	HandNumber   uint64         `json:"handNumber"`
	HandID       string         `json:"handId,omitempty"`
	Seq          uint64         `json:"seq"`
	Phase        Phase          `json:"phase"`
	ButtonSeat   int            `json:"buttonSeat"`
	DeadButton   bool           `json:"deadButton"`
	Seats        []SeatSnapshot `json:"seats"`
	Participants []SeatSnapshot `json:"participants,omitempty"`
	Deck         []deck.Card    `json:"deck,omitempty"`
	Logs         []PhaseLog     `json:"logs,omitempty"`
}

// Snapshot captures the table. Must be called from the table's event
// goroutine like any other engine access.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		TableID:    e.id,
		Config:     e.cfg,
		HandNumber: e.handNum,
		Seq:        e.seq,
		Phase:      e.phase,
		ButtonSeat: e.table.ButtonSeat(),
		DeadButton: e.table.deadButton,
	}

	inHand := make(map[string]bool)
	if e.hand != nil {
		for _, p := range e.hand.players {
			inHand[p.ID] = true
		}
	}
	for _, p := range e.table.SeatedPlayers() {
		chips := p.Chips
		if inHand[p.ID] {
			chips += p.TotalBet
		}
		snap.Seats = append(snap.Seats, SeatSnapshot{
			PlayerID: p.ID,
			Seat:     p.Seat,
			Chips:    chips,
			Status:   p.Status,
		})
	}

	if e.hand != nil {
		snap.HandID = e.hand.id
		snap.Deck = copyCards(e.hand.startingDeck)
		for _, p := range e.hand.players {
			snap.Participants = append(snap.Participants, SeatSnapshot{
				PlayerID: p.ID,
				Seat:     p.Seat,
				Chips:    p.Chips + p.TotalBet,
				Status:   p.Status,
			})
		}
		for phase := PreFlop; phase <= River; phase++ {
			if acts := e.hand.logs[phase]; len(acts) > 0 {
				snap.Logs = append(snap.Logs, PhaseLog{
					Phase:   phase,
					Actions: append([]Action(nil), acts...),
				})
			}
		}
	}
	return snap
}

// Restore rebuilds an engine from a snapshot by re-seating the players
// and replaying the hand's action log over the recorded deck order. It
// fails if the replay does not land exactly on the snapshot's phase
// and sequence number.
func Restore(snap Snapshot, opts ...Option) (*Engine, error) {
	e, err := NewEngine(snap.TableID, snap.Config, opts...)
	if err != nil {
		return nil, err
	}
	e.restoring = true

	for _, s := range snap.Seats {
		if s.Seat < 0 || s.Seat >= e.cfg.MaxPlayers {
			return nil, fmt.Errorf("seat %d for %s: %w", s.Seat, s.PlayerID, ErrSeatOutOfRange)
		}
		if e.table.seats[s.Seat] != nil {
			return nil, fmt.Errorf("seat %d for %s: %w", s.Seat, s.PlayerID, ErrSeatOccupied)
		}
		e.table.seats[s.Seat] = &Player{
			ID:     s.PlayerID,
			Seat:   s.Seat,
			Chips:  s.Chips,
			Status: s.Status,
		}
	}
	e.table.buttonSeat = snap.ButtonSeat
	e.table.deadButton = snap.DeadButton

	if len(snap.Deck) == 0 {
		// No hand in flight.
		e.handNum = snap.HandNumber
		e.phase = snap.Phase
		e.seq = snap.Seq
		e.restoring = false
		e.armGraceTimers()
		return e, nil
	}

	logged := 0
	for _, pl := range snap.Logs {
		logged += len(pl.Actions)
	}
	e.handNum = snap.HandNumber - 1
	e.seq = snap.Seq - uint64(logged)

	participants := make([]*Player, 0, len(snap.Participants))
	for _, part := range snap.Participants {
		p := e.table.PlayerByID(part.PlayerID)
		switch {
		case p == nil:
			// Left mid-hand; the seat is gone but the replay still needs
			// them so their logged fold and pot contribution reproduce.
			p = &Player{
				ID:     part.PlayerID,
				Seat:   part.Seat,
				Chips:  part.Chips,
				Status: part.Status,
			}
		case p.Seat != part.Seat:
			return nil, fmt.Errorf("participant %s at seat %d, snapshot says %d", part.PlayerID, p.Seat, part.Seat)
		}
		participants = append(participants, p)
	}
	if err := e.startHandWithDeck(copyCards(snap.Deck), participants); err != nil {
		return nil, fmt.Errorf("restoring hand %d: %w", snap.HandNumber, err)
	}
	if e.hand == nil {
		return nil, fmt.Errorf("restoring hand %d: %d participants cannot hold a hand", snap.HandNumber, len(participants))
	}
	e.hand.id = snap.HandID

	for _, pl := range snap.Logs {
		for _, act := range pl.Actions {
			if e.phase != pl.Phase {
				return nil, fmt.Errorf("replay diverged: %s log arrived in %s", pl.Phase, e.phase)
			}
			if err := e.applyAction(act); err != nil {
				return nil, fmt.Errorf("replaying %s by %s: %w", act.Type, act.PlayerID, err)
			}
		}
	}
	if e.phase != snap.Phase || e.seq != snap.Seq {
		return nil, fmt.Errorf("replay diverged: at %s seq %d, snapshot says %s seq %d",
			e.phase, e.seq, snap.Phase, snap.Seq)
	}

	e.restoring = false
	if e.phase.IsBetting() && !e.hand.betting.Complete() {
		e.armTurnTimer()
	}
	e.armGraceTimers()
	return e, nil
}
