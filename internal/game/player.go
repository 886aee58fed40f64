package game

import "github.com/tablerock/holdem/internal/deck"

// SeatStatus is the seat-level presence of a player, independent of the
// hand-level folded/all-in flags.
type SeatStatus int

const (
	SeatActive SeatStatus = iota
	SeatSittingOut
	SeatDisconnected
)

func (s SeatStatus) String() string {
	switch s {
	case SeatActive:
		return "active"
	case SeatSittingOut:
		return "sitOut"
	case SeatDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Player is a seated player. Chip amounts are integers in the smallest
// currency unit. All mutation goes through the betting engine and the
// orchestrator.
type Player struct {
	ID        string
	Seat      int
	Chips     int
	Bet       int // contribution this betting round
	TotalBet  int // contribution this hand
	Folded    bool
	AllIn     bool
	Status    SeatStatus
	HoleCards []deck.Card
}

// CanAct reports whether the player can take a betting action.
func (p *Player) CanAct() bool {
	return !p.Folded && !p.AllIn && p.Chips > 0
}

// InHand reports whether the player still contends for the pot.
func (p *Player) InHand() bool {
	return len(p.HoleCards) == 2 && !p.Folded
}

// StatusLabel is the single public status string exposed in state
// snapshots; hand-level flags take precedence over seat status.
func (p *Player) StatusLabel() string {
	switch {
	case p.Folded:
		return "folded"
	case p.AllIn:
		return "allIn"
	default:
		return p.Status.String()
	}
}

// resetForHand clears the per-hand transient state.
func (p *Player) resetForHand() {
	p.Bet = 0
	p.TotalBet = 0
	p.Folded = false
	p.AllIn = false
	p.HoleCards = nil
}
