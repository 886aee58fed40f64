package game

import (
	"fmt"
	"time"
)

// TableConfig is fixed at table creation.
type TableConfig struct {
	MaxPlayers        int
	SmallBlind        int
	BigBlind          int
	MinBuyIn          int
	MaxBuyIn          int
	ActionTimeout     time.Duration
	GracePeriod       time.Duration
	StraddleEnabled   bool // reserved, not implemented in betting logic
	RunItTwiceEnabled bool // reserved, not implemented in showdown logic
}

// Validate enforces the configuration invariants.
func (c TableConfig) Validate() error {
	if c.MaxPlayers < 2 || c.MaxPlayers > 10 {
		return fmt.Errorf("max players must be between 2 and 10, got %d", c.MaxPlayers)
	}
	if c.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive, got %d", c.SmallBlind)
	}
	if c.BigBlind <= c.SmallBlind {
		return fmt.Errorf("big blind %d must exceed small blind %d", c.BigBlind, c.SmallBlind)
	}
	if c.MinBuyIn <= 0 {
		return fmt.Errorf("minimum buy-in must be positive, got %d", c.MinBuyIn)
	}
	if c.MaxBuyIn < c.MinBuyIn {
		return fmt.Errorf("maximum buy-in %d below minimum %d", c.MaxBuyIn, c.MinBuyIn)
	}
	return nil
}

// Table owns the seats and the dealer button. All mutation happens
// through the orchestrator.
type Table struct {
	cfg        TableConfig
	seats      []*Player
	buttonSeat int
	deadButton bool // button parked on a vacated seat for one hand
}

// NewTable creates an empty table.
func NewTable(cfg TableConfig) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Table{
		cfg:   cfg,
		seats: make([]*Player, cfg.MaxPlayers),
	}, nil
}

// Config returns the immutable table configuration.
func (t *Table) Config() TableConfig { return t.cfg }

// ButtonSeat returns the dealer button seat index. The seat may be
// vacant while a dead button is in effect.
func (t *Table) ButtonSeat() int { return t.buttonSeat }

// Join seats a player with the given buy-in. seat -1 takes the first
// free seat.
func (t *Table) Join(playerID string, buyIn, seat int) (*Player, error) {
	if t.PlayerByID(playerID) != nil {
		return nil, ErrAlreadySeated
	}
	if err := checkChipAmount(buyIn); err != nil {
		return nil, err
	}
	if buyIn < t.cfg.MinBuyIn || buyIn > t.cfg.MaxBuyIn {
		return nil, ErrBuyInOutOfRange
	}
	if seat == -1 {
		for i, p := range t.seats {
			if p == nil {
				seat = i
				break
			}
		}
		if seat == -1 {
			return nil, ErrTableFull
		}
	}
	if seat < 0 || seat >= len(t.seats) {
		return nil, ErrSeatOutOfRange
	}
	if t.seats[seat] != nil {
		return nil, ErrSeatOccupied
	}

	player := &Player{
		ID:     playerID,
		Seat:   seat,
		Chips:  buyIn,
		Status: SeatActive,
	}
	t.seats[seat] = player
	return player, nil
}

// Leave vacates the player's seat and returns the player, whose
// remaining chips the caller credits externally.
func (t *Table) Leave(playerID string) (*Player, error) {
	p := t.PlayerByID(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	t.seats[p.Seat] = nil
	return p, nil
}

// PlayerByID finds a seated player.
func (t *Table) PlayerByID(playerID string) *Player {
	for _, p := range t.seats {
		if p != nil && p.ID == playerID {
			return p
		}
	}
	return nil
}

// SeatedPlayers returns all occupied seats in ascending seat order.
func (t *Table) SeatedPlayers() []*Player {
	players := make([]*Player, 0, len(t.seats))
	for _, p := range t.seats {
		if p != nil {
			players = append(players, p)
		}
	}
	return players
}

// FundedActivePlayers returns seated players able to start a hand:
// active status with a non-empty stack.
func (t *Table) FundedActivePlayers() []*Player {
	var players []*Player
	for _, p := range t.seats {
		if p != nil && p.Status == SeatActive && p.Chips > 0 {
			players = append(players, p)
		}
	}
	return players
}

// AdvanceButton moves the dealer button for the next hand: one occupied
// seat clockwise. If the seat that held the button vacated, the button
// stays on the empty seat for exactly one hand (dead button) so the
// blinds still advance past everyone, then resumes normal movement.
func (t *Table) AdvanceButton() {
	if t.seats[t.buttonSeat] == nil && !t.deadButton {
		t.deadButton = true
		return
	}
	t.deadButton = false
	t.buttonSeat = t.nextOccupiedSeat(t.buttonSeat + 1)
}

// nextOccupiedSeat scans clockwise from the given seat, wrapping.
func (t *Table) nextOccupiedSeat(from int) int {
	for i := 0; i < len(t.seats); i++ {
		seat := ((from+i)%len(t.seats) + len(t.seats)) % len(t.seats)
		if t.seats[seat] != nil {
			return seat
		}
	}
	return t.buttonSeat
}

// PlaceButton positions the button on an occupied seat for the first
// hand of a session.
func (t *Table) PlaceButton() {
	t.buttonSeat = t.nextOccupiedSeat(t.buttonSeat)
	t.deadButton = false
}
