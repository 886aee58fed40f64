package game

import (
	"fmt"
	"sort"
)

// Phase is the stage of the hand state machine.
type Phase int

const (
	WaitingForPlayers Phase = iota
	PreFlop
	Flop
	Turn
	River
	Showdown
	HandComplete
)

func (p Phase) String() string {
	switch p {
	case WaitingForPlayers:
		return "waitingForPlayers"
	case PreFlop:
		return "preFlop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	case HandComplete:
		return "handComplete"
	default:
		return "unknown"
	}
}

// IsBetting reports whether the phase hosts a betting round.
func (p Phase) IsBetting() bool {
	return p >= PreFlop && p <= River
}

// ActionType is a player betting action.
type ActionType int

const (
	Fold ActionType = iota
	Check
	Call
	Raise
	AllIn
)

func (a ActionType) String() string {
	switch a {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Raise:
		return "raise"
	case AllIn:
		return "allin"
	default:
		return "unknown"
	}
}

// ParseActionType converts wire action names to ActionType.
func ParseActionType(s string) (ActionType, error) {
	switch s {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "raise":
		return Raise, nil
	case "allin":
		return AllIn, nil
	default:
		return 0, fmt.Errorf("invalid action %q", s)
	}
}

// Action is one betting decision. For raises, Amount is the target
// total bet for the round, not the increment. Forced marks a fold
// synthesized by the engine (timeout, disconnect) which may be applied
// out of turn; forced folds are logged like any other action so a
// replay reproduces them.
type Action struct {
	PlayerID string     `json:"playerId"`
	Type     ActionType `json:"type"`
	Amount   int        `json:"amount,omitempty"`
	Forced   bool       `json:"forced,omitempty"`
}

// AvailableAction describes one legal action with its amount bounds.
// For Raise, Min and Max bound the target total bet; for Call and
// AllIn they carry the resulting amount.
type AvailableAction struct {
	Type ActionType `json:"type"`
	Min  int        `json:"min"`
	Max  int        `json:"max"`
}

// BlindPost records a blind payment made when the round started.
type BlindPost struct {
	PlayerID string
	Amount   int
	Big      bool
	AllIn    bool
}

// BettingRound owns the betting state for exactly one street. It is
// rebuilt from the hand's action log on every phase entry rather than
// mutated across streets.
type BettingRound struct {
	phase      Phase
	players    []*Player // hand participants, ascending seat order
	buttonSeat int       // table seat number; may be vacant (dead button)
	maxSeats   int
	smallBlind int
	bigBlind   int

	currentBet    int
	lastFullRaise int
	lastAggressor int // players index, -1 when nobody has bet
	pending       map[int]bool
	raiseClosed   map[int]bool
	actor         int // players index, -1 when the round is closed
	blinds        []BlindPost
}

// NewBettingRound constructs the betting state for one street and, on
// the preflop, posts blinds. Fewer than 2 players still in the hand is
// a contract violation.
func NewBettingRound(players []*Player, buttonSeat, maxSeats, smallBlind, bigBlind int, phase Phase) (*BettingRound, error) {
	if !phase.IsBetting() {
		return nil, fmt.Errorf("phase %s is not a betting phase", phase)
	}
	unfolded := 0
	for _, p := range players {
		if !p.Folded {
			unfolded++
		}
	}
	if unfolded < 2 {
		return nil, fmt.Errorf("betting round requires at least 2 players in the hand, got %d", unfolded)
	}

	br := &BettingRound{
		phase:         phase,
		players:       players,
		buttonSeat:    buttonSeat,
		maxSeats:      maxSeats,
		smallBlind:    smallBlind,
		bigBlind:      bigBlind,
		lastFullRaise: bigBlind,
		lastAggressor: -1,
		pending:       make(map[int]bool),
		raiseClosed:   make(map[int]bool),
		actor:         -1,
	}

	if phase == PreFlop {
		// A player seated with no chips plays the hand all-in.
		for _, p := range players {
			if !p.Folded && p.Chips == 0 {
				p.AllIn = true
			}
		}
		br.postBlinds()
	}

	for i, p := range br.players {
		if p.CanAct() {
			br.pending[i] = true
		}
	}
	br.actor = br.firstToAct()
	return br, nil
}

// postBlinds determines the blind seats and posts blinds capped at each
// player's stack. Heads-up the dealer posts the small blind.
func (br *BettingRound) postBlinds() {
	var sb, bb int
	if len(br.players) == 2 {
		if dealer := br.indexAtSeat(br.buttonSeat); dealer != -1 {
			sb, bb = dealer, 1-dealer
		} else {
			// Dead button heads-up: fall back to clockwise order.
			order := br.clockwiseFrom(br.buttonSeat)
			sb, bb = order[0], order[1]
		}
	} else {
		order := br.clockwiseFrom(br.buttonSeat)
		sb, bb = order[0], order[1]
	}

	br.post(sb, br.smallBlind, false)
	br.post(bb, br.bigBlind, true)
	br.currentBet = br.bigBlind
}

// post pays a blind capped at the player's stack; a partial post puts
// the player all-in.
func (br *BettingRound) post(idx, amount int, big bool) {
	p := br.players[idx]
	pay := amount
	if pay > p.Chips {
		pay = p.Chips
	}
	p.Chips -= pay
	p.Bet += pay
	p.TotalBet += pay
	if p.Chips == 0 {
		p.AllIn = true
	}
	br.blinds = append(br.blinds, BlindPost{PlayerID: p.ID, Amount: pay, Big: big, AllIn: p.AllIn})
}

// firstToAct picks the opening actor for the street.
func (br *BettingRound) firstToAct() int {
	if len(br.pending) == 0 {
		return -1
	}
	if br.phase == PreFlop {
		if len(br.players) == 2 {
			// Heads-up the dealer (small blind) opens the preflop.
			if dealer := br.indexAtSeat(br.buttonSeat); dealer != -1 && br.pending[dealer] {
				return dealer
			}
		} else if len(br.blinds) > 0 {
			// First live seat after the big blind.
			bbSeat := br.seatOf(br.blinds[len(br.blinds)-1].PlayerID)
			for _, i := range br.clockwiseFrom(bbSeat) {
				if br.pending[i] {
					return i
				}
			}
		}
	}
	// Post-flop (and fallbacks): first live seat after the button.
	for _, i := range br.clockwiseFrom(br.buttonSeat) {
		if br.pending[i] {
			return i
		}
	}
	return -1
}

// clockwiseFrom returns player indexes ordered clockwise starting with
// the first seat after the given seat.
func (br *BettingRound) clockwiseFrom(seat int) []int {
	order := make([]int, len(br.players))
	for i := range br.players {
		order[i] = i
	}
	dist := func(i int) int {
		return ((br.players[i].Seat-seat-1)%br.maxSeats + br.maxSeats) % br.maxSeats
	}
	sort.Slice(order, func(a, b int) bool { return dist(order[a]) < dist(order[b]) })
	return order
}

func (br *BettingRound) indexOf(playerID string) int {
	for i, p := range br.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (br *BettingRound) indexAtSeat(seat int) int {
	for i, p := range br.players {
		if p.Seat == seat {
			return i
		}
	}
	return -1
}

func (br *BettingRound) seatOf(playerID string) int {
	if i := br.indexOf(playerID); i != -1 {
		return br.players[i].Seat
	}
	return -1
}

func (br *BettingRound) unfoldedCount() int {
	n := 0
	for _, p := range br.players {
		if !p.Folded {
			n++
		}
	}
	return n
}

// Validate checks an action against the current round state without
// mutating anything. Apply runs the same checks before mutating, so no
// action is ever applied without passing them.
func (br *BettingRound) Validate(a Action) error {
	idx := br.indexOf(a.PlayerID)
	if idx == -1 {
		return ErrNotInHand
	}
	p := br.players[idx]

	if a.Forced && a.Type == Fold {
		if p.Folded {
			return ErrNotInHand
		}
		return nil
	}

	if br.actor == -1 {
		return ErrNoBettingRound
	}
	if idx != br.actor {
		return ErrNotYourTurn
	}

	toCall := br.currentBet - p.Bet
	switch a.Type {
	case Fold:
		return nil

	case Check:
		if toCall != 0 {
			return ErrCannotCheck
		}
		return nil

	case Call:
		if toCall <= 0 {
			return ErrNothingToCall
		}
		if toCall >= p.Chips {
			return ErrCannotCall
		}
		return nil

	case Raise:
		if err := checkChipAmount(a.Amount); err != nil {
			return err
		}
		maxTarget := p.Bet + p.Chips
		if a.Amount > maxTarget {
			return ErrRaiseTooLarge
		}
		if a.Amount <= br.currentBet {
			return ErrRaiseTooSmall
		}
		if br.raiseClosed[idx] {
			return ErrRaiseClosed
		}
		increment := a.Amount - br.currentBet
		if increment < br.lastFullRaise && a.Amount != maxTarget {
			// A raise below the last full raise is only legal as an all-in.
			return ErrRaiseTooSmall
		}
		return nil

	case AllIn:
		if p.Chips <= 0 {
			return ErrNoChips
		}
		if p.Bet+p.Chips > br.currentBet && br.raiseClosed[idx] {
			// Full-bet rule: a player who already acted against the
			// current bet is call/fold-only after a short all-in.
			return ErrRaiseClosed
		}
		return nil

	default:
		return fmt.Errorf("invalid action type %d", a.Type)
	}
}

// Apply validates and applies one action.
func (br *BettingRound) Apply(a Action) error {
	if err := br.Validate(a); err != nil {
		return err
	}

	idx := br.indexOf(a.PlayerID)
	p := br.players[idx]
	wasActor := idx == br.actor

	switch a.Type {
	case Fold:
		p.Folded = true
		p.HoleCards = nil
		delete(br.pending, idx)

	case Check:
		delete(br.pending, idx)

	case Call:
		br.pay(idx, br.currentBet-p.Bet)
		delete(br.pending, idx)

	case Raise:
		br.applyRaise(idx, a.Amount)

	case AllIn:
		target := p.Bet + p.Chips
		if target > br.currentBet {
			br.applyRaise(idx, target)
		} else {
			br.pay(idx, p.Chips)
			delete(br.pending, idx)
		}
	}

	if len(br.pending) == 0 || br.unfoldedCount() <= 1 {
		br.actor = -1
	} else if wasActor {
		br.advanceActor(p.Seat)
	}
	return nil
}

// applyRaise pays up to the target total bet and reopens or restricts
// the action according to the full-bet rule.
func (br *BettingRound) applyRaise(idx, target int) {
	p := br.players[idx]
	increment := target - br.currentBet
	br.pay(idx, target-p.Bet)

	if increment >= br.lastFullRaise {
		// Full raise: everyone else gets to act again with full options.
		br.lastFullRaise = increment
		br.raiseClosed = make(map[int]bool)
		br.pending = make(map[int]bool)
		for i, other := range br.players {
			if i != idx && other.CanAct() {
				br.pending[i] = true
			}
		}
	} else {
		// Short all-in: players who already acted at the prior bet level
		// may call or fold but not raise again.
		for i, other := range br.players {
			if i == idx || !other.CanAct() {
				continue
			}
			if !br.pending[i] {
				br.raiseClosed[i] = true
			}
			br.pending[i] = true
		}
	}
	br.currentBet = target
	br.lastAggressor = idx
	delete(br.pending, idx)
}

// pay moves chips from the player's stack into their round bet.
func (br *BettingRound) pay(idx, amount int) {
	p := br.players[idx]
	p.Chips -= amount
	p.Bet += amount
	p.TotalBet += amount
	if p.Chips == 0 {
		p.AllIn = true
		delete(br.pending, idx)
	}
}

// advanceActor moves the action to the next pending seat clockwise.
func (br *BettingRound) advanceActor(fromSeat int) {
	for _, i := range br.clockwiseFrom(fromSeat) {
		if br.pending[i] {
			br.actor = i
			return
		}
	}
	br.actor = -1
}

// AvailableActions derives the legal action set and amount bounds for a
// player from the current round state. It never mutates.
func (br *BettingRound) AvailableActions(playerID string) []AvailableAction {
	idx := br.indexOf(playerID)
	if idx == -1 {
		return nil
	}
	p := br.players[idx]
	if !p.CanAct() {
		return nil
	}

	actions := []AvailableAction{{Type: Fold}}
	toCall := br.currentBet - p.Bet
	maxTarget := p.Bet + p.Chips

	if toCall == 0 {
		actions = append(actions, AvailableAction{Type: Check})
	} else if toCall < p.Chips {
		actions = append(actions, AvailableAction{Type: Call, Min: toCall, Max: toCall})
	}

	if !br.raiseClosed[idx] {
		minTarget := br.currentBet + br.lastFullRaise
		if maxTarget >= minTarget {
			actions = append(actions, AvailableAction{Type: Raise, Min: minTarget, Max: maxTarget})
		}
	}

	if maxTarget <= br.currentBet || !br.raiseClosed[idx] {
		actions = append(actions, AvailableAction{Type: AllIn, Min: maxTarget, Max: maxTarget})
	}
	return actions
}

// Complete reports whether the betting round is closed.
func (br *BettingRound) Complete() bool {
	return len(br.pending) == 0 || br.unfoldedCount() <= 1
}

// CurrentBet is the amount each live player must match this street.
func (br *BettingRound) CurrentBet() int { return br.currentBet }

// MinRaiseTo is the minimum legal target for a full raise.
func (br *BettingRound) MinRaiseTo() int { return br.currentBet + br.lastFullRaise }

// ActorID returns the player due to act, or empty when the round is
// closed.
func (br *BettingRound) ActorID() string {
	if br.actor == -1 {
		return ""
	}
	return br.players[br.actor].ID
}

// ActorSeat returns the acting player's table seat, or -1.
func (br *BettingRound) ActorSeat() int {
	if br.actor == -1 {
		return -1
	}
	return br.players[br.actor].Seat
}

// LastAggressorID returns the last player to bet or raise this street,
// or empty if the street was checked through.
func (br *BettingRound) LastAggressorID() string {
	if br.lastAggressor == -1 {
		return ""
	}
	return br.players[br.lastAggressor].ID
}

// PostedBlinds returns the blinds paid when the round was constructed.
func (br *BettingRound) PostedBlinds() []BlindPost { return br.blinds }
