package game

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/tablerock/holdem/internal/deck"
	"github.com/tablerock/holdem/internal/evaluator"
	"github.com/tablerock/holdem/internal/gameid"
)

// Advisor is the external bot collaborator: given the acting seat's
// view (public state, own hole cards, legal actions) it returns one
// action. Consulted only when a bot-controlled seat times out.
type Advisor interface {
	Decide(view View) Action
}

// Engine is the authoritative state machine for one table. It owns all
// mutable table state; every action, timer firing and lifecycle change
// is delivered through HandleEvent by a single serialized caller, so
// concurrency exists between tables, never within one.
type Engine struct {
	id       string
	cfg      TableConfig
	table    *Table
	clock    quartz.Clock
	logger   *log.Logger
	src      deck.Source
	publish  func(GameEvent)
	schedule func(TableEvent)
	advisor  Advisor
	botSeats map[string]bool

	phase   Phase
	handNum uint64
	seq     uint64 // last accepted action sequence number

	hand      *handState
	timerGen  uint64
	graceGens map[string]uint64
	restoring bool
}

// handState is the per-hand context. It is rebuilt from the starting
// deck order and the ordered action logs, never patched incrementally.
type handState struct {
	id            string
	buttonSeat    int
	players       []*Player // participants, ascending seat order
	startingDeck  []deck.Card
	deckRest      []deck.Card
	board         []deck.Card
	logs          map[Phase][]Action
	betting       *BettingRound
	lastAggressor string // most recent street with a bet or raise
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects the clock used for turn and grace timers.
func WithClock(c quartz.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l.WithPrefix("engine").With("table_id", e.id) }
}

// WithDeckSource injects the shuffle randomness source.
func WithDeckSource(src deck.Source) Option {
	return func(e *Engine) { e.src = src }
}

// WithPublisher sets the outbound event sink (the broadcast
// collaborator).
func WithPublisher(fn func(GameEvent)) Option {
	return func(e *Engine) { e.publish = fn }
}

// WithScheduler sets the callback that posts timer events back into
// the table's serialized handler. Without it timers are disabled.
func WithScheduler(fn func(TableEvent)) Option {
	return func(e *Engine) { e.schedule = fn }
}

// WithAdvisor sets the external bot decision collaborator.
func WithAdvisor(a Advisor) Option {
	return func(e *Engine) { e.advisor = a }
}

// NewEngine creates an engine for an empty table.
func NewEngine(id string, cfg TableConfig, opts ...Option) (*Engine, error) {
	table, err := NewTable(cfg)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		id:        id,
		cfg:       cfg,
		table:     table,
		clock:     quartz.NewReal(),
		logger:    log.New(io.Discard),
		src:       deck.CryptoSource(),
		botSeats:  make(map[string]bool),
		graceGens: make(map[string]uint64),
		phase:     WaitingForPlayers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase { return e.phase }

// HandNumber returns the current hand number.
func (e *Engine) HandNumber() uint64 { return e.handNum }

// LastSeq returns the last accepted action sequence number; the next
// inbound action must carry LastSeq()+1.
func (e *Engine) LastSeq() uint64 { return e.seq }

// SetBotSeat marks a seated player as bot-controlled: its turn timer
// consults the Advisor instead of check/folding.
func (e *Engine) SetBotSeat(playerID string, bot bool) {
	if bot {
		e.botSeats[playerID] = true
	} else {
		delete(e.botSeats, playerID)
	}
}

// HandleEvent processes one table event. It is the only entry point
// that mutates table state and must be called from a single goroutine.
func (e *Engine) HandleEvent(ev TableEvent) error {
	switch ev := ev.(type) {
	case PlayerActionEvent:
		return e.handleAction(ev)
	case JoinEvent:
		return e.handleJoin(ev)
	case LeaveEvent:
		return e.handleLeave(ev)
	case SitOutEvent:
		return e.handleSitOut(ev)
	case SitInEvent:
		return e.handleSitIn(ev)
	case DisconnectEvent:
		return e.handleDisconnect(ev)
	case ReconnectEvent:
		return e.handleReconnect(ev)
	case TurnTimeoutEvent:
		return e.handleTurnTimeout(ev)
	case GraceTimeoutEvent:
		return e.handleGraceTimeout(ev)
	default:
		return fmt.Errorf("unhandled table event %T", ev)
	}
}

func (e *Engine) handleAction(ev PlayerActionEvent) error {
	if e.hand == nil || !e.phase.IsBetting() {
		return ErrNoBettingRound
	}
	if ev.Seq != e.seq+1 {
		return ErrOutOfSequence
	}
	if e.hand.betting.ActorID() != ev.PlayerID {
		return ErrNotYourTurn
	}
	return e.applyAction(Action{PlayerID: ev.PlayerID, Type: ev.Type, Amount: ev.Amount})
}

// applyAction is the single mutation path for betting actions, shared
// by live play, timeouts, forced folds and snapshot replay.
func (e *Engine) applyAction(act Action) error {
	br := e.hand.betting
	if err := br.Apply(act); err != nil {
		return err
	}
	e.seq++
	e.hand.logs[e.phase] = append(e.hand.logs[e.phase], act)
	e.timerGen++ // a pending turn timer no longer matches this state

	e.logger.Debug("action applied",
		"player", act.PlayerID,
		"action", act.Type.String(),
		"amount", act.Amount,
		"forced", act.Forced,
		"phase", e.phase.String(),
		"seq", e.seq)
	e.emit(ActionApplied{
		PlayerID: act.PlayerID,
		Type:     act.Type,
		Amount:   act.Amount,
		Forced:   act.Forced,
		Phase:    e.phase,
		Pot:      e.potSize(),
	})
	return e.afterAction()
}

func (e *Engine) afterAction() error {
	if e.contenders() <= 1 {
		return e.finishUncontested()
	}
	if e.hand.betting.Complete() {
		return e.advancePhase()
	}
	e.armTurnTimer()
	return nil
}

// advancePhase walks the street sequence, dealing community cards and
// rebuilding the betting round for each phase; when nobody can act
// (all-ins) it keeps advancing until showdown.
func (e *Engine) advancePhase() error {
	for {
		if agg := e.hand.betting.LastAggressorID(); agg != "" {
			e.hand.lastAggressor = agg
		}
		for _, p := range e.hand.players {
			p.Bet = 0
		}

		next := e.phase + 1
		if next == Showdown {
			return e.showdown()
		}
		if err := e.enterBettingPhase(next); err != nil {
			return err
		}
		if !e.hand.betting.Complete() {
			e.armTurnTimer()
			return nil
		}
	}
}

// enterBettingPhase deals the street's community cards and re-derives a
// fresh betting round for it.
func (e *Engine) enterBettingPhase(phase Phase) error {
	count := 0
	switch phase {
	case Flop:
		count = 3
	case Turn, River:
		count = 1
	}
	if count > 0 {
		community, rest, err := deck.DealCommunity(e.hand.deckRest, count)
		if err != nil {
			return fmt.Errorf("dealing %s: %w", phase, err)
		}
		e.hand.board = append(e.hand.board, community...)
		e.hand.deckRest = rest
	}

	br, err := NewBettingRound(e.hand.players, e.hand.buttonSeat, e.cfg.MaxPlayers, e.cfg.SmallBlind, e.cfg.BigBlind, phase)
	if err != nil {
		return fmt.Errorf("entering %s: %w", phase, err)
	}
	e.phase = phase
	e.hand.betting = br

	e.logger.Debug("phase entered", "phase", phase.String(), "board", len(e.hand.board))
	e.emit(PhaseChanged{Phase: phase, Board: copyCards(e.hand.board)})
	return nil
}

func (e *Engine) showdown() error {
	e.phase = Showdown
	e.emit(PhaseChanged{Phase: Showdown, Board: copyCards(e.hand.board)})

	results := make(map[string]evaluator.Result)
	for _, p := range e.hand.players {
		if !p.InHand() {
			continue
		}
		cards := append(copyCards(p.HoleCards), e.hand.board...)
		r, err := evaluator.Evaluate(cards)
		if err != nil {
			return fmt.Errorf("evaluating %s: %w", p.ID, err)
		}
		results[p.ID] = r
	}

	tiers := evaluator.WinnerTiers(results)
	contributions, folded := e.contributionLedger()
	pots := BuildPots(contributions, folded)
	payouts := DistributePots(pots, tiers, e.seatNumbers(), e.hand.buttonSeat, e.cfg.MaxPlayers)
	for _, p := range e.hand.players {
		p.Chips += payouts[p.ID]
	}

	e.emit(ShowdownHeld{
		Board:   copyCards(e.hand.board),
		Reveals: e.revealOrder(results),
		Pots:    pots,
	})
	return e.finishHand(pots, payouts)
}

// revealOrder fixes the deterministic showdown reveal order: clockwise
// starting from the last aggressor, or from the dealer's left when the
// hand was checked down.
func (e *Engine) revealOrder(results map[string]evaluator.Result) []Reveal {
	startSeat := e.hand.buttonSeat + 1
	if e.hand.lastAggressor != "" {
		if p := e.playerInHandByID(e.hand.lastAggressor); p != nil {
			startSeat = p.Seat
		}
	}

	contenders := make([]*Player, 0, len(results))
	for _, p := range e.hand.players {
		if _, ok := results[p.ID]; ok {
			contenders = append(contenders, p)
		}
	}
	max := e.cfg.MaxPlayers
	sort.Slice(contenders, func(a, b int) bool {
		da := ((contenders[a].Seat-startSeat)%max + max) % max
		db := ((contenders[b].Seat-startSeat)%max + max) % max
		return da < db
	})

	reveals := make([]Reveal, 0, len(contenders))
	for _, p := range contenders {
		reveals = append(reveals, Reveal{
			PlayerID:    p.ID,
			HoleCards:   copyCards(p.HoleCards),
			Description: results[p.ID].Description,
		})
	}
	return reveals
}

// finishUncontested pays the whole pot to the sole remaining player
// without a showdown.
func (e *Engine) finishUncontested() error {
	var winner *Player
	for _, p := range e.hand.players {
		if p.InHand() {
			winner = p
			break
		}
	}
	if winner == nil {
		return fmt.Errorf("hand %d has no contender left", e.handNum)
	}

	total := 0
	for _, p := range e.hand.players {
		total += p.TotalBet
	}
	winner.Chips += total

	pots := []SidePot{{Amount: total, Eligible: []string{winner.ID}}}
	return e.finishHand(pots, map[string]int{winner.ID: total})
}

// finishHand records the summary, resets transient per-hand state,
// advances the button, and either restarts or parks the table.
func (e *Engine) finishHand(pots []SidePot, payouts map[string]int) error {
	e.phase = HandComplete
	e.timerGen++

	winners := make([]string, 0, len(payouts))
	for id := range payouts {
		winners = append(winners, id)
	}
	sort.Strings(winners)

	e.logger.Info("hand complete",
		"hand", e.handNum,
		"pot", PotTotal(pots),
		"winners", winners)
	e.emit(HandFinished{
		HandNumber: e.handNum,
		Pots:       pots,
		Winners:    winners,
		Payouts:    payouts,
	})

	for _, p := range e.hand.players {
		p.resetForHand()
		if p.Chips == 0 && p.Status == SeatActive {
			p.Status = SeatSittingOut
			e.emit(PlayerStatusChanged{PlayerID: p.ID, Status: p.Status.String()})
		}
	}
	e.hand = nil
	e.table.AdvanceButton()

	if len(e.table.FundedActivePlayers()) >= 2 {
		return e.startHand()
	}
	e.phase = WaitingForPlayers
	return nil
}

// startHand deals a fresh hand to the funded active players.
func (e *Engine) startHand() error {
	return e.startHandWithDeck(deck.NewShuffled(e.src), nil)
}

// startHandWithDeck starts a hand from a known deck order. A non-nil
// participants list pins the exact players dealt in, seat order and
// all; snapshot restore uses it to reproduce the original deal even
// when participants have since disconnected, sat out, or left.
func (e *Engine) startHandWithDeck(shuffled []deck.Card, participants []*Player) error {
	players := participants
	if players == nil {
		players = e.table.FundedActivePlayers()
	}
	if len(players) < 2 {
		e.phase = WaitingForPlayers
		return nil
	}

	for _, p := range players {
		p.resetForHand()
	}

	hands, rest, err := deck.DealHoleCards(shuffled, len(players))
	if err != nil {
		return fmt.Errorf("dealing hole cards: %w", err)
	}
	for i, p := range players {
		p.HoleCards = hands[i]
	}

	e.handNum++
	e.hand = &handState{
		id:           gameid.NewHandID(),
		buttonSeat:   e.table.ButtonSeat(),
		players:      players,
		startingDeck: shuffled,
		deckRest:     rest,
		logs:         make(map[Phase][]Action),
	}
	e.phase = PreFlop

	br, err := NewBettingRound(players, e.hand.buttonSeat, e.cfg.MaxPlayers, e.cfg.SmallBlind, e.cfg.BigBlind, PreFlop)
	if err != nil {
		return fmt.Errorf("starting hand %d: %w", e.handNum, err)
	}
	e.hand.betting = br

	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	e.logger.Info("hand started", "hand", e.handNum, "hand_id", e.hand.id, "button", e.hand.buttonSeat, "players", len(players))
	e.emit(HandStarted{HandNumber: e.handNum, HandID: e.hand.id, ButtonSeat: e.hand.buttonSeat, PlayerIDs: ids})
	for _, blind := range br.PostedBlinds() {
		e.emit(BlindPosted(blind))
	}

	if br.Complete() {
		return e.advancePhase()
	}
	e.armTurnTimer()
	return nil
}

func (e *Engine) maybeStartHand() error {
	if e.phase != WaitingForPlayers || e.restoring {
		return nil
	}
	if len(e.table.FundedActivePlayers()) < 2 {
		return nil
	}
	e.table.PlaceButton()
	return e.startHand()
}

func (e *Engine) handleJoin(ev JoinEvent) error {
	p, err := e.table.Join(ev.PlayerID, ev.BuyIn, ev.Seat)
	if err != nil {
		return err
	}
	e.logger.Info("player joined", "player", p.ID, "seat", p.Seat, "buy_in", p.Chips)
	e.emit(PlayerJoined{PlayerID: p.ID, Seat: p.Seat, Chips: p.Chips})
	return e.maybeStartHand()
}

func (e *Engine) handleLeave(ev LeaveEvent) error {
	p := e.table.PlayerByID(ev.PlayerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if err := e.foldIfLive(p); err != nil {
		return err
	}
	if _, err := e.table.Leave(ev.PlayerID); err != nil {
		return err
	}
	delete(e.botSeats, ev.PlayerID)
	e.logger.Info("player left", "player", p.ID, "seat", p.Seat, "chips", p.Chips)
	e.emit(PlayerLeft{PlayerID: p.ID, Seat: p.Seat, Chips: p.Chips})
	return nil
}

func (e *Engine) handleSitOut(ev SitOutEvent) error {
	p := e.table.PlayerByID(ev.PlayerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if p.Status == SeatSittingOut {
		return nil
	}
	p.Status = SeatSittingOut
	e.emit(PlayerStatusChanged{PlayerID: p.ID, Status: p.Status.String()})
	return nil
}

func (e *Engine) handleSitIn(ev SitInEvent) error {
	p := e.table.PlayerByID(ev.PlayerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if e.hand != nil {
		return ErrSitInDuringHand
	}
	if p.Status != SeatSittingOut {
		return nil
	}
	p.Status = SeatActive
	e.emit(PlayerStatusChanged{PlayerID: p.ID, Status: p.Status.String()})
	return e.maybeStartHand()
}

func (e *Engine) handleDisconnect(ev DisconnectEvent) error {
	p := e.table.PlayerByID(ev.PlayerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if p.Status == SeatDisconnected {
		return nil
	}
	p.Status = SeatDisconnected
	e.logger.Warn("player disconnected", "player", p.ID, "seat", p.Seat)
	e.emit(PlayerStatusChanged{PlayerID: p.ID, Status: p.Status.String()})

	if err := e.foldIfLive(p); err != nil {
		return err
	}
	e.armGraceTimer(p.ID)
	return nil
}

// armGraceTimer starts the reconnection countdown for a disconnected
// player. Bumping the generation first invalidates any timer already
// in flight for them.
func (e *Engine) armGraceTimer(playerID string) {
	e.graceGens[playerID]++
	gen := e.graceGens[playerID]
	if e.schedule == nil {
		return
	}
	e.clock.AfterFunc(e.cfg.GracePeriod, func() {
		e.schedule(GraceTimeoutEvent{PlayerID: playerID, Gen: gen})
	})
}

// armGraceTimers gives every disconnected seat a fresh grace period;
// a restored table must not strand them disconnected forever.
func (e *Engine) armGraceTimers() {
	for _, p := range e.table.SeatedPlayers() {
		if p.Status == SeatDisconnected {
			e.armGraceTimer(p.ID)
		}
	}
}

func (e *Engine) handleReconnect(ev ReconnectEvent) error {
	p := e.table.PlayerByID(ev.PlayerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if p.Status != SeatDisconnected {
		return ErrNotDisconnected
	}
	e.graceGens[p.ID]++ // a pending grace timer becomes a no-op

	if p.Chips > 0 {
		p.Status = SeatActive
	} else {
		p.Status = SeatSittingOut
	}
	e.logger.Info("player reconnected", "player", p.ID, "status", p.Status.String())
	e.emit(PlayerStatusChanged{PlayerID: p.ID, Status: p.Status.String()})
	return e.maybeStartHand()
}

func (e *Engine) handleGraceTimeout(ev GraceTimeoutEvent) error {
	if e.graceGens[ev.PlayerID] != ev.Gen {
		return nil // reconnected or already handled
	}
	p := e.table.PlayerByID(ev.PlayerID)
	if p == nil || p.Status != SeatDisconnected {
		return nil
	}
	e.logger.Info("grace period expired", "player", p.ID)
	return e.handleLeave(LeaveEvent{PlayerID: ev.PlayerID})
}

func (e *Engine) handleTurnTimeout(ev TurnTimeoutEvent) error {
	if ev.Gen != e.timerGen {
		return nil // state moved on since the timer was armed
	}
	if e.hand == nil || !e.phase.IsBetting() {
		return nil
	}
	actorID := e.hand.betting.ActorID()
	if actorID == "" {
		return nil
	}

	if e.botSeats[actorID] && e.advisor != nil {
		act := e.advisor.Decide(e.ViewFor(actorID))
		act.PlayerID = actorID
		act.Forced = false
		if err := e.applyAction(act); err == nil {
			return nil
		}
		e.logger.Warn("advisor returned illegal action, falling back", "player", actorID)
	}

	// Auto-resolve: check when legal, otherwise fold.
	check := Action{PlayerID: actorID, Type: Check}
	if e.hand.betting.Validate(check) == nil {
		e.logger.Info("turn timeout, checking", "player", actorID)
		return e.applyAction(check)
	}
	e.logger.Info("turn timeout, folding", "player", actorID)
	return e.applyAction(Action{PlayerID: actorID, Type: Fold, Forced: true})
}

// foldIfLive force-folds a player who still holds live cards; the fold
// is logged like any action so replays reproduce it.
func (e *Engine) foldIfLive(p *Player) error {
	if e.hand == nil || !e.phase.IsBetting() || !p.InHand() {
		return nil
	}
	return e.applyAction(Action{PlayerID: p.ID, Type: Fold, Forced: true})
}

func (e *Engine) armTurnTimer() {
	if e.schedule == nil || e.restoring {
		return
	}
	e.timerGen++
	gen := e.timerGen
	e.clock.AfterFunc(e.cfg.ActionTimeout, func() {
		e.schedule(TurnTimeoutEvent{Gen: gen})
	})
}

func (e *Engine) emit(ev GameEvent) {
	if e.publish != nil && !e.restoring {
		e.publish(ev)
	}
}

func (e *Engine) contenders() int {
	n := 0
	for _, p := range e.hand.players {
		if p.InHand() {
			n++
		}
	}
	return n
}

// contributionLedger collects each hand player's total contribution and
// the folded set, the inputs to pot construction.
func (e *Engine) contributionLedger() (map[string]int, map[string]bool) {
	contributions := make(map[string]int)
	folded := make(map[string]bool)
	for _, p := range e.hand.players {
		contributions[p.ID] = p.TotalBet
		if !p.InHand() {
			folded[p.ID] = true
		}
	}
	return contributions, folded
}

func (e *Engine) seatNumbers() map[string]int {
	seats := make(map[string]int, len(e.hand.players))
	for _, p := range e.hand.players {
		seats[p.ID] = p.Seat
	}
	return seats
}

func (e *Engine) playerInHandByID(id string) *Player {
	for _, p := range e.hand.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (e *Engine) potSize() int {
	total := 0
	for _, p := range e.hand.players {
		total += p.TotalBet
	}
	return total
}

func copyCards(cards []deck.Card) []deck.Card {
	out := make([]deck.Card, len(cards))
	copy(out, cards)
	return out
}
