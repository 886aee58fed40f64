package game

// PlayerView is the public slice of one seat. Hole cards never appear
// here; HasCards only says the seat is still live in the hand.
type PlayerView struct {
	ID       string `json:"id"`
	Seat     int    `json:"seat"`
	Chips    int    `json:"chips"`
	Bet      int    `json:"bet"`
	TotalBet int    `json:"totalBet"`
	Status   string `json:"status"`
	HasCards bool   `json:"hasCards"`
}

// View is one viewer's rendering of the table: public state for
// everyone plus a private overlay (own hole cards, legal actions) when
// the viewer is seated. Each viewer gets their own copy.
type View struct {
	TableID        string       `json:"tableId"`
	Phase          string       `json:"phase"`
	HandNumber     uint64       `json:"handNumber"`
	Seq            uint64       `json:"seq"`
	ButtonSeat     int          `json:"buttonSeat"`
	ActiveSeat     int          `json:"activeSeat"`
	CommunityCards []string     `json:"communityCards"`
	Pot            int          `json:"pot"`
	Pots           []SidePot    `json:"pots,omitempty"`
	CurrentBet     int          `json:"currentBet"`
	MinRaiseTo     int          `json:"minRaiseTo,omitempty"`
	SmallBlind     int          `json:"smallBlind"`
	BigBlind       int          `json:"bigBlind"`
	Players        []PlayerView `json:"players"`

	HoleCards    []string          `json:"holeCards,omitempty"`
	ToCall       int               `json:"toCall,omitempty"`
	LegalActions []AvailableAction `json:"legalActions,omitempty"`
}

// ViewFor renders the table for one viewer. An empty viewerID yields
// the spectator view.
func (e *Engine) ViewFor(viewerID string) View {
	v := View{
		TableID:    e.id,
		Phase:      e.phase.String(),
		HandNumber: e.handNum,
		Seq:        e.seq,
		ButtonSeat: e.table.ButtonSeat(),
		ActiveSeat: -1,
		SmallBlind: e.cfg.SmallBlind,
		BigBlind:   e.cfg.BigBlind,
	}

	for _, p := range e.table.SeatedPlayers() {
		v.Players = append(v.Players, PlayerView{
			ID:       p.ID,
			Seat:     p.Seat,
			Chips:    p.Chips,
			Bet:      p.Bet,
			TotalBet: p.TotalBet,
			Status:   p.StatusLabel(),
			HasCards: p.InHand(),
		})
	}

	if e.hand == nil {
		return v
	}

	v.Pot = e.potSize()
	for _, c := range e.hand.board {
		v.CommunityCards = append(v.CommunityCards, c.String())
	}
	contributions, folded := e.contributionLedger()
	v.Pots = BuildPots(contributions, folded)

	br := e.hand.betting
	if e.phase.IsBetting() {
		v.CurrentBet = br.CurrentBet()
		v.ActiveSeat = br.ActorSeat()
	}

	if viewer := e.playerInHandByID(viewerID); viewer != nil && viewer.InHand() {
		for _, c := range viewer.HoleCards {
			v.HoleCards = append(v.HoleCards, c.String())
		}
		if e.phase.IsBetting() && br.ActorID() == viewerID {
			v.LegalActions = br.AvailableActions(viewerID)
			if toCall := br.CurrentBet() - viewer.Bet; toCall > 0 {
				v.ToCall = toCall
			}
			v.MinRaiseTo = br.MinRaiseTo()
		}
	}
	return v
}
