package server

import (
	"fmt"

	"github.com/tablerock/holdem/internal/game"
)

// Valid bot strategies.
const (
	StrategyCall = "call" // match any bet, all-in if it must
	StrategyFold = "fold" // check when free, surrender to any bet
)

// botAdvisor gives configured house bots a deterministic decision when
// their action timer fires. One advisor serves a whole table, keyed by
// the acting player's configured strategy. Strategies stay passive on
// purpose; the interesting opponents connect over the wire.
type botAdvisor struct {
	strategies map[string]string // playerID -> strategy
}

func newBotAdvisor() *botAdvisor {
	return &botAdvisor{strategies: make(map[string]string)}
}

func (b *botAdvisor) addBot(playerID, strategy string) error {
	switch strategy {
	case StrategyCall, StrategyFold:
		b.strategies[playerID] = strategy
		return nil
	default:
		return fmt.Errorf("unknown bot strategy %q", strategy)
	}
}

func (b *botAdvisor) Decide(view game.View) game.Action {
	var actorID string
	for _, p := range view.Players {
		if p.Seat == view.ActiveSeat {
			actorID = p.ID
		}
	}

	legal := make(map[game.ActionType]bool, len(view.LegalActions))
	for _, a := range view.LegalActions {
		legal[a.Type] = true
	}

	if b.strategies[actorID] == StrategyCall {
		if legal[game.Call] {
			return game.Action{Type: game.Call}
		}
		if view.ToCall > 0 && legal[game.AllIn] {
			return game.Action{Type: game.AllIn}
		}
	}
	if legal[game.Check] {
		return game.Action{Type: game.Check}
	}
	return game.Action{Type: game.Fold}
}
