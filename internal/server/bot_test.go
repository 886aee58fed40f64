package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablerock/holdem/internal/game"
)

func botView(actorID string, toCall int, legal ...game.ActionType) game.View {
	view := game.View{
		ActiveSeat: 2,
		ToCall:     toCall,
		Players: []game.PlayerView{
			{ID: "someone-else", Seat: 0},
			{ID: actorID, Seat: 2},
		},
	}
	for _, t := range legal {
		view.LegalActions = append(view.LegalActions, game.AvailableAction{Type: t})
	}
	return view
}

func TestBotAdvisorRejectsUnknownStrategy(t *testing.T) {
	advisor := newBotAdvisor()
	assert.Error(t, advisor.addBot("bot1", "bluff"))
	assert.NoError(t, advisor.addBot("bot1", StrategyCall))
	assert.NoError(t, advisor.addBot("bot2", StrategyFold))
}

func TestCallBotCallsBets(t *testing.T) {
	advisor := newBotAdvisor()
	require.NoError(t, advisor.addBot("bot1", StrategyCall))

	act := advisor.Decide(botView("bot1", 100, game.Fold, game.Call, game.Raise))
	assert.Equal(t, game.Call, act.Type)
}

func TestCallBotShovesWhenCallCovered(t *testing.T) {
	advisor := newBotAdvisor()
	require.NoError(t, advisor.addBot("bot1", StrategyCall))

	// Facing a bet larger than its stack: calling is off the menu and
	// the only way to continue is all-in.
	act := advisor.Decide(botView("bot1", 500, game.Fold, game.AllIn))
	assert.Equal(t, game.AllIn, act.Type)
}

func TestCallBotChecksWhenFree(t *testing.T) {
	advisor := newBotAdvisor()
	require.NoError(t, advisor.addBot("bot1", StrategyCall))

	act := advisor.Decide(botView("bot1", 0, game.Check, game.Raise, game.AllIn))
	assert.Equal(t, game.Check, act.Type)
}

func TestFoldBotSurrendersToBets(t *testing.T) {
	advisor := newBotAdvisor()
	require.NoError(t, advisor.addBot("bot1", StrategyFold))

	act := advisor.Decide(botView("bot1", 100, game.Fold, game.Call, game.Raise))
	assert.Equal(t, game.Fold, act.Type)
}

func TestFoldBotStillChecksForFree(t *testing.T) {
	advisor := newBotAdvisor()
	require.NoError(t, advisor.addBot("bot1", StrategyFold))

	act := advisor.Decide(botView("bot1", 0, game.Check, game.Raise))
	assert.Equal(t, game.Check, act.Type)
}

func TestUnregisteredActorFoldsUnderPressure(t *testing.T) {
	advisor := newBotAdvisor()

	act := advisor.Decide(botView("stranger", 100, game.Fold, game.Call))
	assert.Equal(t, game.Fold, act.Type)
}
