package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMaxSeats   = 6
	testSmallBlind = 50
	testBigBlind   = 100
)

// seatPlayers builds hand participants at the given seats, each with
// the same starting stack, named after their seat ("p0", "p3", ...).
func seatPlayers(chips int, seats ...int) []*Player {
	players := make([]*Player, len(seats))
	for i, seat := range seats {
		players[i] = &Player{
			ID:     fmt.Sprintf("p%d", seat),
			Seat:   seat,
			Chips:  chips,
			Status: SeatActive,
		}
	}
	return players
}

func newRound(t *testing.T, players []*Player, buttonSeat int, phase Phase) *BettingRound {
	t.Helper()
	br, err := NewBettingRound(players, buttonSeat, testMaxSeats, testSmallBlind, testBigBlind, phase)
	require.NoError(t, err)
	return br
}

func TestHeadsUpDealerPostsSmallBlindAndOpens(t *testing.T) {
	players := seatPlayers(1000, 0, 1)
	br := newRound(t, players, 0, PreFlop)

	blinds := br.PostedBlinds()
	require.Len(t, blinds, 2)
	assert.Equal(t, "p0", blinds[0].PlayerID)
	assert.Equal(t, testSmallBlind, blinds[0].Amount)
	assert.False(t, blinds[0].Big)
	assert.Equal(t, "p1", blinds[1].PlayerID)
	assert.Equal(t, testBigBlind, blinds[1].Amount)
	assert.True(t, blinds[1].Big)

	// The dealer acts first preflop when heads-up.
	assert.Equal(t, "p0", br.ActorID())
}

func TestThreeHandedBlindsAndOpener(t *testing.T) {
	players := seatPlayers(1000, 0, 1, 2)
	br := newRound(t, players, 0, PreFlop)

	blinds := br.PostedBlinds()
	require.Len(t, blinds, 2)
	assert.Equal(t, "p1", blinds[0].PlayerID)
	assert.Equal(t, "p2", blinds[1].PlayerID)

	// Under the gun is the seat after the big blind.
	assert.Equal(t, "p0", br.ActorID())
}

func TestDeadButtonBlindsFallBackClockwise(t *testing.T) {
	// Button rests on vacated seat 2; seats 1 and 3 remain.
	players := seatPlayers(1000, 1, 3)
	br := newRound(t, players, 2, PreFlop)

	blinds := br.PostedBlinds()
	require.Len(t, blinds, 2)
	assert.Equal(t, "p3", blinds[0].PlayerID)
	assert.Equal(t, "p1", blinds[1].PlayerID)
}

func TestPostFlopFirstToActAfterButton(t *testing.T) {
	players := seatPlayers(1000, 0, 2, 4)
	br := newRound(t, players, 4, Flop)

	assert.Equal(t, "p0", br.ActorID())
	assert.Equal(t, 0, br.CurrentBet())
}

func TestBigBlindOption(t *testing.T) {
	players := seatPlayers(1000, 0, 1, 2)
	br := newRound(t, players, 0, PreFlop)

	require.NoError(t, br.Apply(Action{PlayerID: "p0", Type: Call}))
	require.NoError(t, br.Apply(Action{PlayerID: "p1", Type: Call}))

	// Everyone matched the big blind, but the big blind still has the
	// option to raise.
	assert.False(t, br.Complete())
	assert.Equal(t, "p2", br.ActorID())

	require.NoError(t, br.Apply(Action{PlayerID: "p2", Type: Check}))
	assert.True(t, br.Complete())
}

func TestMinimumRaiseTracking(t *testing.T) {
	players := seatPlayers(5000, 0, 1, 2)
	br := newRound(t, players, 0, PreFlop)

	assert.Equal(t, 2*testBigBlind, br.MinRaiseTo())
	assert.ErrorIs(t, br.Apply(Action{PlayerID: "p0", Type: Raise, Amount: 150}), ErrRaiseTooSmall)

	require.NoError(t, br.Apply(Action{PlayerID: "p0", Type: Raise, Amount: 300}))
	assert.Equal(t, 300, br.CurrentBet())
	// Last full raise is now 200, so the next raise must reach 500.
	assert.Equal(t, 500, br.MinRaiseTo())
	assert.ErrorIs(t, br.Apply(Action{PlayerID: "p1", Type: Raise, Amount: 400}), ErrRaiseTooSmall)
}

func TestRaiseTo300ClosesRoundAtThreeHundred(t *testing.T) {
	players := seatPlayers(1000, 0, 1, 2)
	br := newRound(t, players, 0, PreFlop)

	require.NoError(t, br.Apply(Action{PlayerID: "p0", Type: Raise, Amount: 300}))
	require.NoError(t, br.Apply(Action{PlayerID: "p1", Type: Call}))
	require.NoError(t, br.Apply(Action{PlayerID: "p2", Type: Call}))

	assert.True(t, br.Complete())
	assert.Equal(t, 300, br.CurrentBet())
	for _, p := range players {
		assert.Equal(t, 300, p.TotalBet, p.ID)
		assert.Equal(t, 700, p.Chips, p.ID)
	}
}

func TestFullRaiseReopensAction(t *testing.T) {
	players := seatPlayers(5000, 0, 1, 2)
	br := newRound(t, players, 0, PreFlop)

	require.NoError(t, br.Apply(Action{PlayerID: "p0", Type: Call}))
	require.NoError(t, br.Apply(Action{PlayerID: "p1", Type: Raise, Amount: 300}))
	require.NoError(t, br.Apply(Action{PlayerID: "p2", Type: Call}))

	// p0 already acted but faces a full raise and may re-raise.
	assert.False(t, br.Complete())
	assert.Equal(t, "p0", br.ActorID())
	require.NoError(t, br.Apply(Action{PlayerID: "p0", Type: Raise, Amount: 600}))
}

func TestShortAllInDoesNotReopenAction(t *testing.T) {
	players := []*Player{
		{ID: "a", Seat: 0, Chips: 1000, Status: SeatActive},
		{ID: "b", Seat: 1, Chips: 1000, Status: SeatActive},
		{ID: "c", Seat: 2, Chips: 150, Status: SeatActive},
	}
	br := newRound(t, players, 5, Flop)

	require.NoError(t, br.Apply(Action{PlayerID: "a", Type: Raise, Amount: 100}))
	require.NoError(t, br.Apply(Action{PlayerID: "b", Type: Call}))
	// 150 total is a raise of 50, below the last full raise of 100.
	require.NoError(t, br.Apply(Action{PlayerID: "c", Type: AllIn}))

	assert.Equal(t, 150, br.CurrentBet())
	assert.False(t, br.Complete())

	// a and b already acted at the 100 level: call or fold only.
	assert.ErrorIs(t, br.Apply(Action{PlayerID: "a", Type: Raise, Amount: 300}), ErrRaiseClosed)
	assert.ErrorIs(t, br.Apply(Action{PlayerID: "a", Type: AllIn}), ErrRaiseClosed)
	require.NoError(t, br.Apply(Action{PlayerID: "a", Type: Call}))
	require.NoError(t, br.Apply(Action{PlayerID: "b", Type: Call}))
	assert.True(t, br.Complete())
}

func TestFullRaiseAllInReopensAction(t *testing.T) {
	players := []*Player{
		{ID: "a", Seat: 0, Chips: 1000, Status: SeatActive},
		{ID: "b", Seat: 1, Chips: 250, Status: SeatActive},
	}
	br := newRound(t, players, 5, Flop)

	require.NoError(t, br.Apply(Action{PlayerID: "a", Type: Raise, Amount: 100}))
	// 250 total is a raise of 150, at least the last full raise of 100.
	require.NoError(t, br.Apply(Action{PlayerID: "b", Type: AllIn}))

	assert.Equal(t, 250, br.CurrentBet())
	assert.Equal(t, "a", br.ActorID())
	// The all-in was a full raise, so a may re-raise.
	require.NoError(t, br.Apply(Action{PlayerID: "a", Type: Raise, Amount: 400}))
}

func TestShortStackRaiseOnlyAsAllIn(t *testing.T) {
	players := []*Player{
		{ID: "a", Seat: 0, Chips: 1000, Status: SeatActive},
		{ID: "b", Seat: 1, Chips: 130, Status: SeatActive},
	}
	br := newRound(t, players, 5, Flop)

	require.NoError(t, br.Apply(Action{PlayerID: "a", Type: Raise, Amount: 100}))

	// A short raise target below the stack maximum is rejected, but the
	// same amount as an exact all-in is legal.
	assert.ErrorIs(t, br.Apply(Action{PlayerID: "b", Type: Raise, Amount: 120}), ErrRaiseTooSmall)
	require.NoError(t, br.Apply(Action{PlayerID: "b", Type: Raise, Amount: 130}))
	assert.True(t, players[1].AllIn)
}

func TestCallEntireStackRequiresAllIn(t *testing.T) {
	players := []*Player{
		{ID: "a", Seat: 0, Chips: 1000, Status: SeatActive},
		{ID: "b", Seat: 1, Chips: 200, Status: SeatActive},
	}
	br := newRound(t, players, 5, Flop)

	require.NoError(t, br.Apply(Action{PlayerID: "a", Type: Raise, Amount: 200}))
	assert.ErrorIs(t, br.Apply(Action{PlayerID: "b", Type: Call}), ErrCannotCall)
	require.NoError(t, br.Apply(Action{PlayerID: "b", Type: AllIn}))
	assert.True(t, players[1].AllIn)
	assert.Equal(t, 0, players[1].Chips)
}

func TestCheckWithOutstandingBet(t *testing.T) {
	players := seatPlayers(1000, 0, 1)
	br := newRound(t, players, 0, PreFlop)

	assert.ErrorIs(t, br.Apply(Action{PlayerID: "p0", Type: Check}), ErrCannotCheck)
	assert.ErrorIs(t, br.Apply(Action{PlayerID: "p1", Type: Check}), ErrNotYourTurn)
}

func TestActionOutOfTurn(t *testing.T) {
	players := seatPlayers(1000, 0, 1, 2)
	br := newRound(t, players, 0, PreFlop)

	assert.ErrorIs(t, br.Apply(Action{PlayerID: "p1", Type: Call}), ErrNotYourTurn)
	assert.ErrorIs(t, br.Apply(Action{PlayerID: "stranger", Type: Fold}), ErrNotInHand)
}

func TestForcedFoldOutOfTurn(t *testing.T) {
	players := seatPlayers(1000, 0, 1, 2)
	br := newRound(t, players, 0, PreFlop)

	// p1 is not the actor, but a forced fold skips the turn check.
	require.NoError(t, br.Apply(Action{PlayerID: "p1", Type: Fold, Forced: true}))
	assert.True(t, players[1].Folded)
	assert.Nil(t, players[1].HoleCards)
	assert.ErrorIs(t, br.Apply(Action{PlayerID: "p1", Type: Fold, Forced: true}), ErrNotInHand)

	// The live action continues where it was.
	assert.Equal(t, "p0", br.ActorID())
}

func TestFoldToOneClosesRound(t *testing.T) {
	players := seatPlayers(1000, 0, 1, 2)
	br := newRound(t, players, 0, PreFlop)

	require.NoError(t, br.Apply(Action{PlayerID: "p0", Type: Fold}))
	require.NoError(t, br.Apply(Action{PlayerID: "p1", Type: Fold}))
	assert.True(t, br.Complete())
	assert.Equal(t, "", br.ActorID())
}

func TestPartialBlindPostsAllIn(t *testing.T) {
	players := []*Player{
		{ID: "a", Seat: 0, Chips: 1000, Status: SeatActive},
		{ID: "b", Seat: 1, Chips: 1000, Status: SeatActive},
		{ID: "c", Seat: 2, Chips: 40, Status: SeatActive},
	}
	br := newRound(t, players, 0, PreFlop)

	blinds := br.PostedBlinds()
	require.Len(t, blinds, 2)
	assert.Equal(t, "c", blinds[1].PlayerID)
	assert.Equal(t, 40, blinds[1].Amount)
	assert.True(t, blinds[1].AllIn)
	assert.True(t, players[2].AllIn)

	// The table owes the full big blind regardless of the short post.
	assert.Equal(t, testBigBlind, br.CurrentBet())
}

func TestZeroStackPlayerIsAllInFromDeal(t *testing.T) {
	players := []*Player{
		{ID: "a", Seat: 0, Chips: 1000, Status: SeatActive},
		{ID: "b", Seat: 1, Chips: 1000, Status: SeatActive},
		{ID: "c", Seat: 2, Chips: 0, Status: SeatActive},
	}
	br := newRound(t, players, 2, PreFlop)

	assert.True(t, players[2].AllIn)
	require.NoError(t, br.Apply(Action{PlayerID: "a", Type: Call}))
	require.NoError(t, br.Apply(Action{PlayerID: "b", Type: Check}))
	assert.True(t, br.Complete())
}

func TestNegativeRaiseAmount(t *testing.T) {
	players := seatPlayers(1000, 0, 1)
	br := newRound(t, players, 0, PreFlop)

	assert.ErrorIs(t, br.Apply(Action{PlayerID: "p0", Type: Raise, Amount: -50}), ErrInvalidAmount)
}

func TestRaiseBeyondStack(t *testing.T) {
	players := seatPlayers(1000, 0, 1)
	br := newRound(t, players, 0, PreFlop)

	assert.ErrorIs(t, br.Apply(Action{PlayerID: "p0", Type: Raise, Amount: 1200}), ErrRaiseTooLarge)
}

func TestAvailableActionsFacingBet(t *testing.T) {
	players := seatPlayers(1000, 0, 1, 2)
	br := newRound(t, players, 0, PreFlop)

	actions := br.AvailableActions("p0")
	types := make(map[ActionType]AvailableAction, len(actions))
	for _, a := range actions {
		types[a.Type] = a
	}

	assert.Contains(t, types, Fold)
	assert.NotContains(t, types, Check)
	require.Contains(t, types, Call)
	assert.Equal(t, testBigBlind, types[Call].Min)
	require.Contains(t, types, Raise)
	assert.Equal(t, 2*testBigBlind, types[Raise].Min)
	assert.Equal(t, 1000, types[Raise].Max)
	require.Contains(t, types, AllIn)
	assert.Equal(t, 1000, types[AllIn].Min)
}

func TestBetsRequireTwoInHand(t *testing.T) {
	players := seatPlayers(1000, 0, 1)
	players[1].Folded = true
	_, err := NewBettingRound(players, 0, testMaxSeats, testSmallBlind, testBigBlind, Flop)
	assert.Error(t, err)

	_, err = NewBettingRound(seatPlayers(1000, 0, 1), 0, testMaxSeats, testSmallBlind, testBigBlind, Showdown)
	assert.Error(t, err)
}
