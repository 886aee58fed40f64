package game

import "errors"

// Validation errors: expected, frequent rejections of illegal client
// input. They never mutate state.
var (
	ErrNotYourTurn     = errors.New("not your turn to act")
	ErrOutOfSequence   = errors.New("action sequence number mismatch")
	ErrNoBettingRound  = errors.New("no betting round in progress")
	ErrCannotCheck     = errors.New("cannot check facing a bet")
	ErrCannotCall      = errors.New("insufficient chips to call, use all-in")
	ErrNothingToCall   = errors.New("nothing to call")
	ErrRaiseTooSmall   = errors.New("raise below minimum raise")
	ErrRaiseTooLarge   = errors.New("raise exceeds available chips")
	ErrRaiseClosed     = errors.New("raising is closed after the short all-in")
	ErrInvalidAmount   = errors.New("amount must be a positive whole number of chips")
	ErrNoChips         = errors.New("no chips remaining")
	ErrNotInHand       = errors.New("player is not in the hand")
	ErrUnknownPlayer   = errors.New("player not seated at this table")
	ErrTableFull       = errors.New("table is full")
	ErrSeatOccupied    = errors.New("seat is occupied")
	ErrSeatOutOfRange  = errors.New("seat index out of range")
	ErrBuyInOutOfRange = errors.New("buy-in outside table limits")
	ErrAlreadySeated   = errors.New("player already seated")
	ErrNotDisconnected = errors.New("player is not disconnected")
	ErrSitInDuringHand = errors.New("sit-in is only permitted between hands")
)

// checkChipAmount guards every money mutation: chip amounts are
// integers and never negative.
func checkChipAmount(amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
