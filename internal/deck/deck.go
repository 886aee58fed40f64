package deck

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// Source provides random integers for shuffling. Injected so tests can
// supply a deterministic sequence.
type Source interface {
	Intn(n int) int
}

// cryptoSource draws unbiased integers from crypto/rand.
type cryptoSource struct{}

// Intn returns a uniform integer in [0, n) using rejection sampling to
// discard the biased remainder of the 64-bit draw.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("deck: Intn called with non-positive n")
	}
	max := uint64(n)
	limit := ^uint64(0) - (^uint64(0) % max)
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic("deck: crypto/rand failed: " + err.Error())
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v < limit {
			return int(v % max)
		}
	}
}

// CryptoSource returns a Source backed by crypto/rand.
func CryptoSource() Source {
	return cryptoSource{}
}

// New builds an unshuffled 52-card deck as the Cartesian product of
// suits and ranks.
func New() []Card {
	cards := make([]Card, 0, 52)
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// Shuffle performs a Fisher-Yates pass over cards using src and returns
// a new slice. The input is not modified.
func Shuffle(cards []Card, src Source) []Card {
	shuffled := make([]Card, len(cards))
	copy(shuffled, cards)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// NewShuffled builds a fresh 52-card deck shuffled with src. A nil src
// uses crypto/rand.
func NewShuffled(src Source) []Card {
	if src == nil {
		src = cryptoSource{}
	}
	return Shuffle(New(), src)
}

// Deal removes n cards from the front of cards, returning the dealt
// cards and the remainder. Errors if fewer than n cards remain.
func Deal(cards []Card, n int) (dealt, remaining []Card, err error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("cannot deal %d cards", n)
	}
	if n > len(cards) {
		return nil, nil, fmt.Errorf("cannot deal %d cards, only %d remain", n, len(cards))
	}
	return cards[:n], cards[n:], nil
}

// DealHoleCards deals two hole cards to each of numPlayers round-robin:
// player i receives slots i and i+numPlayers.
func DealHoleCards(cards []Card, numPlayers int) (hands [][]Card, remaining []Card, err error) {
	if numPlayers < 1 {
		return nil, nil, fmt.Errorf("cannot deal hole cards to %d players", numPlayers)
	}
	dealt, remaining, err := Deal(cards, numPlayers*2)
	if err != nil {
		return nil, nil, err
	}
	hands = make([][]Card, numPlayers)
	for i := 0; i < numPlayers; i++ {
		hands[i] = []Card{dealt[i], dealt[i+numPlayers]}
	}
	return hands, remaining, nil
}

// DealCommunity burns one card then deals n community cards
// (flop n=3, turn n=1, river n=1).
func DealCommunity(cards []Card, n int) (community, remaining []Card, err error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("cannot deal %d cards", n)
	}
	if len(cards) < n+1 {
		return nil, nil, fmt.Errorf("cannot burn and deal %d cards, only %d remain", n, len(cards))
	}
	_, afterBurn, err := Deal(cards, 1)
	if err != nil {
		return nil, nil, err
	}
	return afterBurn[:n], afterBurn[n:], nil
}
