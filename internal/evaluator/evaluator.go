package evaluator

import (
	"fmt"
	"sort"

	"github.com/tablerock/holdem/internal/deck"
)

// Category is the rank class of a 5-card poker hand, ordered weakest to
// strongest.
type Category int

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the display name of the category
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandValue is a single comparable strength value; higher is better.
// Layout: category in the high bits, then five 4-bit tiebreak rank
// nibbles in descending significance. Two hands with the same rank
// multiset always produce the same value.
type HandValue uint32

// Result describes the best 5-card hand found in the input.
type Result struct {
	Category    Category
	Value       HandValue
	Best        []deck.Card
	Description string
}

// Evaluate finds the best 5-card hand among 5 to 7 cards by scoring
// every 5-card combination.
func Evaluate(cards []deck.Card) (Result, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return Result{}, fmt.Errorf("evaluate requires 5-7 cards, got %d", len(cards))
	}
	seen := make(map[deck.Card]bool, len(cards))
	for _, c := range cards {
		if seen[c] {
			return Result{}, fmt.Errorf("duplicate card %s", c)
		}
		seen[c] = true
	}

	var best Result
	forEachCombination(len(cards), func(idx [5]int) {
		combo := [5]deck.Card{cards[idx[0]], cards[idx[1]], cards[idx[2]], cards[idx[3]], cards[idx[4]]}
		r := evaluate5(combo)
		if r.Value > best.Value || best.Best == nil {
			best = r
		}
	})
	return best, nil
}

// Compare returns -1 if a is weaker than b, 0 if equal, 1 if stronger.
func Compare(a, b Result) int {
	switch {
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	default:
		return 0
	}
}

// WinnerTiers groups players into descending tiers of equal hand
// strength; players tied on value share a tier. Tier members are sorted
// by ID for deterministic output.
func WinnerTiers(results map[string]Result) [][]string {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		vi, vj := results[ids[i]].Value, results[ids[j]].Value
		if vi != vj {
			return vi > vj
		}
		return ids[i] < ids[j]
	})

	var tiers [][]string
	for _, id := range ids {
		n := len(tiers)
		if n > 0 && results[tiers[n-1][0]].Value == results[id].Value {
			tiers[n-1] = append(tiers[n-1], id)
			continue
		}
		tiers = append(tiers, []string{id})
	}
	return tiers
}

// forEachCombination invokes fn with every 5-element index combination
// of [0, n).
func forEachCombination(n int, fn func([5]int)) {
	var idx [5]int
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						idx[0], idx[1], idx[2], idx[3], idx[4] = a, b, c, d, e
						fn(idx)
					}
				}
			}
		}
	}
}

// evaluate5 scores exactly five cards.
func evaluate5(cards [5]deck.Card) Result {
	counts := make(map[deck.Rank]int, 5)
	flush := true
	for i, c := range cards {
		counts[c.Rank]++
		if i > 0 && c.Suit != cards[0].Suit {
			flush = false
		}
	}

	// Distinct ranks ordered by count desc, then rank desc: the
	// significance order for kicker comparison.
	ranks := make([]deck.Rank, 0, 5)
	for r := range counts {
		ranks = append(ranks, r)
	}
	sort.Slice(ranks, func(i, j int) bool {
		if counts[ranks[i]] != counts[ranks[j]] {
			return counts[ranks[i]] > counts[ranks[j]]
		}
		return ranks[i] > ranks[j]
	})

	straightHigh, isStraight := straightHighCard(ranks)

	best := make([]deck.Card, 5)
	copy(best, cards[:])
	sortCards(best)

	switch {
	case isStraight && flush:
		if straightHigh == deck.Ace {
			return Result{RoyalFlush, packValue(RoyalFlush, straightHigh), best, "Royal Flush"}
		}
		return Result{StraightFlush, packValue(StraightFlush, straightHigh), best,
			fmt.Sprintf("Straight Flush, %s high", rankNoun(straightHigh))}

	case counts[ranks[0]] == 4:
		return Result{FourOfAKind, packValue(FourOfAKind, ranks...), best,
			fmt.Sprintf("Four of a Kind, %s", rankPlural(ranks[0]))}

	case counts[ranks[0]] == 3 && counts[ranks[1]] >= 2:
		return Result{FullHouse, packValue(FullHouse, ranks...), best,
			fmt.Sprintf("Full House, %s full of %s", rankPlural(ranks[0]), rankPlural(ranks[1]))}

	case flush:
		return Result{Flush, packValue(Flush, ranks...), best,
			fmt.Sprintf("Flush, %s high", rankNoun(ranks[0]))}

	case isStraight:
		return Result{Straight, packValue(Straight, straightHigh), best,
			fmt.Sprintf("Straight, %s high", rankNoun(straightHigh))}

	case counts[ranks[0]] == 3:
		return Result{ThreeOfAKind, packValue(ThreeOfAKind, ranks...), best,
			fmt.Sprintf("Three of a Kind, %s", rankPlural(ranks[0]))}

	case counts[ranks[0]] == 2 && counts[ranks[1]] == 2:
		return Result{TwoPair, packValue(TwoPair, ranks...), best,
			fmt.Sprintf("Two Pair, %s and %s", rankPlural(ranks[0]), rankPlural(ranks[1]))}

	case counts[ranks[0]] == 2:
		return Result{Pair, packValue(Pair, ranks...), best,
			fmt.Sprintf("Pair of %s", rankPlural(ranks[0]))}

	default:
		return Result{HighCard, packValue(HighCard, ranks...), best,
			fmt.Sprintf("High Card, %s", rankNoun(ranks[0]))}
	}
}

// straightHighCard reports whether the distinct ranks form a straight
// and its high card. The wheel (A-2-3-4-5) plays as a 5-high straight,
// below a 6-high.
func straightHighCard(ranks []deck.Rank) (deck.Rank, bool) {
	if len(ranks) != 5 {
		return 0, false
	}
	sorted := make([]deck.Rank, 5)
	copy(sorted, ranks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	if sorted[0]-sorted[4] == 4 {
		return sorted[0], true
	}
	// Wheel: A,5,4,3,2
	if sorted[0] == deck.Ace && sorted[1] == deck.Five && sorted[1]-sorted[4] == 3 {
		return deck.Five, true
	}
	return 0, false
}

// packValue composes category plus up to five significance-ordered rank
// nibbles into a single comparable value.
func packValue(cat Category, ranks ...deck.Rank) HandValue {
	v := HandValue(cat) << 20
	shift := uint(16)
	for _, r := range ranks {
		v |= HandValue(r) << shift
		if shift == 0 {
			break
		}
		shift -= 4
	}
	return v
}

// sortCards orders cards rank-descending (suit breaks ties) so the best
// 5 cards come out in a stable display order.
func sortCards(cards []deck.Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Rank != cards[j].Rank {
			return cards[i].Rank > cards[j].Rank
		}
		return cards[i].Suit < cards[j].Suit
	})
}

func rankNoun(r deck.Rank) string {
	switch r {
	case deck.Ace:
		return "Ace"
	case deck.King:
		return "King"
	case deck.Queen:
		return "Queen"
	case deck.Jack:
		return "Jack"
	case deck.Ten:
		return "Ten"
	case deck.Nine:
		return "Nine"
	case deck.Eight:
		return "Eight"
	case deck.Seven:
		return "Seven"
	case deck.Six:
		return "Six"
	case deck.Five:
		return "Five"
	case deck.Four:
		return "Four"
	case deck.Three:
		return "Three"
	case deck.Two:
		return "Two"
	default:
		return "?"
	}
}

func rankPlural(r deck.Rank) string {
	if r == deck.Six {
		return "Sixes"
	}
	return rankNoun(r) + "s"
}
