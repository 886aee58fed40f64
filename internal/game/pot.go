package game

import "sort"

// SidePot is one pot band with the players eligible to win it.
type SidePot struct {
	Amount   int      `json:"amount"`
	Eligible []string `json:"eligible"`
}

// BuildPots converts the per-player total contributions for a hand plus
// the folded set into main/side pots. Pots are recomputed from the full
// ledger each time, never mutated incrementally. For each distinct
// contribution threshold, ascending, the band amount is
// (threshold - previous) x contributors at or above it; eligibility is
// those contributors minus folded players. Bands with no eligible
// winner or no chips are dropped.
func BuildPots(contributions map[string]int, folded map[string]bool) []SidePot {
	thresholds := make([]int, 0, len(contributions))
	seen := make(map[int]bool)
	for _, c := range contributions {
		if c > 0 && !seen[c] {
			seen[c] = true
			thresholds = append(thresholds, c)
		}
	}
	sort.Ints(thresholds)

	var pots []SidePot
	prev := 0
	for _, threshold := range thresholds {
		band := threshold - prev
		amount := 0
		var eligible []string
		for id, c := range contributions {
			if c >= threshold {
				amount += band
				if !folded[id] {
					eligible = append(eligible, id)
				}
			}
		}
		sort.Strings(eligible)
		if amount > 0 && len(eligible) > 0 {
			pots = append(pots, SidePot{Amount: amount, Eligible: eligible})
		}
		prev = threshold
	}
	return pots
}

// PotTotal sums all pot amounts.
func PotTotal(pots []SidePot) int {
	total := 0
	for _, pot := range pots {
		total += pot.Amount
	}
	return total
}

// DistributePots splits each pot among the members of the strongest
// tier eligible for it. Remainder chips that do not divide evenly are
// assigned one-by-one in seat order clockwise from the seat after the
// dealer button.
func DistributePots(pots []SidePot, tiers [][]string, seats map[string]int, buttonSeat, maxSeats int) map[string]int {
	payouts := make(map[string]int)

	for _, pot := range pots {
		eligible := make(map[string]bool, len(pot.Eligible))
		for _, id := range pot.Eligible {
			eligible[id] = true
		}

		var winners []string
		for _, tier := range tiers {
			for _, id := range tier {
				if eligible[id] {
					winners = append(winners, id)
				}
			}
			if len(winners) > 0 {
				break
			}
		}
		if len(winners) == 0 {
			continue
		}

		// Clockwise from the button's left for odd-chip assignment.
		sort.Slice(winners, func(a, b int) bool {
			da := ((seats[winners[a]]-buttonSeat-1)%maxSeats + maxSeats) % maxSeats
			db := ((seats[winners[b]]-buttonSeat-1)%maxSeats + maxSeats) % maxSeats
			return da < db
		})

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		for i, id := range winners {
			payouts[id] += share
			if i < remainder {
				payouts[id]++
			}
		}
	}
	return payouts
}
