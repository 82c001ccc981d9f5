// Package ranking derives the dense rank order of parks from their scores.
//
// Ordering: elo DESC, then id ASC. Ranks are 1-based and dense, so after a
// vote settles they form a permutation of 1..N.
package ranking

import (
	"fmt"
	"sort"

	"github.com/okian/parkrank/internal/domain/model"
)

// Placement is the rank a park should hold.
type Placement struct {
	ParkID int64
	Elo    int
	Rank   int
}

// Less reports whether (aElo, aID) ranks ahead of (bElo, bID).
func Less(aElo int, aID int64, bElo int, bID int64) bool {
	if aElo != bElo {
		return aElo > bElo
	}
	return aID < bID
}

// Sort orders parks in place by rank order.
func Sort(parks []model.Park) {
	sort.Slice(parks, func(i, j int) bool {
		return Less(parks[i].Elo, parks[i].ID, parks[j].Elo, parks[j].ID)
	})
}

// Reassign returns a placement for every park in ordered whose 1-based
// position differs from its stored rank.
func Reassign(ordered []model.Park) []Placement {
	var out []Placement
	for i, p := range ordered {
		if p.Rank != i+1 {
			out = append(out, Placement{ParkID: p.ID, Elo: p.Elo, Rank: i + 1})
		}
	}
	return out
}

// Placements returns a placement for every park in ordered.
func Placements(ordered []model.Park) []Placement {
	out := make([]Placement, len(ordered))
	for i, p := range ordered {
		out[i] = Placement{ParkID: p.ID, Elo: p.Elo, Rank: i + 1}
	}
	return out
}

// Verify checks that parks, in any order, carry dense ranks 1..N consistent
// with rank order. It returns ErrInconsistent describing the first violation.
func Verify(parks []model.Park) error {
	ordered := make([]model.Park, len(parks))
	copy(ordered, parks)
	Sort(ordered)

	seen := make(map[int]int64, len(ordered))
	for i, p := range ordered {
		if prev, dup := seen[p.Rank]; dup {
			return fmt.Errorf("%w: rank %d held by parks %d and %d", ErrInconsistent, p.Rank, prev, p.ID)
		}
		seen[p.Rank] = p.ID
		if p.Rank != i+1 {
			return fmt.Errorf("%w: park %d (elo %d) has rank %d, want %d", ErrInconsistent, p.ID, p.Elo, p.Rank, i+1)
		}
	}
	return nil
}
