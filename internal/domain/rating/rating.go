// Package rating implements the pairwise Elo update used to score votes.
package rating

import "math"

// Rating engine defaults.
const (
	DefaultKFactor = 32.0
	InitialRating  = 1500
	scale          = 400.0
)

// Expected returns the probability that a player rated a beats one rated b.
func Expected(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/scale))
}

// Update returns the new winner and loser ratings, rounded half away from zero.
func Update(winner, loser int, k float64) (int, int) {
	w := float64(winner) + k*(1-Expected(winner, loser))
	l := float64(loser) + k*(0-Expected(loser, winner))
	return int(math.Round(w)), int(math.Round(l))
}

// Outcome holds both sides of one applied vote.
type Outcome struct {
	WinnerBefore int
	WinnerAfter  int
	LoserBefore  int
	LoserAfter   int
}

// WinnerDelta is the points the winner gained.
func (o Outcome) WinnerDelta() int { return o.WinnerAfter - o.WinnerBefore }

// LoserDelta is the (non-positive) change of the loser.
func (o Outcome) LoserDelta() int { return o.LoserAfter - o.LoserBefore }

// Engine applies Update with a configured K-factor.
type Engine struct {
	k float64
}

// NewEngine creates an Engine; K defaults to DefaultKFactor.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{k: DefaultKFactor}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// KFactor returns the configured K-factor.
func (e *Engine) KFactor() float64 { return e.k }

// Apply rates a single outcome.
func (e *Engine) Apply(winner, loser int) Outcome {
	w, l := Update(winner, loser, e.k)
	return Outcome{WinnerBefore: winner, WinnerAfter: w, LoserBefore: loser, LoserAfter: l}
}
