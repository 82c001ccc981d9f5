// Package model contains domain models passed between layers.
package model

import "time"

// Park is a rankable national park. JSON keys follow the web client.
type Park struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	State        string  `json:"state"`
	ImageURL     string  `json:"imageUrl"`
	Icon         string  `json:"icon"`
	Established  *string `json:"established"`
	Elo          int     `json:"elo"`
	PreviousElo  *int    `json:"previousElo"`
	Rank         int     `json:"rank"`
	PreviousRank *int    `json:"previousRank"`
}

// RankChange returns how many places the park moved up since its previous
// rank; negative when it dropped, 0 when it has no history.
func (p Park) RankChange() int {
	if p.PreviousRank == nil {
		return 0
	}
	return *p.PreviousRank - p.Rank
}

// EloChange returns elo - previousElo, 0 when there is no previous score.
func (p Park) EloChange() int {
	if p.PreviousElo == nil {
		return 0
	}
	return p.Elo - *p.PreviousElo
}

// NewPark is the insert shape used by seeding.
type NewPark struct {
	Name        string  `json:"name" toml:"name"`
	Description string  `json:"description" toml:"description"`
	State       string  `json:"state" toml:"state"`
	ImageURL    string  `json:"imageUrl" toml:"image_url"`
	Icon        string  `json:"icon" toml:"icon"`
	Established *string `json:"established,omitempty" toml:"established,omitempty"`
}

// Vote is an immutable ledger record of one head-to-head outcome.
type Vote struct {
	ID              int64     `json:"id"`
	WinnerID        int64     `json:"winnerId"`
	LoserID         int64     `json:"loserId"`
	WinnerEloBefore int       `json:"winnerEloBefore"`
	LoserEloBefore  int       `json:"loserEloBefore"`
	WinnerEloAfter  int       `json:"winnerEloAfter"`
	LoserEloAfter   int       `json:"loserEloAfter"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewVote is a Vote before the ledger assigns its id and timestamp.
type NewVote struct {
	WinnerID        int64
	LoserID         int64
	WinnerEloBefore int
	LoserEloBefore  int
	WinnerEloAfter  int
	LoserEloAfter   int
}

// Ballot is a vote submission.
type Ballot struct {
	WinnerID       int64
	LoserID        int64
	IdempotencyKey string
}

// Validate reports ErrInvalidInput for missing, non-positive or equal ids.
func (b Ballot) Validate() error {
	switch {
	case b.WinnerID <= 0:
		return Invalid("winnerId must be a positive park id")
	case b.LoserID <= 0:
		return Invalid("loserId must be a positive park id")
	case b.WinnerID == b.LoserID:
		return Invalid("winnerId and loserId must differ")
	}
	return nil
}

// Receipt describes a settled vote.
type Receipt struct {
	Vote      Vote
	Winner    Park
	Loser     Park
	RankMoves int
}

// Matchup is a pair of distinct parks to vote on.
type Matchup struct {
	Park1 Park `json:"park1"`
	Park2 Park `json:"park2"`
}
