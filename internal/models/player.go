// internal/models/player.go
package models

import (
	"encoding/json"
	"fmt"
)

// Verdict is a player's answer to "do you accept the winning statement?".
// VerdictUnset means the player has not answered yet this round.
type Verdict int

const (
	VerdictUnset Verdict = iota
	VerdictLiked
	VerdictDisliked
)

// VerdictFromBool converts a submitted likes_winner flag into a Verdict.
func VerdictFromBool(likes bool) Verdict {
	if likes {
		return VerdictLiked
	}
	return VerdictDisliked
}

func (v Verdict) String() string {
	switch v {
	case VerdictLiked:
		return "liked"
	case VerdictDisliked:
		return "disliked"
	default:
		return "unset"
	}
}

// MarshalJSON encodes the verdict the way clients expect likes_winner: null, true or false.
func (v Verdict) MarshalJSON() ([]byte, error) {
	switch v {
	case VerdictLiked:
		return []byte("true"), nil
	case VerdictDisliked:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("likes_winner must be a boolean or null: %w", err)
	}
	if b == nil {
		*v = VerdictUnset
		return nil
	}
	*v = VerdictFromBool(*b)
	return nil
}

// Player is one participant of a lobby together with their submissions for the current round.
type Player struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Response    string  `json:"response"`
	Ranking     []int   `json:"ranking"`
	Feedback    string  `json:"feedback"`
	LikesWinner Verdict `json:"likes_winner"`
}

// NewPlayer returns a player with no submissions.
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:      id,
		Name:    name,
		Ranking: []int{},
	}
}

// HasResponded reports whether the player submitted a response.
func (p *Player) HasResponded() bool {
	return p.Response != ""
}

// HasRanked reports whether the player's ranking is a complete permutation of n statements.
func (p *Player) HasRanked(n int) bool {
	return IsPermutation(p.Ranking, n)
}

// HasJudged reports whether the player submitted a verdict on the winner.
func (p *Player) HasJudged() bool {
	return p.LikesWinner != VerdictUnset
}

// ResetRound clears ranking and feedback for a new ranking round. The response is kept.
func (p *Player) ResetRound() {
	p.Ranking = []int{}
	p.Feedback = ""
	p.LikesWinner = VerdictUnset
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	cp := *p
	cp.Ranking = append([]int{}, p.Ranking...)
	return &cp
}

// IsPermutation reports whether ranking holds each index 0..n-1 exactly once.
func IsPermutation(ranking []int, n int) bool {
	if n == 0 || len(ranking) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range ranking {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}
