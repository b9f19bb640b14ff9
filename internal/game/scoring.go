// internal/game/scoring.go
package game

import "github.com/jason-s-yu/habermas/internal/models"

// ScoreRankings runs a Borda count over the players' rankings of statementCount statements.
// Rank position i (0 = most preferred) is worth statementCount-i points. Rankings that are
// not a complete permutation contribute nothing. The winner is the highest score, ties going
// to the lowest statement index; winner is -1 when there are no statements.
func ScoreRankings(statementCount int, players []*models.Player) (scores []int, winner int) {
	scores = make([]int, statementCount)
	for _, p := range players {
		if !p.HasRanked(statementCount) {
			continue
		}
		for pos, idx := range p.Ranking {
			scores[idx] += statementCount - pos
		}
	}

	winner = -1
	for idx, score := range scores {
		if winner == -1 || score > scores[winner] {
			winner = idx
		}
	}
	return scores, winner
}
