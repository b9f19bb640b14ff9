// internal/game/consensus.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/habermas/internal/models"
)

// StatementCount is the number of consensus statements produced per round.
const StatementCount = 3

// statementPreviewRunes bounds how much of a response is quoted in a placeholder statement.
const statementPreviewRunes = 50

// DefaultStatements are used when nobody has responded or a generator returns nothing.
var DefaultStatements = []string{
	"Consensus Statement 1: Default statement",
	"Consensus Statement 2: Alternative approach",
	"Consensus Statement 3: Balanced perspective",
}

// StatementGenerator turns player responses into candidate consensus statements.
// It is called once per transition into the rank phase. prior is a read-only copy
// of the lobby, including last round's feedback when a round is being retried.
type StatementGenerator interface {
	Generate(responses []string, prior *models.Lobby) []string
}

// GeneratorFunc adapts a plain function to StatementGenerator.
type GeneratorFunc func(responses []string, prior *models.Lobby) []string

func (f GeneratorFunc) Generate(responses []string, prior *models.Lobby) []string {
	return f(responses, prior)
}

// PlaceholderGenerator is a deterministic stand-in for a model-backed generator.
type PlaceholderGenerator struct{}

func (PlaceholderGenerator) Generate(responses []string, _ *models.Lobby) []string {
	if len(responses) == 0 {
		return append([]string{}, DefaultStatements...)
	}
	return []string{
		fmt.Sprintf("Consensus Statement 1: %s...", truncateRunes(responses[0], statementPreviewRunes)),
		fmt.Sprintf("Consensus Statement 2: %s...", truncateRunes(responses[len(responses)-1], statementPreviewRunes)),
		"Consensus Statement 3: A balanced approach considering all perspectives",
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
