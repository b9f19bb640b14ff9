// internal/database/archive.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/habermas/internal/models"
)

// StatusAbandoned marks an archived lobby that went quiet without finishing.
const StatusAbandoned = "abandoned"

const schema = `
CREATE TABLE IF NOT EXISTS lobbies (
	id               UUID PRIMARY KEY,
	name             TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	current_round    INT NOT NULL DEFAULT 1,
	winner_statement TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	finished_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS lobby_actions (
	lobby_id       UUID NOT NULL REFERENCES lobbies (id) ON DELETE CASCADE,
	action_index   INT NOT NULL,
	actor_id       TEXT NOT NULL,
	action_type    TEXT NOT NULL,
	action_payload JSONB NOT NULL DEFAULT '{}'::jsonb,
	game_phase     TEXT NOT NULL,
	current_round  INT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (lobby_id, action_index)
);
`

// EnsureSchema creates the archive tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertActionTx upserts the lobby row from rec and appends the action. Replayed records
// are skipped, and a lobby row that is already finished or abandoned is not reopened.
func InsertActionTx(ctx context.Context, tx pgx.Tx, rec models.ActionRecord) error {
	upsertLobbyQ := `
		INSERT INTO lobbies (id, name, status, current_round, winner_statement, created_at, updated_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, CASE WHEN $3 = 'finished' THEN $6::timestamptz END)
		ON CONFLICT (id) DO UPDATE SET
			status           = EXCLUDED.status,
			current_round    = EXCLUDED.current_round,
			winner_statement = EXCLUDED.winner_statement,
			updated_at       = EXCLUDED.updated_at,
			finished_at      = EXCLUDED.finished_at
		WHERE lobbies.status NOT IN ('finished', 'abandoned')
	`
	_, err := tx.Exec(ctx, upsertLobbyQ,
		rec.LobbyID, rec.LobbyName, string(rec.Status), rec.CurrentRound, rec.WinnerStatement, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert lobby %s: %w", rec.LobbyID, err)
	}

	payload := rec.ActionPayload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	actionInsertQ := `
		INSERT INTO lobby_actions (
			lobby_id, action_index, actor_id, action_type, action_payload, game_phase, current_round, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (lobby_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.LobbyID, rec.ActionIndex, rec.ActorID, rec.ActionType, jsonPayload,
		string(rec.GamePhase), rec.CurrentRound, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert action %d of lobby %s: %w", rec.ActionIndex, rec.LobbyID, err)
	}
	return nil
}

// Archive writes journaled lobby actions to Postgres.
type Archive struct {
	pool *pgxpool.Pool
}

func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

// WriteBatch stores all records in a single transaction.
func (a *Archive) WriteBatch(ctx context.Context, recs []models.ActionRecord) error {
	return pgx.BeginTxFunc(ctx, a.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := InsertActionTx(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkAbandoned flags a lobby that never finished. It reports whether a row changed.
func (a *Archive) MarkAbandoned(ctx context.Context, lobbyID uuid.UUID) (bool, error) {
	tag, err := a.pool.Exec(ctx, `
		UPDATE lobbies
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('finished', $2)
	`, lobbyID, StatusAbandoned)
	if err != nil {
		return false, fmt.Errorf("mark lobby %s abandoned: %w", lobbyID, err)
	}
	return tag.RowsAffected() > 0, nil
}
