package postgres

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/weathersense/store"
)

func (d *DB) AppendConversationTurn(ctx context.Context, turn *store.ConversationTurn) (int64, error) {
	stmt := `
		INSERT INTO conversation_turn (user_id, role, message, created_ts)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := d.db.QueryRowContext(ctx, stmt,
		turn.UserID,
		turn.Role,
		turn.Message,
		turn.CreatedTs,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "failed to append conversation turn")
	}
	return id, nil
}

func (d *DB) ListConversationTurns(ctx context.Context, find *store.FindConversationTurns) ([]*store.ConversationTurn, error) {
	stmt := `
		SELECT id, user_id, role, message, created_ts
		FROM conversation_turn
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := d.db.QueryContext(ctx, stmt, find.UserID, find.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversation turns")
	}
	defer rows.Close()

	var turns []*store.ConversationTurn
	for rows.Next() {
		var turn store.ConversationTurn
		if err := rows.Scan(
			&turn.ID,
			&turn.UserID,
			&turn.Role,
			&turn.Message,
			&turn.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation turn")
		}
		turns = append(turns, &turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return turns, nil
}
