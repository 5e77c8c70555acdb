package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/weathersense/store"
)

func (d *DB) UpsertMemoryFact(ctx context.Context, upsert *store.UpsertMemoryFact) (*store.MemoryFact, error) {
	now := time.Now().Unix()
	stmt := `
		INSERT INTO memory_fact (
			user_id, memory_type, value, normalized_value, importance,
			source_turn, source_message, created_ts, last_used_ts
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, memory_type, normalized_value) DO UPDATE SET
			value = excluded.value,
			importance = GREATEST(memory_fact.importance, excluded.importance),
			source_turn = excluded.source_turn,
			source_message = excluded.source_message,
			last_used_ts = excluded.last_used_ts
		RETURNING id, user_id, memory_type, value, normalized_value, importance,
			source_turn, source_message, created_ts, last_used_ts
	`
	var fact store.MemoryFact
	err := d.db.QueryRowContext(ctx, stmt,
		upsert.UserID,
		upsert.MemoryType,
		upsert.Value,
		store.NormalizeText(upsert.Value),
		upsert.Importance,
		upsert.SourceTurn,
		upsert.SourceMessage,
		now,
		now,
	).Scan(
		&fact.ID,
		&fact.UserID,
		&fact.MemoryType,
		&fact.Value,
		&fact.NormalizedValue,
		&fact.Importance,
		&fact.SourceTurn,
		&fact.SourceMessage,
		&fact.CreatedTs,
		&fact.LastUsedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert memory fact")
	}
	return &fact, nil
}

func (d *DB) ListMemoryFacts(ctx context.Context, find *store.FindMemoryFacts) ([]*store.MemoryFact, error) {
	query := `
		SELECT id, user_id, memory_type, value, normalized_value, importance,
			source_turn, source_message, created_ts, last_used_ts
		FROM memory_fact
		WHERE user_id = $1
	`
	args := []any{find.UserID}
	argIdx := 2

	if len(find.MemoryTypes) > 0 {
		placeholders := make([]string, 0, len(find.MemoryTypes))
		for _, memoryType := range find.MemoryTypes {
			placeholders = append(placeholders, placeholder(argIdx))
			args = append(args, memoryType)
			argIdx++
		}
		query += " AND memory_type IN (" + strings.Join(placeholders, ", ") + ")"
	}

	query += fmt.Sprintf(" ORDER BY importance DESC, last_used_ts DESC LIMIT %s", placeholder(argIdx))
	args = append(args, find.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list memory facts")
	}
	defer rows.Close()

	var facts []*store.MemoryFact
	for rows.Next() {
		var fact store.MemoryFact
		if err := rows.Scan(
			&fact.ID,
			&fact.UserID,
			&fact.MemoryType,
			&fact.Value,
			&fact.NormalizedValue,
			&fact.Importance,
			&fact.SourceTurn,
			&fact.SourceMessage,
			&fact.CreatedTs,
			&fact.LastUsedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan memory fact")
		}
		facts = append(facts, &fact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return facts, nil
}

func (d *DB) TouchMemoryFacts(ctx context.Context, userID string, ids []int64, ts int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(ids))
	args := []any{ts, userID}
	for i, id := range ids {
		placeholders = append(placeholders, placeholder(i+3))
		args = append(args, id)
	}
	stmt := `UPDATE memory_fact SET last_used_ts = $1 WHERE user_id = $2 AND id IN (` + strings.Join(placeholders, ", ") + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to touch memory facts")
	}
	return nil
}

func (d *DB) ClearUserMemory(ctx context.Context, userID string, clearProfile bool) (*store.ClearMemoryResult, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	result := &store.ClearMemoryResult{}

	res, err := tx.ExecContext(ctx, `DELETE FROM conversation_turn WHERE user_id = $1`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to delete conversation turns")
	}
	if n, err := res.RowsAffected(); err == nil {
		result.ConversationDeleted = int(n)
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM memory_fact WHERE user_id = $1`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to delete memory facts")
	}
	if n, err := res.RowsAffected(); err == nil {
		result.FactsDeleted = int(n)
	}

	if clearProfile {
		res, err = tx.ExecContext(ctx, `DELETE FROM user_profile WHERE user_id = $1`, userID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to delete user profile")
		}
		if n, err := res.RowsAffected(); err == nil {
			result.ProfileDeleted = int(n)
		}
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE user_profile SET preferred_city = '', updated_ts = $1 WHERE user_id = $2`,
			time.Now().Unix(), userID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to reset preferred city")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return result, nil
}
