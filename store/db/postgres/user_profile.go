package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/hrygo/weathersense/store"
)

func (d *DB) GetUserProfile(ctx context.Context, userID string) (*store.UserProfile, error) {
	stmt := `
		SELECT user_id, persona_id, preferred_city, units, response_style, updated_ts
		FROM user_profile
		WHERE user_id = $1
	`
	var profile store.UserProfile
	err := d.db.QueryRowContext(ctx, stmt, userID).Scan(
		&profile.UserID,
		&profile.PersonaID,
		&profile.PreferredCity,
		&profile.Units,
		&profile.ResponseStyle,
		&profile.UpdatedTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user profile")
	}
	return &profile, nil
}

func (d *DB) UpsertUserProfile(ctx context.Context, profile *store.UserProfile) (*store.UserProfile, error) {
	stmt := `
		INSERT INTO user_profile (user_id, persona_id, preferred_city, units, response_style, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			persona_id = excluded.persona_id,
			preferred_city = excluded.preferred_city,
			units = excluded.units,
			response_style = excluded.response_style,
			updated_ts = excluded.updated_ts
		RETURNING user_id, persona_id, preferred_city, units, response_style, updated_ts
	`
	var saved store.UserProfile
	err := d.db.QueryRowContext(ctx, stmt,
		profile.UserID,
		profile.PersonaID,
		profile.PreferredCity,
		profile.Units,
		profile.ResponseStyle,
		profile.UpdatedTs,
	).Scan(
		&saved.UserID,
		&saved.PersonaID,
		&saved.PreferredCity,
		&saved.Units,
		&saved.ResponseStyle,
		&saved.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert user profile")
	}
	return &saved, nil
}
