package store

import (
	"context"
	"time"
)

// ListAthletes returns every registered athlete's credential record, oldest
// registration first.
func (db *DB) ListAthletes(ctx context.Context) ([]AthleteCredential, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, firstname, lastname, sex, profile, access_token, refresh_token, expires_at
		FROM athletes
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []AthleteCredential
	for rows.Next() {
		var c AthleteCredential
		var expiresAt int64
		if err := rows.Scan(&c.AthleteID, &c.FirstName, &c.LastName, &c.Sex, &c.Profile,
			&c.AccessToken, &c.RefreshToken, &expiresAt); err != nil {
			return nil, err
		}
		c.ExpiresAt = time.Unix(expiresAt, 0)
		creds = append(creds, c)
	}

	return creds, rows.Err()
}

// UpsertAthlete stores or replaces the credential record for one athlete.
// Used by the OAuth callback when an athlete registers or re-registers.
func (db *DB) UpsertAthlete(ctx context.Context, c *AthleteCredential) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO athletes (id, firstname, lastname, sex, profile, access_token, refresh_token, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			firstname = excluded.firstname,
			lastname = excluded.lastname,
			sex = excluded.sex,
			profile = excluded.profile,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP
	`, c.AthleteID, c.FirstName, c.LastName, c.Sex, c.Profile,
		c.AccessToken, c.RefreshToken, c.ExpiresAt.Unix())
	return err
}

// UpdateTokens replaces just the token fields for one athlete after a
// successful refresh. The write must be visible to subsequent reads within
// the same process.
func (db *DB) UpdateTokens(ctx context.Context, athleteID int64, accessToken, refreshToken string, expiresAt time.Time) error {
	result, err := db.ExecContext(ctx, `
		UPDATE athletes
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, accessToken, refreshToken, expiresAt.Unix(), athleteID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAthleteNotFound
	}
	return nil
}
