package db

import (
	"database/sql"
)

// sessionTTLMs is 30 days in milliseconds
const sessionTTLMs = 30 * 24 * 60 * 60 * 1000

// CreateSession inserts a new session for a user
func CreateSession(id, userID string) (*Session, error) {
	now := NowMs()
	s := &Session{
		ID:         id,
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now + sessionTTLMs,
		LastUsedAt: now,
	}

	_, err := GetDB().Exec(`
		INSERT INTO sessions (id, user_id, created_at, expires_at, last_used_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.UserID, s.CreatedAt, s.ExpiresAt, s.LastUsedAt)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// GetSession retrieves a non-expired session by id, nil if not found
func GetSession(id string) (*Session, error) {
	row := GetDB().QueryRow(`
		SELECT id, user_id, created_at, expires_at, last_used_at
		FROM sessions
		WHERE id = ? AND expires_at > ?
	`, id, NowMs())

	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &s.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// TouchSession updates last_used_at for a session
func TouchSession(id string) error {
	_, err := GetDB().Exec(`
		UPDATE sessions SET last_used_at = ? WHERE id = ?
	`, NowMs(), id)
	return err
}

// DeleteSession removes a session
func DeleteSession(id string) error {
	_, err := GetDB().Exec("DELETE FROM sessions WHERE id = ?", id)
	return err
}

// DeleteExpiredSessions removes all expired sessions
func DeleteExpiredSessions() (int64, error) {
	result, err := GetDB().Exec("DELETE FROM sessions WHERE expires_at <= ?", NowMs())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
