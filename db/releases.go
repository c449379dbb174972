package db

import (
	"database/sql"

	"github.com/google/uuid"
)

const releaseColumns = `id, user_id, filename, transcript, notes, model,
	chunk_count, dropped_chunks, prompt_tokens, completion_tokens, total_tokens, created_at`

// CreateRelease inserts a new release record
func CreateRelease(r *Release) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = NowMs()
	}

	_, err := GetDB().Exec(`
		INSERT INTO releases (`+releaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, NullString(r.UserID), r.Filename, r.Transcript, r.Notes, r.Model,
		r.ChunkCount, r.DroppedChunks, r.PromptTokens, r.CompletionTokens, r.TotalTokens, r.CreatedAt,
	)
	return err
}

// GetReleaseByID retrieves a release by id, nil if not found
func GetReleaseByID(id string) (*Release, error) {
	row := GetDB().QueryRow(`
		SELECT `+releaseColumns+`
		FROM releases
		WHERE id = ?
	`, id)

	r, err := scanRelease(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReleasesForUser retrieves all releases owned by a user, newest first
func ListReleasesForUser(userID string, limit, offset int) ([]Release, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := GetDB().Query(`
		SELECT `+releaseColumns+`
		FROM releases
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var releases []Release
	for rows.Next() {
		r, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		releases = append(releases, r)
	}

	return releases, rows.Err()
}

// CountReleasesForUser returns the number of releases owned by a user
func CountReleasesForUser(userID string) (int, error) {
	var count int
	err := GetDB().QueryRow(`SELECT COUNT(*) FROM releases WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

// DeleteRelease removes a release; returns whether a row was deleted
func DeleteRelease(id string) (bool, error) {
	result, err := GetDB().Exec("DELETE FROM releases WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// scanRelease scans a row into a Release
func scanRelease(row interface{ Scan(...any) error }) (Release, error) {
	var r Release
	var userID sql.NullString
	err := row.Scan(
		&r.ID, &userID, &r.Filename, &r.Transcript, &r.Notes, &r.Model,
		&r.ChunkCount, &r.DroppedChunks, &r.PromptTokens, &r.CompletionTokens, &r.TotalTokens, &r.CreatedAt,
	)
	r.UserID = StringPtr(userID)
	return r, err
}
