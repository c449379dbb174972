package db

import (
	"database/sql"

	"github.com/google/uuid"
)

// CreateUser inserts a new user record
func CreateUser(username, passwordHash string) (*User, error) {
	u := &User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    NowMs(),
	}

	_, err := GetDB().Exec(`
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return nil, err
	}

	return u, nil
}

// GetUserByUsername retrieves a user by username, nil if not found
func GetUserByUsername(username string) (*User, error) {
	row := GetDB().QueryRow(`
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = ?
	`, username)

	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// GetUserByID retrieves a user by id, nil if not found
func GetUserByID(id string) (*User, error) {
	row := GetDB().QueryRow(`
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = ?
	`, id)

	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}
