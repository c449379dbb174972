package db

import (
	"database/sql"
	"time"
)

// User represents an account record
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"createdAt"`
}

// Session represents an authentication session record
type Session struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	CreatedAt  int64  `json:"createdAt"`
	ExpiresAt  int64  `json:"expiresAt"`
	LastUsedAt int64  `json:"lastUsedAt"`
}

// Release represents a stored transcript + generated release notes
type Release struct {
	ID               string  `json:"id"`
	UserID           *string `json:"userId,omitempty"`
	Filename         string  `json:"filename"`
	Transcript       string  `json:"transcript"`
	Notes            string  `json:"notes"`
	Model            string  `json:"model"`
	ChunkCount       int     `json:"chunkCount"`
	DroppedChunks    int     `json:"droppedChunks"`
	PromptTokens     int     `json:"promptTokens"`
	CompletionTokens int     `json:"completionTokens"`
	TotalTokens      int     `json:"totalTokens"`
	CreatedAt        int64   `json:"createdAt"`
}

// Job represents an async generation job
type Job struct {
	ID         string  `json:"id"`
	UserID     *string `json:"userId,omitempty"`
	Filename   string  `json:"filename"`
	SourcePath string  `json:"-"`
	Status     string  `json:"status"`
	Error      *string `json:"error,omitempty"`
	Attempts   int     `json:"attempts"`
	ReleaseID  *string `json:"releaseId,omitempty"`
	CreatedAt  int64   `json:"createdAt"`
	UpdatedAt  int64   `json:"updatedAt"`
}

// Job status constants
const (
	JobStatusTodo       = "todo"
	JobStatusInProgress = "in-progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// MaxJobAttempts is the maximum number of processing attempts for a job
const MaxJobAttempts = 3

// NowMs returns the current time as Unix milliseconds
func NowMs() int64 {
	return time.Now().UnixMilli()
}

// NullString converts *string to sql.NullString
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr converts sql.NullString to *string
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
