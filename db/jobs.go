package db

import (
	"database/sql"

	"github.com/google/uuid"
)

const jobColumns = `id, user_id, filename, source_path, status, error, attempts, release_id, created_at, updated_at`

// CreateJob inserts a new generation job in "todo" status
func CreateJob(userID *string, filename, sourcePath string) (*Job, error) {
	now := NowMs()
	job := &Job{
		ID:         uuid.New().String(),
		UserID:     userID,
		Filename:   filename,
		SourcePath: sourcePath,
		Status:     JobStatusTodo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := GetDB().Exec(`
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, NULL, 0, NULL, ?, ?)
	`, job.ID, NullString(job.UserID), job.Filename, job.SourcePath, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetJobByID retrieves a job by id, nil if not found
func GetJobByID(id string) (*Job, error) {
	row := GetDB().QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)

	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// SetJobInProgress marks a job as picked up and increments its attempt count
func SetJobInProgress(id string) error {
	_, err := GetDB().Exec(`
		UPDATE jobs
		SET status = ?, attempts = attempts + 1, error = NULL, updated_at = ?
		WHERE id = ?
	`, JobStatusInProgress, NowMs(), id)
	return err
}

// SetJobCompleted marks a job as completed and links the produced release
func SetJobCompleted(id, releaseID string) error {
	_, err := GetDB().Exec(`
		UPDATE jobs
		SET status = ?, release_id = ?, error = NULL, updated_at = ?
		WHERE id = ?
	`, JobStatusCompleted, releaseID, NowMs(), id)
	return err
}

// SetJobError records a failure. Jobs below the attempt limit go back to
// "todo" for the supervisor to retry; the rest are marked failed.
func SetJobError(id, errMsg string) error {
	return Transaction(func(tx *sql.Tx) error {
		var attempts int
		if err := tx.QueryRow("SELECT attempts FROM jobs WHERE id = ?", id).Scan(&attempts); err != nil {
			return err
		}

		status := JobStatusTodo
		if attempts >= MaxJobAttempts {
			status = JobStatusFailed
		}
		_, err := tx.Exec(`
			UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
		`, status, errMsg, NowMs(), id)
		return err
	})
}

// GetPendingJobIDs returns ids of jobs still waiting to run, oldest first
func GetPendingJobIDs(limit int) ([]string, error) {
	rows, err := GetDB().Query(`
		SELECT id FROM jobs
		WHERE status = ? AND attempts < ?
		ORDER BY created_at ASC
		LIMIT ?
	`, JobStatusTodo, MaxJobAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResetStaleJobs moves jobs stuck in-progress (e.g. after a crash) back to todo
func ResetStaleJobs(olderThanMs int64) (int64, error) {
	result, err := GetDB().Exec(`
		UPDATE jobs
		SET status = ?, updated_at = ?
		WHERE status = ? AND updated_at < ?
	`, JobStatusTodo, NowMs(), JobStatusInProgress, olderThanMs)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListJobsForUser retrieves a user's jobs, newest first
func ListJobsForUser(userID string, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := GetDB().Query(`
		SELECT `+jobColumns+`
		FROM jobs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanJob(row interface{ Scan(...any) error }) (Job, error) {
	var j Job
	var userID, jobErr, releaseID sql.NullString
	err := row.Scan(
		&j.ID, &userID, &j.Filename, &j.SourcePath, &j.Status,
		&jobErr, &j.Attempts, &releaseID, &j.CreatedAt, &j.UpdatedAt,
	)
	j.UserID = StringPtr(userID)
	j.Error = StringPtr(jobErr)
	j.ReleaseID = StringPtr(releaseID)
	return j, err
}
