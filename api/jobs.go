package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/plugnplai/relnotes/db"
)

type jobPayload struct {
	ID        string  `json:"id"`
	Filename  string  `json:"filename"`
	Status    string  `json:"status"`
	Error     *string `json:"error,omitempty"`
	Attempts  int     `json:"attempts"`
	ReleaseID *string `json:"releaseId,omitempty"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
}

func toJobPayload(j *db.Job) jobPayload {
	return jobPayload{
		ID:        j.ID,
		Filename:  j.Filename,
		Status:    j.Status,
		Error:     j.Error,
		Attempts:  j.Attempts,
		ReleaseID: j.ReleaseID,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// GetJob handles GET /api/jobs/:id
// Anonymous jobs are readable by anyone holding the id; user jobs only
// by their owner.
func (h *Handlers) GetJob(c *gin.Context) {
	job, err := db.GetJobByID(c.Param("id"))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load job")
		RespondInternalError(c, "Failed to load job")
		return
	}
	if job == nil {
		RespondNotFound(c, "Job not found")
		return
	}

	if job.UserID != nil {
		user := CurrentUser(c)
		if user == nil || user.ID != *job.UserID {
			RespondNotFound(c, "Job not found")
			return
		}
	}

	RespondData(c, toJobPayload(job))
}

// ListJobs handles GET /api/jobs
func (h *Handlers) ListJobs(c *gin.Context) {
	user := CurrentUser(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	jobs, err := db.ListJobsForUser(user.ID, limit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list jobs")
		RespondInternalError(c, "Failed to list jobs")
		return
	}

	items := make([]jobPayload, 0, len(jobs))
	for i := range jobs {
		items = append(items, toJobPayload(&jobs[i]))
	}

	RespondList(c, items, nil)
}
