package api

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/plugnplai/relnotes/config"
	"github.com/plugnplai/relnotes/db"
	"github.com/plugnplai/relnotes/extract"
	"github.com/plugnplai/relnotes/utils"
)

// releasePayload is the API shape of a stored release
type releasePayload struct {
	ID            string     `json:"id"`
	Filename      string     `json:"filename"`
	Notes         string     `json:"notes"`
	Model         string     `json:"model"`
	ChunkCount    int        `json:"chunkCount"`
	DroppedChunks int        `json:"droppedChunks,omitempty"`
	TokenUsage    tokenUsage `json:"tokenUsage"`
	CreatedAt     int64      `json:"createdAt"`
}

type tokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

func toReleasePayload(r *db.Release) releasePayload {
	return releasePayload{
		ID:            r.ID,
		Filename:      r.Filename,
		Notes:         r.Notes,
		Model:         r.Model,
		ChunkCount:    r.ChunkCount,
		DroppedChunks: r.DroppedChunks,
		TokenUsage: tokenUsage{
			PromptTokens:     r.PromptTokens,
			CompletionTokens: r.CompletionTokens,
			TotalTokens:      r.TotalTokens,
		},
		CreatedAt: r.CreatedAt,
	}
}

// Generate handles POST /api/generate
// Accepts a multipart upload and runs the pipeline synchronously.
// Works with or without a session; authenticated requests get the
// release stored under their account.
func (h *Handlers) Generate(c *gin.Context) {
	filename, sourcePath, ok := h.receiveUpload(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.Get().RequestTimeout)
	defer cancel()

	release, err := h.processor.ProcessFile(ctx, CurrentUserID(c), filename, sourcePath)
	if err != nil {
		logger.Error().Err(err).Str("file", filename).Msg("generation failed")
		if ctx.Err() == context.DeadlineExceeded {
			RespondServiceUnavailable(c, "Generation timed out, retry with the async endpoint")
			return
		}
		RespondUnprocessable(c, err.Error())
		return
	}

	h.notif.NotifyReleaseCreated(release.ID, release.Filename)
	RespondCreated(c, toReleasePayload(release), "/api/releases/"+release.ID)
}

// GenerateAsync handles POST /api/generate/async
// Accepts a multipart upload, queues a job, and returns immediately.
func (h *Handlers) GenerateAsync(c *gin.Context) {
	filename, sourcePath, ok := h.receiveUpload(c)
	if !ok {
		return
	}

	job, err := db.CreateJob(CurrentUserID(c), filename, sourcePath)
	if err != nil {
		logger.Error().Err(err).Str("file", filename).Msg("failed to create job")
		RespondInternalError(c, "Failed to queue generation")
		return
	}

	h.worker.Enqueue(job.ID)
	h.notif.NotifyJobUpdated(job.ID, job.Status)

	RespondAccepted(c, gin.H{
		"jobId":    job.ID,
		"status":   job.Status,
		"filename": job.Filename,
	})
}

// receiveUpload validates the multipart file and stores it in the
// uploads directory. Responds with an error and returns ok=false on
// failure.
func (h *Handlers) receiveUpload(c *gin.Context) (filename, sourcePath string, ok bool) {
	file, err := c.FormFile("file")
	if err != nil {
		RespondBadRequest(c, "A 'file' form field is required")
		return "", "", false
	}

	filename = utils.SanitizeFilename(file.Filename)
	if !extract.IsSupportedFile(filename) {
		RespondBadRequest(c, "Unsupported file type, expected pdf, txt, md, json, or a media file")
		return "", "", false
	}

	cfg := config.Get()
	limit := cfg.MaxDocumentBytes
	if extract.IsMediaFile(filename) {
		limit = cfg.MaxMediaBytes
	}
	if file.Size > limit {
		RespondPayloadTooLarge(c, "File exceeds the size limit")
		return "", "", false
	}

	uploadDir := cfg.UploadDir()
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create upload directory")
		RespondInternalError(c, "Failed to store upload")
		return "", "", false
	}

	stored := utils.DeduplicateFilename(uploadDir, filename)
	sourcePath = filepath.Join(uploadDir, stored)
	if err := c.SaveUploadedFile(file, sourcePath); err != nil {
		logger.Error().Err(err).Str("file", filename).Msg("failed to store upload")
		RespondInternalError(c, "Failed to store upload")
		return "", "", false
	}

	return filename, sourcePath, true
}
