package api

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/tus/tusd/v2/pkg/filestore"
	tusd "github.com/tus/tusd/v2/pkg/handler"

	"github.com/plugnplai/relnotes/config"
	"github.com/plugnplai/relnotes/db"
	"github.com/plugnplai/relnotes/extract"
	"github.com/plugnplai/relnotes/utils"
)

var (
	tusHandler     *tusd.Handler
	tusHandlerOnce sync.Once
	tusDir         string
)

// initTUSHandler initializes the resumable upload handler. Large media
// files arrive through it in many small requests.
func initTUSHandler() (*tusd.Handler, error) {
	var initErr error

	tusHandlerOnce.Do(func() {
		cfg := config.Get()
		tusDir = filepath.Join(cfg.UploadDir(), "tus")

		if err := os.MkdirAll(tusDir, 0o755); err != nil {
			initErr = err
			return
		}

		store := filestore.New(tusDir)
		composer := tusd.NewStoreComposer()
		store.UseIn(composer)

		h, err := tusd.NewHandler(tusd.Config{
			BasePath:                "/api/upload/tus/",
			StoreComposer:           composer,
			RespectForwardedHeaders: true,
			MaxSize:                 cfg.MaxMediaBytes,
		})
		if err != nil {
			initErr = err
			return
		}

		tusHandler = h
		logger.Info().Str("dir", tusDir).Msg("TUS handler initialized")
	})

	return tusHandler, initErr
}

// TUSHandler handles all TUS protocol requests under /api/upload/tus/
func (h *Handlers) TUSHandler(c *gin.Context) {
	handler, err := initTUSHandler()
	if err != nil || handler == nil {
		logger.Error().Err(err).Msg("failed to initialize TUS handler")
		RespondInternalError(c, "Failed to initialize upload handler")
		return
	}

	// Strip the route prefix manually; http.StripPrefix does not play
	// well with gin wildcard routes
	originalPath := c.Request.URL.Path
	c.Request.URL.Path = strings.TrimPrefix(originalPath, "/api/upload/tus")

	handler.ServeHTTP(c.Writer, c.Request)

	c.Request.URL.Path = originalPath
}

type finalizeResult struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType,omitempty"`
	JobID    string `json:"jobId,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// FinalizeUpload handles POST /api/upload/finalize
// Turns completed TUS uploads into queued generation jobs.
func (h *Handlers) FinalizeUpload(c *gin.Context) {
	var body struct {
		Uploads []struct {
			UploadID string `json:"uploadId"`
			Filename string `json:"filename"`
		} `json:"uploads"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}
	if len(body.Uploads) == 0 {
		RespondBadRequest(c, "No uploads provided")
		return
	}

	if _, err := initTUSHandler(); err != nil {
		RespondInternalError(c, "Upload handler unavailable")
		return
	}

	userID := CurrentUserID(c)
	uploadDir := config.Get().UploadDir()
	results := make([]finalizeResult, 0, len(body.Uploads))
	queued := 0

	for _, upload := range body.Uploads {
		if upload.UploadID == "" || upload.Filename == "" {
			results = append(results, finalizeResult{
				Filename: upload.Filename,
				Status:   "rejected",
				Error:    "uploadId and filename are required",
			})
			continue
		}

		filename := utils.SanitizeFilename(upload.Filename)
		if !extract.IsSupportedFile(filename) {
			results = append(results, finalizeResult{
				Filename: filename,
				Status:   "rejected",
				Error:    "unsupported file type",
			})
			continue
		}

		srcPath := filepath.Join(tusDir, filepath.Base(upload.UploadID))
		infoPath := srcPath + ".info"
		if _, err := os.Stat(srcPath); err != nil {
			// tusd may store the body with a .bin suffix
			srcPath += ".bin"
			if _, err := os.Stat(srcPath); err != nil {
				logger.Error().Str("uploadId", upload.UploadID).Msg("upload file not found")
				results = append(results, finalizeResult{
					Filename: filename,
					Status:   "rejected",
					Error:    "upload not found",
				})
				continue
			}
		}

		// Move the payload out of the TUS store so it survives cleanup
		stored := utils.DeduplicateFilename(uploadDir, filename)
		destPath := filepath.Join(uploadDir, stored)
		if err := os.Rename(srcPath, destPath); err != nil {
			logger.Error().Err(err).Str("file", filename).Msg("failed to move upload")
			results = append(results, finalizeResult{
				Filename: filename,
				Status:   "rejected",
				Error:    "failed to store upload",
			})
			continue
		}
		os.Remove(infoPath)

		job, err := db.CreateJob(userID, filename, destPath)
		if err != nil {
			logger.Error().Err(err).Str("file", filename).Msg("failed to create job")
			results = append(results, finalizeResult{
				Filename: filename,
				Status:   "rejected",
				Error:    "failed to queue generation",
			})
			continue
		}

		h.worker.Enqueue(job.ID)
		h.notif.NotifyJobUpdated(job.ID, job.Status)
		queued++

		results = append(results, finalizeResult{
			Filename: filename,
			MimeType: utils.DetectMimeType(filename),
			JobID:    job.ID,
			Status:   "queued",
		})
	}

	if queued == 0 {
		RespondValidationError(c, "No valid files to finalize", nil)
		return
	}

	RespondAccepted(c, gin.H{"results": results})
}
