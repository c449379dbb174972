package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/plugnplai/relnotes/db"
)

// releaseListItem omits the transcript and notes body to keep list
// responses small
type releaseListItem struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Model       string `json:"model"`
	ChunkCount  int    `json:"chunkCount"`
	TotalTokens int    `json:"totalTokens"`
	CreatedAt   int64  `json:"createdAt"`
}

// releaseDetail includes the generated notes and source transcript
type releaseDetail struct {
	releasePayload
	Transcript string `json:"transcript"`
}

// ListReleases handles GET /api/releases
func (h *Handlers) ListReleases(c *gin.Context) {
	user := CurrentUser(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	releases, err := db.ListReleasesForUser(user.ID, limit, offset)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list releases")
		RespondInternalError(c, "Failed to list releases")
		return
	}

	total, err := db.CountReleasesForUser(user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to count releases")
		RespondInternalError(c, "Failed to list releases")
		return
	}

	items := make([]releaseListItem, 0, len(releases))
	for _, r := range releases {
		items = append(items, releaseListItem{
			ID:          r.ID,
			Filename:    r.Filename,
			Model:       r.Model,
			ChunkCount:  r.ChunkCount,
			TotalTokens: r.TotalTokens,
			CreatedAt:   r.CreatedAt,
		})
	}

	RespondList(c, items, &Pagination{
		HasMore: offset+len(items) < total,
		Total:   &total,
		Limit:   &limit,
		Offset:  &offset,
	})
}

// GetRelease handles GET /api/releases/:id
func (h *Handlers) GetRelease(c *gin.Context) {
	release, ok := h.ownedRelease(c)
	if !ok {
		return
	}

	RespondData(c, releaseDetail{
		releasePayload: toReleasePayload(release),
		Transcript:     release.Transcript,
	})
}

// DeleteRelease handles DELETE /api/releases/:id
func (h *Handlers) DeleteRelease(c *gin.Context) {
	release, ok := h.ownedRelease(c)
	if !ok {
		return
	}

	deleted, err := db.DeleteRelease(release.ID)
	if err != nil {
		logger.Error().Err(err).Str("release", release.ID).Msg("failed to delete release")
		RespondInternalError(c, "Failed to delete release")
		return
	}
	if !deleted {
		RespondNotFound(c, "Release not found")
		return
	}

	if err := h.meili.DeleteRelease(release.ID); err != nil {
		logger.Warn().Err(err).Str("release", release.ID).Msg("failed to remove release from search index")
	}

	RespondNoContent(c)
}

// ownedRelease loads the release from the path param and verifies the
// current user owns it. Missing and foreign releases both answer 404.
func (h *Handlers) ownedRelease(c *gin.Context) (*db.Release, bool) {
	user := CurrentUser(c)

	release, err := db.GetReleaseByID(c.Param("id"))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load release")
		RespondInternalError(c, "Failed to load release")
		return nil, false
	}
	if release == nil || release.UserID == nil || *release.UserID != user.ID {
		RespondNotFound(c, "Release not found")
		return nil, false
	}

	return release, true
}
