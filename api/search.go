package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/plugnplai/relnotes/vendors"
)

// SearchResultItem represents one full-text search hit
type SearchResultItem struct {
	ReleaseID  string            `json:"releaseId"`
	Filename   string            `json:"filename"`
	Snippet    string            `json:"snippet"`
	CreatedAt  int64             `json:"createdAt"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search handles GET /api/search
// Searches the authenticated user's release notes.
func (h *Handlers) Search(c *gin.Context) {
	user := CurrentUser(c)

	if h.meili == nil {
		RespondServiceUnavailable(c, "Search is not configured")
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		RespondBadRequest(c, "Query parameter 'q' is required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	result, err := h.meili.Search(query, vendors.MeiliSearchOptions{
		Limit:  limit,
		Offset: offset,
		UserID: user.ID,
	})
	if err != nil {
		logger.Error().Err(err).Str("query", query).Msg("search failed")
		RespondServiceUnavailable(c, "Search is unavailable")
		return
	}

	items := make([]SearchResultItem, 0, len(result.Hits))
	for _, hit := range result.Hits {
		item := SearchResultItem{
			ReleaseID:  hit.ReleaseID,
			Filename:   hit.Filename,
			Snippet:    hit.Notes,
			CreatedAt:  hit.CreatedAt,
			Highlights: hit.Formatted,
		}
		if formatted, ok := hit.Formatted["notes"]; ok && formatted != "" {
			item.Snippet = formatted
		}
		items = append(items, item)
	}

	RespondList(c, items, &Pagination{
		HasMore: offset+len(items) < result.EstimatedTotalHits,
		Total:   &result.EstimatedTotalHits,
		Limit:   &limit,
		Offset:  &offset,
	})
}
