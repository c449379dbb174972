package api

import (
	"github.com/gin-gonic/gin"

	"github.com/plugnplai/relnotes/config"
	"github.com/plugnplai/relnotes/db"
)

// Health handles GET /api/health
func (h *Handlers) Health(c *gin.Context) {
	schemaVersion, err := db.SchemaVersion()
	if err != nil {
		RespondServiceUnavailable(c, "Database unavailable")
		return
	}

	RespondData(c, gin.H{
		"status":            "ok",
		"env":               config.Get().Env,
		"schemaVersion":     schemaVersion,
		"openaiConfigured":  h.openai != nil,
		"searchConfigured":  h.meili != nil,
		"streamSubscribers": h.notif.SubscriberCount(),
	})
}
