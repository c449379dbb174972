package api

import (
	"github.com/gin-gonic/gin"
)

// GetOpenAIModels handles GET /api/vendors/openai/models
func (h *Handlers) GetOpenAIModels(c *gin.Context) {
	if h.openai == nil {
		RespondServiceUnavailable(c, "OpenAI is not configured")
		return
	}

	models, err := h.openai.ListModels(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("failed to list models")
		RespondServiceUnavailable(c, "Failed to list models")
		return
	}

	RespondList(c, models, nil)
}
