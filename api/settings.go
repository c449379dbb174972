package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/plugnplai/relnotes/db"
	"github.com/plugnplai/relnotes/log"
	"github.com/plugnplai/relnotes/notes"
)

// LogLevelSettingKey stores the runtime log level override
const LogLevelSettingKey = "log_level"

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

type settingsPayload struct {
	LogLevel       string `json:"logLevel"`
	Template       string `json:"template"`
	TemplateCustom bool   `json:"templateCustom"`
}

type settingsUpdateBody struct {
	LogLevel *string `json:"logLevel"`
	Template *string `json:"template"`
}

// GetSettings handles GET /api/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	payload, err := currentSettings()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load settings")
		RespondInternalError(c, "Failed to load settings")
		return
	}
	RespondData(c, payload)
}

// UpdateSettings handles PUT /api/settings. A null template field leaves
// the stored value alone; an empty string clears the override.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var body settingsUpdateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	if body.LogLevel != nil {
		level := strings.ToLower(strings.TrimSpace(*body.LogLevel))
		if !validLogLevels[level] {
			RespondValidationError(c, "Validation failed", []ErrorDetail{{Field: "logLevel", Message: "Unknown log level"}})
			return
		}
		if err := db.SetSetting(LogLevelSettingKey, level); err != nil {
			logger.Error().Err(err).Msg("failed to store log level")
			RespondInternalError(c, "Failed to update settings")
			return
		}
		log.SetLevel(level)
	}

	if body.Template != nil {
		if err := db.SetSetting(notes.TemplateSettingKey, *body.Template); err != nil {
			logger.Error().Err(err).Msg("failed to store template")
			RespondInternalError(c, "Failed to update settings")
			return
		}
	}

	payload, err := currentSettings()
	if err != nil {
		RespondInternalError(c, "Failed to load settings")
		return
	}
	RespondData(c, payload)
}

func currentSettings() (settingsPayload, error) {
	level, err := db.GetSetting(LogLevelSettingKey)
	if err != nil {
		return settingsPayload{}, err
	}
	if level == "" {
		level = "info"
	}

	stored, err := db.GetSetting(notes.TemplateSettingKey)
	if err != nil {
		return settingsPayload{}, err
	}

	payload := settingsPayload{
		LogLevel:       level,
		Template:       stored,
		TemplateCustom: stored != "",
	}
	if stored == "" {
		payload.Template = notes.Template()
	}
	return payload, nil
}
