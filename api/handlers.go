package api

import (
	"github.com/plugnplai/relnotes/log"
	"github.com/plugnplai/relnotes/notifications"
	"github.com/plugnplai/relnotes/vendors"
	"github.com/plugnplai/relnotes/workers/generate"
)

var logger = log.GetLogger("API")

// Handlers holds references to the components the API layer needs
type Handlers struct {
	notif     *notifications.Service
	worker    *generate.Worker
	processor *generate.Processor
	openai    *vendors.OpenAIClient
	meili     *vendors.MeiliClient
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	notif *notifications.Service,
	worker *generate.Worker,
	processor *generate.Processor,
	openai *vendors.OpenAIClient,
	meili *vendors.MeiliClient,
) *Handlers {
	return &Handlers{
		notif:     notif,
		worker:    worker,
		processor: processor,
		openai:    openai,
		meili:     meili,
	}
}
