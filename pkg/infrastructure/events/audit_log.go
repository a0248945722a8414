package events

import (
	"context"
	"slices"

	"github.com/vsinha/bomcost/pkg/infrastructure/logger"
)

// EdgeEventTypes lists the events recorded for BOM edge mutations
var EdgeEventTypes = []string{
	EdgeCreatedEvent,
	EdgeUpdatedEvent,
	EdgeDeactivatedEvent,
	EdgePurgedEvent,
}

// AuditLogger writes BOM edge events to the structured log
type AuditLogger struct {
	log *logger.Logger
}

var _ EventHandler = (*AuditLogger)(nil)

func NewAuditLogger(log *logger.Logger) *AuditLogger {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditLogger{log: log}
}

func (h *AuditLogger) CanHandle(eventType string) bool {
	return slices.Contains(EdgeEventTypes, eventType)
}

func (h *AuditLogger) Handle(_ context.Context, event Event) error {
	h.log.Info("bom edge audit",
		"event_id", event.ID(),
		"event_type", event.Type(),
		"stream_id", event.StreamID(),
		"version", event.Version(),
		"data", event.Data(),
	)
	return nil
}
