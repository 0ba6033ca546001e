package realtime

import (
	"chat-app-api/internal/models"

	"go.uber.org/zap"
)

// Relay fans chat messages out to every live connection, the sender's own
// included. Text is forwarded as-is.
type Relay struct {
	registry *Registry
	log      *zap.Logger
}

func NewRelay(registry *Registry, log *zap.Logger) *Relay {
	return &Relay{registry: registry, log: log}
}

// Relay broadcasts {sender: displayName, content: text}. It returns the
// number of connections the frame was queued for.
func (r *Relay) Relay(sender models.Identity, text string) int {
	frame, err := Encode(NewMessage{Sender: sender.DisplayName, Content: text})
	if err != nil {
		r.log.Error("encode message", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, conn := range r.registry.Snapshot() {
		if conn.Client.Send(frame) {
			delivered++
		} else {
			r.log.Debug("message frame dropped", zap.String("user_id", conn.Identity.ID))
		}
	}
	return delivered
}
