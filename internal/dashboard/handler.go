package dashboard

import (
	"log"

	"github.com/nbake/nbake/internal/baker"
)

// Handler turns scheduler events into dashboard messages.
// It implements baker.Observer.
type Handler struct {
	server *Server
	logger *log.Logger
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, logger: logger}
}

// Observe broadcasts ev to every connected client.
func (h *Handler) Observe(ev baker.Event) {
	var (
		msg Message
		err error
	)

	switch ev.Type {
	case baker.EventTrackerDirty:
		msg, err = newMessage(MessageTypeTrackerDirty, TrackerDirtyData{Path: ev.Path, At: ev.Time})

	case baker.EventCommit:
		data := CommitData{
			Path:       ev.Path,
			Outcome:    string(ev.Outcome),
			DurationMs: ev.Duration.Milliseconds(),
			Head:       ev.Head,
		}
		if ev.Err != nil {
			data.Error = ev.Err.Error()
		}
		msg, err = newMessage(MessageTypeCommit, data)

	default:
		return
	}

	if err != nil {
		h.logger.Printf("Failed to format %s event: %v", ev.Type, err)
		return
	}
	h.server.Broadcast(msg)

	// Commits change tracker state; push a fresh snapshot too
	if ev.Type == baker.EventCommit {
		h.broadcastStatus()
	}
}

func (h *Handler) broadcastStatus() {
	msg, err := h.server.statusMessage()
	if err != nil {
		h.logger.Printf("Failed to build status message: %v", err)
		return
	}
	h.server.Broadcast(msg)
}
