package interfaces

// AgentEvent is one step notification emitted while the router graph
// processes a turn, streamed to websocket subscribers.
type AgentEvent struct {
	Step   string                 `json:"step"`
	Query  string                 `json:"query,omitempty"`
	Detail map[string]interface{} `json:"detail,omitempty"`
}

// EventPublisher broadcasts agent step events to subscribers. A nil
// publisher is valid; callers must treat publishing as fire-and-forget.
type EventPublisher interface {
	Publish(event AgentEvent)
}
