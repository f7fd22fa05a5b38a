package linkstate

// TopicCommandFailed is published when an admin or connection change fails.
const TopicCommandFailed = "linkstate.command.failed"

// CommandFailedEvent is the payload for TopicCommandFailed.
type CommandFailedEvent struct {
	Op        string `json:"op"`
	Interface string `json:"interface"`
	Kind      string `json:"kind"`
	Code      int    `json:"code,omitempty"`
	Error     string `json:"error"`
}
