package types

// StreamEvent is one frame of a chat response stream. The sequence is ordered,
// finite and tied to a single request's lifetime.
type StreamEvent struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

const (
	EventText  = "text"
	EventImage = "image"
)

func TextEvent(data string) StreamEvent {
	return StreamEvent{Type: EventText, Data: data}
}

func ImageEvent(data string) StreamEvent {
	return StreamEvent{Type: EventImage, Data: data}
}
