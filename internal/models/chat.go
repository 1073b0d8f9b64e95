package models

// ChatRequest is the body of the chat endpoint. When ForceRule is set the
// hosted backend is never attempted and the canned template is returned.
type ChatRequest struct {
	Prompt    string `json:"prompt"`
	Room      string `json:"room"`
	Detector  string `json:"det"`
	ForceRule bool   `json:"force_rule"`
}

type ChatResponse struct {
	Answer  string `json:"answer"`
	Backend string `json:"backend"`
}

// OpsRequest triggers an operator action against a room.
// Accepted actions: simulate, ventilate, shutter, reset, ack.
type OpsRequest struct {
	Action   string `json:"action"`
	Detector string `json:"det"`
}

// SpikeRequest injects a flat spike segment into a detector's history.
// Demo helper, mirrors the ops endpoint shape.
type SpikeRequest struct {
	Detector    string  `json:"det"`
	Magnitude   float64 `json:"magnitude"`
	DurationMin int     `json:"duration_min"`
}
