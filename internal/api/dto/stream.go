package dto

import "fleet-route-optimizer/internal/domain"

// Message types sent on the optimize websocket.
const (
	StreamAccepted = "accepted"
	StreamResult   = "result"
	StreamError    = "error"
)

type StreamMessage struct {
	Type    string                     `json:"type"`
	Payload *domain.OptimizationResult `json:"payload,omitempty"`
	Error   string                     `json:"error,omitempty"`
	Status  int                        `json:"status,omitempty"`
	Details []string                   `json:"details,omitempty"`
}
