package websockets

import "github.com/staynest/booking-coordinator/pkg/models"

// MessageType defines the type of a WebSocket message.
type MessageType string

const (
	// MessageTypeOperationConfirmed is sent when a tracked transaction
	// reaches success.
	MessageTypeOperationConfirmed MessageType = "operationConfirmed"
	// MessageTypeOperationFailed is sent when a tracked transaction aborts.
	MessageTypeOperationFailed MessageType = "operationFailed"
	// MessageTypeOperationStillPending is sent when confirmation polling
	// timed out; the operation stays in the pending log for a later check.
	MessageTypeOperationStillPending MessageType = "operationStillPending"
)

// Message represents a generic WebSocket message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// OperationEventPayload is the payload for all operation lifecycle messages.
type OperationEventPayload struct {
	TxID        string               `json:"tx_id"`
	Kind        models.OperationKind `json:"kind"`
	EntityID    uint64               `json:"entity_id,omitempty"`
	Provisional bool                 `json:"provisional,omitempty"`
	Reason      string               `json:"reason,omitempty"`
}
