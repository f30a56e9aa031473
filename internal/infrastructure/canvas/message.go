// Package canvas provides the WebSocket bridge between a browser canvas and
// the family tree. It carries canvas deltas in and graph snapshots,
// notifications and dialog requests out.
package canvas

import (
	"encoding/json"
	"time"
)

// MessageType defines the type of a canvas message.
type MessageType string

// Inbound message types, sent by the canvas.
const (
	MessageTypeNodesChange      MessageType = "nodes_change"
	MessageTypeEdgesChange      MessageType = "edges_change"
	MessageTypeConnect          MessageType = "connect"
	MessageTypeAddMember        MessageType = "add_member"
	MessageTypeAddRelationship  MessageType = "add_relationship"
	MessageTypeEditMember       MessageType = "edit_member"
	MessageTypeEditRelationship MessageType = "edit_relationship"
	MessageTypeReload           MessageType = "reload"
)

// Outbound message types, sent to the canvas.
const (
	// MessageTypeGraph carries the full graph after any change.
	MessageTypeGraph MessageType = "graph"

	// MessageTypeNotification carries a toast notification.
	MessageTypeNotification MessageType = "notification"

	// MessageTypeOpenDialog asks the canvas to open an edit dialog.
	MessageTypeOpenDialog MessageType = "open_dialog"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp,omitzero"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage marshals data into a message of the given type.
func NewMessage(t MessageType, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Timestamp: time.Now(), Data: raw}, nil
}

// Dialog kinds carried by MessageTypeOpenDialog.
const (
	DialogFamilyMember = "family_member"
	DialogRelationship = "relationship"
)

// DialogData identifies the node whose edit dialog should open.
type DialogData struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}
