package websocket

import (
	"encoding/json"
	"time"

	"moodsync-server/internal/domain"
)

type MessageType string

const (
	TypeEntryUpdate    MessageType = "entry_update"
	TypeEntryDelete    MessageType = "entry_delete"
	TypeMergeCompleted MessageType = "merge_completed"
	TypeConflict       MessageType = "conflict"
	TypeAck            MessageType = "ack"
	TypePing           MessageType = "ping"
	TypePong           MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type EntryUpdatePayload struct {
	EntryID   string            `json:"entry_id"`
	Entry     *domain.MoodEntry `json:"entry,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeviceID  string            `json:"device_id"`
}

type EntryDeletePayload struct {
	EntryID  string `json:"entry_id"`
	DeviceID string `json:"device_id"`
}

type MergeCompletedPayload struct {
	DeviceID          string    `json:"device_id"`
	MergedCount       int       `json:"merged_count"`
	ConflictsResolved int       `json:"conflicts_resolved"`
	DuplicatesRemoved int       `json:"duplicates_removed"`
	SyncSuccess       bool      `json:"sync_success"`
	SyncTime          time.Time `json:"sync_time"`
}

type ConflictPayload struct {
	ConflictID string                  `json:"conflict_id"`
	EntryID    string                  `json:"entry_id"`
	Type       domain.ConflictType     `json:"type"`
	Severity   domain.ConflictSeverity `json:"severity"`
}

type AckPayload struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
