package domain

import "time"

const (
	MoodScoreMin = 0
	MoodScoreMax = 100
	LevelMin     = 0
	LevelMax     = 10
)

// MoodEntry is the unit of reconciliation: one observation a user recorded,
// possibly edited independently on the device and on the server replica.
type MoodEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	MoodScore    int       `json:"mood_score"`
	EnergyLevel  int       `json:"energy_level"`
	AnxietyLevel int       `json:"anxiety_level"`
	Notes        string    `json:"notes,omitempty"`
	Triggers     []string  `json:"triggers,omitempty"`
	Activities   []string  `json:"activities,omitempty"`
	Synced       bool      `json:"synced"`

	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
	LastEditDevice string    `json:"last_edit_device,omitempty"`
}

// Clone returns a deep copy so the merge engine can produce new versions
// without mutating either input snapshot.
func (e *MoodEntry) Clone() *MoodEntry {
	c := *e
	if e.Triggers != nil {
		c.Triggers = append([]string(nil), e.Triggers...)
	}
	if e.Activities != nil {
		c.Activities = append([]string(nil), e.Activities...)
	}
	return &c
}

type CreateEntryRequest struct {
	Timestamp    time.Time `json:"timestamp"`
	MoodScore    int       `json:"mood_score" validate:"min=0,max=100"`
	EnergyLevel  int       `json:"energy_level" validate:"min=0,max=10"`
	AnxietyLevel int       `json:"anxiety_level" validate:"min=0,max=10"`
	Notes        string    `json:"notes"`
	Triggers     []string  `json:"triggers"`
	Activities   []string  `json:"activities"`
	DeviceID     string    `json:"device_id" validate:"required"`
}

// UpdateEntryRequest applies a partial edit. BaseUpdatedAt is the UpdatedAt
// the client last saw; when the server copy has moved past it the edit is
// treated as a conflict instead of a blind overwrite.
type UpdateEntryRequest struct {
	BaseUpdatedAt *time.Time `json:"base_updated_at"`
	Timestamp     *time.Time `json:"timestamp"`
	MoodScore     *int       `json:"mood_score" validate:"omitempty,min=0,max=100"`
	EnergyLevel   *int       `json:"energy_level" validate:"omitempty,min=0,max=10"`
	AnxietyLevel  *int       `json:"anxiety_level" validate:"omitempty,min=0,max=10"`
	Notes         *string    `json:"notes"`
	Triggers      []string   `json:"triggers"`
	Activities    []string   `json:"activities"`
	DeviceID      string     `json:"device_id"`
}

// Tombstone records that an entry id was deleted on some replica. The merge
// engine drops tombstoned ids from both sides so deletions win over edits.
type Tombstone struct {
	EntryID   string    `json:"entry_id"`
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
