package domain

import "time"

// MergeStats summarizes one merge run.
type MergeStats struct {
	TotalEntries      int  `json:"total_entries"`
	ConflictsResolved int  `json:"conflicts_resolved"`
	DuplicatesRemoved int  `json:"duplicates_removed"`
	QualityImproved   bool `json:"quality_improved"`
	SyncSuccess       bool `json:"sync_success"`
}

// MergeResult is the engine's output: the reconciled entry list (newest
// first), the conflicts it resolved along the way, and a per-strategy
// breakdown for observability.
type MergeResult struct {
	Entries         []*MoodEntry               `json:"entries"`
	Conflicts       []*Conflict                `json:"conflicts"`
	Stats           MergeStats                 `json:"stats"`
	StrategySummary map[ResolutionStrategy]int `json:"strategy_summary"`
}

type SyncHealth string

const (
	HealthExcellent SyncHealth = "excellent"
	HealthGood      SyncHealth = "good"
	HealthFair      SyncHealth = "fair"
	HealthPoor      SyncHealth = "poor"
)

// SyncState is the diagnostic report produced independently of the merge
// path, describing how far out of sync the two replicas currently are.
type SyncState struct {
	Health          SyncHealth `json:"health"`
	PendingUploads  int        `json:"pending_uploads"`
	ConflictCount   int        `json:"conflict_count"`
	HoursSinceSync  float64    `json:"hours_since_sync"`
	Recommendations []string   `json:"recommendations"`
}

// SyncMetadata tracks per-device sync progress on the server side.
type SyncMetadata struct {
	UserID           string    `json:"user_id"`
	DeviceID         string    `json:"device_id"`
	LastSyncTime     time.Time `json:"last_sync_time"`
	PendingConflicts []string  `json:"pending_conflicts"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// MergeRequest is the device's snapshot submitted for reconciliation.
type MergeRequest struct {
	DeviceID     string       `json:"device_id" validate:"required"`
	Entries      []*MoodEntry `json:"entries"`
	LastSyncTime *time.Time   `json:"last_sync_time"`
}

// MergeResponse returns the reconciled view plus a health report the device
// can surface to the user.
type MergeResponse struct {
	Result   *MergeResult `json:"result"`
	State    *SyncState   `json:"state"`
	SyncTime time.Time    `json:"sync_time"`
}

// MergeRecord is a compact audit document persisted after each merge run.
type MergeRecord struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	DeviceID          string    `json:"device_id"`
	LocalCount        int       `json:"local_count"`
	RemoteCount       int       `json:"remote_count"`
	MergedCount       int       `json:"merged_count"`
	ConflictsResolved int       `json:"conflicts_resolved"`
	DuplicatesRemoved int       `json:"duplicates_removed"`
	SyncSuccess       bool      `json:"sync_success"`
	MergedAt          time.Time `json:"merged_at"`
}
