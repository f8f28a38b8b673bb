package domain

import "time"

type ConflictType string

const (
	ConflictTypeTimestamp   ConflictType = "timestamp"
	ConflictTypeContent     ConflictType = "content"
	ConflictTypeSyncStatus  ConflictType = "sync_status"
	ConflictTypeDataQuality ConflictType = "data_quality"
)

type ConflictSeverity string

const (
	SeverityLow    ConflictSeverity = "low"
	SeverityMedium ConflictSeverity = "medium"
	SeverityHigh   ConflictSeverity = "high"
)

type ResolutionStrategy string

const (
	ResolutionLocalWins          ResolutionStrategy = "local_wins"
	ResolutionRemoteWins         ResolutionStrategy = "remote_wins"
	ResolutionIntelligentMerge   ResolutionStrategy = "intelligent_merge"
	ResolutionUserChoiceRequired ResolutionStrategy = "user_choice_required"
)

// Conflict pairs a local and a remote version of the same entry id whose
// fields disagree beyond tolerance. Both versions are retained until the
// conflict is resolved, so escalated conflicts never lose data.
type Conflict struct {
	ID         string           `json:"id"`
	EntryID    string           `json:"entry_id"`
	UserID     string           `json:"user_id"`
	Type       ConflictType     `json:"type"`
	Severity   ConflictSeverity `json:"severity"`
	Local      *MoodEntry       `json:"local"`
	Remote     *MoodEntry       `json:"remote"`
	Resolution *Resolution      `json:"resolution,omitempty"`
	DetectedAt time.Time        `json:"detected_at"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
}

// Resolution records how a conflict was settled and what survived.
type Resolution struct {
	Strategy        ResolutionStrategy `json:"strategy"`
	Reason          string             `json:"reason"`
	Merged          *MoodEntry         `json:"merged"`
	FieldsPreserved []string           `json:"fields_preserved,omitempty"`
	FieldsLost      []string           `json:"fields_lost,omitempty"`
	Confidence      float64            `json:"confidence"`
}

type UserChoice string

const (
	ChoiceLocal  UserChoice = "local"
	ChoiceRemote UserChoice = "remote"
	ChoiceCustom UserChoice = "custom"
)

type ResolveConflictRequest struct {
	Choice UserChoice `json:"choice" validate:"required,oneof=local remote custom"`
	Entry  *MoodEntry `json:"entry,omitempty"`
}
