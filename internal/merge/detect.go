package merge

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"moodsync-server/internal/domain"
)

// DetectConflicts finds ids present on both replicas whose versions disagree
// beyond tolerance and classifies each disagreement. Order follows the local
// snapshot, so the output is deterministic.
func (e *Engine) DetectConflicts(userID string, local, remote []*domain.MoodEntry) []*domain.Conflict {
	remoteByID := make(map[string]*domain.MoodEntry, len(remote))
	for _, entry := range remote {
		remoteByID[entry.ID] = entry
	}

	var conflicts []*domain.Conflict
	for _, l := range local {
		r, ok := remoteByID[l.ID]
		if !ok || !e.hasConflict(l, r) {
			continue
		}
		conflicts = append(conflicts, &domain.Conflict{
			ID:         uuid.New().String(),
			EntryID:    l.ID,
			UserID:     userID,
			Type:       e.conflictType(l, r),
			Severity:   e.conflictSeverity(l, r),
			Local:      l,
			Remote:     r,
			DetectedAt: e.now(),
		})
	}
	return conflicts
}

func (e *Engine) hasConflict(l, r *domain.MoodEntry) bool {
	return absInt(l.MoodScore-r.MoodScore) > e.cfg.MoodConflictDelta ||
		absInt(l.EnergyLevel-r.EnergyLevel) > e.cfg.LevelConflictDelta ||
		absInt(l.AnxietyLevel-r.AnxietyLevel) > e.cfg.LevelConflictDelta ||
		timestampGap(l, r) > e.cfg.TimestampConflictGap ||
		l.Synced != r.Synced ||
		strings.TrimSpace(l.Notes) != strings.TrimSpace(r.Notes)
}

// conflictType classifies in priority order: a large timestamp gap dominates,
// then a large content divergence, then a sync flag mismatch; everything
// else is a plain quality disagreement.
func (e *Engine) conflictType(l, r *domain.MoodEntry) domain.ConflictType {
	switch {
	case timestampGap(l, r) > e.cfg.TimestampConflictGap:
		return domain.ConflictTypeTimestamp
	case absInt(l.MoodScore-r.MoodScore) > e.cfg.ContentConflictDelta:
		return domain.ConflictTypeContent
	case l.Synced != r.Synced:
		return domain.ConflictTypeSyncStatus
	default:
		return domain.ConflictTypeDataQuality
	}
}

func (e *Engine) conflictSeverity(l, r *domain.MoodEntry) domain.ConflictSeverity {
	weighted := absInt(l.MoodScore-r.MoodScore) +
		5*absInt(l.EnergyLevel-r.EnergyLevel) +
		5*absInt(l.AnxietyLevel-r.AnxietyLevel)

	switch {
	case weighted > e.cfg.SeverityHighCutoff:
		return domain.SeverityHigh
	case weighted > e.cfg.SeverityMediumCutoff:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func timestampGap(l, r *domain.MoodEntry) time.Duration {
	gap := l.Timestamp.Sub(r.Timestamp)
	if gap < 0 {
		gap = -gap
	}
	return gap
}
