package merge

import (
	"fmt"
	"time"

	"moodsync-server/internal/domain"
)

// AnalyzeHealth produces an independent diagnostic over the two snapshots.
// It does not feed the merge path; the orchestrator attaches it to the
// response for observability.
func (e *Engine) AnalyzeHealth(userID string, local, remote []*domain.MoodEntry, lastSync *time.Time) *domain.SyncState {
	pending := 0
	for _, entry := range local {
		if !entry.Synced {
			pending++
		}
	}

	conflicts := len(e.DetectConflicts(userID, local, remote))

	sinceSync := e.cfg.StaleSyncDefault
	if lastSync != nil {
		sinceSync = e.now().Sub(*lastSync)
	}
	hours := sinceSync.Hours()

	state := &domain.SyncState{
		PendingUploads: pending,
		ConflictCount:  conflicts,
		HoursSinceSync: hours,
	}

	degradation := 0

	switch {
	case pending > e.cfg.PendingCritical:
		degradation += 2
		state.Recommendations = append(state.Recommendations,
			fmt.Sprintf("%d entries are waiting to upload; connect to sync soon", pending))
	case pending > e.cfg.PendingWarn:
		degradation++
		state.Recommendations = append(state.Recommendations,
			fmt.Sprintf("%d entries have not been uploaded yet", pending))
	}

	switch {
	case conflicts > e.cfg.ConflictCritical:
		degradation += 2
		state.Recommendations = append(state.Recommendations,
			fmt.Sprintf("%d conflicts need attention; review them before they pile up", conflicts))
	case conflicts > e.cfg.ConflictWarn:
		degradation++
		state.Recommendations = append(state.Recommendations,
			fmt.Sprintf("%d conflicts detected between your devices", conflicts))
	}

	switch {
	case sinceSync > e.cfg.StaleCritical:
		degradation += 2
		state.Recommendations = append(state.Recommendations,
			fmt.Sprintf("last sync was %.0f hours ago; sync now to avoid drift", hours))
	case sinceSync > e.cfg.StaleWarn:
		degradation++
		state.Recommendations = append(state.Recommendations,
			fmt.Sprintf("last sync was %.0f hours ago", hours))
	}

	switch {
	case degradation == 0:
		state.Health = domain.HealthExcellent
		state.Recommendations = []string{"everything is in sync"}
	case degradation == 1:
		state.Health = domain.HealthGood
	case degradation <= 3:
		state.Health = domain.HealthFair
	default:
		state.Health = domain.HealthPoor
	}

	return state
}
