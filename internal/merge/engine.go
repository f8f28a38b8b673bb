// Package merge reconciles a user's mood-entry history from two divergent
// replica snapshots: the on-device store and the server store. It is a pure
// in-memory computation with no process-wide state, so one Engine can serve
// concurrent merges for different users; merges for the same user are
// expected to be serialized by the caller.
package merge

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"moodsync-server/internal/domain"
	"moodsync-server/internal/telemetry"
)

// TombstoneLookup reports entry ids deleted on some replica within the
// retention window. A nil lookup or a lookup error both degrade to "no
// deletions known" rather than failing the merge.
type TombstoneLookup interface {
	RecentlyDeletedIDs(userID string) ([]string, error)
}

type Engine struct {
	cfg        Config
	tombstones TombstoneLookup
	emitter    telemetry.Emitter
	now        func() time.Time
}

func New(cfg Config, tombstones TombstoneLookup, emitter telemetry.Emitter) *Engine {
	if emitter == nil {
		emitter = telemetry.Nop{}
	}
	return &Engine{
		cfg:        cfg,
		tombstones: tombstones,
		emitter:    emitter,
		now:        time.Now,
	}
}

// Merge reconciles the two snapshots into a single deterministic view. It
// never returns an error: if anything inside the pipeline breaks, the
// result degrades to a naive union of the two original inputs with
// Stats.SyncSuccess=false so the caller never loses data.
func (e *Engine) Merge(userID string, local, remote []*domain.MoodEntry) *domain.MergeResult {
	start := e.now()
	e.emit(func() { e.emitter.MergeStarted(userID, len(local), len(remote)) })

	result, err := e.run(userID, local, remote)
	if err != nil {
		e.emit(func() { e.emitter.MergeFailed(userID, err.Error(), e.now().Sub(start)) })
		return e.naiveUnion(local, remote)
	}

	e.emit(func() {
		e.emitter.MergeCompleted(userID, e.now().Sub(start),
			result.Stats.ConflictsResolved, result.Stats.DuplicatesRemoved, result.Stats.TotalEntries)
	})
	return result
}

// run is the intelligent path; any panic is converted to an error at this
// boundary so Merge can fall back.
func (e *Engine) run(userID string, local, remote []*domain.MoodEntry) (result *domain.MergeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("merge pipeline panic: %v", r)
		}
	}()

	local = e.filterTombstoned(userID, local)
	remote = e.filterTombstoned(userID, remote)

	inputQuality := e.averageQuality(append(append([]*domain.MoodEntry(nil), local...), remote...))

	dedupedLocal, dedupedRemote, removed := e.Dedupe(local, remote)

	conflicts := e.DetectConflicts(userID, dedupedLocal, dedupedRemote)
	summary := make(map[domain.ResolutionStrategy]int)
	for _, c := range conflicts {
		c.Resolution = e.Resolve(c)
		summary[c.Resolution.Strategy]++
	}

	entries := e.assemble(dedupedLocal, dedupedRemote, conflicts)
	e.normalize(entries, local, remote)

	return &domain.MergeResult{
		Entries:   entries,
		Conflicts: conflicts,
		Stats: domain.MergeStats{
			TotalEntries:      len(entries),
			ConflictsResolved: len(conflicts),
			DuplicatesRemoved: removed,
			QualityImproved:   e.averageQuality(entries) > inputQuality,
			SyncSuccess:       true,
		},
		StrategySummary: summary,
	}, nil
}

func (e *Engine) filterTombstoned(userID string, entries []*domain.MoodEntry) []*domain.MoodEntry {
	if e.tombstones == nil {
		return entries
	}
	ids, err := e.tombstones.RecentlyDeletedIDs(userID)
	if err != nil || len(ids) == 0 {
		return entries
	}
	deleted := make(map[string]bool, len(ids))
	for _, id := range ids {
		deleted[id] = true
	}
	kept := make([]*domain.MoodEntry, 0, len(entries))
	for _, entry := range entries {
		if !deleted[entry.ID] {
			kept = append(kept, entry)
		}
	}
	return kept
}

// assemble builds the final list: every non-conflicting entry from both
// sides plus each conflict's merged version, one entry per id, newest first.
func (e *Engine) assemble(local, remote []*domain.MoodEntry, conflicts []*domain.Conflict) []*domain.MoodEntry {
	conflicted := make(map[string]bool, len(conflicts))
	var entries []*domain.MoodEntry
	for _, c := range conflicts {
		conflicted[c.EntryID] = true
		entries = append(entries, c.Resolution.Merged)
	}

	for _, entry := range append(append([]*domain.MoodEntry(nil), local...), remote...) {
		if !conflicted[entry.ID] {
			entries = append(entries, entry.Clone())
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	seen := make(map[string]bool, len(entries))
	deduped := entries[:0]
	for _, entry := range entries {
		if seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		deduped = append(deduped, entry)
	}
	return deduped
}

// normalize is the final quality pass: numeric fields clamped into range,
// text trimmed, tag sets deduplicated, and synced restored as the logical OR
// of every source value for that id.
func (e *Engine) normalize(entries []*domain.MoodEntry, local, remote []*domain.MoodEntry) {
	syncedAny := make(map[string]bool, len(local)+len(remote))
	for _, entry := range append(append([]*domain.MoodEntry(nil), local...), remote...) {
		syncedAny[entry.ID] = syncedAny[entry.ID] || entry.Synced
	}

	for _, entry := range entries {
		entry.MoodScore = clampScore(entry.MoodScore, domain.MoodScoreMin, domain.MoodScoreMax)
		entry.EnergyLevel = clampScore(entry.EnergyLevel, domain.LevelMin, domain.LevelMax)
		entry.AnxietyLevel = clampScore(entry.AnxietyLevel, domain.LevelMin, domain.LevelMax)
		entry.Notes = strings.TrimSpace(entry.Notes)
		entry.Triggers = unionTags(entry.Triggers, nil)
		entry.Activities = unionTags(entry.Activities, nil)
		entry.Synced = entry.Synced || syncedAny[entry.ID]
	}
}

// naiveUnion is the failure fallback: both original inputs, one entry per
// id, no intelligence applied. It must survive whatever input broke the
// intelligent path, so nil entries are skipped rather than dereferenced.
func (e *Engine) naiveUnion(local, remote []*domain.MoodEntry) *domain.MergeResult {
	seen := make(map[string]bool, len(local)+len(remote))
	var entries []*domain.MoodEntry
	for _, entry := range append(append([]*domain.MoodEntry(nil), local...), remote...) {
		if entry == nil || seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		entries = append(entries, entry.Clone())
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	return &domain.MergeResult{
		Entries:         entries,
		Stats:           domain.MergeStats{TotalEntries: len(entries), SyncSuccess: false},
		StrategySummary: map[domain.ResolutionStrategy]int{},
	}
}

func (e *Engine) averageQuality(entries []*domain.MoodEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, entry := range entries {
		sum += e.ScoreQuality(entry).Overall
	}
	return float64(sum) / float64(len(entries))
}

// emit runs a telemetry call shielded from the merge path: emitters are
// fire-and-forget and must never fail or block the merge.
func (e *Engine) emit(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
