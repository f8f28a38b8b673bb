package merge

import (
	"sort"
	"strings"

	"moodsync-server/internal/domain"
)

// Dedupe removes duplicate records across the two snapshots. Exact
// duplicates are a second copy of an id within the same replica (a
// double-insert); near-duplicates are the same id on both replicas whose
// timestamps fall within the duplicate window, whose mood scores differ by
// less than the score delta, and whose notes agree. In both cases the
// later-seen copy is dropped, which after the descending sort keeps the most
// recent one. Same-id pairs that disagree beyond those tolerances are left
// in place for the conflict detector.
//
// The combined list is sorted with a stable sort and duplicates resolve
// first-seen-wins, so the result is deterministic for a given input pair.
func (e *Engine) Dedupe(local, remote []*domain.MoodEntry) (dedupedLocal, dedupedRemote []*domain.MoodEntry, removed int) {
	type tagged struct {
		entry *domain.MoodEntry
		local bool
	}

	combined := make([]tagged, 0, len(local)+len(remote))
	for _, entry := range local {
		combined = append(combined, tagged{entry: entry, local: true})
	}
	for _, entry := range remote {
		combined = append(combined, tagged{entry: entry, local: false})
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].entry.Timestamp.After(combined[j].entry.Timestamp)
	})

	kept := make([]tagged, 0, len(combined))
	byID := make(map[string][]tagged)

	for _, cand := range combined {
		drop := false
		for _, prev := range byID[cand.entry.ID] {
			if prev.local == cand.local || e.nearDuplicate(prev.entry, cand.entry) {
				drop = true
				break
			}
		}
		if drop {
			removed++
			continue
		}
		kept = append(kept, cand)
		byID[cand.entry.ID] = append(byID[cand.entry.ID], cand)
	}

	for _, t := range kept {
		if t.local {
			dedupedLocal = append(dedupedLocal, t.entry)
		} else {
			dedupedRemote = append(dedupedRemote, t.entry)
		}
	}
	return dedupedLocal, dedupedRemote, removed
}

func (e *Engine) nearDuplicate(a, b *domain.MoodEntry) bool {
	gap := a.Timestamp.Sub(b.Timestamp)
	if gap < 0 {
		gap = -gap
	}
	return gap <= e.cfg.DuplicateWindow &&
		absInt(a.MoodScore-b.MoodScore) < e.cfg.DuplicateScoreDelta &&
		strings.TrimSpace(a.Notes) == strings.TrimSpace(b.Notes)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
