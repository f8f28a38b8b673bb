package merge

import (
	"math"
	"strings"

	"moodsync-server/internal/domain"
)

// mergedNotesSeparator joins both sides' notes when neither can be dropped.
const mergedNotesSeparator = " [merged] "

// blend combines two versions field by field. The higher-quality side is the
// base; the other side supplies anything the base is missing. Numeric fields
// are averaged only when the two values are close enough that the average is
// an inference rather than a fabrication; a populated field is never dropped
// in favor of an empty one.
func (e *Engine) blend(local, remote *domain.MoodEntry, localQ, remoteQ domain.DataQualityScore) (merged *domain.MoodEntry, preserved, lost []string) {
	base, other := local, remote
	baseTag, otherTag := "local", "remote"
	if remoteQ.Overall > localQ.Overall {
		base, other = remote, local
		baseTag, otherTag = "remote", "local"
	}

	merged = base.Clone()
	preserved = append(preserved, baseTag)

	if absInt(base.MoodScore-other.MoodScore) < e.cfg.MoodAverageDelta {
		merged.MoodScore = averageInt(base.MoodScore, other.MoodScore)
		preserved = append(preserved, "mood_score")
	} else {
		lost = append(lost, "mood_score("+otherTag+")")
	}

	if absInt(base.EnergyLevel-other.EnergyLevel) < e.cfg.LevelAverageDelta {
		merged.EnergyLevel = averageInt(base.EnergyLevel, other.EnergyLevel)
		preserved = append(preserved, "energy_level")
	} else {
		lost = append(lost, "energy_level("+otherTag+")")
	}

	if absInt(base.AnxietyLevel-other.AnxietyLevel) < e.cfg.LevelAverageDelta {
		merged.AnxietyLevel = averageInt(base.AnxietyLevel, other.AnxietyLevel)
		preserved = append(preserved, "anxiety_level")
	} else {
		lost = append(lost, "anxiety_level("+otherTag+")")
	}

	merged.Notes = mergeNotes(base.Notes, other.Notes)
	if merged.Notes != strings.TrimSpace(base.Notes) {
		preserved = append(preserved, "notes")
	}

	merged.Triggers = unionTags(base.Triggers, other.Triggers)
	merged.Activities = unionTags(base.Activities, other.Activities)

	if other.Timestamp.After(merged.Timestamp) {
		merged.Timestamp = other.Timestamp
	}
	merged.Synced = base.Synced || other.Synced

	return merged, preserved, lost
}

func mergeNotes(base, other string) string {
	base = strings.TrimSpace(base)
	other = strings.TrimSpace(other)

	switch {
	case base == "":
		return other
	case other == "" || base == other:
		return base
	default:
		return base + mergedNotesSeparator + other
	}
}

// unionTags deduplicates while keeping first-seen order.
func unionTags(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, tag := range append(append([]string(nil), a...), b...) {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func averageInt(a, b int) int {
	return int(math.Round(float64(a+b) / 2))
}
