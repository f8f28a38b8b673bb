package merge

import (
	"math"
	"strings"
	"time"

	"moodsync-server/internal/domain"
)

const (
	completenessBase   = 40
	completenessNotes  = 30
	completenessTags   = 30
	consistencyPenalty = 25
	reliabilitySynced  = 100
	reliabilityLocal   = 30
	recencyHorizon     = 7 * 24 * time.Hour
)

// ScoreQuality rates a single entry's trustworthiness. Pure: the same entry
// and reference time always produce the same score.
func (e *Engine) ScoreQuality(entry *domain.MoodEntry) domain.DataQualityScore {
	return scoreQuality(e.cfg, entry, e.now())
}

func scoreQuality(cfg Config, entry *domain.MoodEntry, now time.Time) domain.DataQualityScore {
	s := domain.DataQualityScore{
		Completeness: completeness(entry),
		Recency:      recency(entry.Timestamp, now),
		Consistency:  consistency(entry),
		Reliability:  reliability(entry),
	}

	overall := cfg.CompletenessWeight*float64(s.Completeness) +
		cfg.RecencyWeight*float64(s.Recency) +
		cfg.ConsistencyWeight*float64(s.Consistency) +
		cfg.ReliabilityWeight*float64(s.Reliability)
	s.Overall = clampScore(int(math.Round(overall)), 0, 100)

	return s
}

// completeness counts the mandatory numeric fields as a base and rewards
// each populated optional field.
func completeness(entry *domain.MoodEntry) int {
	score := completenessBase
	if strings.TrimSpace(entry.Notes) != "" {
		score += completenessNotes
	}
	if len(entry.Triggers) > 0 {
		score += completenessTags
	}
	return score
}

// recency decays linearly from 100 to 0 over a week.
func recency(ts time.Time, now time.Time) int {
	age := now.Sub(ts)
	if age <= 0 {
		return 100
	}
	if age >= recencyHorizon {
		return 0
	}
	return int(math.Round(100 * (1 - float64(age)/float64(recencyHorizon))))
}

// consistency starts at 100 and takes a fixed penalty per out-of-range field.
func consistency(entry *domain.MoodEntry) int {
	score := 100
	if entry.MoodScore < domain.MoodScoreMin || entry.MoodScore > domain.MoodScoreMax {
		score -= consistencyPenalty
	}
	if entry.EnergyLevel < domain.LevelMin || entry.EnergyLevel > domain.LevelMax {
		score -= consistencyPenalty
	}
	if entry.AnxietyLevel < domain.LevelMin || entry.AnxietyLevel > domain.LevelMax {
		score -= consistencyPenalty
	}
	if score < 0 {
		score = 0
	}
	return score
}

func reliability(entry *domain.MoodEntry) int {
	if entry.Synced {
		return reliabilitySynced
	}
	return reliabilityLocal
}

func clampScore(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
