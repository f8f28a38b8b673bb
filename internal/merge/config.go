package merge

import "time"

// Config holds every heuristic constant the engine uses. The defaults come
// from tuning against real journals; none of them has a derivation beyond
// that, so they are kept overridable rather than baked in.
type Config struct {
	// Deduplication: two copies of the same entry collapse when they are
	// this close in time and mood score and their notes agree.
	DuplicateWindow     time.Duration
	DuplicateScoreDelta int

	// Conflict detection tolerances.
	MoodConflictDelta    int
	LevelConflictDelta   int
	TimestampConflictGap time.Duration
	ContentConflictDelta int

	// Severity cut points over the weighted disagreement sum.
	SeverityMediumCutoff int
	SeverityHighCutoff   int

	// Resolution: a side wins outright when its overall quality exceeds the
	// other's by more than QualityGap. Numeric fields are averaged during an
	// intelligent merge only when closer than the *AverageDelta thresholds.
	QualityGap        int
	MoodAverageDelta  int
	LevelAverageDelta int

	// Quality score weights. Must sum to 1.
	CompletenessWeight float64
	RecencyWeight      float64
	ConsistencyWeight  float64
	ReliabilityWeight  float64

	// Health thresholds: first tier degrades the report, second tier
	// degrades it harder.
	PendingWarn      int
	PendingCritical  int
	ConflictWarn     int
	ConflictCritical int
	StaleWarn        time.Duration
	StaleCritical    time.Duration

	// Assumed staleness when no last-sync time is known.
	StaleSyncDefault time.Duration
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		DuplicateWindow:     60 * time.Second,
		DuplicateScoreDelta: 5,

		MoodConflictDelta:    5,
		LevelConflictDelta:   1,
		TimestampConflictGap: 60 * time.Second,
		ContentConflictDelta: 20,

		SeverityMediumCutoff: 15,
		SeverityHighCutoff:   30,

		QualityGap:        20,
		MoodAverageDelta:  10,
		LevelAverageDelta: 2,

		CompletenessWeight: 0.35,
		RecencyWeight:      0.25,
		ConsistencyWeight:  0.25,
		ReliabilityWeight:  0.15,

		PendingWarn:      5,
		PendingCritical:  10,
		ConflictWarn:     2,
		ConflictCritical: 5,
		StaleWarn:        24 * time.Hour,
		StaleCritical:    48 * time.Hour,

		StaleSyncDefault: 7 * 24 * time.Hour,
	}
}
