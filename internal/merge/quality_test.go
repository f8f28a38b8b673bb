package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"moodsync-server/internal/domain"
)

func TestScoreQualityFullEntry(t *testing.T) {
	e := newTestEngine()
	full := entry("a", testNow, 60, true)
	full.Notes = "long walk after lunch"
	full.Triggers = []string{"work"}

	score := e.ScoreQuality(full)

	assert.Equal(t, 100, score.Completeness)
	assert.Equal(t, 100, score.Recency)
	assert.Equal(t, 100, score.Consistency)
	assert.Equal(t, 100, score.Reliability)
	assert.Equal(t, 100, score.Overall)
}

func TestScoreQualitySparseUnsyncedEntry(t *testing.T) {
	e := newTestEngine()
	sparse := entry("a", testNow, 60, false)

	score := e.ScoreQuality(sparse)

	assert.Equal(t, 40, score.Completeness)
	assert.Equal(t, 30, score.Reliability)
	// .35*40 + .25*100 + .25*100 + .15*30
	assert.Equal(t, 69, score.Overall)
}

func TestScoreQualityRecencyDecay(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		age  time.Duration
		want int
	}{
		{"fresh", 0, 100},
		{"future timestamp", -time.Hour, 100},
		{"half horizon", 84 * time.Hour, 50},
		{"at horizon", 7 * 24 * time.Hour, 0},
		{"beyond horizon", 30 * 24 * time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := e.ScoreQuality(entry("a", testNow.Add(-tt.age), 60, true))
			assert.Equal(t, tt.want, score.Recency)
		})
	}
}

func TestScoreQualityPenalizesOutOfRangeFields(t *testing.T) {
	e := newTestEngine()

	bad := entry("a", testNow, 150, true)
	assert.Equal(t, 75, e.ScoreQuality(bad).Consistency)

	bad.EnergyLevel = -1
	assert.Equal(t, 50, e.ScoreQuality(bad).Consistency)

	bad.AnxietyLevel = 99
	assert.Equal(t, 25, e.ScoreQuality(bad).Consistency)
}

func TestScoreQualityIsPure(t *testing.T) {
	e := newTestEngine()
	in := entry("a", testNow.Add(-time.Hour), 60, true)
	in.Notes = "note"

	first := e.ScoreQuality(in)
	second := e.ScoreQuality(in)

	assert.Equal(t, first, second)
}

func TestScoreQualityOverallClamped(t *testing.T) {
	cfg := DefaultConfig()
	worst := &domain.MoodEntry{
		ID:           "a",
		Timestamp:    testNow.Add(-365 * 24 * time.Hour),
		MoodScore:    -50,
		EnergyLevel:  -1,
		AnxietyLevel: 99,
	}

	score := scoreQuality(cfg, worst, testNow)

	assert.GreaterOrEqual(t, score.Overall, 0)
	assert.LessOrEqual(t, score.Overall, 100)
}
