package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodsync-server/internal/domain"
)

func conflictFor(t *testing.T, e *Engine, l, r *domain.MoodEntry) *domain.Conflict {
	t.Helper()
	conflicts := e.DetectConflicts("user-1", []*domain.MoodEntry{l}, []*domain.MoodEntry{r})
	require.Len(t, conflicts, 1)
	return conflicts[0]
}

func TestResolveQualityGapBeatsTimestampRule(t *testing.T) {
	e := newTestEngine()

	// the local side is older, which would lose on recency, but it is far
	// richer: the quality rule runs first and keeps it
	local := entry("a", testNow.Add(-2*time.Hour), 50, true)
	local.Notes = "detailed reflection on the day"
	local.Triggers = []string{"work", "sleep"}
	remote := entry("a", testNow.Add(-10*time.Minute), 50, false)

	res := e.Resolve(conflictFor(t, e, local, remote))

	assert.Equal(t, domain.ResolutionLocalWins, res.Strategy)
	assert.InDelta(t, 0.85, res.Confidence, 0.001)
	assert.Equal(t, "detailed reflection on the day", res.Merged.Notes)
}

func TestResolveLaterTimestampWinsWhenQualityIsClose(t *testing.T) {
	e := newTestEngine()

	local := entry("a", testNow.Add(-3*time.Hour), 50, true)
	remote := entry("a", testNow.Add(-1*time.Hour), 55, true)

	res := e.Resolve(conflictFor(t, e, local, remote))

	assert.Equal(t, domain.ResolutionRemoteWins, res.Strategy)
	assert.InDelta(t, 0.9, res.Confidence, 0.001)
	assert.Equal(t, 55, res.Merged.MoodScore)
}

func TestResolveBlendAveragesCloseNumericFields(t *testing.T) {
	e := newTestEngine()
	ts := testNow.Add(-time.Hour)

	local := entry("a", ts, 52, true)
	local.Notes = "note"
	remote := entry("a", ts, 61, true)
	remote.Notes = "note"
	remote.EnergyLevel = 6

	res := e.Resolve(conflictFor(t, e, local, remote))

	require.Equal(t, domain.ResolutionIntelligentMerge, res.Strategy)
	assert.Equal(t, 57, res.Merged.MoodScore)
	assert.Equal(t, 6, res.Merged.EnergyLevel)
	assert.Contains(t, res.FieldsPreserved, "mood_score")
	assert.Contains(t, res.FieldsPreserved, "energy_level")
}

func TestResolveBlendKeepsBaseWhenFieldsTooFarApart(t *testing.T) {
	e := newTestEngine()
	ts := testNow.Add(-time.Hour)

	// mood diff 9 averages, energy diff 3 does not
	local := entry("a", ts, 52, true)
	local.Notes = "note"
	remote := entry("a", ts, 61, true)
	remote.Notes = "note"
	remote.EnergyLevel = 8

	res := e.Resolve(conflictFor(t, e, local, remote))

	require.Equal(t, domain.ResolutionIntelligentMerge, res.Strategy)
	assert.Equal(t, 57, res.Merged.MoodScore)
	assert.Equal(t, 5, res.Merged.EnergyLevel)
	assert.Contains(t, res.FieldsLost, "energy_level(remote)")
}

func TestResolveBlendNeverDropsPopulatedNotes(t *testing.T) {
	tests := []struct {
		name                    string
		localNotes, remoteNotes string
		want                    string
	}{
		{"base empty takes other", "", "kept", "kept"},
		{"other empty keeps base", "kept", "", "kept"},
		{"equal collapses", "same", "same", "same"},
		{"both kept when different", "first", "second", "first [merged] second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeNotes(tt.localNotes, tt.remoteNotes))
		})
	}
}

func TestResolveBlendHigherQualitySideIsBase(t *testing.T) {
	e := newTestEngine()
	ts := testNow.Add(-time.Hour)

	// remote is slightly richer (has triggers) but within the quality gap,
	// so it becomes the blend base rather than winning outright
	local := entry("a", ts, 52, true)
	local.Notes = "short"
	remote := entry("a", ts, 61, true)
	remote.Notes = "longer remote note"
	remote.Triggers = []string{"work"}

	res := e.Resolve(conflictFor(t, e, local, remote))

	require.Equal(t, domain.ResolutionIntelligentMerge, res.Strategy)
	assert.Equal(t, "remote", res.FieldsPreserved[0])
	assert.Equal(t, "longer remote note [merged] short", res.Merged.Notes)
}

func TestResolveBlendTakesLaterTimestampAndTagUnion(t *testing.T) {
	e := newTestEngine()

	local := entry("a", testNow.Add(-61*time.Minute), 52, true)
	local.Notes = "note"
	local.Triggers = []string{"work", "sleep"}
	local.Activities = []string{"walk"}
	remote := entry("a", testNow.Add(-60*time.Minute), 61, true)
	remote.Notes = "note"
	remote.Triggers = []string{"sleep", "coffee"}
	remote.Activities = []string{"walk", "reading"}

	res := e.Resolve(conflictFor(t, e, local, remote))

	require.Equal(t, domain.ResolutionIntelligentMerge, res.Strategy)
	assert.Equal(t, testNow.Add(-60*time.Minute), res.Merged.Timestamp)
	assert.Equal(t, []string{"work", "sleep", "coffee"}, res.Merged.Triggers)
	assert.Equal(t, []string{"walk", "reading"}, res.Merged.Activities)
}

func TestResolveHighSeverityRetainsBothVersions(t *testing.T) {
	e := newTestEngine()
	ts := testNow.Add(-time.Hour)

	local := entry("a", ts, 15, true)
	remote := entry("a", ts, 80, true)

	conflict := conflictFor(t, e, local, remote)
	require.Equal(t, domain.SeverityHigh, conflict.Severity)

	res := e.Resolve(conflict)

	assert.Equal(t, domain.ResolutionUserChoiceRequired, res.Strategy)
	assert.ElementsMatch(t, []string{"local", "remote"}, res.FieldsPreserved)
	assert.Empty(t, res.FieldsLost)
	assert.Equal(t, 15, res.Merged.MoodScore)
	assert.NotSame(t, local, res.Merged)
}
