package merge

import (
	"fmt"

	"moodsync-server/internal/domain"
)

// Resolve picks a strategy for one conflict and fills in its Resolution.
// Rules run in order and the first match wins: a clear quality gap is the
// strongest signal, a large timestamp gap is simple staleness, minor
// divergence gets a field-level merge, and only irreducible high-severity
// disagreement is escalated to the user.
func (e *Engine) Resolve(conflict *domain.Conflict) *domain.Resolution {
	localQ := e.ScoreQuality(conflict.Local)
	remoteQ := e.ScoreQuality(conflict.Remote)

	if absInt(localQ.Overall-remoteQ.Overall) > e.cfg.QualityGap {
		if localQ.Overall > remoteQ.Overall {
			return &domain.Resolution{
				Strategy:        domain.ResolutionLocalWins,
				Reason:          fmt.Sprintf("local quality %d exceeds remote %d", localQ.Overall, remoteQ.Overall),
				Merged:          conflict.Local.Clone(),
				FieldsPreserved: []string{"local"},
				FieldsLost:      []string{"remote"},
				Confidence:      0.85,
			}
		}
		return &domain.Resolution{
			Strategy:        domain.ResolutionRemoteWins,
			Reason:          fmt.Sprintf("remote quality %d exceeds local %d", remoteQ.Overall, localQ.Overall),
			Merged:          conflict.Remote.Clone(),
			FieldsPreserved: []string{"remote"},
			FieldsLost:      []string{"local"},
			Confidence:      0.85,
		}
	}

	if conflict.Type == domain.ConflictTypeTimestamp && timestampGap(conflict.Local, conflict.Remote) > e.cfg.TimestampConflictGap {
		if conflict.Local.Timestamp.After(conflict.Remote.Timestamp) {
			return &domain.Resolution{
				Strategy:        domain.ResolutionLocalWins,
				Reason:          "local version is more recent",
				Merged:          conflict.Local.Clone(),
				FieldsPreserved: []string{"local"},
				FieldsLost:      []string{"remote"},
				Confidence:      0.9,
			}
		}
		return &domain.Resolution{
			Strategy:        domain.ResolutionRemoteWins,
			Reason:          "remote version is more recent",
			Merged:          conflict.Remote.Clone(),
			FieldsPreserved: []string{"remote"},
			FieldsLost:      []string{"local"},
			Confidence:      0.9,
		}
	}

	switch conflict.Severity {
	case domain.SeverityLow, domain.SeverityMedium:
		merged, preserved, lost := e.blend(conflict.Local, conflict.Remote, localQ, remoteQ)
		return &domain.Resolution{
			Strategy:        domain.ResolutionIntelligentMerge,
			Reason:          "minor divergence merged field by field",
			Merged:          merged,
			FieldsPreserved: preserved,
			FieldsLost:      lost,
			Confidence:      0.75,
		}

	case domain.SeverityHigh:
		// Neither side is discarded: the conflict record carries both
		// versions until the user decides. The local version stands in as
		// the working copy meanwhile.
		return &domain.Resolution{
			Strategy:        domain.ResolutionUserChoiceRequired,
			Reason:          "versions diverge too far to merge automatically",
			Merged:          conflict.Local.Clone(),
			FieldsPreserved: []string{"local", "remote"},
			Confidence:      0.3,
		}
	}

	// Unreachable with a well-formed conflict; prefer the side a replica
	// already confirmed durable.
	winner, tag, strategy := conflict.Local, "local", domain.ResolutionLocalWins
	if conflict.Remote.Synced && !conflict.Local.Synced {
		winner, tag, strategy = conflict.Remote, "remote", domain.ResolutionRemoteWins
	}
	return &domain.Resolution{
		Strategy:        strategy,
		Reason:          fmt.Sprintf("fallback: preferring synced %s version", tag),
		Merged:          winner.Clone(),
		FieldsPreserved: []string{tag},
		Confidence:      0.6,
	}
}
