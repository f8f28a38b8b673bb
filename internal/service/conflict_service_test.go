package service

import (
	"errors"
	"testing"
	"time"

	"moodsync-server/internal/domain"
)

func pendingConflict(id, userID string) *domain.Conflict {
	local := moodEntry("entry-1", userID, 30, false)
	local.Notes = "device version"
	remote := moodEntry("entry-1", userID, 75, true)
	remote.Notes = "server version"

	return &domain.Conflict{
		ID:         id,
		EntryID:    "entry-1",
		UserID:     userID,
		Type:       domain.ConflictTypeContent,
		Severity:   domain.SeverityHigh,
		Local:      local,
		Remote:     remote,
		DetectedAt: time.Now(),
	}
}

func newTestConflictService() (*ConflictService, *mockConflictRepository, *mockEntryRepository) {
	conflictRepo := newMockConflictRepository()
	entryRepo := newMockEntryRepository()
	svc := NewConflictService(conflictRepo, entryRepo)
	return svc, conflictRepo, entryRepo
}

func TestConflictService_ApplyChoiceLocal(t *testing.T) {
	svc, conflictRepo, entryRepo := newTestConflictService()
	conflictRepo.Create(pendingConflict("c1", "user-1"))

	chosen, err := svc.ApplyChoice("user-1", "c1", &domain.ResolveConflictRequest{Choice: domain.ChoiceLocal})
	if err != nil {
		t.Fatalf("ApplyChoice() error = %v", err)
	}

	if chosen.Notes != "device version" {
		t.Errorf("notes = %q, want the local version", chosen.Notes)
	}
	if !chosen.Synced {
		t.Error("the chosen entry must be marked synced")
	}

	stored, err := entryRepo.FindByID("entry-1")
	if err != nil {
		t.Fatalf("chosen entry not persisted: %v", err)
	}
	if stored.MoodScore != 30 {
		t.Errorf("stored mood = %d, want 30", stored.MoodScore)
	}

	resolved, _ := conflictRepo.Get("c1")
	if resolved.ResolvedAt == nil {
		t.Error("conflict should be marked resolved")
	}
	if resolved.Resolution.Strategy != domain.ResolutionLocalWins {
		t.Errorf("strategy = %s, want %s", resolved.Resolution.Strategy, domain.ResolutionLocalWins)
	}
	if resolved.Resolution.Confidence != 1.0 {
		t.Errorf("confidence = %v, a user decision is always 1.0", resolved.Resolution.Confidence)
	}
}

func TestConflictService_ApplyChoiceRemote(t *testing.T) {
	svc, conflictRepo, _ := newTestConflictService()
	conflictRepo.Create(pendingConflict("c1", "user-1"))

	chosen, err := svc.ApplyChoice("user-1", "c1", &domain.ResolveConflictRequest{Choice: domain.ChoiceRemote})
	if err != nil {
		t.Fatalf("ApplyChoice() error = %v", err)
	}
	if chosen.MoodScore != 75 {
		t.Errorf("mood = %d, want the remote version", chosen.MoodScore)
	}
}

func TestConflictService_ApplyChoiceCustom(t *testing.T) {
	svc, conflictRepo, entryRepo := newTestConflictService()
	conflictRepo.Create(pendingConflict("c1", "user-1"))

	custom := moodEntry("whatever-the-client-sent", "user-1", 55, false)
	custom.Notes = "hand-edited"

	chosen, err := svc.ApplyChoice("user-1", "c1", &domain.ResolveConflictRequest{
		Choice: domain.ChoiceCustom,
		Entry:  custom,
	})
	if err != nil {
		t.Fatalf("ApplyChoice() error = %v", err)
	}

	// the custom entry is forced onto the conflicted id
	if chosen.ID != "entry-1" {
		t.Errorf("id = %s, want entry-1", chosen.ID)
	}
	if _, err := entryRepo.FindByID("entry-1"); err != nil {
		t.Errorf("custom entry not persisted: %v", err)
	}
}

func TestConflictService_ApplyChoiceCustomRequiresEntry(t *testing.T) {
	svc, conflictRepo, _ := newTestConflictService()
	conflictRepo.Create(pendingConflict("c1", "user-1"))

	if _, err := svc.ApplyChoice("user-1", "c1", &domain.ResolveConflictRequest{Choice: domain.ChoiceCustom}); err == nil {
		t.Error("expected an error without a custom entry")
	}
}

func TestConflictService_ApplyChoiceForeignConflict(t *testing.T) {
	svc, conflictRepo, _ := newTestConflictService()
	conflictRepo.Create(pendingConflict("c1", "user-1"))

	_, err := svc.ApplyChoice("user-2", "c1", &domain.ResolveConflictRequest{Choice: domain.ChoiceLocal})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

func TestConflictService_ApplyChoiceAlreadyResolved(t *testing.T) {
	svc, conflictRepo, _ := newTestConflictService()

	c := pendingConflict("c1", "user-1")
	now := time.Now()
	c.ResolvedAt = &now
	conflictRepo.Create(c)

	if _, err := svc.ApplyChoice("user-1", "c1", &domain.ResolveConflictRequest{Choice: domain.ChoiceLocal}); err == nil {
		t.Error("expected an error for an already resolved conflict")
	}
}

func TestConflictService_Dismiss(t *testing.T) {
	svc, conflictRepo, _ := newTestConflictService()
	conflictRepo.Create(pendingConflict("c1", "user-1"))

	if err := svc.Dismiss("user-2", "c1"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}

	if err := svc.Dismiss("user-1", "c1"); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}
	if _, err := conflictRepo.Get("c1"); err == nil {
		t.Error("dismissed conflict should be gone")
	}
}

func TestConflictService_ApplyChoiceUpdatesExistingEntry(t *testing.T) {
	svc, conflictRepo, entryRepo := newTestConflictService()
	conflictRepo.Create(pendingConflict("c1", "user-1"))
	entryRepo.Create(moodEntry("entry-1", "user-1", 30, false))

	chosen, err := svc.ApplyChoice("user-1", "c1", &domain.ResolveConflictRequest{Choice: domain.ChoiceRemote})
	if err != nil {
		t.Fatalf("ApplyChoice() error = %v", err)
	}

	stored, _ := entryRepo.FindByID("entry-1")
	if stored.MoodScore != chosen.MoodScore {
		t.Errorf("stored mood = %d, want %d", stored.MoodScore, chosen.MoodScore)
	}
}
