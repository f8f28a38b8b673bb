package service

import (
	"errors"
	"testing"
	"time"

	"moodsync-server/internal/domain"
	"moodsync-server/internal/merge"
)

func newTestEntryService() (*EntryService, *mockEntryRepository, *mockTombstoneRepository, *mockConflictRepository) {
	entryRepo := newMockEntryRepository()
	tombstoneRepo := &mockTombstoneRepository{}
	conflictRepo := newMockConflictRepository()
	engine := merge.New(merge.DefaultConfig(), tombstoneRepo, nil)
	svc := NewEntryService(entryRepo, tombstoneRepo, conflictRepo, engine, nil)
	return svc, entryRepo, tombstoneRepo, conflictRepo
}

func TestEntryService_Create(t *testing.T) {
	svc, entryRepo, _, _ := newTestEntryService()

	entry, err := svc.Create("user-1", &domain.CreateEntryRequest{
		MoodScore:    72,
		EnergyLevel:  6,
		AnxietyLevel: 3,
		Notes:        "good afternoon",
		Triggers:     []string{"exercise"},
		DeviceID:     "device-1",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if entry.ID == "" {
		t.Error("expected a generated id")
	}
	if !entry.Synced {
		t.Error("server-created entries should be synced")
	}
	if entry.Timestamp.IsZero() {
		t.Error("expected a default timestamp")
	}
	if entry.LastEditDevice != "device-1" {
		t.Errorf("last edit device = %s, want device-1", entry.LastEditDevice)
	}
	if _, err := entryRepo.FindByID(entry.ID); err != nil {
		t.Errorf("entry not persisted: %v", err)
	}
}

func TestEntryService_CreateKeepsExplicitTimestamp(t *testing.T) {
	svc, _, _, _ := newTestEntryService()
	ts := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	entry, err := svc.Create("user-1", &domain.CreateEntryRequest{
		Timestamp: ts,
		MoodScore: 50,
		DeviceID:  "device-1",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !entry.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", entry.Timestamp, ts)
	}
}

func TestEntryService_GetByIDChecksOwnership(t *testing.T) {
	svc, entryRepo, _, _ := newTestEntryService()
	entryRepo.Create(moodEntry("a", "user-1", 50, true))

	if _, err := svc.GetByID("user-1", "a"); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
	if _, err := svc.GetByID("user-2", "a"); err == nil {
		t.Error("expected an error for a foreign entry")
	}
}

func TestEntryService_UpdateAppliesPartialChanges(t *testing.T) {
	svc, entryRepo, _, _ := newTestEntryService()

	existing := moodEntry("a", "user-1", 50, true)
	existing.Notes = "original"
	entryRepo.Create(existing)

	mood := 65
	updated, err := svc.Update("user-1", "a", &domain.UpdateEntryRequest{
		MoodScore: &mood,
		DeviceID:  "device-2",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.MoodScore != 65 {
		t.Errorf("mood = %d, want 65", updated.MoodScore)
	}
	if updated.Notes != "original" {
		t.Errorf("notes = %q, untouched fields must survive", updated.Notes)
	}
	if updated.LastEditDevice != "device-2" {
		t.Errorf("last edit device = %s, want device-2", updated.LastEditDevice)
	}
}

func TestEntryService_UpdateStaleBaseSurfacesConflict(t *testing.T) {
	svc, entryRepo, _, conflictRepo := newTestEntryService()

	existing := moodEntry("a", "user-1", 50, true)
	existing.UpdatedAt = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	entryRepo.Create(existing)

	base := existing.UpdatedAt.Add(-10 * time.Minute)
	mood := 80
	_, err := svc.Update("user-1", "a", &domain.UpdateEntryRequest{
		MoodScore:     &mood,
		BaseUpdatedAt: &base,
		DeviceID:      "device-2",
	})

	var conflictErr *PendingConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("Update() error = %v, want a pending conflict", err)
	}
	if conflictErr.Conflict.EntryID != "a" {
		t.Errorf("conflict entry = %s, want a", conflictErr.Conflict.EntryID)
	}
	if _, ok := conflictRepo.conflicts[conflictErr.Conflict.ID]; !ok {
		t.Error("conflict should be stored for later resolution")
	}
	if got, _ := entryRepo.FindByID("a"); got.MoodScore != 50 {
		t.Errorf("mood = %d, a conflicted edit must not overwrite", got.MoodScore)
	}
}

func TestEntryService_UpdateStaleBaseWithinToleranceProceeds(t *testing.T) {
	svc, entryRepo, _, conflictRepo := newTestEntryService()

	existing := moodEntry("a", "user-1", 50, true)
	existing.UpdatedAt = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	entryRepo.Create(existing)

	base := existing.UpdatedAt.Add(-10 * time.Minute)
	mood := 54
	updated, err := svc.Update("user-1", "a", &domain.UpdateEntryRequest{
		MoodScore:     &mood,
		BaseUpdatedAt: &base,
		DeviceID:      "device-2",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.MoodScore != 54 {
		t.Errorf("mood = %d, want 54", updated.MoodScore)
	}
	if len(conflictRepo.conflicts) != 0 {
		t.Errorf("conflicts = %d, a small divergence should pass through", len(conflictRepo.conflicts))
	}
}

func TestEntryService_DeleteRecordsTombstone(t *testing.T) {
	svc, entryRepo, tombstoneRepo, _ := newTestEntryService()
	entryRepo.Create(moodEntry("a", "user-1", 50, true))

	if err := svc.Delete("user-1", "a", "device-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := entryRepo.FindByID("a"); err == nil {
		t.Error("entry should be gone")
	}
	ids, _ := tombstoneRepo.RecentlyDeletedIDs("user-1")
	if len(ids) != 1 || ids[0] != "a" {
		t.Errorf("tombstones = %v, want [a]", ids)
	}
}

func TestEntryService_DeleteForeignEntryRejected(t *testing.T) {
	svc, entryRepo, tombstoneRepo, _ := newTestEntryService()
	entryRepo.Create(moodEntry("a", "user-1", 50, true))

	if err := svc.Delete("user-2", "a", "device-1"); err == nil {
		t.Error("expected an error for a foreign entry")
	}
	if len(tombstoneRepo.tombstones) != 0 {
		t.Error("no tombstone should be written for a rejected delete")
	}
}
