package service

import (
	"errors"
	"time"

	"moodsync-server/internal/domain"
	"moodsync-server/internal/merge"
	"moodsync-server/internal/repository"

	"github.com/google/uuid"
)

type EntryService struct {
	repo          repository.EntryRepository
	tombstoneRepo repository.TombstoneRepository
	conflictRepo  repository.ConflictRepository
	engine        *merge.Engine
	syncService   *SyncService
}

func NewEntryService(
	repo repository.EntryRepository,
	tombstoneRepo repository.TombstoneRepository,
	conflictRepo repository.ConflictRepository,
	engine *merge.Engine,
	syncService *SyncService,
) *EntryService {
	return &EntryService{
		repo:          repo,
		tombstoneRepo: tombstoneRepo,
		conflictRepo:  conflictRepo,
		engine:        engine,
		syncService:   syncService,
	}
}

func (s *EntryService) Create(userID string, req *domain.CreateEntryRequest) (*domain.MoodEntry, error) {
	now := time.Now()
	timestamp := req.Timestamp
	if timestamp.IsZero() {
		timestamp = now
	}

	entry := &domain.MoodEntry{
		ID:             uuid.New().String(),
		UserID:         userID,
		Timestamp:      timestamp,
		MoodScore:      req.MoodScore,
		EnergyLevel:    req.EnergyLevel,
		AnxietyLevel:   req.AnxietyLevel,
		Notes:          req.Notes,
		Triggers:       req.Triggers,
		Activities:     req.Activities,
		Synced:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastEditDevice: req.DeviceID,
	}

	if err := s.repo.Create(entry); err != nil {
		return nil, err
	}

	if s.syncService != nil {
		s.syncService.BroadcastEntryUpdate(userID, req.DeviceID, entry)
	}

	return entry, nil
}

func (s *EntryService) GetByID(userID, entryID string) (*domain.MoodEntry, error) {
	entry, err := s.repo.FindByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, errors.New("unauthorized: entry does not belong to user")
	}
	return entry, nil
}

func (s *EntryService) List(userID string) ([]*domain.MoodEntry, error) {
	return s.repo.List(userID)
}

// Update applies a partial edit. An edit based on a version the server has
// moved past is escalated as a stored conflict instead of overwriting.
func (s *EntryService) Update(userID, entryID string, req *domain.UpdateEntryRequest) (*domain.MoodEntry, error) {
	current, err := s.repo.FindByID(entryID)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, errors.New("unauthorized: entry does not belong to user")
	}

	proposed := current.Clone()
	if req.Timestamp != nil {
		proposed.Timestamp = *req.Timestamp
	}
	if req.MoodScore != nil {
		proposed.MoodScore = *req.MoodScore
	}
	if req.EnergyLevel != nil {
		proposed.EnergyLevel = *req.EnergyLevel
	}
	if req.AnxietyLevel != nil {
		proposed.AnxietyLevel = *req.AnxietyLevel
	}
	if req.Notes != nil {
		proposed.Notes = *req.Notes
	}
	if req.Triggers != nil {
		proposed.Triggers = req.Triggers
	}
	if req.Activities != nil {
		proposed.Activities = req.Activities
	}

	if req.BaseUpdatedAt != nil && current.UpdatedAt.After(*req.BaseUpdatedAt) {
		if conflict := s.detectEditConflict(userID, proposed, current); conflict != nil {
			return nil, &PendingConflictError{Conflict: conflict}
		}
	}

	proposed.UpdatedAt = time.Now()
	proposed.LastEditDevice = req.DeviceID

	if err := s.repo.Update(proposed); err != nil {
		return nil, err
	}

	if s.syncService != nil {
		s.syncService.BroadcastEntryUpdate(userID, req.DeviceID, proposed)
	}

	return proposed, nil
}

// detectEditConflict classifies a stale-base edit against the current server
// copy and stores it for the conflict resolution flow. A divergence within
// the engine's tolerances is not worth surfacing and returns nil.
func (s *EntryService) detectEditConflict(userID string, proposed, current *domain.MoodEntry) *domain.Conflict {
	if s.engine == nil {
		return nil
	}
	conflicts := s.engine.DetectConflicts(userID,
		[]*domain.MoodEntry{proposed}, []*domain.MoodEntry{current})
	if len(conflicts) == 0 {
		return nil
	}

	conflict := conflicts[0]
	// a failed store still surfaces the conflict; resolution then comes
	// through the next merge instead
	_ = s.conflictRepo.Create(conflict)
	return conflict
}

// Delete removes the entry and records a tombstone so the id cannot be
// resurrected by a stale copy on another device.
func (s *EntryService) Delete(userID, entryID, deviceID string) error {
	entry, err := s.repo.FindByID(entryID)
	if err != nil {
		return err
	}
	if entry.UserID != userID {
		return errors.New("unauthorized: entry does not belong to user")
	}

	if err := s.repo.Delete(entryID); err != nil {
		return err
	}

	tombstone := &domain.Tombstone{
		EntryID:   entryID,
		UserID:    userID,
		DeviceID:  deviceID,
		DeletedAt: time.Now(),
	}
	if err := s.tombstoneRepo.Record(tombstone); err != nil {
		return err
	}

	if s.syncService != nil {
		s.syncService.BroadcastEntryDelete(userID, deviceID, entryID)
	}

	return nil
}
