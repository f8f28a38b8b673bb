package service

import (
	"time"

	"moodsync-server/internal/domain"
	"moodsync-server/internal/merge"
	"moodsync-server/internal/repository"
	"moodsync-server/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SyncService struct {
	entryRepo    repository.EntryRepository
	conflictRepo repository.ConflictRepository
	metadataRepo repository.SyncMetadataRepository
	historyRepo  repository.MergeHistoryRepository
	engine       *merge.Engine
	wsManager    *websocket.Manager
	logger       *zap.Logger
}

func NewSyncService(
	entryRepo repository.EntryRepository,
	conflictRepo repository.ConflictRepository,
	metadataRepo repository.SyncMetadataRepository,
	historyRepo repository.MergeHistoryRepository,
	engine *merge.Engine,
	wsManager *websocket.Manager,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		entryRepo:    entryRepo,
		conflictRepo: conflictRepo,
		metadataRepo: metadataRepo,
		historyRepo:  historyRepo,
		engine:       engine,
		wsManager:    wsManager,
		logger:       logger,
	}
}

// ProcessMerge reconciles the device's snapshot against the server replica,
// persists the merged view back, and stores any conflicts that need the
// user's decision. The engine itself never fails; a degraded run comes back
// with SyncSuccess=false and the union result is still returned.
func (s *SyncService) ProcessMerge(userID string, req *domain.MergeRequest) (*domain.MergeResponse, error) {
	remote, err := s.entryRepo.List(userID)
	if err != nil {
		return nil, err
	}

	result := s.engine.Merge(userID, req.Entries, remote)
	syncTime := time.Now()

	if result.Stats.SyncSuccess {
		for _, entry := range result.Entries {
			entry.Synced = true
			entry.UpdatedAt = syncTime
		}
		if err := s.entryRepo.ReplaceAll(userID, result.Entries); err != nil {
			return nil, err
		}
	}

	pending := s.storeEscalatedConflicts(result, req.DeviceID)

	metadata := &domain.SyncMetadata{
		UserID:           userID,
		DeviceID:         req.DeviceID,
		LastSyncTime:     syncTime,
		PendingConflicts: pending,
		UpdatedAt:        syncTime,
	}
	if err := s.metadataRepo.Upsert(metadata); err != nil {
		s.logger.Warn("failed to update sync metadata", zap.String("user_id", userID), zap.Error(err))
	}

	record := &domain.MergeRecord{
		ID:                uuid.New().String(),
		UserID:            userID,
		DeviceID:          req.DeviceID,
		LocalCount:        len(req.Entries),
		RemoteCount:       len(remote),
		MergedCount:       result.Stats.TotalEntries,
		ConflictsResolved: result.Stats.ConflictsResolved,
		DuplicatesRemoved: result.Stats.DuplicatesRemoved,
		SyncSuccess:       result.Stats.SyncSuccess,
		MergedAt:          syncTime,
	}
	if err := s.historyRepo.Save(record); err != nil {
		s.logger.Warn("failed to save merge record", zap.String("user_id", userID), zap.Error(err))
	}

	state := s.engine.AnalyzeHealth(userID, req.Entries, remote, req.LastSyncTime)

	s.broadcastMergeCompleted(userID, req.DeviceID, result, syncTime)

	return &domain.MergeResponse{
		Result:   result,
		State:    state,
		SyncTime: syncTime,
	}, nil
}

// storeEscalatedConflicts persists every conflict the engine could not
// settle automatically, notifies the user's other devices, and returns the
// stored ids.
func (s *SyncService) storeEscalatedConflicts(result *domain.MergeResult, deviceID string) []string {
	pending := []string{}
	for _, c := range result.Conflicts {
		if c.Resolution == nil || c.Resolution.Strategy != domain.ResolutionUserChoiceRequired {
			continue
		}
		if err := s.conflictRepo.Create(c); err != nil {
			s.logger.Warn("failed to store conflict", zap.String("conflict_id", c.ID), zap.Error(err))
			continue
		}
		pending = append(pending, c.ID)
		s.broadcastConflict(c.UserID, deviceID, c)
	}
	return pending
}

func (s *SyncService) broadcastConflict(userID, deviceID string, conflict *domain.Conflict) {
	if s.wsManager == nil {
		return
	}
	msg, err := websocket.NewMessage(websocket.TypeConflict, &websocket.ConflictPayload{
		ConflictID: conflict.ID,
		EntryID:    conflict.EntryID,
		Type:       conflict.Type,
		Severity:   conflict.Severity,
	})
	if err != nil {
		s.logger.Warn("failed to build conflict message", zap.Error(err))
		return
	}
	if err := s.wsManager.BroadcastToUser(userID, msg, deviceID); err != nil {
		s.logger.Warn("failed to broadcast conflict", zap.Error(err))
	}
}

// GetHealth reports the server-side view of sync health for one device. The
// device's unsynced entries are not visible here, so pending counts reflect
// what the server knows.
func (s *SyncService) GetHealth(userID, deviceID string) (*domain.SyncState, error) {
	remote, err := s.entryRepo.List(userID)
	if err != nil {
		return nil, err
	}

	metadata, err := s.metadataRepo.Get(userID, deviceID)
	if err != nil {
		return nil, err
	}

	var lastSync *time.Time
	if !metadata.LastSyncTime.IsZero() {
		lastSync = &metadata.LastSyncTime
	}

	return s.engine.AnalyzeHealth(userID, nil, remote, lastSync), nil
}

// GetChangesSince feeds pull-based catch-up. A device that identifies itself
// gets its last-sync time bumped so staleness reporting stays accurate.
func (s *SyncService) GetChangesSince(userID, deviceID string, since time.Time) ([]*domain.MoodEntry, error) {
	changes, err := s.entryRepo.ListSince(userID, since)
	if err != nil {
		return nil, err
	}

	if deviceID != "" {
		if err := s.metadataRepo.UpdateLastSync(userID, deviceID, time.Now()); err != nil {
			s.logger.Warn("failed to update last sync time",
				zap.String("user_id", userID), zap.String("device_id", deviceID), zap.Error(err))
		}
	}

	return changes, nil
}

// GetMergeHistory returns the most recent merge audit records for the user.
func (s *SyncService) GetMergeHistory(userID string, limit int) ([]*domain.MergeRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.historyRepo.ListByUser(userID, limit)
}

func (s *SyncService) BroadcastEntryUpdate(userID, deviceID string, entry *domain.MoodEntry) {
	if s.wsManager == nil {
		return
	}
	msg, err := websocket.NewMessage(websocket.TypeEntryUpdate, &websocket.EntryUpdatePayload{
		EntryID:   entry.ID,
		Entry:     entry,
		UpdatedAt: entry.UpdatedAt,
		DeviceID:  deviceID,
	})
	if err != nil {
		s.logger.Warn("failed to build entry update message", zap.Error(err))
		return
	}
	if err := s.wsManager.BroadcastToUser(userID, msg, deviceID); err != nil {
		s.logger.Warn("failed to broadcast entry update", zap.Error(err))
	}
}

func (s *SyncService) BroadcastEntryDelete(userID, deviceID, entryID string) {
	if s.wsManager == nil {
		return
	}
	msg, err := websocket.NewMessage(websocket.TypeEntryDelete, &websocket.EntryDeletePayload{
		EntryID:  entryID,
		DeviceID: deviceID,
	})
	if err != nil {
		s.logger.Warn("failed to build entry delete message", zap.Error(err))
		return
	}
	if err := s.wsManager.BroadcastToUser(userID, msg, deviceID); err != nil {
		s.logger.Warn("failed to broadcast entry delete", zap.Error(err))
	}
}

func (s *SyncService) broadcastMergeCompleted(userID, deviceID string, result *domain.MergeResult, syncTime time.Time) {
	if s.wsManager == nil {
		return
	}
	msg, err := websocket.NewMessage(websocket.TypeMergeCompleted, &websocket.MergeCompletedPayload{
		DeviceID:          deviceID,
		MergedCount:       result.Stats.TotalEntries,
		ConflictsResolved: result.Stats.ConflictsResolved,
		DuplicatesRemoved: result.Stats.DuplicatesRemoved,
		SyncSuccess:       result.Stats.SyncSuccess,
		SyncTime:          syncTime,
	})
	if err != nil {
		s.logger.Warn("failed to build merge completed message", zap.Error(err))
		return
	}
	if err := s.wsManager.BroadcastToUser(userID, msg, deviceID); err != nil {
		s.logger.Warn("failed to broadcast merge completion", zap.Error(err))
	}
}
