package service

import (
	"errors"
	"fmt"
	"time"

	"moodsync-server/internal/domain"
	"moodsync-server/internal/repository"
)

type ConflictService struct {
	conflictRepo repository.ConflictRepository
	entryRepo    repository.EntryRepository
}

func NewConflictService(
	conflictRepo repository.ConflictRepository,
	entryRepo repository.EntryRepository,
) *ConflictService {
	return &ConflictService{
		conflictRepo: conflictRepo,
		entryRepo:    entryRepo,
	}
}

func (s *ConflictService) Get(conflictID string) (*domain.Conflict, error) {
	return s.conflictRepo.Get(conflictID)
}

func (s *ConflictService) ListPending(userID string) ([]*domain.Conflict, error) {
	return s.conflictRepo.ListPending(userID)
}

// ApplyChoice settles an escalated conflict with the user's decision and
// persists the winning entry as the server copy.
func (s *ConflictService) ApplyChoice(userID, conflictID string, req *domain.ResolveConflictRequest) (*domain.MoodEntry, error) {
	conflict, err := s.conflictRepo.Get(conflictID)
	if err != nil {
		return nil, err
	}

	if conflict.UserID != userID {
		return nil, ErrUnauthorized
	}
	if conflict.ResolvedAt != nil {
		return nil, errors.New("conflict already resolved")
	}

	var chosen *domain.MoodEntry
	switch req.Choice {
	case domain.ChoiceLocal:
		chosen = conflict.Local.Clone()

	case domain.ChoiceRemote:
		chosen = conflict.Remote.Clone()

	case domain.ChoiceCustom:
		if req.Entry == nil {
			return nil, errors.New("custom resolution requires an entry")
		}
		chosen = req.Entry.Clone()
		chosen.ID = conflict.EntryID

	default:
		return nil, fmt.Errorf("unknown resolution choice: %s", req.Choice)
	}

	chosen.UserID = userID
	chosen.Synced = true
	chosen.UpdatedAt = time.Now()

	if err := s.persistEntry(userID, chosen); err != nil {
		return nil, err
	}

	now := time.Now()
	conflict.ResolvedAt = &now
	conflict.Resolution = &domain.Resolution{
		Strategy:   strategyForChoice(req.Choice),
		Reason:     fmt.Sprintf("user chose %s version", req.Choice),
		Merged:     chosen,
		Confidence: 1.0,
	}

	if err := s.conflictRepo.MarkResolved(conflict); err != nil {
		return nil, err
	}

	return chosen, nil
}

// Dismiss discards a pending conflict without changing the server copy.
func (s *ConflictService) Dismiss(userID, conflictID string) error {
	conflict, err := s.conflictRepo.Get(conflictID)
	if err != nil {
		return err
	}
	if conflict.UserID != userID {
		return ErrUnauthorized
	}
	return s.conflictRepo.Delete(conflictID)
}

func (s *ConflictService) persistEntry(userID string, entry *domain.MoodEntry) error {
	if _, err := s.entryRepo.FindByID(entry.ID); err != nil {
		return s.entryRepo.Create(entry)
	}
	return s.entryRepo.Update(entry)
}

func strategyForChoice(choice domain.UserChoice) domain.ResolutionStrategy {
	switch choice {
	case domain.ChoiceLocal:
		return domain.ResolutionLocalWins
	case domain.ChoiceRemote:
		return domain.ResolutionRemoteWins
	default:
		return domain.ResolutionUserChoiceRequired
	}
}
