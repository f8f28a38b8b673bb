package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"moodsync-server/internal/domain"
)

type MergeHistoryRepository interface {
	Save(record *domain.MergeRecord) error
	ListByUser(userID string, limit int) ([]*domain.MergeRecord, error)
}

type mergeHistoryRepo struct {
	baseURL string
	client  *http.Client
}

func NewMergeHistoryRepository(baseURL string) MergeHistoryRepository {
	return &mergeHistoryRepo{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *mergeHistoryRepo) Save(record *domain.MergeRecord) error {
	doc := map[string]interface{}{
		"_id":                fmt.Sprintf("mergerun:%s:%d", record.UserID, record.MergedAt.UnixNano()),
		"id":                 record.ID,
		"user_id":            record.UserID,
		"device_id":          record.DeviceID,
		"local_count":        record.LocalCount,
		"remote_count":       record.RemoteCount,
		"merged_count":       record.MergedCount,
		"conflicts_resolved": record.ConflictsResolved,
		"duplicates_removed": record.DuplicatesRemoved,
		"sync_success":       record.SyncSuccess,
		"merged_at":          record.MergedAt,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	resp, err := r.client.Post(r.baseURL, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to save merge record: status %d", resp.StatusCode)
	}

	return nil
}

func (r *mergeHistoryRepo) ListByUser(userID string, limit int) ([]*domain.MergeRecord, error) {
	viewURL := fmt.Sprintf("%s/_design/merges/_view/by_user?key=\"%s\"&descending=true&limit=%d", r.baseURL, userID, limit)

	resp, err := r.client.Get(viewURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Rows []struct {
			Value domain.MergeRecord `json:"value"`
		} `json:"rows"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	records := make([]*domain.MergeRecord, len(result.Rows))
	for i, row := range result.Rows {
		rec := row.Value
		records[i] = &rec
	}

	return records, nil
}
