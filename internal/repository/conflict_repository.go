package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"moodsync-server/internal/domain"
)

type ConflictRepository interface {
	Create(conflict *domain.Conflict) error
	Get(conflictID string) (*domain.Conflict, error)
	ListPending(userID string) ([]*domain.Conflict, error)
	MarkResolved(conflict *domain.Conflict) error
	Delete(conflictID string) error
}

type conflictRepo struct {
	baseURL string
	client  *http.Client
}

func NewConflictRepository(baseURL string) ConflictRepository {
	return &conflictRepo{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *conflictRepo) Create(conflict *domain.Conflict) error {
	doc := conflictDoc(conflict)
	doc["_id"] = fmt.Sprintf("conflict:%s", conflict.ID)

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
		return fmt.Errorf("failed to create conflict: status %d", resp.StatusCode)
	}

	return nil
}

func (r *conflictRepo) Get(conflictID string) (*domain.Conflict, error) {
	url := fmt.Sprintf("%s/conflict:%s", r.baseURL, conflictID)

	resp, err := r.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("conflict not found")
	}

	var conflict domain.Conflict
	if err := json.NewDecoder(resp.Body).Decode(&conflict); err != nil {
		return nil, err
	}

	return &conflict, nil
}

func (r *conflictRepo) ListPending(userID string) ([]*domain.Conflict, error) {
	viewURL := fmt.Sprintf("%s/_design/conflicts/_view/pending_by_user?key=\"%s\"", r.baseURL, userID)

	resp, err := r.client.Get(viewURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Rows []struct {
			Value domain.Conflict `json:"value"`
		} `json:"rows"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	var conflicts []*domain.Conflict
	for _, row := range result.Rows {
		c := row.Value
		if c.ResolvedAt != nil {
			continue
		}
		conflicts = append(conflicts, &c)
	}

	return conflicts, nil
}

func (r *conflictRepo) MarkResolved(conflict *domain.Conflict) error {
	url := fmt.Sprintf("%s/conflict:%s", r.baseURL, conflict.ID)
	respGet, err := r.client.Get(url)
	if err != nil {
		return err
	}

	var existingDoc map[string]interface{}
	json.NewDecoder(respGet.Body).Decode(&existingDoc)
	respGet.Body.Close()

	doc := conflictDoc(conflict)
	doc["_id"] = fmt.Sprintf("conflict:%s", conflict.ID)
	doc["_rev"] = existingDoc["_rev"]

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPut, url, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to mark conflict resolved: status %d", resp.StatusCode)
	}

	return nil
}

func (r *conflictRepo) Delete(conflictID string) error {
	url := fmt.Sprintf("%s/conflict:%s", r.baseURL, conflictID)

	respGet, err := r.client.Get(url)
	if err != nil {
		return err
	}

	var existingDoc map[string]interface{}
	json.NewDecoder(respGet.Body).Decode(&existingDoc)
	respGet.Body.Close()

	rev, _ := existingDoc["_rev"].(string)
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s?rev=%s", url, rev), nil)
	if err != nil {
		return err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to delete conflict: status %d", resp.StatusCode)
	}

	return nil
}

func conflictDoc(conflict *domain.Conflict) map[string]interface{} {
	return map[string]interface{}{
		"entry_id":    conflict.EntryID,
		"user_id":     conflict.UserID,
		"type":        conflict.Type,
		"severity":    conflict.Severity,
		"local":       conflict.Local,
		"remote":      conflict.Remote,
		"resolution":  conflict.Resolution,
		"detected_at": conflict.DetectedAt,
		"resolved_at": conflict.ResolvedAt,
	}
}
