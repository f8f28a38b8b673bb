package repository

import (
	"context"
	"fmt"
	"time"

	"moodsync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type EntryRepository interface {
	Create(entry *domain.MoodEntry) error
	FindByID(id string) (*domain.MoodEntry, error)
	List(userID string) ([]*domain.MoodEntry, error)
	ListSince(userID string, since time.Time) ([]*domain.MoodEntry, error)
	Update(entry *domain.MoodEntry) error
	Delete(id string) error
	ReplaceAll(userID string, entries []*domain.MoodEntry) error
}

type entryRepository struct {
	client *kivik.Client
	dbName string
}

func NewEntryRepository(client *kivik.Client, dbName string) EntryRepository {
	return &entryRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *entryRepository) Create(entry *domain.MoodEntry) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("entry:%s", entry.ID)
	_, err := db.Put(context.Background(), docID, entry)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}

	return nil
}

func (r *entryRepository) FindByID(id string) (*domain.MoodEntry, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("entry:%s", id)
	row := db.Get(context.Background(), docID)

	var entry domain.MoodEntry
	if err := row.ScanDoc(&entry); err != nil {
		return nil, fmt.Errorf("failed to find entry: %w", err)
	}

	return &entry, nil
}

func (r *entryRepository) List(userID string) ([]*domain.MoodEntry, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"user_id":    userID,
			"mood_score": map[string]interface{}{"$exists": true},
		},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.MoodEntry
	for rows.Next() {
		var entry domain.MoodEntry
		if err := rows.ScanDoc(&entry); err != nil {
			continue // Skip malformed docs
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}

func (r *entryRepository) ListSince(userID string, since time.Time) ([]*domain.MoodEntry, error) {
	entries, err := r.List(userID)
	if err != nil {
		return nil, err
	}

	var changed []*domain.MoodEntry
	for _, entry := range entries {
		if entry.UpdatedAt.After(since) {
			changed = append(changed, entry)
		}
	}
	return changed, nil
}

func (r *entryRepository) Update(entry *domain.MoodEntry) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("entry:%s", entry.ID)

	row := db.Get(context.Background(), docID)
	var existing map[string]interface{}
	if err := row.ScanDoc(&existing); err != nil {
		return fmt.Errorf("failed to load entry for update: %w", err)
	}

	rev, _ := existing["_rev"].(string)
	opts := kivik.Param("rev", rev)
	if _, err := db.Put(context.Background(), docID, entry, opts); err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}

	return nil
}

func (r *entryRepository) Delete(id string) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("entry:%s", id)
	row := db.Get(context.Background(), docID)

	var existing map[string]interface{}
	if err := row.ScanDoc(&existing); err != nil {
		return fmt.Errorf("failed to load entry for delete: %w", err)
	}

	rev, _ := existing["_rev"].(string)
	if _, err := db.Delete(context.Background(), docID, rev); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	return nil
}

// ReplaceAll persists the merged view back as the server replica: existing
// entries are updated in place, new ones created.
func (r *entryRepository) ReplaceAll(userID string, entries []*domain.MoodEntry) error {
	for _, entry := range entries {
		entry.UserID = userID
		if _, err := r.FindByID(entry.ID); err != nil {
			if err := r.Create(entry); err != nil {
				return err
			}
			continue
		}
		if err := r.Update(entry); err != nil {
			return err
		}
	}
	return nil
}
