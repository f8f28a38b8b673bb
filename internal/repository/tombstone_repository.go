package repository

import (
	"context"
	"fmt"
	"time"

	"moodsync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// tombstoneRetention bounds how long a deletion keeps suppressing the id
// during merges. Older tombstones are ignored on read.
const tombstoneRetention = 30 * 24 * time.Hour

type TombstoneRepository interface {
	Record(tombstone *domain.Tombstone) error
	RecentlyDeletedIDs(userID string) ([]string, error)
}

type tombstoneRepository struct {
	client *kivik.Client
	dbName string
}

func NewTombstoneRepository(client *kivik.Client, dbName string) TombstoneRepository {
	return &tombstoneRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *tombstoneRepository) Record(tombstone *domain.Tombstone) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("tombstone:%s:%s", tombstone.UserID, tombstone.EntryID)
	_, err := db.Put(context.Background(), docID, tombstone)
	if err != nil {
		return fmt.Errorf("failed to record tombstone: %w", err)
	}

	return nil
}

func (r *tombstoneRepository) RecentlyDeletedIDs(userID string) ([]string, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"user_id":    userID,
			"deleted_at": map[string]interface{}{"$exists": true},
		},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tombstones: %w", err)
	}
	defer rows.Close()

	cutoff := time.Now().Add(-tombstoneRetention)

	var ids []string
	for rows.Next() {
		var tombstone domain.Tombstone
		if err := rows.ScanDoc(&tombstone); err != nil {
			continue
		}
		if tombstone.DeletedAt.Before(cutoff) {
			continue
		}
		ids = append(ids, tombstone.EntryID)
	}

	return ids, nil
}
