package service

import (
	"errors"

	"moodsync-server/internal/domain"
)

// ErrUnauthorized marks an operation on a resource the caller does not own.
var ErrUnauthorized = errors.New("unauthorized")

// PendingConflictError is returned when an edit is based on a version the
// server has already moved past; it carries the stored conflict so the
// handler can surface both versions to the client.
type PendingConflictError struct {
	Conflict *domain.Conflict
}

func (e *PendingConflictError) Error() string {
	return "conflict detected: entry changed since the edit was based"
}
