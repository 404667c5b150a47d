// Package encounters archives finished combat sessions so their results and
// event logs stay readable after the live session is dropped.
package encounters

//go:generate mockgen -destination=mock/mock_repository.go -package=encountermock github.com/KirkDiggler/rpg-combat/internal/repositories/encounters Repository

import (
	"context"

	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
)

// Repository defines the storage interface for archived sessions
type Repository interface {
	// Save stores an ended session, replacing any earlier copy
	Save(ctx context.Context, input *SaveInput) (*SaveOutput, error)

	// Get retrieves an archived session by ID
	Get(ctx context.Context, input *GetInput) (*GetOutput, error)

	// List returns archived session ids, most recently ended first
	List(ctx context.Context, input *ListInput) (*ListOutput, error)

	// Delete removes an archived session
	Delete(ctx context.Context, input *DeleteInput) (*DeleteOutput, error)
}

// SaveInput defines the request for archiving a session
type SaveInput struct {
	Session *combat.Session
}

// SaveOutput defines the response for archiving a session
type SaveOutput struct {
	Success bool
}

// GetInput defines the request for retrieving a session
type GetInput struct {
	SessionID string
}

// GetOutput defines the response for retrieving a session
type GetOutput struct {
	Session *combat.Session
}

// ListInput defines the request for listing archived sessions
type ListInput struct {
	// Limit caps the number of ids returned; 0 uses DefaultListLimit
	Limit int
}

// ListOutput defines the response for listing archived sessions
type ListOutput struct {
	SessionIDs []string
}

// DeleteInput defines the request for deleting a session
type DeleteInput struct {
	SessionID string
}

// DeleteOutput defines the response for deleting a session
type DeleteOutput struct {
	Success bool
}

// DefaultListLimit is used when ListInput.Limit is zero
const DefaultListLimit = 50

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func validateSave(input *SaveInput) error {
	if input == nil || input.Session == nil {
		return errInvalid(errSessionNil)
	}
	if input.Session.ID == "" {
		return errInvalid(errSessionIDEmpty)
	}
	return nil
}
