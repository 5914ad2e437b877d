// internal/domain/holiday/repository.go
package holiday

import (
	"context"
	"fmt"
)

var ErrHolidayNotFound = fmt.Errorf("holiday not found")
var ErrDuplicateHoliday = fmt.Errorf("holiday with this name and date already exists")

// ErrLookupFailed wraps read failures so callers can tell them apart from "nothing scheduled".
var ErrLookupFailed = fmt.Errorf("holiday lookup failed")

// Repository defines the operations for persisting and retrieving Holiday entities.
type Repository interface {
	// FetchByDate returns holidays matching key exactly, ordered by ID.
	// An empty slice with a nil error means nothing is scheduled for that day.
	FetchByDate(ctx context.Context, key DateKey) ([]*Holiday, error)
	FetchAll(ctx context.Context) ([]*Holiday, error)
	FetchByOwner(ctx context.Context, ownerTelegramID int64) ([]*Holiday, error)
	Add(ctx context.Context, h *Holiday) error
	Remove(ctx context.Context, id int64) error
	RemoveForOwner(ctx context.Context, id int64, ownerTelegramID int64) error
}
