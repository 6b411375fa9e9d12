package counter

import "context"

//go:generate mockgen -source=repository.go -destination=mock.go -package=counter

// Repository is the counter store the reminder actions act upon.
type Repository interface {
	ResetCount(ctx context.Context, itemID int64) error
}
