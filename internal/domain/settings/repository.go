package settings

import "context"

// Repository persists the tracker settings.
type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	SetPregnancyMode(ctx context.Context, enabled bool) error
}
