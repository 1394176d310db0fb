package repository

import (
	"context"

	"github.com/joseph-ayodele/bills-tracker/internal/entity"
)

// ProfileRepository stores one profile per user. Get returns common.ErrNotFound when the
// user has never saved one.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*entity.Profile, error)
	Upsert(ctx context.Context, profile *entity.Profile) (*entity.Profile, error)
}
