package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/swapcircle/internal/db"
)

// UserRepository provides read access to User rows. Account writes are
// owned by the identity service; the matching core only reads profiles
// and preferences.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// FindByID returns the user, or (nil, nil) when absent.
func (r *UserRepository) FindByID(ctx context.Context, userID uint64) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ActiveByIDs returns the active users among ids, keyed by id.
func (r *UserRepository) ActiveByIDs(
	ctx context.Context,
	ids []uint64,
) (map[uint64]db.User, error) {
	if len(ids) == 0 {
		return map[uint64]db.User{}, nil
	}
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]db.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}
