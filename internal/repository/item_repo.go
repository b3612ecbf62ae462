package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/swapcircle/internal/db"
)

// ItemRepository provides data access for Item rows.
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(database *gorm.DB) *ItemRepository {
	return &ItemRepository{db: database}
}

// AvailableOwnedByOthers returns available items not owned by viewerID,
// optionally restricted to a category set and with owners from
// excludeOwners removed.
//
// Ordered by (owner_id, id) so discovery output is deterministic per
// call; this is a filter, not a ranking.
func (r *ItemRepository) AvailableOwnedByOthers(
	ctx context.Context,
	viewerID uint64,
	categories []string,
	excludeOwners []uint64,
) ([]db.Item, error) {
	query := r.db.WithContext(ctx).
		Where("available = ? AND owner_id <> ?", true, viewerID)

	if len(categories) > 0 {
		query = query.Where("category IN ?", categories)
	}
	if len(excludeOwners) > 0 {
		query = query.Where("owner_id NOT IN ?", excludeOwners)
	}

	var items []db.Item
	err := query.Order("owner_id, id").Find(&items).Error
	return items, err
}

// ByIDsOwnedBy returns the subset of ids that exist and belong to
// ownerID, in id order. Unknown ids are silently dropped.
func (r *ItemRepository) ByIDsOwnedBy(
	ctx context.Context,
	ids []uint64,
	ownerID uint64,
) ([]db.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []db.Item
	err := r.db.WithContext(ctx).
		Where("id IN ? AND owner_id = ?", ids, ownerID).
		Order("id").
		Find(&items).Error
	return items, err
}
