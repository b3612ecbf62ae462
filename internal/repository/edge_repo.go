package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/swapcircle/internal/db"
	"github.com/oggyb/swapcircle/internal/utils/pagination"
)

// EdgeRepository provides data access for InterestEdge rows.
// It encapsulates all queries related to likes/passes between users.
type EdgeRepository struct {
	db *gorm.DB
}

// NewEdgeRepository creates a new repository bound to the given DB connection.
func NewEdgeRepository(database *gorm.DB) *EdgeRepository {
	return &EdgeRepository{db: database}
}

// RecordEdge inserts a like/pass edge from -> to, optionally scoped to
// one of the recipient's items.
//
// Behavior:
//   - Edges are immutable; there is no update path.
//   - A duplicate (from, to, kind) insert trips the unique index and is
//     absorbed here: created=false, nil error. Re-recording an already
//     expressed decision is a fact restated, not a failure.
//
// Example:
//
//	repo.RecordEdge(ctx, 1, 2, db.EdgeKindLike, nil) // user 1 liked user 2
func (r *EdgeRepository) RecordEdge(
	ctx context.Context,
	fromUserID, toUserID uint64,
	kind string,
	itemID *uint64,
) (created bool, err error) {
	edge := db.InterestEdge{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Kind:       kind,
		ItemID:     itemID,
	}
	if err := r.db.WithContext(ctx).Create(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// HasLiked reports whether fromUserID has a like edge toward toUserID.
// Item-scoped and unscoped likes both count.
func (r *EdgeRepository) HasLiked(
	ctx context.Context,
	fromUserID, toUserID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.InterestEdge{}).
		Where("from_user_id = ? AND to_user_id = ? AND kind = ?", fromUserID, toUserID, db.EdgeKindLike).
		Count(&count).Error
	return count > 0, err
}

// DecidedUserIDs returns every user fromUserID has already liked or
// passed, regardless of kind or item scope. Used as the discovery
// exclusion set.
func (r *EdgeRepository) DecidedUserIDs(
	ctx context.Context,
	fromUserID uint64,
) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.InterestEdge{}).
		Distinct("to_user_id").
		Where("from_user_id = ?", fromUserID).
		Pluck("to_user_id", &ids).Error
	return ids, err
}

// ItemScopedLikes returns the like edges from -> to that carry a
// non-null item id, for swap-context resolution.
func (r *EdgeRepository) ItemScopedLikes(
	ctx context.Context,
	fromUserID, toUserID uint64,
) ([]db.InterestEdge, error) {
	var edges []db.InterestEdge
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ? AND kind = ? AND item_id IS NOT NULL",
			fromUserID, toUserID, db.EdgeKindLike).
		Order("id").
		Find(&edges).Error
	return edges, err
}

// GetAdmirers returns users who liked the given user and have not been
// liked back yet.
//
// Behavior:
//   - Only edges with to_user_id = userID and kind = like are considered.
//   - Excludes mutual likes (userID already liked them back).
//   - Excludes users that userID explicitly passed.
//   - Ordered by created_at DESC, from_user_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetAdmirers(ctx, 42, nil, 20) // first 20 pending admirers of user 42
func (r *EdgeRepository) GetAdmirers(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.InterestEdge, *string, error) {
	var edges []db.InterestEdge

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("interest_edges e").
		Where("e.to_user_id = ? AND e.kind = ?", userID, db.EdgeKindLike).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM interest_edges e2
				WHERE e2.from_user_id = ?
				  AND e2.to_user_id = e.from_user_id
			)`, userID).
		Order("e.created_at DESC, e.from_user_id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.UserID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(e.created_at < ? OR (e.created_at = ? AND e.from_user_id < ?))",
			ts, ts, cursor.UserID,
		)
	}

	if err := query.Find(&edges).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(edges) > limit {
		last := edges[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			UserID:      last.FromUserID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		edges = edges[:limit]
	}

	return edges, nextToken, nil
}

// CountAdmirers returns how many users currently like the given user,
// excluding anyone the user explicitly passed.
// Used in conjunction with the Redis counter (DB is fallback).
func (r *EdgeRepository) CountAdmirers(
	ctx context.Context,
	userID uint64,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("interest_edges e").
		Where("e.to_user_id = ? AND e.kind = ?", userID, db.EdgeKindLike).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM interest_edges e2
				WHERE e2.from_user_id = ?
				  AND e2.to_user_id = e.from_user_id
				  AND e2.kind = ?
			)`, userID, db.EdgeKindPass).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
