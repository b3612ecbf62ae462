package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/swapcircle/internal/db"
)

// MatchRepository provides data access for Match rows.
//
// A match is keyed by the canonical (min, max) user pair, so the same
// two users resolve to the same row no matter which of them acted last.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// FindByPair looks up the match between two users, in either order.
// Returns (nil, nil) when no match exists.
func (r *MatchRepository) FindByPair(
	ctx context.Context,
	userA, userB uint64,
) (*db.Match, error) {
	low, high := db.CanonicalPair(userA, userB)
	return r.findByKey(ctx, low, high)
}

func (r *MatchRepository) findByKey(ctx context.Context, low, high uint64) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// EnsureMatch returns the match for the pair, creating it if absent.
//
// Concurrency: two reciprocal likes can race into this function from
// independent requests. Both may miss the pre-read and attempt the
// insert; the unique (user_low_id, user_high_id) index lets exactly one
// succeed. The loser absorbs gorm.ErrDuplicatedKey and refetches the
// winner's row. A bare check-then-insert here would be race-prone.
//
// created=true only for the writer that actually inserted the row.
func (r *MatchRepository) EnsureMatch(
	ctx context.Context,
	userA, userB uint64,
) (match *db.Match, created bool, err error) {
	low, high := db.CanonicalPair(userA, userB)

	existing, err := r.findByKey(ctx, low, high)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	m := db.Match{UserLowID: low, UserHighID: high, Active: true}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the insert race; the pair exists now
			winner, ferr := r.findByKey(ctx, low, high)
			if ferr != nil {
				return nil, false, ferr
			}
			if winner == nil {
				return nil, false, err
			}
			return winner, false, nil
		}
		return nil, false, err
	}
	return &m, true, nil
}

// FindByID returns the match with the given id, or (nil, nil) when it
// does not exist.
func (r *MatchRepository) FindByID(ctx context.Context, matchID uint64) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).First(&match, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ListActiveForUser returns the user's active matches, newest first.
func (r *MatchRepository) ListActiveForUser(
	ctx context.Context,
	userID uint64,
) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("(user_low_id = ? OR user_high_id = ?) AND active = ?", userID, userID, true).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// Deactivate retires a match. Rows are never deleted; a deactivated
// pair keeps its canonical key so it can never be re-created.
func (r *MatchRepository) Deactivate(ctx context.Context, matchID uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ?", matchID).
		Update("active", false).Error
}
