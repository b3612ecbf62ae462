package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/swapcircle/internal/db"
)

// ChatRepository reads message and receipt rows owned by the chat
// feature, and writes the notification side channel. Message inserts
// exist for the seeder and tests; production messages arrive through
// the chat service.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// LatestMessage returns the most recent message of a match, or
// (nil, nil) for an empty conversation.
func (r *ChatRepository) LatestMessage(ctx context.Context, matchID uint64) (*db.Message, error) {
	var msg db.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetReceipt returns the user's read watermark for a match, or
// (nil, nil) when the user has never read the conversation.
func (r *ChatRepository) GetReceipt(
	ctx context.Context,
	matchID, userID uint64,
) (*db.ReadReceipt, error) {
	var receipt db.ReadReceipt
	err := r.db.WithContext(ctx).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		First(&receipt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// UpsertReceipt advances (or creates) the user's read watermark.
//
// Behavior:
//   - If the (match_id, user_id) row exists → last_read_at is replaced.
//   - If it doesn't exist → a new row is inserted.
//   - Composite PK ensures one row per (match, user).
//
// Last write wins; callers pass a current timestamp so regressions only
// occur with skewed clocks, which the unread derivation tolerates.
func (r *ChatRepository) UpsertReceipt(
	ctx context.Context,
	matchID, userID uint64,
	lastReadAt time.Time,
) error {
	receipt := db.ReadReceipt{
		MatchID:    matchID,
		UserID:     userID,
		LastReadAt: lastReadAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "match_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_read_at"}),
		}).
		Create(&receipt).Error
}

// CreateMessage appends a message to a match's conversation.
func (r *ChatRepository) CreateMessage(ctx context.Context, msg *db.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// CreateNotification writes one row on the notification side channel.
func (r *ChatRepository) CreateNotification(ctx context.Context, n *db.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}
