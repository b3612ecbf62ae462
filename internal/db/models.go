package db

import (
	"time"
)

// User table. Profile data beyond credentials is opaque to the matching
// core; only ID and PreferredCategories participate in its logic.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true"`
	LastLoginAt  time.Time
	// Category tags the user wants to see. Empty slice means no filter.
	PreferredCategories []string  `gorm:"serializer:json"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// Item is something a user has put up for swapping. Owned by exactly
// one user; unavailable items never surface in discovery.
type Item struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID   uint64    `gorm:"not null;index:idx_owner_available,priority:1"`
	Title     string    `gorm:"size:128;not null"`
	Category  string    `gorm:"size:64;not null;index"`
	Available bool      `gorm:"default:true;index:idx_owner_available,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// InterestEdge kinds.
const (
	EdgeKindLike = "like"
	EdgeKindPass = "pass"
)

// InterestEdge is a directed like/pass from one user to another,
// optionally scoped to a single item of the recipient.
//
// Rows are immutable once written. The unique index on
// (from_user_id, to_user_id, kind) makes re-recording the same
// decision collapse into a duplicate-key error, which the repository
// absorbs as a no-op.
//
// idx_to_kind_created_from(to_user_id, kind, created_at DESC, from_user_id)
// serves "who liked me" listings with cursor pagination.
type InterestEdge struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	FromUserID uint64    `gorm:"not null;uniqueIndex:uniq_from_to_kind,priority:1"`
	ToUserID   uint64    `gorm:"not null;uniqueIndex:uniq_from_to_kind,priority:2;index:idx_to_kind_created_from,priority:1"`
	Kind       string    `gorm:"size:8;not null;uniqueIndex:uniq_from_to_kind,priority:3;index:idx_to_kind_created_from,priority:2"`
	ItemID     *uint64   `gorm:"index"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_to_kind_created_from,priority:3,sort:desc"`
}

// Match is the symmetric outcome of two reciprocal likes. The pair is
// stored canonically as (min id, max id) so either insertion order
// lands on the same row; the unique index makes the second concurrent
// writer lose and refetch instead of duplicating the pair.
//
// Matches are never deleted, only deactivated.
type Match struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	UserLowID  uint64    `gorm:"not null;uniqueIndex:uniq_user_pair,priority:1;index"`
	UserHighID uint64    `gorm:"not null;uniqueIndex:uniq_user_pair,priority:2;index"`
	Active     bool      `gorm:"default:true"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// OtherUserID returns the counterpart of userID in the pair, and false
// if userID is not part of this match.
func (m *Match) OtherUserID(userID uint64) (uint64, bool) {
	if m.UserLowID == userID {
		return m.UserHighID, true
	}
	if m.UserHighID == userID {
		return m.UserLowID, true
	}
	return 0, false
}

// CanonicalPair orders two user ids as (low, high).
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// Message belongs to one match. Append-only; written by the chat
// feature, read here to derive conversation summaries.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	MatchID   uint64    `gorm:"not null;index:idx_match_created,priority:1"`
	SenderID  uint64    `gorm:"not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_match_created,priority:2,sort:desc"`
}

// ReadReceipt is a per-(match, user) "read up to" watermark. Unread
// state is derived from it at query time, never stored.
type ReadReceipt struct {
	MatchID    uint64    `gorm:"primaryKey"`
	UserID     uint64    `gorm:"primaryKey"`
	LastReadAt time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// Notification kinds.
const (
	NotificationKindMatch = "match"
)

// Notification is a write-only side channel. The matching core inserts
// rows on match creation and never reads them back; delivery is someone
// else's job and its failure never unwinds a match.
type Notification struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	RecipientID uint64    `gorm:"not null;index"`
	ActorID     uint64    `gorm:"not null"`
	Kind        string    `gorm:"size:30;not null"`
	MatchID     uint64    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}
