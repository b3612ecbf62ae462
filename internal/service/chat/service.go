package chat

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/oggyb/swapcircle/internal/app"
	"github.com/oggyb/swapcircle/internal/db"
	svcErr "github.com/oggyb/swapcircle/internal/errors"
	"github.com/oggyb/swapcircle/internal/repository"
)

// ConversationSummary is one row of a user's conversation list. Unread
// state is derived from the read watermark at query time; it is a flag,
// not a count.
type ConversationSummary struct {
	MatchID       uint64
	OtherUserID   uint64
	OtherUsername string
	LastMessage   *string
	LastActivity  time.Time
	HasUnread     bool
}

// SwapContext holds the item-scoped likes between two matched users:
// what of mine they liked, what of theirs I liked.
type SwapContext struct {
	Mine   []db.Item
	Theirs []db.Item
}

// Service aggregates per-match conversation state and resolves swap
// context. Messages and receipts are written by the chat feature; this
// service only reads them, except for advancing the read watermark.
type Service struct {
	appCtx    *app.AppContext
	matchRepo *repository.MatchRepository
	chatRepo  *repository.ChatRepository
	edgeRepo  *repository.EdgeRepository
	itemRepo  *repository.ItemRepository
	userRepo  *repository.UserRepository
}

// NewService creates a new chat service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		matchRepo: repository.NewMatchRepository(appCtx.DB),
		chatRepo:  repository.NewChatRepository(appCtx.DB),
		edgeRepo:  repository.NewEdgeRepository(appCtx.DB),
		itemRepo:  repository.NewItemRepository(appCtx.DB),
		userRepo:  repository.NewUserRepository(appCtx.DB),
	}
}

// ListConversations returns one summary per active match of the viewer,
// sorted by last activity descending.
//
// Behavior:
//   - viewerID 0 (guest) → empty list, not an error.
//   - An empty conversation uses the match creation time as its
//     activity timestamp so it still sorts.
//   - hasUnread = a message exists, the viewer did not send it, and it
//     is newer than the viewer's watermark (or no watermark exists).
//   - A failure fetching one match's message or receipt degrades that
//     single entry (no preview, not unread) instead of failing the call.
func (s *Service) ListConversations(ctx context.Context, viewerID uint64) ([]ConversationSummary, error) {
	if viewerID == 0 {
		return nil, nil
	}

	matches, err := s.matchRepo.ListActiveForUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	otherIDs := make([]uint64, 0, len(matches))
	for _, m := range matches {
		if other, ok := m.OtherUserID(viewerID); ok {
			otherIDs = append(otherIDs, other)
		}
	}
	others, err := s.userRepo.ActiveByIDs(ctx, otherIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(matches))
	for _, m := range matches {
		otherID, ok := m.OtherUserID(viewerID)
		if !ok {
			continue
		}
		summary := ConversationSummary{
			MatchID:      m.ID,
			OtherUserID:  otherID,
			LastActivity: m.CreatedAt,
		}
		if other, ok := others[otherID]; ok {
			summary.OtherUsername = other.Username
		}

		msg, err := s.chatRepo.LatestMessage(ctx, m.ID)
		if err != nil {
			// degrade this entry only; the list itself survives
			s.appCtx.Logger.Warn("latest message fetch failed", "match_id", m.ID, "err", err)
			summaries = append(summaries, summary)
			continue
		}
		if msg != nil {
			content := msg.Content
			summary.LastMessage = &content
			summary.LastActivity = msg.CreatedAt

			if msg.SenderID != viewerID {
				receipt, err := s.chatRepo.GetReceipt(ctx, m.ID, viewerID)
				if err != nil {
					s.appCtx.Logger.Warn("read receipt fetch failed", "match_id", m.ID, "err", err)
				} else {
					summary.HasUnread = receipt == nil || msg.CreatedAt.After(receipt.LastReadAt)
				}
			}
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].LastActivity.Equal(summaries[j].LastActivity) {
			return summaries[i].MatchID > summaries[j].MatchID
		}
		return summaries[i].LastActivity.After(summaries[j].LastActivity)
	})
	return summaries, nil
}

// MarkRead advances the viewer's read watermark for a match. A zero
// readAt means "now".
func (s *Service) MarkRead(ctx context.Context, viewerID, matchID uint64, readAt time.Time) error {
	if viewerID == 0 {
		return svcErr.ErrNotAuthenticated
	}

	match, err := s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match == nil {
		return fmt.Errorf("%w: match %d", svcErr.ErrNotFound, matchID)
	}
	if _, ok := match.OtherUserID(viewerID); !ok {
		return fmt.Errorf("%w: not a participant of match %d", svcErr.ErrInvalidOperation, matchID)
	}

	if readAt.IsZero() {
		readAt = time.Now().UTC()
	}
	return s.chatRepo.UpsertReceipt(ctx, matchID, viewerID, readAt)
}

// GetSwapContext returns the mutually interesting items between the
// viewer and a counterpart: the counterpart's items the viewer liked
// with an item scope, and vice versa.
//
// Pure read, no write side effects. Whether the two users are actually
// matched is the caller's responsibility to have established.
func (s *Service) GetSwapContext(ctx context.Context, viewerID, otherID uint64) (SwapContext, error) {
	if viewerID == 0 {
		return SwapContext{}, nil
	}

	theirs, err := s.likedItems(ctx, viewerID, otherID)
	if err != nil {
		return SwapContext{}, err
	}
	mine, err := s.likedItems(ctx, otherID, viewerID)
	if err != nil {
		return SwapContext{}, err
	}
	return SwapContext{Mine: mine, Theirs: theirs}, nil
}

// likedItems resolves the items of owner that liker liked with an
// explicit item scope. Edges pointing at items the owner no longer
// owns (or that vanished) are dropped.
func (s *Service) likedItems(ctx context.Context, liker, owner uint64) ([]db.Item, error) {
	edges, err := s.edgeRepo.ItemScopedLikes(ctx, liker, owner)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, nil
	}
	ids := make([]uint64, 0, len(edges))
	for _, e := range edges {
		if e.ItemID != nil {
			ids = append(ids, *e.ItemID)
		}
	}
	return s.itemRepo.ByIDsOwnedBy(ctx, ids, owner)
}
