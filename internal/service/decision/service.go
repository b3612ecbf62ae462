package decision

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/swapcircle/internal/app"
	"github.com/oggyb/swapcircle/internal/cache"
	"github.com/oggyb/swapcircle/internal/db"
	svcErr "github.com/oggyb/swapcircle/internal/errors"
	"github.com/oggyb/swapcircle/internal/repository"
)

// notifyTimeout bounds the detached notification write on match creation.
const notifyTimeout = 5 * time.Second

// LikeResult reports whether a like completed a mutual pair.
type LikeResult struct {
	Matched       bool
	MatchID       uint64
	MatchedUserID uint64
}

// Admirer is one pending incoming like.
type Admirer struct {
	UserID  uint64
	LikedAt time.Time
}

// Service records like/pass interest edges and forms matches on
// reciprocity. All idempotence conflicts are resolved below this layer;
// callers never see duplicate-key errors.
type Service struct {
	appCtx    *app.AppContext
	edgeRepo  *repository.EdgeRepository
	matchRepo *repository.MatchRepository
	chatRepo  *repository.ChatRepository
}

// NewService creates a new decision service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		edgeRepo:  repository.NewEdgeRepository(appCtx.DB),
		matchRepo: repository.NewMatchRepository(appCtx.DB),
		chatRepo:  repository.NewChatRepository(appCtx.DB),
	}
}

// Like records actor → target interest, optionally scoped to one of the
// target's items, and checks for reciprocity.
//
// Behavior:
//   - Self-likes fail with ErrInvalidOperation and write nothing.
//   - Re-liking is a no-op, not an error (unique edge index absorbed
//     in the repository).
//   - If the target already liked the actor, the canonical match row is
//     created, or reused if a concurrent reciprocal like won the insert.
//   - On a newly created match, both users are notified on a detached
//     fire-and-forget path; its failure never unwinds the match.
func (s *Service) Like(ctx context.Context, actorID, targetID uint64, itemID *uint64) (LikeResult, error) {
	if actorID == 0 {
		return LikeResult{}, svcErr.ErrNotAuthenticated
	}
	if actorID == targetID {
		return LikeResult{}, fmt.Errorf("%w: cannot like yourself", svcErr.ErrInvalidOperation)
	}

	created, err := s.edgeRepo.RecordEdge(ctx, actorID, targetID, db.EdgeKindLike, itemID)
	if err != nil {
		return LikeResult{}, err
	}
	if created {
		// best-effort counter bump; the DB count is authoritative
		key := s.appCtx.RedisCache.KeyForAdmirerCount(targetID)
		if _, err := s.appCtx.RedisCache.Incr(ctx, key); err != nil {
			s.appCtx.Logger.Warn("admirer count incr failed", "target", targetID, "err", err)
		}
		_ = s.appCtx.RedisCache.Client.Expire(ctx, key, cache.AdmirerCountTTL).Err()
	}

	reciprocal, err := s.edgeRepo.HasLiked(ctx, targetID, actorID)
	if err != nil {
		return LikeResult{}, err
	}
	if !reciprocal {
		return LikeResult{Matched: false}, nil
	}

	match, matchCreated, err := s.matchRepo.EnsureMatch(ctx, actorID, targetID)
	if err != nil {
		return LikeResult{}, err
	}
	if matchCreated {
		s.appCtx.Logger.Info("match formed", "match_id", match.ID, "user_low", match.UserLowID, "user_high", match.UserHighID)
		go s.notifyMatched(match.ID, actorID, targetID)
	}

	return LikeResult{
		Matched:       true,
		MatchID:       match.ID,
		MatchedUserID: targetID,
	}, nil
}

// Pass records actor → target disinterest. Permanent for discovery,
// idempotent, and never triggers match formation.
func (s *Service) Pass(ctx context.Context, actorID, targetID uint64) error {
	if actorID == 0 {
		return svcErr.ErrNotAuthenticated
	}
	if actorID == targetID {
		return fmt.Errorf("%w: cannot pass on yourself", svcErr.ErrInvalidOperation)
	}

	_, err := s.edgeRepo.RecordEdge(ctx, actorID, targetID, db.EdgeKindPass, nil)
	return err
}

// notifyMatched writes one notification row per matched user. Runs
// detached from the request with its own timeout so a slow or failing
// write cannot delay or unwind the like that formed the match.
func (s *Service) notifyMatched(matchID, actorID, targetID uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	pairs := []struct{ recipient, actor uint64 }{
		{recipient: targetID, actor: actorID},
		{recipient: actorID, actor: targetID},
	}
	for _, p := range pairs {
		n := db.Notification{
			RecipientID: p.recipient,
			ActorID:     p.actor,
			Kind:        db.NotificationKindMatch,
			MatchID:     matchID,
		}
		if err := s.chatRepo.CreateNotification(ctx, &n); err != nil {
			s.appCtx.Logger.Warn("match notification write failed", "match_id", matchID, "recipient", p.recipient, "err", err)
		}
	}
}

// ListAdmirers returns users who liked the viewer and have no decision
// from the viewer yet, newest first, cursor-paginated.
func (s *Service) ListAdmirers(
	ctx context.Context,
	viewerID uint64,
	paginationToken *string,
	limit int,
) ([]Admirer, *string, error) {
	if viewerID == 0 {
		return nil, nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	edges, nextToken, err := s.edgeRepo.GetAdmirers(ctx, viewerID, paginationToken, limit)
	if err != nil {
		return nil, nil, err
	}

	admirers := make([]Admirer, 0, len(edges))
	for _, e := range edges {
		admirers = append(admirers, Admirer{UserID: e.FromUserID, LikedAt: e.CreatedAt})
	}
	return admirers, nextToken, nil
}

// CountAdmirers returns how many users like the viewer.
// Cache-first strategy:
//  1. Attempts to read from Redis (admirers:count:userID).
//  2. On cache miss, falls back to the DB count.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountAdmirers(ctx context.Context, viewerID uint64) (int64, error) {
	if viewerID == 0 {
		return 0, nil
	}

	if count, found, err := s.appCtx.RedisCache.GetAdmirerCount(ctx, viewerID); err == nil && found {
		return count, nil
	} else if err != nil {
		s.appCtx.Logger.Warn("admirer count cache read failed", "viewer", viewerID, "err", err)
	}

	count, err := s.edgeRepo.CountAdmirers(ctx, viewerID)
	if err != nil {
		return 0, err
	}
	if err := s.appCtx.RedisCache.SetAdmirerCount(ctx, viewerID, count); err != nil {
		s.appCtx.Logger.Warn("admirer count cache write failed", "viewer", viewerID, "err", err)
	}
	return count, nil
}
