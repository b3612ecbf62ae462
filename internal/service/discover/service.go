package discover

import (
	"context"

	"github.com/oggyb/swapcircle/internal/app"
	"github.com/oggyb/swapcircle/internal/db"
	"github.com/oggyb/swapcircle/internal/repository"
)

// Candidate is one discoverable user together with their qualifying
// available items.
type Candidate struct {
	User  db.User
	Items []db.Item
}

// Service implements candidate selection: the pool of other users worth
// showing to a viewer. It is a filter with deterministic order, not a
// recommender.
type Service struct {
	appCtx   *app.AppContext
	edgeRepo *repository.EdgeRepository
	itemRepo *repository.ItemRepository
	userRepo *repository.UserRepository
}

// NewService creates a new discovery service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		edgeRepo: repository.NewEdgeRepository(appCtx.DB),
		itemRepo: repository.NewItemRepository(appCtx.DB),
		userRepo: repository.NewUserRepository(appCtx.DB),
	}
}

// ListCandidates returns candidates for the viewer.
//
// Behavior:
//   - viewerID 0 (guest) → empty list, not an error.
//   - Excludes the viewer and anyone the viewer already liked or
//     passed; a pass is permanent, new items never resurface the user.
//   - If the viewer has preferred categories, only items in those
//     categories qualify; a candidate left with zero qualifying items
//     is dropped entirely.
//   - Grouped by owner, owners ascending, items by id. Stable per call.
func (s *Service) ListCandidates(ctx context.Context, viewerID uint64) ([]Candidate, error) {
	if viewerID == 0 {
		return nil, nil
	}

	viewer, err := s.userRepo.FindByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		// viewer vanished between auth and here; nothing to show
		return nil, nil
	}

	excluded, err := s.edgeRepo.DecidedUserIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.AvailableOwnedByOthers(ctx, viewerID, viewer.PreferredCategories, excluded)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	// group by owner, preserving (owner_id, id) query order
	var ownerOrder []uint64
	itemsByOwner := make(map[uint64][]db.Item)
	for _, item := range items {
		if _, seen := itemsByOwner[item.OwnerID]; !seen {
			ownerOrder = append(ownerOrder, item.OwnerID)
		}
		itemsByOwner[item.OwnerID] = append(itemsByOwner[item.OwnerID], item)
	}

	owners, err := s.userRepo.ActiveByIDs(ctx, ownerOrder)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(ownerOrder))
	for _, ownerID := range ownerOrder {
		owner, ok := owners[ownerID]
		if !ok {
			// deactivated or deleted owner; drop the whole group
			continue
		}
		candidates = append(candidates, Candidate{
			User:  owner,
			Items: itemsByOwner[ownerID],
		})
	}
	return candidates, nil
}
