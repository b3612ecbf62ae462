package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/swapcircle/internal/db"
	"github.com/oggyb/swapcircle/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db.AllModels...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestRecordEdgeIdempotent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewEdgeRepository(dbase)

	created, err := repo.RecordEdge(ctx, 1, 2, db.EdgeKindLike, nil)
	require.NoError(t, err)
	assert.True(t, created)

	// same decision again is a no-op, not an error
	created, err = repo.RecordEdge(ctx, 1, 2, db.EdgeKindLike, nil)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, dbase.Model(&db.InterestEdge{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecordEdgeLikeAndPassCoexist(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewEdgeRepository(dbase)

	created, err := repo.RecordEdge(ctx, 1, 2, db.EdgeKindLike, nil)
	require.NoError(t, err)
	assert.True(t, created)

	// a later pass toward the same user is a distinct edge kind
	created, err = repo.RecordEdge(ctx, 1, 2, db.EdgeKindPass, nil)
	require.NoError(t, err)
	assert.True(t, created)

	var count int64
	require.NoError(t, dbase.Model(&db.InterestEdge{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestHasLiked(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewEdgeRepository(dbase)

	_, err := repo.RecordEdge(ctx, 1, 2, db.EdgeKindLike, nil)
	require.NoError(t, err)
	_, err = repo.RecordEdge(ctx, 3, 2, db.EdgeKindPass, nil)
	require.NoError(t, err)

	liked, err := repo.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.HasLiked(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, liked)

	// a pass never counts as a like
	liked, err = repo.HasLiked(ctx, 3, 2)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestDecidedUserIDs(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewEdgeRepository(dbase)

	_, _ = repo.RecordEdge(ctx, 1, 2, db.EdgeKindLike, nil)
	_, _ = repo.RecordEdge(ctx, 1, 3, db.EdgeKindPass, nil)
	itemID := uint64(77)
	_, _ = repo.RecordEdge(ctx, 1, 2, db.EdgeKindPass, &itemID)
	_, _ = repo.RecordEdge(ctx, 4, 1, db.EdgeKindLike, nil)

	ids, err := repo.DecidedUserIDs(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 3}, ids)
}

func TestGetAdmirersExcludesDecided(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewEdgeRepository(dbase)

	// 1, 2, 3 all liked 99
	_, _ = repo.RecordEdge(ctx, 1, 99, db.EdgeKindLike, nil)
	_, _ = repo.RecordEdge(ctx, 2, 99, db.EdgeKindLike, nil)
	_, _ = repo.RecordEdge(ctx, 3, 99, db.EdgeKindLike, nil)
	// 99 already liked 1 back and passed 2
	_, _ = repo.RecordEdge(ctx, 99, 1, db.EdgeKindLike, nil)
	_, _ = repo.RecordEdge(ctx, 99, 2, db.EdgeKindPass, nil)

	edges, next, err := repo.GetAdmirers(ctx, 99, nil, 10)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, edges, 1)
	assert.Equal(t, uint64(3), edges[0].FromUserID)
}

func TestGetAdmirersPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewEdgeRepository(dbase)

	for i := uint64(1); i <= 5; i++ {
		_, err := repo.RecordEdge(ctx, i, 99, db.EdgeKindLike, nil)
		require.NoError(t, err)
	}

	page1, next, err := repo.GetAdmirers(ctx, 99, nil, 3)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Len(t, page1, 3)

	page2, next, err := repo.GetAdmirers(ctx, 99, next, 3)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, page2, 2)

	seen := map[uint64]bool{}
	for _, e := range append(page1, page2...) {
		assert.False(t, seen[e.FromUserID], "admirer %d returned twice", e.FromUserID)
		seen[e.FromUserID] = true
	}
	assert.Len(t, seen, 5)
}

func TestCountAdmirers(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewEdgeRepository(dbase)

	_, _ = repo.RecordEdge(ctx, 1, 99, db.EdgeKindLike, nil)
	_, _ = repo.RecordEdge(ctx, 2, 99, db.EdgeKindLike, nil)
	// 99 passed 2 → excluded from the count
	_, _ = repo.RecordEdge(ctx, 99, 2, db.EdgeKindPass, nil)

	count, err := repo.CountAdmirers(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestItemScopedLikes(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewEdgeRepository(dbase)

	itemA := uint64(10)
	_, _ = repo.RecordEdge(ctx, 1, 2, db.EdgeKindLike, &itemA)
	// unscoped like from the other direction must not show up
	_, _ = repo.RecordEdge(ctx, 2, 1, db.EdgeKindLike, nil)

	edges, err := repo.ItemScopedLikes(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.NotNil(t, edges[0].ItemID)
	assert.Equal(t, itemA, *edges[0].ItemID)

	edges, err = repo.ItemScopedLikes(ctx, 2, 1)
	require.NoError(t, err)
	assert.Empty(t, edges)
}
