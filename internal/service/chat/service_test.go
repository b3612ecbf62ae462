package chat_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/swapcircle/internal/app"
	"github.com/oggyb/swapcircle/internal/cache"
	"github.com/oggyb/swapcircle/internal/config"
	"github.com/oggyb/swapcircle/internal/db"
	svcErr "github.com/oggyb/swapcircle/internal/errors"
	"github.com/oggyb/swapcircle/internal/service/chat"
)

//
// Test helpers
//

func setupApp(t *testing.T) *app.AppContext {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(db.AllModels...))

	users := []db.User{
		{ID: 1, Username: "user1", Email: "u1@test.com", PasswordHash: "x"},
		{ID: 2, Username: "user2", Email: "u2@test.com", PasswordHash: "x"},
		{ID: 3, Username: "user3", Email: "u3@test.com", PasswordHash: "x"},
	}
	require.NoError(t, dbase.Create(&users).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return app.New(dbase, redisCache, logger)
}

func createMatch(t *testing.T, gdb *gorm.DB, userA, userB uint64, createdAt time.Time) db.Match {
	t.Helper()
	low, high := db.CanonicalPair(userA, userB)
	m := db.Match{UserLowID: low, UserHighID: high, Active: true, CreatedAt: createdAt}
	require.NoError(t, gdb.Create(&m).Error)
	return m
}

func createMessage(t *testing.T, gdb *gorm.DB, matchID, senderID uint64, content string, at time.Time) db.Message {
	t.Helper()
	msg := db.Message{MatchID: matchID, SenderID: senderID, Content: content, CreatedAt: at}
	require.NoError(t, gdb.Create(&msg).Error)
	return msg
}

//
// Tests
//

func TestListConversationsGuest(t *testing.T) {
	ctx := context.Background()
	svc := chat.NewService(setupApp(t))

	summaries, err := svc.ListConversations(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestUnreadDerivation(t *testing.T) {
	ctx := context.Background()
	appCtx := setupApp(t)
	svc := chat.NewService(appCtx)

	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Hour)
	m := createMatch(t, appCtx.DB, 1, 2, base)

	// user1 read the empty conversation at t0, user2 messaged at t1 > t0
	require.NoError(t, svc.MarkRead(ctx, 1, m.ID, base.Add(5*time.Minute)))
	createMessage(t, appCtx.DB, m.ID, 2, "still have the chess set?", base.Add(10*time.Minute))

	summaries, err := svc.ListConversations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].HasUnread)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "still have the chess set?", *summaries[0].LastMessage)
	assert.Equal(t, "user2", summaries[0].OtherUsername)

	// watermark moves past the message → read
	require.NoError(t, svc.MarkRead(ctx, 1, m.ID, base.Add(20*time.Minute)))

	summaries, err = svc.ListConversations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.False(t, summaries[0].HasUnread)

	// the sender's own view was never unread
	summaries, err = svc.ListConversations(ctx, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.False(t, summaries[0].HasUnread)
}

func TestUnreadWithoutReceipt(t *testing.T) {
	ctx := context.Background()
	appCtx := setupApp(t)
	svc := chat.NewService(appCtx)

	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Hour)
	m := createMatch(t, appCtx.DB, 1, 2, base)
	createMessage(t, appCtx.DB, m.ID, 2, "hello", base.Add(time.Minute))

	// no receipt at all counts as unread
	summaries, err := svc.ListConversations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].HasUnread)
}

func TestConversationSorting(t *testing.T) {
	ctx := context.Background()
	appCtx := setupApp(t)
	svc := chat.NewService(appCtx)

	base := time.Now().UTC().Truncate(time.Millisecond).Add(-2 * time.Hour)

	// older match with a fresh message, newer empty match in between
	older := createMatch(t, appCtx.DB, 1, 2, base)
	newer := createMatch(t, appCtx.DB, 1, 3, base.Add(30*time.Minute))
	createMessage(t, appCtx.DB, older.ID, 2, "ping", base.Add(time.Hour))

	summaries, err := svc.ListConversations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// message activity outranks match creation; empty match still sorts
	assert.Equal(t, older.ID, summaries[0].MatchID)
	assert.Equal(t, newer.ID, summaries[1].MatchID)
	assert.Nil(t, summaries[1].LastMessage)
	assert.Equal(t, newer.CreatedAt.UnixMilli(), summaries[1].LastActivity.UnixMilli())
}

func TestInactiveMatchHidden(t *testing.T) {
	ctx := context.Background()
	appCtx := setupApp(t)
	svc := chat.NewService(appCtx)

	m := createMatch(t, appCtx.DB, 1, 2, time.Now().UTC())
	require.NoError(t, appCtx.DB.Model(&db.Match{}).Where("id = ?", m.ID).Update("active", false).Error)

	summaries, err := svc.ListConversations(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

// TestMessageFetchFailureDegradesEntries drops the messages table to
// force the per-match message read to fail: the listing must survive
// with degraded entries instead of erroring out.
func TestMessageFetchFailureDegradesEntries(t *testing.T) {
	ctx := context.Background()
	appCtx := setupApp(t)
	svc := chat.NewService(appCtx)

	base := time.Now().UTC().Truncate(time.Millisecond)
	m1 := createMatch(t, appCtx.DB, 1, 2, base.Add(-time.Hour))
	m2 := createMatch(t, appCtx.DB, 1, 3, base)

	require.NoError(t, appCtx.DB.Migrator().DropTable(&db.Message{}))

	summaries, err := svc.ListConversations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, m2.ID, summaries[0].MatchID)
	assert.Equal(t, m1.ID, summaries[1].MatchID)
	for _, s := range summaries {
		assert.Nil(t, s.LastMessage)
		assert.False(t, s.HasUnread)
	}
}

func TestMarkReadValidation(t *testing.T) {
	ctx := context.Background()
	appCtx := setupApp(t)
	svc := chat.NewService(appCtx)

	m := createMatch(t, appCtx.DB, 1, 2, time.Now().UTC())

	require.ErrorIs(t, svc.MarkRead(ctx, 0, m.ID, time.Time{}), svcErr.ErrNotAuthenticated)
	require.ErrorIs(t, svc.MarkRead(ctx, 1, 9999, time.Time{}), svcErr.ErrNotFound)
	require.ErrorIs(t, svc.MarkRead(ctx, 3, m.ID, time.Time{}), svcErr.ErrInvalidOperation)

	// participant succeeds, and repeating just advances the watermark
	require.NoError(t, svc.MarkRead(ctx, 1, m.ID, time.Time{}))
	require.NoError(t, svc.MarkRead(ctx, 1, m.ID, time.Time{}))

	var count int64
	require.NoError(t, appCtx.DB.Model(&db.ReadReceipt{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetSwapContext(t *testing.T) {
	ctx := context.Background()
	appCtx := setupApp(t)
	svc := chat.NewService(appCtx)

	items := []db.Item{
		{ID: 10, OwnerID: 2, Title: "chess set", Category: "games", Available: true},
		{ID: 20, OwnerID: 1, Title: "dune paperback", Category: "books", Available: true},
		{ID: 21, OwnerID: 1, Title: "catan", Category: "games", Available: true},
	}
	require.NoError(t, appCtx.DB.Create(&items).Error)

	item10, item20 := uint64(10), uint64(20)
	edges := []db.InterestEdge{
		{FromUserID: 1, ToUserID: 2, Kind: db.EdgeKindLike, ItemID: &item10},
		{FromUserID: 2, ToUserID: 1, Kind: db.EdgeKindLike, ItemID: &item20},
		// unscoped like must not contribute items
		{FromUserID: 3, ToUserID: 1, Kind: db.EdgeKindLike},
	}
	require.NoError(t, appCtx.DB.Create(&edges).Error)

	sc, err := svc.GetSwapContext(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, sc.Theirs, 1)
	assert.Equal(t, uint64(10), sc.Theirs[0].ID)
	require.Len(t, sc.Mine, 1)
	assert.Equal(t, uint64(20), sc.Mine[0].ID)

	// symmetric view swaps the two sides
	sc, err = svc.GetSwapContext(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, sc.Theirs, 1)
	assert.Equal(t, uint64(20), sc.Theirs[0].ID)
	require.Len(t, sc.Mine, 1)
	assert.Equal(t, uint64(10), sc.Mine[0].ID)

	// guests get an empty context
	sc, err = svc.GetSwapContext(ctx, 0, 2)
	require.NoError(t, err)
	assert.Empty(t, sc.Mine)
	assert.Empty(t, sc.Theirs)
}
