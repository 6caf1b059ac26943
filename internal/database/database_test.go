package database_test

import (
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/testutil"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	svc, err := database.New(testutil.StartPostgres(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	assert.Equal(t, "up", svc.Health()["status"])
	return svc.GetDB()
}

func TestRepositories(t *testing.T) {
	db := setupDB(t)

	t.Run("posts", func(t *testing.T) { testPosts(t, db) })
	t.Run("votes", func(t *testing.T) { testVotes(t, db) })
	t.Run("concurrent votes", func(t *testing.T) { testConcurrentVotes(t, db) })
	t.Run("comments", func(t *testing.T) { testComments(t, db) })
	t.Run("presence", func(t *testing.T) { testPresence(t, db) })
	t.Run("accounts", func(t *testing.T) { testAccounts(t, db) })
}

func testPosts(t *testing.T, db *gorm.DB) {
	ctx := t.Context()
	repo := database.NewPostRepository(db)

	base := time.Now().UnixMilli()
	for i := range models.FeedLimit + 5 {
		post := &models.Post{
			Content:    fmt.Sprintf("post %d", i),
			AuthorName: "alice",
			AuthorID:   "u-alice",
			CreatedAt:  base + int64(i),
		}
		require.NoError(t, repo.Create(ctx, post))
		require.NotEmpty(t, post.ID)
	}

	posts, err := repo.ListRecent(ctx, models.FeedLimit)
	require.NoError(t, err)
	require.Len(t, posts, models.FeedLimit)
	assert.Equal(t, fmt.Sprintf("post %d", models.FeedLimit+4), posts[0].Content)
	assert.True(t, slices.IsSortedFunc(posts, func(a, b models.Post) int {
		return int(b.CreatedAt - a.CreatedAt)
	}), "posts must be newest first")
	assert.NotNil(t, posts[0].Upvotes)
	assert.Empty(t, posts[0].Upvotes)

	got, err := repo.Get(ctx, posts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, posts[0].Content, got.Content)

	_, err = repo.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = repo.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, database.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, got.ID, "u-mallory"), database.ErrForbidden)

	comments := database.NewCommentRepository(db)
	require.NoError(t, comments.Create(ctx, &models.Comment{PostID: got.ID, Content: "bye", AuthorID: "u-bob", AuthorName: "bob"}))

	require.NoError(t, repo.Delete(ctx, got.ID, "u-alice"))
	_, err = repo.Get(ctx, got.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	left, err := comments.ListByPost(ctx, got.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.ErrorIs(t, repo.Delete(ctx, got.ID, "u-alice"), database.ErrNotFound)
}

func testVotes(t *testing.T, db *gorm.DB) {
	ctx := t.Context()
	repo := database.NewPostRepository(db)

	post := &models.Post{Content: "vote on me", AuthorName: "alice", AuthorID: "u-alice"}
	require.NoError(t, repo.Create(ctx, post))

	got, err := repo.ToggleVote(ctx, post.ID, "u-a", models.Up)
	require.NoError(t, err)
	assert.Equal(t, []string{"u-a"}, []string(got.Upvotes))
	assert.Empty(t, got.Downvotes)
	assert.Equal(t, "vote on me", got.Content)

	got, err = repo.ToggleVote(ctx, post.ID, "u-a", models.Down)
	require.NoError(t, err)
	assert.Empty(t, got.Upvotes)
	assert.Equal(t, []string{"u-a"}, []string(got.Downvotes))

	got, err = repo.ToggleVote(ctx, post.ID, "u-a", models.Down)
	require.NoError(t, err)
	assert.Empty(t, got.Upvotes)
	assert.Empty(t, got.Downvotes)

	_, err = repo.ToggleVote(ctx, uuid.NewString(), "u-a", models.Up)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func testConcurrentVotes(t *testing.T, db *gorm.DB) {
	ctx := t.Context()
	repo := database.NewPostRepository(db)

	post := &models.Post{Content: "double click", AuthorName: "alice", AuthorID: "u-alice"}
	require.NoError(t, repo.Create(ctx, post))

	var wg sync.WaitGroup
	for i := range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := models.Up
			if i%2 == 1 {
				d = models.Down
			}
			_, err := repo.ToggleVote(ctx, post.ID, fmt.Sprintf("u-%d", i%4), d)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, post.ID)
	require.NoError(t, err)
	for _, u := range got.Upvotes {
		assert.NotContains(t, got.Downvotes, u)
	}
	assert.Len(t, got.Upvotes, len(slices.Compact(slices.Sorted(slices.Values(got.Upvotes)))))
	assert.Len(t, got.Downvotes, len(slices.Compact(slices.Sorted(slices.Values(got.Downvotes)))))
}

func testComments(t *testing.T, db *gorm.DB) {
	ctx := t.Context()
	posts := database.NewPostRepository(db)
	repo := database.NewCommentRepository(db)

	post := &models.Post{Content: "discuss", AuthorName: "alice", AuthorID: "u-alice"}
	require.NoError(t, posts.Create(ctx, post))

	base := time.Now().UnixMilli()
	for i, text := range []string{"first", "second", "third"} {
		c := &models.Comment{PostID: post.ID, Content: text, AuthorID: "u-bob", AuthorName: "bob", CreatedAt: base + int64(i)}
		require.NoError(t, repo.Create(ctx, c))
		require.NotEmpty(t, c.ID)
	}

	comments, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "third", comments[2].Content)

	err = repo.Create(ctx, &models.Comment{PostID: uuid.NewString(), Content: "orphan", AuthorID: "u-bob", AuthorName: "bob"})
	assert.ErrorIs(t, err, database.ErrNotFound)

	for _, id := range []string{"not-a-uuid", uuid.NewString()} {
		none, err := repo.ListByPost(ctx, id)
		require.NoError(t, err, id)
		assert.Empty(t, none, id)
	}
}

func testPresence(t *testing.T, db *gorm.DB) {
	ctx := t.Context()
	repo := database.NewPresenceRepository(db)
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, &models.Presence{UserID: "u-old", DisplayName: "old", LastSeen: now.Add(-10 * time.Minute), IsOnline: true}))
	require.NoError(t, repo.Upsert(ctx, &models.Presence{UserID: "u-new", DisplayName: "new", LastSeen: now.Add(-time.Minute), IsOnline: true}))
	require.NoError(t, repo.Upsert(ctx, &models.Presence{UserID: "u-new", DisplayName: "renamed", LastSeen: now, IsOnline: true}))

	active, err := repo.ActiveSince(ctx, now.Add(-5*time.Minute), 50)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "renamed", active[0].DisplayName)

	require.NoError(t, repo.SetOffline(ctx, "u-new", now))
	active, err = repo.ActiveSince(ctx, now.Add(-5*time.Minute), 50)
	require.NoError(t, err)
	assert.Empty(t, active, "signed-out users are not listed")

	// signed-out rows must not use up the scan limit
	require.NoError(t, repo.Upsert(ctx, &models.Presence{UserID: "u-live", DisplayName: "live", LastSeen: now.Add(-2 * time.Minute), IsOnline: true}))
	active, err = repo.ActiveSince(ctx, now.Add(-5*time.Minute), 1)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "u-live", active[0].UserID)
}

func testAccounts(t *testing.T, db *gorm.DB) {
	ctx := t.Context()
	repo := database.NewAccountRepository(db)

	account := &models.Account{Email: "alice@example.com", DisplayName: "Alice", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, account))

	err := repo.Create(ctx, &models.Account{Email: "alice@example.com", DisplayName: "Imposter", PasswordHash: "hash"})
	assert.ErrorIs(t, err, database.ErrDuplicate)

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	require.NoError(t, repo.UpdatePassword(ctx, account.ID, "new-hash"))
	got, err = repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, uuid.NewString(), "x"), database.ErrNotFound)
}
