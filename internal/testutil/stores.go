package testutil

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

// Stores is an in-memory stand-in for the Postgres repositories. All
// four stores share one lock, like rows in one database.
type Stores struct {
	mu       sync.Mutex
	posts    map[string]models.Post
	comments map[string][]models.Comment
	presence map[string]models.Presence
	accounts map[string]models.Account

	Posts    *PostStore
	Comments *CommentStore
	Presence *PresenceStore
	Accounts *AccountStore

	// Fail, when set, is returned by every store call.
	Fail error
}

func NewStores() *Stores {
	s := &Stores{
		posts:    make(map[string]models.Post),
		comments: make(map[string][]models.Comment),
		presence: make(map[string]models.Presence),
		accounts: make(map[string]models.Account),
	}
	s.Posts = &PostStore{s}
	s.Comments = &CommentStore{s}
	s.Presence = &PresenceStore{s}
	s.Accounts = &AccountStore{s}
	return s
}

func (s *Stores) lock() error {
	s.mu.Lock()
	if s.Fail != nil {
		s.mu.Unlock()
		return s.Fail
	}
	return nil
}

func clonePost(p models.Post) *models.Post {
	p.Upvotes = slices.Clone(p.Upvotes)
	p.Downvotes = slices.Clone(p.Downvotes)
	return p.Normalize()
}

type PostStore struct{ s *Stores }

func (ps *PostStore) ListRecent(_ context.Context, limit int) ([]models.Post, error) {
	if err := ps.s.lock(); err != nil {
		return nil, err
	}
	defer ps.s.mu.Unlock()

	posts := make([]models.Post, 0, len(ps.s.posts))
	for _, p := range ps.s.posts {
		posts = append(posts, *clonePost(p))
	}
	slices.SortFunc(posts, func(a, b models.Post) int {
		return cmp.Or(cmp.Compare(b.CreatedAt, a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return posts[:min(limit, len(posts))], nil
}

func (ps *PostStore) Get(_ context.Context, id string) (*models.Post, error) {
	if err := ps.s.lock(); err != nil {
		return nil, err
	}
	defer ps.s.mu.Unlock()

	p, ok := ps.s.posts[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return clonePost(p), nil
}

func (ps *PostStore) Create(_ context.Context, post *models.Post) error {
	if err := ps.s.lock(); err != nil {
		return err
	}
	defer ps.s.mu.Unlock()

	post.ID = uuid.NewString()
	if post.CreatedAt == 0 {
		post.CreatedAt = time.Now().UnixMilli()
	}
	post.Normalize()
	ps.s.posts[post.ID] = *clonePost(*post)
	return nil
}

func (ps *PostStore) Delete(_ context.Context, id, ownerID string) error {
	if err := ps.s.lock(); err != nil {
		return err
	}
	defer ps.s.mu.Unlock()

	p, ok := ps.s.posts[id]
	if !ok {
		return database.ErrNotFound
	}
	if !p.OwnedBy(ownerID) {
		return database.ErrForbidden
	}
	delete(ps.s.posts, id)
	delete(ps.s.comments, id)
	return nil
}

func (ps *PostStore) ToggleVote(_ context.Context, id, userID string, d models.Direction) (*models.Post, error) {
	if err := ps.s.lock(); err != nil {
		return nil, err
	}
	defer ps.s.mu.Unlock()

	p, ok := ps.s.posts[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	p.ApplyVote(userID, d)
	ps.s.posts[id] = p
	return clonePost(p), nil
}

type CommentStore struct{ s *Stores }

func (cs *CommentStore) ListByPost(_ context.Context, postID string) ([]models.Comment, error) {
	if err := cs.s.lock(); err != nil {
		return nil, err
	}
	defer cs.s.mu.Unlock()

	return slices.Clone(cs.s.comments[postID]), nil
}

func (cs *CommentStore) Create(_ context.Context, c *models.Comment) error {
	if err := cs.s.lock(); err != nil {
		return err
	}
	defer cs.s.mu.Unlock()

	if _, ok := cs.s.posts[c.PostID]; !ok {
		return database.ErrNotFound
	}
	c.ID = uuid.NewString()
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().UnixMilli()
	}
	cs.s.comments[c.PostID] = append(cs.s.comments[c.PostID], *c)
	return nil
}

type PresenceStore struct{ s *Stores }

func (ps *PresenceStore) Upsert(_ context.Context, p *models.Presence) error {
	if err := ps.s.lock(); err != nil {
		return err
	}
	defer ps.s.mu.Unlock()

	ps.s.presence[p.UserID] = *p
	return nil
}

func (ps *PresenceStore) SetOffline(_ context.Context, userID string, at time.Time) error {
	if err := ps.s.lock(); err != nil {
		return err
	}
	defer ps.s.mu.Unlock()

	if p, ok := ps.s.presence[userID]; ok {
		p.IsOnline = false
		p.LastSeen = at
		ps.s.presence[userID] = p
	}
	return nil
}

func (ps *PresenceStore) ActiveSince(_ context.Context, since time.Time, limit int) ([]models.Presence, error) {
	if err := ps.s.lock(); err != nil {
		return nil, err
	}
	defer ps.s.mu.Unlock()

	var out []models.Presence
	for _, p := range ps.s.presence {
		if p.IsOnline && p.LastSeen.After(since) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.Presence) int {
		return cmp.Or(b.LastSeen.Compare(a.LastSeen), cmp.Compare(a.UserID, b.UserID))
	})
	return out[:min(limit, len(out))], nil
}

// Get returns the stored presence record for a user, for assertions.
func (ps *PresenceStore) Get(userID string) (models.Presence, bool) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()
	p, ok := ps.s.presence[userID]
	return p, ok
}

type AccountStore struct{ s *Stores }

func (as *AccountStore) Create(_ context.Context, a *models.Account) error {
	if err := as.s.lock(); err != nil {
		return err
	}
	defer as.s.mu.Unlock()

	for _, existing := range as.s.accounts {
		if existing.Email == a.Email {
			return database.ErrDuplicate
		}
	}
	a.ID = uuid.NewString()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	as.s.accounts[a.ID] = *a
	return nil
}

func (as *AccountStore) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	if err := as.s.lock(); err != nil {
		return nil, err
	}
	defer as.s.mu.Unlock()

	for _, a := range as.s.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, database.ErrNotFound
}

func (as *AccountStore) GetByID(_ context.Context, id string) (*models.Account, error) {
	if err := as.s.lock(); err != nil {
		return nil, err
	}
	defer as.s.mu.Unlock()

	a, ok := as.s.accounts[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &a, nil
}

func (as *AccountStore) UpdatePassword(_ context.Context, id, hash string) error {
	if err := as.s.lock(); err != nil {
		return err
	}
	defer as.s.mu.Unlock()

	a, ok := as.s.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.PasswordHash = hash
	as.s.accounts[id] = a
	return nil
}
