// Package memstore keeps every repository in process memory. The server uses
// it when no database is configured; tests use it as a realistic fake.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"minitwit/internal/model"
	"minitwit/internal/repository"
)

// Store holds users, follow edges, messages and refresh tokens behind one lock.
type Store struct {
	mu sync.RWMutex

	users      map[int64]model.User
	byUsername map[string]int64
	follows    map[model.Follower]struct{}
	messages   []model.Message
	tokens     map[string]*model.RefreshToken

	nextUserID    int64
	nextMessageID int64

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:      make(map[int64]model.User),
		byUsername: make(map[string]int64),
		follows:    make(map[model.Follower]struct{}),
		tokens:     make(map[string]*model.RefreshToken),
		now:        time.Now,
	}
}

func (s *Store) Users() repository.UserRepository { return (*users)(s) }

func (s *Store) Follows() repository.FollowRepository { return (*follows)(s) }

func (s *Store) Messages() repository.MessageRepository { return (*messages)(s) }

func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return (*refreshTokens)(s) }

// =============================================================================
// USERS
// =============================================================================

type users Store

func (r *users) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[u.Username]; taken {
		return model.ErrUsernameTaken
	}
	r.nextUserID++
	u.ID = r.nextUserID
	r.users[u.ID] = *u
	r.byUsername[u.Username] = u.ID
	return nil
}

func (r *users) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (r *users) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := r.users[id]
	return &u, nil
}

func (r *users) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byUsername[username]
	return ok, nil
}

// =============================================================================
// FOLLOWS
// =============================================================================

type follows Store

func (r *follows) Create(_ context.Context, whoID, whomID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if whoID == whomID {
		return false, model.ErrCannotFollowSelf
	}
	_, whoOK := r.users[whoID]
	_, whomOK := r.users[whomID]
	if !whoOK || !whomOK {
		return false, model.ErrUnknownUser
	}

	edge := model.Follower{WhoID: whoID, WhomID: whomID}
	if _, exists := r.follows[edge]; exists {
		return false, nil
	}
	r.follows[edge] = struct{}{}
	return true, nil
}

func (r *follows) Delete(_ context.Context, whoID, whomID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	edge := model.Follower{WhoID: whoID, WhomID: whomID}
	if _, exists := r.follows[edge]; !exists {
		return false, nil
	}
	delete(r.follows, edge)
	return true, nil
}

func (r *follows) Exists(_ context.Context, whoID, whomID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.follows[model.Follower{WhoID: whoID, WhomID: whomID}]
	return ok, nil
}

func (r *follows) GetFollowedIDs(_ context.Context, whoID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := []int64{}
	for edge := range r.follows {
		if edge.WhoID == whoID {
			ids = append(ids, edge.WhomID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *follows) GetFollowerIDs(_ context.Context, whomID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := []int64{}
	for edge := range r.follows {
		if edge.WhomID == whomID {
			ids = append(ids, edge.WhoID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

type messages Store

func (r *messages) Create(_ context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[msg.AuthorID]; !ok {
		return model.ErrUnknownUser
	}
	r.nextMessageID++
	msg.ID = r.nextMessageID
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *messages) GetRecent(_ context.Context, limit int) ([]model.TimelineEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.recent(func(model.Message) bool { return true }, limit), nil
}

func (r *messages) GetRecentByAuthors(_ context.Context, authorIDs []int64, limit int) ([]model.TimelineEntry, error) {
	if len(authorIDs) == 0 {
		return []model.TimelineEntry{}, nil
	}

	authors := make(map[int64]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.recent(func(m model.Message) bool {
		_, ok := authors[m.AuthorID]
		return ok
	}, limit), nil
}

func (r *messages) GetByIDs(_ context.Context, ids []int64) ([]model.TimelineEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byID := make(map[int64]model.Message, len(r.messages))
	for _, m := range r.messages {
		byID[m.ID] = m
	}

	entries := make([]model.TimelineEntry, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			entries = append(entries, model.TimelineEntry{Message: m, Author: r.users[m.AuthorID]})
		}
	}
	return entries, nil
}

// recent must be called with the read lock held.
func (r *messages) recent(match func(model.Message) bool, limit int) []model.TimelineEntry {
	selected := make([]model.Message, 0)
	for _, m := range r.messages {
		if match(m) {
			selected = append(selected, m)
		}
	}

	sort.Slice(selected, func(i, j int) bool {
		if selected[i].PubDate != selected[j].PubDate {
			return selected[i].PubDate > selected[j].PubDate
		}
		return selected[i].ID > selected[j].ID
	})

	if limit >= 0 && len(selected) > limit {
		selected = selected[:limit]
	}

	entries := make([]model.TimelineEntry, len(selected))
	for i, m := range selected {
		entries[i] = model.TimelineEntry{Message: m, Author: r.users[m.AuthorID]}
	}
	return entries
}

// =============================================================================
// REFRESH TOKENS
// =============================================================================

type refreshTokens Store

func (r *refreshTokens) Create(_ context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token.ID = uuid.New().String()
	token.CreatedAt = r.now()
	stored := *token
	r.tokens[token.TokenHash] = &stored
	return nil
}

func (r *refreshTokens) FindByTokenHash(_ context.Context, tokenHash string) (*model.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, model.ErrRefreshTokenNotFound
	}
	found := *token
	return &found, nil
}

func (r *refreshTokens) Revoke(_ context.Context, id string, replacedBy *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for _, token := range r.tokens {
		if token.ID == id && token.RevokedAt == nil {
			token.RevokedAt = &now
			token.ReplacedBy = replacedBy
		}
	}
	return nil
}

func (r *refreshTokens) RevokeAllForUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for _, token := range r.tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}
