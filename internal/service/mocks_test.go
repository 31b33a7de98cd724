package service

import (
	"context"

	"minitwit/internal/cache"
	"minitwit/internal/model"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Each mock implements a repository interface with per-test function fields.
// A nil field falls back to a harmless default.

type mockUserRepository struct {
	createFn           func(ctx context.Context, user *model.User) error
	getByIDFn          func(ctx context.Context, id int64) (*model.User, error)
	getByUsernameFn    func(ctx context.Context, username string) (*model.User, error)
	existsByUsernameFn func(ctx context.Context, username string) (bool, error)

	createCalls []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return false, nil
}

type mockFollowRepository struct {
	createFn         func(ctx context.Context, whoID, whomID int64) (bool, error)
	deleteFn         func(ctx context.Context, whoID, whomID int64) (bool, error)
	existsFn         func(ctx context.Context, whoID, whomID int64) (bool, error)
	getFollowedIDsFn func(ctx context.Context, whoID int64) ([]int64, error)
	getFollowerIDsFn func(ctx context.Context, whomID int64) ([]int64, error)

	createCalls int
	deleteCalls int
}

func (m *mockFollowRepository) Create(ctx context.Context, whoID, whomID int64) (bool, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, whoID, whomID)
	}
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, whoID, whomID int64) (bool, error) {
	m.deleteCalls++
	if m.deleteFn != nil {
		return m.deleteFn(ctx, whoID, whomID)
	}
	return true, nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, whoID, whomID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, whoID, whomID)
	}
	return false, nil
}

func (m *mockFollowRepository) GetFollowedIDs(ctx context.Context, whoID int64) ([]int64, error) {
	if m.getFollowedIDsFn != nil {
		return m.getFollowedIDsFn(ctx, whoID)
	}
	return []int64{}, nil
}

func (m *mockFollowRepository) GetFollowerIDs(ctx context.Context, whomID int64) ([]int64, error) {
	if m.getFollowerIDsFn != nil {
		return m.getFollowerIDsFn(ctx, whomID)
	}
	return []int64{}, nil
}

type mockMessageRepository struct {
	createFn             func(ctx context.Context, msg *model.Message) error
	getRecentFn          func(ctx context.Context, limit int) ([]model.TimelineEntry, error)
	getRecentByAuthorsFn func(ctx context.Context, authorIDs []int64, limit int) ([]model.TimelineEntry, error)
	getByIDsFn           func(ctx context.Context, ids []int64) ([]model.TimelineEntry, error)

	createCalls             []*model.Message
	getRecentByAuthorsCalls int
}

func (m *mockMessageRepository) Create(ctx context.Context, msg *model.Message) error {
	m.createCalls = append(m.createCalls, msg)
	if m.createFn != nil {
		return m.createFn(ctx, msg)
	}
	return nil
}

func (m *mockMessageRepository) GetRecent(ctx context.Context, limit int) ([]model.TimelineEntry, error) {
	if m.getRecentFn != nil {
		return m.getRecentFn(ctx, limit)
	}
	return []model.TimelineEntry{}, nil
}

func (m *mockMessageRepository) GetRecentByAuthors(ctx context.Context, authorIDs []int64, limit int) ([]model.TimelineEntry, error) {
	m.getRecentByAuthorsCalls++
	if m.getRecentByAuthorsFn != nil {
		return m.getRecentByAuthorsFn(ctx, authorIDs, limit)
	}
	return []model.TimelineEntry{}, nil
}

func (m *mockMessageRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.TimelineEntry, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return []model.TimelineEntry{}, nil
}

// =============================================================================
// MOCK CACHE
// =============================================================================

type mockTimelineCache struct {
	getTimelineFn func(ctx context.Context, userID int64, limit int) ([]int64, error)
	generationFn  func(ctx context.Context, userID int64) (int64, error)
	warmCacheFn   func(ctx context.Context, userID, gen int64, entries []cache.MessageScore) error
	invalidateFn  func(ctx context.Context, userIDs ...int64) error

	warmed      map[int64][]cache.MessageScore
	warmedGen   int64
	invalidated []int64
}

func (m *mockTimelineCache) GetTimeline(ctx context.Context, userID int64, limit int) ([]int64, error) {
	if m.getTimelineFn != nil {
		return m.getTimelineFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockTimelineCache) Generation(ctx context.Context, userID int64) (int64, error) {
	if m.generationFn != nil {
		return m.generationFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockTimelineCache) WarmCache(ctx context.Context, userID, gen int64, entries []cache.MessageScore) error {
	if m.warmed == nil {
		m.warmed = make(map[int64][]cache.MessageScore)
	}
	m.warmed[userID] = entries
	m.warmedGen = gen
	if m.warmCacheFn != nil {
		return m.warmCacheFn(ctx, userID, gen, entries)
	}
	return nil
}

func (m *mockTimelineCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	m.invalidated = append(m.invalidated, userIDs...)
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx, userIDs...)
	}
	return nil
}

func entry(id, authorID, pubDate int64, text, author string) model.TimelineEntry {
	return model.TimelineEntry{
		Message: model.Message{ID: id, AuthorID: authorID, Text: text, PubDate: pubDate},
		Author:  model.User{ID: authorID, Username: author},
	}
}

func ptr[T any](v T) *T {
	return &v
}
