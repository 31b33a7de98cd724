package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"minitwit/internal/cache"
	"minitwit/internal/model"
	"minitwit/internal/repository"
)

// TimelineService answers "which messages does this viewer see".
type TimelineService struct {
	userRepo      repository.UserRepository
	followRepo    repository.FollowRepository
	messageRepo   repository.MessageRepository
	timelineCache cache.TimelineCache // optional
}

func NewTimelineService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	messageRepo repository.MessageRepository,
	timelineCache cache.TimelineCache,
) *TimelineService {
	return &TimelineService{
		userRepo:      userRepo,
		followRepo:    followRepo,
		messageRepo:   messageRepo,
		timelineCache: timelineCache,
	}
}

// PublicTimeline returns the newest messages of all users.
func (s *TimelineService) PublicTimeline(ctx context.Context, limit int) ([]model.TimelineEntry, error) {
	entries, err := s.messageRepo.GetRecent(ctx, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("public timeline: %w", err)
	}
	return entries, nil
}

// OwnTimeline returns the newest messages of the current user and everyone
// they follow. A nil currentUserID yields model.ErrNotAuthenticated.
//
// With a cache configured the ids come from Redis and are hydrated with one
// query; on a miss the store is read and the cache warmed. Cache errors only
// cost the fast path.
func (s *TimelineService) OwnTimeline(ctx context.Context, currentUserID *int64, limit int) ([]model.TimelineEntry, error) {
	if currentUserID == nil {
		return nil, model.ErrNotAuthenticated
	}
	userID := *currentUserID
	limit = normalizeLimit(limit)

	if s.timelineCache != nil {
		entries, ok := s.fromCache(ctx, userID, limit)
		if ok {
			return entries, nil
		}
	}

	// The generation is read before the store so a write committed after this
	// point invalidates the warm below.
	var (
		gen    int64
		genErr error
	)
	if s.timelineCache != nil {
		gen, genErr = s.timelineCache.Generation(ctx, userID)
		if genErr != nil {
			slog.WarnContext(ctx, "timeline generation unavailable, not warming", "component", "TimelineService", "user", userID, "error", genErr)
		}
	}

	authorIDs, err := s.authorSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.timelineCache == nil || genErr != nil {
		entries, err := s.messageRepo.GetRecentByAuthors(ctx, authorIDs, limit)
		if err != nil {
			return nil, fmt.Errorf("own timeline: %w", err)
		}
		return entries, nil
	}

	startTime := time.Now()
	entries, err := s.messageRepo.GetRecentByAuthors(ctx, authorIDs, cache.TimelineCacheCap)
	if err != nil {
		return nil, fmt.Errorf("own timeline: %w", err)
	}
	s.warm(ctx, userID, gen, entries)

	slog.DebugContext(ctx, "own timeline from store", "component", "TimelineService",
		"user", userID, "authors", len(authorIDs), "messages", len(entries), "duration", time.Since(startTime))

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// UserTimeline returns target's own messages, whether the current user
// follows them, and the profile. Unknown usernames yield model.ErrUserNotFound.
func (s *TimelineService) UserTimeline(ctx context.Context, currentUserID *int64, username string, limit int) (*model.UserTimeline, error) {
	profile, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	followed := false
	if currentUserID != nil {
		followed, err = s.followRepo.Exists(ctx, *currentUserID, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("user timeline: %w", err)
		}
	}

	entries, err := s.messageRepo.GetRecentByAuthors(ctx, []int64{profile.ID}, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("user timeline: %w", err)
	}

	return &model.UserTimeline{
		ProfileUser: profile,
		Followed:    followed,
		Entries:     entries,
	}, nil
}

// authorSet is the user plus everyone they follow.
func (s *TimelineService) authorSet(ctx context.Context, userID int64) ([]int64, error) {
	followed, err := s.followRepo.GetFollowedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get followed ids: %w", err)
	}
	return append([]int64{userID}, followed...), nil
}

func (s *TimelineService) fromCache(ctx context.Context, userID int64, limit int) ([]model.TimelineEntry, bool) {
	ids, err := s.timelineCache.GetTimeline(ctx, userID, limit)
	if err != nil || len(ids) == 0 {
		return nil, false
	}

	entries, err := s.messageRepo.GetByIDs(ctx, ids)
	if err != nil {
		slog.WarnContext(ctx, "hydrate cached timeline failed", "component", "TimelineService", "user", userID, "error", err)
		return nil, false
	}
	return entries, true
}

func (s *TimelineService) warm(ctx context.Context, userID, gen int64, entries []model.TimelineEntry) {
	scores := make([]cache.MessageScore, len(entries))
	for i, e := range entries {
		scores[i] = cache.MessageScore{MessageID: e.Message.ID, PubDate: e.Message.PubDate}
	}
	if err := s.timelineCache.WarmCache(ctx, userID, gen, scores); err != nil {
		slog.WarnContext(ctx, "timeline cache warm failed", "component", "TimelineService", "user", userID, "error", err)
	}
}
