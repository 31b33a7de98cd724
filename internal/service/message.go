package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"minitwit/internal/cache"
	"minitwit/internal/model"
	"minitwit/internal/repository"
)

// MessageService owns authored messages.
type MessageService struct {
	messageRepo   repository.MessageRepository
	followRepo    repository.FollowRepository
	timelineCache cache.TimelineCache // optional
	now           func() time.Time
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	followRepo repository.FollowRepository,
	timelineCache cache.TimelineCache,
) *MessageService {
	return &MessageService{
		messageRepo:   messageRepo,
		followRepo:    followRepo,
		timelineCache: timelineCache,
		now:           time.Now,
	}
}

// Post stores text by authorID stamped with the current server time.
func (s *MessageService) Post(ctx context.Context, authorID int64, text string) (*model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.ErrEmptyText
	}

	msg := &model.Message{
		AuthorID: authorID,
		Text:     text,
		PubDate:  s.now().Unix(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.invalidateAudience(ctx, authorID)

	slog.InfoContext(ctx, "message posted", "component", "MessageService", "author", authorID, "message", msg.ID)
	return msg, nil
}

// RecentByAuthors returns the newest messages written by any of authorIDs.
func (s *MessageService) RecentByAuthors(ctx context.Context, authorIDs []int64, limit int) ([]model.TimelineEntry, error) {
	entries, err := s.messageRepo.GetRecentByAuthors(ctx, authorIDs, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return entries, nil
}

// invalidateAudience drops the cached timelines that can show authorID's messages.
func (s *MessageService) invalidateAudience(ctx context.Context, authorID int64) {
	if s.timelineCache == nil {
		return
	}

	followerIDs, err := s.followRepo.GetFollowerIDs(ctx, authorID)
	if err != nil {
		slog.WarnContext(ctx, "get followers failed, invalidating author only",
			"component", "MessageService", "author", authorID, "error", err)
		followerIDs = nil
	}

	userIDs := append([]int64{authorID}, followerIDs...)
	if err := s.timelineCache.Invalidate(ctx, userIDs...); err != nil {
		slog.WarnContext(ctx, "timeline invalidation failed",
			"component", "MessageService", "author", authorID, "users", len(userIDs), "error", err)
	}
}

// normalizeLimit maps non-positive limits to the default page and clamps large ones.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return model.DefaultPerPage
	}
	if limit > model.MaxPerPage {
		return model.MaxPerPage
	}
	return limit
}
