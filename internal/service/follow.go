package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"minitwit/internal/cache"
	"minitwit/internal/model"
	"minitwit/internal/repository"
)

// FollowService owns the directed follow graph.
type FollowService struct {
	followRepo    repository.FollowRepository
	userRepo      repository.UserRepository
	timelineCache cache.TimelineCache // optional
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	timelineCache cache.TimelineCache,
) *FollowService {
	return &FollowService{
		followRepo:    followRepo,
		userRepo:      userRepo,
		timelineCache: timelineCache,
	}
}

func (s *FollowService) IsFollowing(ctx context.Context, whoID, whomID int64) (bool, error) {
	return s.followRepo.Exists(ctx, whoID, whomID)
}

// Follow adds the edge whoID -> whomID. Following twice is a no-op.
// Returns model.ErrUnknownUser if whomID does not exist.
func (s *FollowService) Follow(ctx context.Context, whoID, whomID int64) error {
	if whoID == whomID {
		return model.ErrCannotFollowSelf
	}

	if _, err := s.userRepo.GetByID(ctx, whomID); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.ErrUnknownUser
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	created, err := s.followRepo.Create(ctx, whoID, whomID)
	if err != nil {
		if errors.Is(err, model.ErrUnknownUser) || errors.Is(err, model.ErrCannotFollowSelf) {
			return err
		}
		return fmt.Errorf("failed to follow: %w", err)
	}

	if created {
		s.invalidate(ctx, whoID)
		slog.InfoContext(ctx, "follow created", "component", "FollowService", "who", whoID, "whom", whomID)
	}
	return nil
}

// Unfollow removes the edge whoID -> whomID if present.
func (s *FollowService) Unfollow(ctx context.Context, whoID, whomID int64) error {
	removed, err := s.followRepo.Delete(ctx, whoID, whomID)
	if err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}

	if removed {
		s.invalidate(ctx, whoID)
		slog.InfoContext(ctx, "follow removed", "component", "FollowService", "who", whoID, "whom", whomID)
	}
	return nil
}

// FollowedIDs returns the ids whoID follows, ascending.
func (s *FollowService) FollowedIDs(ctx context.Context, whoID int64) ([]int64, error) {
	ids, err := s.followRepo.GetFollowedIDs(ctx, whoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get followed ids: %w", err)
	}
	return ids, nil
}

func (s *FollowService) invalidate(ctx context.Context, userID int64) {
	if s.timelineCache == nil {
		return
	}
	if err := s.timelineCache.Invalidate(ctx, userID); err != nil {
		slog.WarnContext(ctx, "timeline invalidation failed", "component", "FollowService", "user", userID, "error", err)
	}
}
