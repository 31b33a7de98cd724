package service

import (
	"context"
	"errors"
	"testing"

	"minitwit/internal/model"
)

func knownUsers(ids ...int64) *mockUserRepository {
	known := make(map[int64]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			if known[id] {
				return &model.User{ID: id}, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
}

func TestFollowService_Follow(t *testing.T) {
	tests := []struct {
		name            string
		who, whom       int64
		created         bool
		wantErr         error
		wantCreateCalls int
		wantInvalidated []int64
	}{
		{
			name:            "new edge invalidates follower timeline",
			who:             1,
			whom:            2,
			created:         true,
			wantCreateCalls: 1,
			wantInvalidated: []int64{1},
		},
		{
			name:            "existing edge is a silent no-op",
			who:             1,
			whom:            2,
			created:         false,
			wantCreateCalls: 1,
		},
		{
			name:    "unknown target",
			who:     1,
			whom:    99,
			wantErr: model.ErrUnknownUser,
		},
		{
			name:    "self follow",
			who:     1,
			whom:    1,
			wantErr: model.ErrCannotFollowSelf,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			followRepo := &mockFollowRepository{
				createFn: func(ctx context.Context, whoID, whomID int64) (bool, error) {
					return tt.created, nil
				},
			}
			tc := &mockTimelineCache{}
			svc := NewFollowService(followRepo, knownUsers(1, 2), tc)

			err := svc.Follow(context.Background(), tt.who, tt.whom)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if followRepo.createCalls != tt.wantCreateCalls {
				t.Errorf("Create called %d times, want %d", followRepo.createCalls, tt.wantCreateCalls)
			}
			if len(tc.invalidated) != len(tt.wantInvalidated) {
				t.Fatalf("invalidated = %v, want %v", tc.invalidated, tt.wantInvalidated)
			}
			for i := range tt.wantInvalidated {
				if tc.invalidated[i] != tt.wantInvalidated[i] {
					t.Errorf("invalidated = %v, want %v", tc.invalidated, tt.wantInvalidated)
				}
			}
		})
	}
}

func TestFollowService_Follow_WithoutCache(t *testing.T) {
	svc := NewFollowService(&mockFollowRepository{}, knownUsers(1, 2), nil)

	if err := svc.Follow(context.Background(), 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Unfollow(context.Background(), 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFollowService_Follow_CacheFailureIsNotFatal(t *testing.T) {
	tc := &mockTimelineCache{
		invalidateFn: func(ctx context.Context, userIDs ...int64) error {
			return errors.New("redis down")
		},
	}
	svc := NewFollowService(&mockFollowRepository{}, knownUsers(1, 2), tc)

	if err := svc.Follow(context.Background(), 1, 2); err != nil {
		t.Errorf("cache failure should not fail follow, got %v", err)
	}
}

func TestFollowService_Follow_RepositoryError(t *testing.T) {
	dbErr := errors.New("insert failed")
	followRepo := &mockFollowRepository{
		createFn: func(ctx context.Context, whoID, whomID int64) (bool, error) {
			return false, dbErr
		},
	}
	svc := NewFollowService(followRepo, knownUsers(1, 2), nil)

	err := svc.Follow(context.Background(), 1, 2)
	if !errors.Is(err, dbErr) {
		t.Errorf("error should wrap repository error, got %v", err)
	}
}

func TestFollowService_Unfollow(t *testing.T) {
	tests := []struct {
		name            string
		removed         bool
		wantInvalidated int
	}{
		{name: "existing edge", removed: true, wantInvalidated: 1},
		{name: "missing edge is a no-op", removed: false, wantInvalidated: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			followRepo := &mockFollowRepository{
				deleteFn: func(ctx context.Context, whoID, whomID int64) (bool, error) {
					return tt.removed, nil
				},
			}
			tc := &mockTimelineCache{}
			svc := NewFollowService(followRepo, knownUsers(1, 2), tc)

			if err := svc.Unfollow(context.Background(), 1, 2); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tc.invalidated) != tt.wantInvalidated {
				t.Errorf("invalidated = %v, want %d entries", tc.invalidated, tt.wantInvalidated)
			}
		})
	}
}

func TestFollowService_IsFollowingAndFollowedIDs(t *testing.T) {
	followRepo := &mockFollowRepository{
		existsFn: func(ctx context.Context, whoID, whomID int64) (bool, error) {
			return whoID == 1 && whomID == 2, nil
		},
		getFollowedIDsFn: func(ctx context.Context, whoID int64) ([]int64, error) {
			return []int64{2, 3}, nil
		},
	}
	svc := NewFollowService(followRepo, knownUsers(1, 2, 3), nil)
	ctx := context.Background()

	following, err := svc.IsFollowing(ctx, 1, 2)
	if err != nil || !following {
		t.Errorf("IsFollowing(1, 2) = %v, %v; want true", following, err)
	}
	following, err = svc.IsFollowing(ctx, 2, 1)
	if err != nil || following {
		t.Errorf("IsFollowing(2, 1) = %v, %v; want false", following, err)
	}

	ids, err := svc.FollowedIDs(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 3 {
		t.Errorf("FollowedIDs = %v, want [2 3]", ids)
	}
}
