package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TimelineCachePrefix is the key prefix for own-timeline caches
	TimelineCachePrefix = "timeline:user:"

	// TimelineCacheCap is the maximum number of messages cached per user
	TimelineCacheCap = 500

	// TimelineCacheTTL bounds how long a warmed timeline lives without writes
	TimelineCacheTTL = 10 * time.Minute

	// TimelineGenPrefix is the key prefix for per-user invalidation counters
	TimelineGenPrefix = "timeline:gen:"

	// timelineGenTTL outlives any read-then-warm window by far.
	timelineGenTTL = 24 * time.Hour

	// memberWidth zero-pads ids so equal scores order by id.
	memberWidth = 19
)

var errStaleGeneration = errors.New("timeline generation changed")

// MessageScore is a message id with its publication time.
type MessageScore struct {
	MessageID int64
	PubDate   int64 // unix seconds
}

// TimelineCache stores the newest message ids of a user's own timeline.
type TimelineCache interface {
	// GetTimeline returns up to limit ids, newest first (pub_date DESC, id DESC).
	// An empty result means the timeline is not cached.
	GetTimeline(ctx context.Context, userID int64, limit int) ([]int64, error)

	// Generation returns the user's invalidation counter. Read it before
	// querying the store and hand it to WarmCache.
	Generation(ctx context.Context, userID int64) (int64, error)

	// WarmCache replaces the user's cached timeline with entries, unless the
	// timeline was invalidated since gen was read. A skipped warm is not an error.
	WarmCache(ctx context.Context, userID, gen int64, entries []MessageScore) error

	// Invalidate drops the cached timelines of the given users and bumps
	// their generations.
	Invalidate(ctx context.Context, userIDs ...int64) error
}

// RedisTimelineCache implements TimelineCache using Redis Sorted Sets.
type RedisTimelineCache struct {
	client *redis.Client
}

func NewTimelineCache(client *redis.Client) TimelineCache {
	return &RedisTimelineCache{client: client}
}

func timelineKey(userID int64) string {
	return fmt.Sprintf("%s%d", TimelineCachePrefix, userID)
}

func generationKey(userID int64) string {
	return fmt.Sprintf("%s%d", TimelineGenPrefix, userID)
}

func formatMember(id int64) string {
	return fmt.Sprintf("%0*d", memberWidth, id)
}

func (c *RedisTimelineCache) GetTimeline(ctx context.Context, userID int64, limit int) ([]int64, error) {
	key := timelineKey(userID)

	// ZREVRANGE orders equal scores by member descending
	members, err := c.client.ZRevRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		slog.WarnContext(ctx, "get timeline failed", "component", "TimelineCache", "user", userID, "error", err)
		return nil, fmt.Errorf("get timeline: %w", err)
	}

	ids := make([]int64, len(members))
	for i, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse message id %q: %w", m, err)
		}
		ids[i] = id
	}

	slog.DebugContext(ctx, "get timeline", "component", "TimelineCache", "user", userID, "returned", len(ids))
	return ids, nil
}

func (c *RedisTimelineCache) Generation(ctx context.Context, userID int64) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get timeline generation: %w", err)
	}
	return gen, nil
}

// WarmCache rewrites the key in one MULTI/EXEC so readers never see a partial
// set. The generation key is WATCHed, so an Invalidate racing with the warm
// aborts it.
func (c *RedisTimelineCache) WarmCache(ctx context.Context, userID, gen int64, entries []MessageScore) error {
	if len(entries) == 0 {
		return nil
	}

	key := timelineKey(userID)
	genKey := generationKey(userID)
	startTime := time.Now()

	members := make([]redis.Z, len(entries))
	for i, e := range entries {
		members[i] = redis.Z{
			Score:  float64(e.PubDate),
			Member: formatMember(e.MessageID),
		}
	}

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZAdd(ctx, key, members...)
			// keep the newest TimelineCacheCap members
			pipe.ZRemRangeByRank(ctx, key, 0, int64(-TimelineCacheCap-1))
			pipe.Expire(ctx, key, TimelineCacheTTL)
			return nil
		})
		return err
	}, genKey)

	switch {
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		slog.DebugContext(ctx, "warm skipped, timeline invalidated meanwhile", "component", "TimelineCache", "user", userID)
		return nil
	case err != nil:
		slog.WarnContext(ctx, "warm cache failed", "component", "TimelineCache", "user", userID, "error", err)
		return fmt.Errorf("warm cache: %w", err)
	}

	slog.DebugContext(ctx, "cache warmed", "component", "TimelineCache",
		"user", userID, "messages", len(entries), "duration", time.Since(startTime))
	return nil
}

func (c *RedisTimelineCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	pipe := c.client.TxPipeline()
	for _, id := range userIDs {
		pipe.Del(ctx, timelineKey(id))
		pipe.Incr(ctx, generationKey(id))
		pipe.Expire(ctx, generationKey(id), timelineGenTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		slog.WarnContext(ctx, "invalidate failed", "component", "TimelineCache", "users", len(userIDs), "error", err)
		return fmt.Errorf("invalidate timelines: %w", err)
	}
	return nil
}
