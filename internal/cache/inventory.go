package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix       = "user:%d"
	BanHistoryKeyPrefix = "bans:user:%d"
	BanStatsKey         = "bans:stats"
)

const (
	UserTTL       = 5 * time.Minute
	BanHistoryTTL = time.Minute
	BanStatsTTL   = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func BanHistoryKey(userID uint) string {
	return fmt.Sprintf(BanHistoryKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateBans drops the cached history and aggregate stats for a user.
// Called after every ban transition so reads converge within one TTL.
func InvalidateBans(ctx context.Context, userID uint) {
	Invalidate(ctx, BanHistoryKey(userID))
	Invalidate(ctx, BanStatsKey)
}
