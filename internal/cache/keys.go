package cache

import (
	"context"
	"fmt"
	"time"
)

const accountKeyFormat = "account:%d"

// AccountTTL bounds how long a cached account may lag a write that failed to invalidate it.
const AccountTTL = 5 * time.Minute

// AccountKey is the cache key of one account record.
func AccountKey(accountID uint) string {
	return fmt.Sprintf(accountKeyFormat, accountID)
}

// Invalidate drops key from the cache.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateAccount drops the cached account record.
func InvalidateAccount(ctx context.Context, accountID uint) {
	Invalidate(ctx, AccountKey(accountID))
}
