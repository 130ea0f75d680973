// Package notifications records admin activity and publishes review events
// through Redis.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ActivityListKey holds the capped, newest-first activity feed.
	ActivityListKey = "activity:feed"
	// ActivityChannel receives every recorded event.
	ActivityChannel = "activity:events"
	// ActivityFeedSize caps the stored feed.
	ActivityFeedSize = 500
)

// Event types recorded in the activity feed.
const (
	EventSubmissionCreated  = "submission.created"
	EventSubmissionApproved = "submission.approved"
	EventSubmissionRejected = "submission.rejected"
	EventProductCreated     = "product.created"
	EventProductUpdated     = "product.updated"
	EventProductDeleted     = "product.deleted"
	EventContentUpdated     = "content.updated"
	EventAccountUpdated     = "account.updated"
	EventAccountDeleted     = "account.deleted"
	EventSessionsRevoked    = "account.sessions_revoked"
	EventPasswordReset      = "account.password_reset"
)

// ActivityEvent is one entry of the admin activity feed.
type ActivityEvent struct {
	Type      string         `json:"type"`
	ActorID   uint           `json:"actorId"`
	SubjectID string         `json:"subjectId"`
	Summary   string         `json:"summary"`
	Details   map[string]any `json:"details,omitempty"`
	At        time.Time      `json:"at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishActivity appends ev to the capped feed and publishes it. A nil
// notifier or client makes this a no-op.
func (n *Notifier) PublishActivity(ctx context.Context, ev ActivityEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	pipe := n.rdb.TxPipeline()
	pipe.LPush(ctx, ActivityListKey, payload)
	pipe.LTrim(ctx, ActivityListKey, 0, ActivityFeedSize-1)
	pipe.Publish(ctx, ActivityChannel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish activity: %w", err)
	}
	return nil
}

// RecentActivity returns up to limit events, newest first. Malformed entries are skipped.
func (n *Notifier) RecentActivity(ctx context.Context, limit int) ([]ActivityEvent, error) {
	events := []ActivityEvent{}
	if n == nil || n.rdb == nil {
		return events, nil
	}
	if limit <= 0 || limit > ActivityFeedSize {
		limit = 50
	}

	raw, err := n.rdb.LRange(ctx, ActivityListKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read activity: %w", err)
	}
	for _, item := range raw {
		var ev ActivityEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// PublishVendor sends a payload on the vendor's notification channel.
func (n *Notifier) PublishVendor(ctx context.Context, vendorID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, VendorChannel(vendorID), payload).Err()
}

// VendorChannel derives the Redis channel name for a vendor.
func VendorChannel(vendorID uint) string {
	return "notifications:vendor:" + strconv.FormatUint(uint64(vendorID), 10)
}
