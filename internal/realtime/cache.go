package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"taskhub/internal/events"
	"taskhub/internal/model"
)

// TaskCache holds the client's local task list. Any task event
// invalidates the whole cache and the next read refetches; there is no
// incremental patching.
type TaskCache struct {
	mu    sync.Mutex
	fetch func(ctx context.Context) ([]model.Task, error)
	tasks []model.Task
	valid bool
}

func NewTaskCache(fetch func(ctx context.Context) ([]model.Task, error)) *TaskCache {
	return &TaskCache{fetch: fetch}
}

// Bind subscribes the cache to the three global task events.
func (c *TaskCache) Bind(s *Session) {
	invalidate := func(json.RawMessage) {
		c.Invalidate()
	}
	s.On(events.TaskCreated, invalidate)
	s.On(events.TaskUpdated, invalidate)
	s.On(events.TaskDeleted, invalidate)
}

func (c *TaskCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// Valid reports whether a read would be served from cache.
func (c *TaskCache) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid
}

// Tasks returns the cached list, refetching first if the cache was
// invalidated.
func (c *TaskCache) Tasks(ctx context.Context) ([]model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid {
		tasks, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.tasks = tasks
		c.valid = true
	}
	return append([]model.Task(nil), c.tasks...), nil
}

// NotificationFeed mirrors the server's notification list for one user:
// new notifications are prepended as they arrive and an unread counter
// is kept alongside.
type NotificationFeed struct {
	mu     sync.Mutex
	items  []model.Notification
	unread int
	logger *zap.Logger
}

func NewNotificationFeed(logger *zap.Logger) *NotificationFeed {
	return &NotificationFeed{logger: logger}
}

// Bind subscribes the feed to the targeted notification event.
func (f *NotificationFeed) Bind(s *Session) {
	s.On(events.NotificationNew, f.onNew)
}

func (f *NotificationFeed) onNew(data json.RawMessage) {
	var n model.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		f.logger.Warn("Dropping malformed notification", zap.Error(err))
		return
	}

	f.mu.Lock()
	f.items = append([]model.Notification{n}, f.items...)
	f.unread++
	f.mu.Unlock()
}

// Seed replaces the feed with a fetched list, typically on login.
func (f *NotificationFeed) Seed(items []model.Notification, unread int) {
	f.mu.Lock()
	f.items = append([]model.Notification(nil), items...)
	f.unread = unread
	f.mu.Unlock()
}

// Snapshot returns the current items and unread count.
func (f *NotificationFeed) Snapshot() ([]model.Notification, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Notification(nil), f.items...), f.unread
}

// MarkRead flips one notification locally, mirroring a successful
// mark-read call to the server.
func (f *NotificationFeed) MarkRead(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id && !f.items[i].IsRead {
			f.items[i].IsRead = true
			if f.unread > 0 {
				f.unread--
			}
			return
		}
	}
}

// MarkAllRead flips everything locally.
func (f *NotificationFeed) MarkAllRead() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		f.items[i].IsRead = true
	}
	f.unread = 0
}
