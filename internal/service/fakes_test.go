package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"taskhub/internal/model"
)

// In-memory stores mirroring the repository contract: copies in, copies
// out, pgx.ErrNoRows for missing rows.

type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	f := &fakeUserStore{users: make(map[string]*model.User)}
	for _, u := range users {
		cp := *u
		f.users[u.ID] = &cp
	}
	return f
}

func (f *fakeUserStore) Create(_ context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", len(f.users)+1)
	}
	u.CreatedAt = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

type fakeTaskStore struct {
	tasks         map[string]*model.Task
	users         *fakeUserStore
	notifications *fakeNotificationStore
	nextID        int
}

func newFakeTaskStore(users *fakeUserStore, notifications *fakeNotificationStore) *fakeTaskStore {
	return &fakeTaskStore{
		tasks:         make(map[string]*model.Task),
		users:         users,
		notifications: notifications,
	}
}

func (f *fakeTaskStore) Insert(_ context.Context, t *model.Task) error {
	f.nextID++
	t.ID = fmt.Sprintf("task-%d", f.nextID)
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	cp.Creator = nil
	cp.Assignee = nil
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeTaskStore) FindByID(ctx context.Context, id string) (*model.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	if creator, err := f.users.FindByID(ctx, cp.CreatorID); err == nil {
		cp.Creator = creator.Ref()
	}
	if cp.AssignedToID != nil {
		if assignee, err := f.users.FindByID(ctx, *cp.AssignedToID); err == nil {
			cp.Assignee = assignee.Ref()
		}
	}
	return &cp, nil
}

func (f *fakeTaskStore) ListForUser(ctx context.Context, userID string) ([]model.Task, error) {
	var out []model.Task
	for id, t := range f.tasks {
		if t.CreatorID == userID || t.IsAssignedTo(userID) {
			cp, err := f.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			out = append(out, *cp)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) Update(_ context.Context, t *model.Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	cp.Creator = nil
	cp.Assignee = nil
	f.tasks[t.ID] = &cp
	return nil
}

// Delete mirrors the repository transaction: the task's notifications go
// with it.
func (f *fakeTaskStore) Delete(_ context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.tasks, id)
	if f.notifications != nil {
		f.notifications.deleteForTask(id)
	}
	return nil
}

type fakeNotificationStore struct {
	items     []*model.Notification
	nextID    int
	insertErr error
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{}
}

func (f *fakeNotificationStore) Insert(_ context.Context, n *model.Notification) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	n.ID = fmt.Sprintf("notif-%d", f.nextID)
	n.CreatedAt = time.Now().UTC()
	cp := *n
	cp.Task = nil
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakeNotificationStore) FindByID(_ context.Context, id string) (*model.Notification, error) {
	for _, n := range f.items {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeNotificationStore) ListForUser(_ context.Context, userID string, limit int) ([]model.Notification, error) {
	var out []model.Notification
	for i := len(f.items) - 1; i >= 0 && len(out) < limit; i-- {
		if f.items[i].UserID == userID {
			out = append(out, *f.items[i])
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) UnreadCount(_ context.Context, userID string) (int, error) {
	count := 0
	for _, n := range f.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, id string) error {
	for _, n := range f.items {
		if n.ID == id {
			n.IsRead = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeNotificationStore) MarkAllRead(_ context.Context, userID string) error {
	for _, n := range f.items {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationStore) deleteForTask(taskID string) {
	kept := f.items[:0]
	for _, n := range f.items {
		if n.TaskID != taskID {
			kept = append(kept, n)
		}
	}
	f.items = kept
}

func (f *fakeNotificationStore) forUser(userID string) []*model.Notification {
	var out []*model.Notification
	for _, n := range f.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// recordingPublisher captures publishes in call order so tests can
// assert on event sequencing.

type publishedEvent struct {
	event   string
	userID  string // empty for broadcasts
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	fail   error
}

func (p *recordingPublisher) Publish(event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, publishedEvent{event: event, payload: payload})
	return nil
}

func (p *recordingPublisher) PublishToUser(userID, event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, publishedEvent{event: event, userID: userID, payload: payload})
	return nil
}

func (p *recordingPublisher) recorded() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}
