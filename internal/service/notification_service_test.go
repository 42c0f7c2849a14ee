package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"taskhub/internal/apperr"
	"taskhub/internal/model"
)

func seedNotifications(t *testing.T, store *fakeNotificationStore, ns ...*model.Notification) {
	t.Helper()
	for _, n := range ns {
		if err := store.Insert(context.Background(), n); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestNotificationList(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, zap.NewNop())
	seedNotifications(t, store,
		&model.Notification{UserID: bob.ID, TaskID: "t1", Message: "first"},
		&model.Notification{UserID: alice.ID, TaskID: "t1", Message: "not bob's"},
		&model.Notification{UserID: bob.ID, TaskID: "t2", Message: "second"},
	)

	got, err := svc.List(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].Message != "second" || got[1].Message != "first" {
		t.Errorf("expected newest first, got %q then %q", got[0].Message, got[1].Message)
	}
}

func TestMarkReadOwnerOnly(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, zap.NewNop())
	n := &model.Notification{UserID: bob.ID, TaskID: "t1", Message: "yours"}
	seedNotifications(t, store, n)

	if _, err := svc.MarkRead(context.Background(), n.ID, alice.ID); !apperr.IsAuthorization(err) {
		t.Fatalf("expected authorization error for non-owner, got %v", err)
	}
	if store.items[0].IsRead {
		t.Fatal("denied mark-read flipped the flag")
	}

	updated, err := svc.MarkRead(context.Background(), n.ID, bob.ID)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !updated.IsRead || !store.items[0].IsRead {
		t.Error("mark-read did not persist")
	}
}

func TestMarkReadNotFound(t *testing.T) {
	svc := NewNotificationService(newFakeNotificationStore(), nil, zap.NewNop())
	if _, err := svc.MarkRead(context.Background(), "missing", bob.ID); !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, zap.NewNop())
	seedNotifications(t, store,
		&model.Notification{UserID: bob.ID, TaskID: "t1", Message: "a"},
		&model.Notification{UserID: bob.ID, TaskID: "t2", Message: "b"},
		&model.Notification{UserID: alice.ID, TaskID: "t3", Message: "c"},
	)

	if err := svc.MarkAllRead(context.Background(), bob.ID); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}

	count, err := svc.UnreadCount(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 0 {
		t.Errorf("bob's unread = %d, want 0", count)
	}
	count, err = svc.UnreadCount(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 1 {
		t.Errorf("alice's unread = %d, want 1", count)
	}
}

func TestUnreadCountWithoutCache(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, zap.NewNop())
	seedNotifications(t, store,
		&model.Notification{UserID: bob.ID, TaskID: "t1", Message: "a"},
		&model.Notification{UserID: bob.ID, TaskID: "t2", Message: "b"},
	)

	count, err := svc.UnreadCount(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 2 {
		t.Errorf("unread = %d, want 2", count)
	}
}
