package notification

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core"
)

type (
	Repository interface {
		CreateNotifications(ctx context.Context, notifs []Notification, exec ...core.DBExecutor) error
		// QueryNotificationsByUserID returns a user's notifications ordered
		// by creation time descending.
		QueryNotificationsByUserID(ctx context.Context, userID int, exec ...core.DBExecutor) ([]Notification, error)
		MarkNotificationsRead(ctx context.Context, userID int, exec ...core.DBExecutor) error
		CountUnreadNotifications(ctx context.Context, userID int, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Notify(ctx context.Context, notifs ...Notification) error
		ListAndMarkRead(ctx context.Context, userID int) ([]Notification, error)
		PeekUnreadCount(ctx context.Context, userID int) (int, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Notify appends notifications to their recipients' logs. Notifications are
// append-only; they are never updated besides the read flag, nor deleted.
func (svc *service) Notify(ctx context.Context, notifs ...Notification) error {
	if len(notifs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range notifs {
		notifs[i].CreatedAt = now
	}
	return svc.repo.CreateNotifications(ctx, notifs)
}

// ListAndMarkRead returns all of a user's notifications, newest first, and
// marks the unread ones as read. This is a side-effecting read; use
// PeekUnreadCount for the pure query.
func (svc *service) ListAndMarkRead(ctx context.Context, userID int) ([]Notification, error) {
	notifs, err := svc.repo.QueryNotificationsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err = svc.repo.MarkNotificationsRead(ctx, userID); err != nil {
		return nil, err
	}
	for i := range notifs {
		notifs[i].IsRead = true
	}
	return notifs, nil
}

func (svc *service) PeekUnreadCount(ctx context.Context, userID int) (int, error) {
	return svc.repo.CountUnreadNotifications(ctx, userID)
}
