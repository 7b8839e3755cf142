package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notification"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotifications(ctx context.Context, notifs []notification.Notification, exec ...core.DBExecutor) error {
	repo.db.notification.Lock()
	defer repo.db.notification.Unlock()

	for _, notif := range notifs {
		repo.db.notification.pkCount++
		notif.ID = repo.db.notification.pkCount
		stored := notif
		repo.db.notification.table[notif.ID] = &stored
	}
	return nil
}

func (repo *notificationRepository) QueryNotificationsByUserID(ctx context.Context, userID int, exec ...core.DBExecutor) ([]notification.Notification, error) {
	repo.db.notification.RLock()
	defer repo.db.notification.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, notif := range repo.db.notification.table {
		if notif.UserID == userID {
			notifs = append(notifs, *notif)
		}
	}
	// newest first
	sort.Slice(notifs, func(i, j int) bool {
		if !notifs[i].CreatedAt.Equal(notifs[j].CreatedAt) {
			return notifs[i].CreatedAt.After(notifs[j].CreatedAt)
		}
		return notifs[i].ID > notifs[j].ID
	})
	return notifs, nil
}

func (repo *notificationRepository) MarkNotificationsRead(ctx context.Context, userID int, exec ...core.DBExecutor) error {
	repo.db.notification.Lock()
	defer repo.db.notification.Unlock()

	for _, notif := range repo.db.notification.table {
		if notif.UserID == userID && !notif.IsRead {
			notif.IsRead = true
		}
	}
	return nil
}

func (repo *notificationRepository) CountUnreadNotifications(ctx context.Context, userID int, exec ...core.DBExecutor) (int, error) {
	repo.db.notification.RLock()
	defer repo.db.notification.RUnlock()

	count := 0
	for _, notif := range repo.db.notification.table {
		if notif.UserID == userID && !notif.IsRead {
			count++
		}
	}
	return count, nil
}
