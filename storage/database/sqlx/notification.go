package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notification"
)

var notificationColumns = []string{"id", "user_id", "message", "is_read", "created_at", "notification_type", "reference_id"}

type notificationRow struct {
	ID          int       `db:"id"`
	UserID      int       `db:"user_id"`
	Message     string    `db:"message"`
	IsRead      bool      `db:"is_read"`
	CreatedAt   null.Time `db:"created_at"`
	Type        string    `db:"notification_type"`
	ReferenceID null.Int  `db:"reference_id"`
}

func packNotification(notif notification.Notification) notificationRow {
	return notificationRow{
		ID:          notif.ID,
		UserID:      notif.UserID,
		Message:     notif.Message,
		IsRead:      notif.IsRead,
		CreatedAt:   null.NewTime(notif.CreatedAt.UTC(), !notif.CreatedAt.IsZero()),
		Type:        notif.Type,
		ReferenceID: null.IntFromPtr(notif.ReferenceID),
	}
}

func unpackNotification(row notificationRow) notification.Notification {
	return notification.Notification{
		ID:          row.ID,
		UserID:      row.UserID,
		Message:     row.Message,
		IsRead:      row.IsRead,
		CreatedAt:   row.CreatedAt.Time,
		Type:        row.Type,
		ReferenceID: row.ReferenceID.Ptr(),
	}
}

func unpackNotifications(rows []notificationRow) []notification.Notification {
	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, unpackNotification(row))
	}
	return notifs
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo notificationRepository) CreateNotifications(ctx context.Context, notifs []notification.Notification, exec ...core.DBExecutor) error {
	if len(notifs) == 0 {
		return nil
	}

	qb := psql.Insert("notifications").
		Columns("user_id", "message", "is_read", "created_at", "notification_type", "reference_id")
	for _, notif := range notifs {
		row := packNotification(notif)
		qb = qb.Values(row.UserID, row.Message, row.IsRead, row.CreatedAt, row.Type, row.ReferenceID)
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "inserting notifications")
	}
	return nil
}

func (repo notificationRepository) QueryNotificationsByUserID(ctx context.Context, userID int, exec ...core.DBExecutor) ([]notification.Notification, error) {
	query, args, err := psql.Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []notificationRow
	if err = sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return unpackNotifications(rows), nil
}

func (repo notificationRepository) MarkNotificationsRead(ctx context.Context, userID int, exec ...core.DBExecutor) error {
	query, args, err := psql.Update("notifications").
		Set("is_read", true).
		Where(sq.Eq{"user_id": userID, "is_read": false}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return nil
}

func (repo notificationRepository) CountUnreadNotifications(ctx context.Context, userID int, exec ...core.DBExecutor) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("notifications").
		Where(sq.Eq{"user_id": userID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var count int
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	return count, nil
}
