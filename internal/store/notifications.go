package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/klubben/events-manager/internal/dependency"
	"github.com/klubben/events-manager/internal/entity"
)

type notificationStore struct {
	*MYSQLStore
}

// Notifications returns an object implementing the notifications interface
func (ms *MYSQLStore) Notifications() dependency.Notifications {
	return &notificationStore{
		MYSQLStore: ms,
	}
}

func (ms *MYSQLStore) AddNotification(ctx context.Context, n *entity.Notification) (int, error) {
	query := `
	INSERT INTO notification_outbox
		(kind, recipient, subject, html, sent, sent_at)
	VALUES
		(:kind, :recipient, :subject, :html, :sent, :sentAt)`
	params := map[string]any{
		"kind":      string(n.Kind),
		"recipient": n.Recipient,
		"subject":   n.Subject,
		"html":      n.Html,
		"sent":      n.Sent,
	}
	if n.Sent {
		params["sentAt"] = sql.NullTime{Time: ms.Now(), Valid: true}
	} else {
		params["sentAt"] = sql.NullTime{Valid: false}
	}

	id, err := ExecNamedLastId(ctx, ms.DB(), query, params)
	if err != nil {
		return 0, fmt.Errorf("failed to add notification: %w", err)
	}

	return id, nil
}

func (ms *MYSQLStore) GetAllUnsent(ctx context.Context, withError bool) ([]entity.Notification, error) {
	var query string

	if withError {
		query = `SELECT * FROM notification_outbox WHERE sent = false`
	} else {
		query = `SELECT * FROM notification_outbox WHERE sent = false AND send_error IS NULL`
	}

	ns, err := QueryListNamed[entity.Notification](ctx, ms.DB(), query, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("failed to get unsent notifications: %w", err)
	}

	return ns, nil
}

func (ms *MYSQLStore) UpdateSent(ctx context.Context, id int) error {
	query := `UPDATE notification_outbox SET sent = true, sent_at = :sentAt WHERE id = :id`
	err := ExecNamed(ctx, ms.DB(), query, map[string]any{
		"id":     id,
		"sentAt": sql.NullTime{Time: ms.Now(), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to update sent: %w", err)
	}
	return nil
}

func (ms *MYSQLStore) AddError(ctx context.Context, id int, errMsg string) error {
	query := `UPDATE notification_outbox SET send_error = :err WHERE id = :id`
	err := ExecNamed(ctx, ms.DB(), query, map[string]any{
		"id":  id,
		"err": errMsg,
	})
	if err != nil {
		return fmt.Errorf("failed to add send error: %w", err)
	}
	return nil
}
