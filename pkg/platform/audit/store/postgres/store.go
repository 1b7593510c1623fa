package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "trustgate/pkg/domain"
	audit "trustgate/pkg/platform/audit"
	txcontext "trustgate/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. Appends join the
// caller's transaction when one is in the context, so an audit row commits or
// rolls back with the change it describes.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, user_id, action, actor_id, subject, decision,
			reason, request_id, device, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var userID *uuid.UUID
	if !event.UserID.IsNil() {
		uid := uuid.UUID(event.UserID)
		userID = &uid
	}

	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		userID,
		event.Action,
		nullable(event.ActorID),
		nullable(event.Subject),
		nullable(event.Decision),
		nullable(event.Reason),
		nullable(event.RequestID),
		nullable(event.Device),
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByUser returns a user's events oldest first.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	query := `
		SELECT user_id, action, actor_id, subject, decision,
			   reason, request_id, device, occurred_at
		FROM audit_events
		WHERE user_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			uid                                                   uuid.NullUUID
			actorID, subject, decision, reason, requestID, device sql.NullString
			e                                                     audit.Event
		)
		if err := rows.Scan(&uid, &e.Action, &actorID, &subject, &decision,
			&reason, &requestID, &device, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if uid.Valid {
			e.UserID = id.UserID(uid.UUID)
		}
		e.ActorID = actorID.String
		e.Subject = subject.String
		e.Decision = decision.String
		e.Reason = reason.String
		e.RequestID = requestID.String
		e.Device = device.String
		e.Category = audit.AuditEvent(e.Action).Category()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
