package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const moderationEventsTable = "moderation_events"

var moderationColumns = []string{
	"id", "created_at", "poem_id", "poem_title", "admin_id", "from_status", "to_status", "note",
}

// ModerationFilter narrows the audit listing. Empty fields match everything.
type ModerationFilter struct {
	PoemID  string
	AdminID string
	Limit   uint64
	Offset  uint64
}

// ModerationLog is the PostgreSQL audit trail of poem status changes.
type ModerationLog struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewModerationLog(db *sql.DB) *ModerationLog {
	return &ModerationLog{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (l *ModerationLog) Record(ctx context.Context, ev *models.ModerationEvent) error {
	if l == nil || l.db == nil {
		return nil
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	query, args, err := l.insertQuery(ev)
	if err != nil {
		return err
	}
	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "insert moderation event")
	}
	return nil
}

func (l *ModerationLog) insertQuery(ev *models.ModerationEvent) (string, []interface{}, error) {
	return l.sb.Insert(moderationEventsTable).
		Columns(moderationColumns...).
		Values(ev.ID, ev.CreatedAt, ev.PoemID, ev.PoemTitle, ev.AdminID, string(ev.FromStatus), string(ev.ToStatus), ev.Note).
		ToSql()
}

func (l *ModerationLog) listQuery(f ModerationFilter) (string, []interface{}, error) {
	q := l.sb.Select(moderationColumns...).
		From(moderationEventsTable).
		OrderBy("created_at DESC")
	if f.PoemID != "" {
		q = q.Where(sq.Eq{"poem_id": f.PoemID})
	}
	if f.AdminID != "" {
		q = q.Where(sq.Eq{"admin_id": f.AdminID})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	return q.ToSql()
}

func (l *ModerationLog) List(ctx context.Context, f ModerationFilter) ([]models.ModerationEvent, error) {
	events := []models.ModerationEvent{}
	if l == nil || l.db == nil {
		return events, nil
	}
	query, args, err := l.listQuery(f)
	if err != nil {
		return nil, err
	}
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query moderation events")
	}
	defer rows.Close()

	for rows.Next() {
		var ev models.ModerationEvent
		var from, to string
		if err := rows.Scan(&ev.ID, &ev.CreatedAt, &ev.PoemID, &ev.PoemTitle, &ev.AdminID, &from, &to, &ev.Note); err != nil {
			return nil, errors.Wrap(err, "scan moderation event")
		}
		ev.FromStatus, ev.ToStatus = models.PoemStatus(from), models.PoemStatus(to)
		events = append(events, ev)
	}
	return events, errors.Wrap(rows.Err(), "iterate moderation events")
}
