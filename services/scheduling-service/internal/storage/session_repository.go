package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kunal-deshmukh/drivetrack/libs/db"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/outbox"
)

// ErrSessionCancelled marks writes against a session that was already cancelled.
var ErrSessionCancelled = errors.New("session is cancelled")

type SessionRepository struct {
	pool       *db.Pool
	outboxRepo *outbox.Repository
}

func NewSessionRepository(pool *db.Pool, outboxRepo *outbox.Repository) *SessionRepository {
	return &SessionRepository{pool: pool, outboxRepo: outboxRepo}
}

// Time columns come back as "HH24:MI" text so the scheduling core never sees
// seconds.
const sessionColumns = `
	id, vehicle_id, client_id, client_name, session_date,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	status, session_number, cancelled_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (model.Session, error) {
	var s model.Session
	var cancelledAt *time.Time
	if err := row.Scan(
		&s.ID,
		&s.VehicleID,
		&s.ClientID,
		&s.ClientName,
		&s.SessionDate,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&s.SessionNumber,
		&cancelledAt,
		&s.CreatedAt,
	); err != nil {
		return model.Session{}, err
	}
	s.CancelledAt = cancelledAt
	return s, nil
}

// ListByVehicle returns every non-cancelled session for the vehicle from the
// given date onward, in schedule order.
func (r *SessionRepository) ListByVehicle(ctx context.Context, vehicleID string, from time.Time) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE vehicle_id = $1
			AND status <> 'cancelled'
			AND session_date >= $2
		ORDER BY session_date ASC, start_time ASC
	`, vehicleID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return sessions, nil
}

// FindConflicting returns the first non-cancelled session for the vehicle on
// the date whose [start, end) window overlaps the given one, excluding
// excludeID (pass "" to exclude nothing). Returns nil when the window is free.
func (r *SessionRepository) FindConflicting(ctx context.Context, vehicleID string, date time.Time, startClock, endClock, excludeID string) (*model.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE vehicle_id = $1
			AND session_date = $2
			AND status <> 'cancelled'
			AND start_time < $4::time
			AND end_time > $3::time
			AND ($5::text = '' OR id::text <> $5::text)
		ORDER BY start_time ASC
		LIMIT 1
	`, vehicleID, date, startClock, endClock, excludeID)

	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (model.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = $1
	`, id)
	return scanSession(row)
}

// Create inserts a new scheduled session and its booked event in one
// transaction. When SessionNumber is unset the next ordinal for the client is
// assigned. The database exclusion constraint on overlapping vehicle windows
// is the authoritative backstop; callers classify with IsConflict.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) (model.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Session{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	number := s.SessionNumber
	if number <= 0 {
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(session_number), 0) + 1
			FROM sessions
			WHERE client_id = $1
		`, s.ClientID).Scan(&number); err != nil {
			return model.Session{}, err
		}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO sessions
			(vehicle_id, client_id, client_name, session_date, start_time, end_time, status, session_number)
		VALUES ($1, $2, $3, $4, $5::time, $6::time, 'scheduled', $7)
		RETURNING `+sessionColumns+`
	`, s.VehicleID, s.ClientID, s.ClientName, s.SessionDate, s.StartTime, s.EndTime, number)

	created, err := scanSession(row)
	if err != nil {
		return model.Session{}, err
	}

	if err := r.insertSessionEvent(ctx, tx, outbox.EventSessionBooked, created); err != nil {
		return model.Session{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Session{}, err
	}
	return created, nil
}

// Reschedule moves a scheduled session to a new date and [start, end)
// window. Cancelled sessions are refused; a missing id surfaces as
// pgx.ErrNoRows.
func (r *SessionRepository) Reschedule(ctx context.Context, id string, date time.Time, startClock, endClock string) (model.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Session{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanSession(tx.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return model.Session{}, err
	}
	if current.Status == model.StatusCancelled {
		return model.Session{}, ErrSessionCancelled
	}

	updated, err := scanSession(tx.QueryRow(ctx, `
		UPDATE sessions
		SET session_date = $2,
			start_time = $3::time,
			end_time = $4::time
		WHERE id = $1
		RETURNING `+sessionColumns+`
	`, id, date, startClock, endClock))
	if err != nil {
		return model.Session{}, err
	}

	if err := r.insertSessionEvent(ctx, tx, outbox.EventSessionRescheduled, updated); err != nil {
		return model.Session{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Session{}, err
	}
	return updated, nil
}

// Cancel flips the session to cancelled and keeps the row; history and the
// client's session numbering stay intact. Cancelling twice is a no-op that
// returns the current state.
func (r *SessionRepository) Cancel(ctx context.Context, id string) (model.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Session{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanSession(tx.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return model.Session{}, err
	}
	if current.Status == model.StatusCancelled {
		return current, tx.Commit(ctx)
	}

	cancelled, err := scanSession(tx.QueryRow(ctx, `
		UPDATE sessions
		SET status = 'cancelled',
			cancelled_at = now()
		WHERE id = $1
		RETURNING `+sessionColumns+`
	`, id))
	if err != nil {
		return model.Session{}, err
	}

	if err := r.insertSessionEvent(ctx, tx, outbox.EventSessionCancelled, cancelled); err != nil {
		return model.Session{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Session{}, err
	}
	return cancelled, nil
}

func (r *SessionRepository) insertSessionEvent(ctx context.Context, tx pgx.Tx, eventType string, s model.Session) error {
	payload, err := json.Marshal(map[string]any{
		"session_id":     s.ID,
		"vehicle_id":     s.VehicleID,
		"client_id":      s.ClientID,
		"session_date":   s.SessionDate.Format("2006-01-02"),
		"start_time":     s.StartTime,
		"end_time":       s.EndTime,
		"status":         s.Status,
		"session_number": s.SessionNumber,
	})
	if err != nil {
		return err
	}
	return r.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "session",
		AggregateID:   s.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

// IsConflict reports whether err is the overlap exclusion constraint or a
// uniqueness violation on the sessions table.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505")
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
