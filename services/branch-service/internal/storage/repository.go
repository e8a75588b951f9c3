package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kunal-deshmukh/drivetrack/libs/db"
	"github.com/kunal-deshmukh/drivetrack/services/branch-service/internal/outbox"
)

type Repository struct {
	pool       *db.Pool
	outboxRepo *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outboxRepo: outboxRepo}
}

type Branch struct {
	BranchID    string
	Name        string
	Timezone    string
	WorkingDays []int
	OpenTime    string
	CloseTime   string
}

func (r *Repository) GetOrCreateBranch(ctx context.Context, branchID string) (Branch, error) {
	// Create a default branch if missing (keeps dev UX smooth while other services mature).
	_, err := r.pool.Exec(ctx, `
		INSERT INTO branches (branch_id)
		VALUES ($1)
		ON CONFLICT (branch_id) DO NOTHING
	`, branchID)
	if err != nil {
		return Branch{}, err
	}

	var b Branch
	err = r.pool.QueryRow(ctx, `
		SELECT branch_id::text, name, timezone, working_days,
			to_char(open_time, 'HH24:MI'), to_char(close_time, 'HH24:MI')
		FROM branches
		WHERE branch_id = $1
	`, branchID).Scan(&b.BranchID, &b.Name, &b.Timezone, &b.WorkingDays, &b.OpenTime, &b.CloseTime)
	return b, err
}

func (r *Repository) UpdateBranch(ctx context.Context, branchID, name, timezone string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO branches (branch_id, name, timezone)
		VALUES ($1, $2, $3)
		ON CONFLICT (branch_id) DO UPDATE
		SET name = EXCLUDED.name,
			timezone = EXCLUDED.timezone,
			updated_at = now()
	`, branchID, name, timezone)
	return err
}

// UpdateSchedule writes the branch operating schedule together with the
// schedule-updated event so downstream caches stay consistent.
func (r *Repository) UpdateSchedule(ctx context.Context, branchID string, workingDays []int, openTime, closeTime string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO branches (branch_id, working_days, open_time, close_time)
		VALUES ($1, $2, $3::time, $4::time)
		ON CONFLICT (branch_id) DO UPDATE
		SET working_days = EXCLUDED.working_days,
			open_time = EXCLUDED.open_time,
			close_time = EXCLUDED.close_time,
			updated_at = now()
	`, branchID, workingDays, openTime, closeTime)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"branch_id":    branchID,
		"working_days": workingDays,
		"open_time":    openTime,
		"close_time":   closeTime,
	})
	if err != nil {
		return err
	}
	if err := r.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "branch",
		AggregateID:   branchID,
		EventType:     outbox.EventScheduleUpdated,
		Payload:       payload,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type Vehicle struct {
	ID           string
	BranchID     string
	Registration string
	Model        string
	Transmission string
	IsActive     bool
	CreatedAt    time.Time
}

func (r *Repository) CreateVehicle(ctx context.Context, branchID, registration, vehicleModel, transmission string) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO vehicles (id, branch_id, registration, model, transmission)
		VALUES ($1, $2, $3, $4, $5)
	`, id, branchID, registration, vehicleModel, transmission)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListVehicles(ctx context.Context, branchID string, limit int) ([]Vehicle, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, branch_id::text, registration, model, transmission, is_active, created_at
		FROM vehicles
		WHERE branch_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, branchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.BranchID, &v.Registration, &v.Model, &v.Transmission, &v.IsActive, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) SetVehicleActive(ctx context.Context, branchID, vehicleID string, isActive bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE vehicles
		SET is_active = $3
		WHERE branch_id = $1 AND id = $2
	`, branchID, vehicleID, isActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type Client struct {
	ID        string
	BranchID  string
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
}

func (r *Repository) CreateClient(ctx context.Context, branchID, name, phone, email string) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clients (id, branch_id, name, phone, email)
		VALUES ($1, $2, $3, $4, $5)
	`, id, branchID, name, phone, email)
	if err != nil {
		return "", err
	}
	return id, nil
}

// SearchClients matches clients by name or phone substring; an empty query
// returns the most recent ones.
func (r *Repository) SearchClients(ctx context.Context, branchID, query string, limit int) ([]Client, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, branch_id::text, name, phone, email, created_at
		FROM clients
		WHERE branch_id = $1
			AND ($2::text = '' OR name ILIKE '%' || $2::text || '%' OR phone ILIKE '%' || $2::text || '%')
		ORDER BY created_at DESC
		LIMIT $3
	`, branchID, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.BranchID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) GetClient(ctx context.Context, branchID, clientID string) (Client, error) {
	var c Client
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, branch_id::text, name, phone, email, created_at
		FROM clients
		WHERE branch_id = $1 AND id = $2
	`, branchID, clientID).Scan(&c.ID, &c.BranchID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt)
	return c, err
}
