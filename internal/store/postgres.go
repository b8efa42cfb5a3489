// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/models"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS applications (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL,
    status     TEXT NOT NULL,
    ledger_row INTEGER,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    document   JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS applications_owner_idx ON applications (owner_id);
CREATE TABLE IF NOT EXISTS users (
    id         TEXT PRIMARY KEY,
    membership TEXT NOT NULL,
    document   JSONB NOT NULL
);`

const upsertApplication = `
INSERT INTO applications (id, owner_id, status, ledger_row, created_at, updated_at, document)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    status = EXCLUDED.status,
    ledger_row = EXCLUDED.ledger_row,
    updated_at = EXCLUDED.updated_at,
    document = EXCLUDED.document`

// Postgres stores each record as a JSONB document next to the columns it is
// queried by.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the tables when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaDDL); err != nil {
		return apperrors.NewStoreUnavailableError("migrate", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*models.Application, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `SELECT document FROM applications WHERE id = $1`, id).Scan(&doc)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewApplicationNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("get", err)
	}
	return decodeApplication(doc)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func upsert(ctx context.Context, ex execer, app *models.Application) error {
	doc, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("encode application %s: %w", app.ID, err)
	}
	var row sql.NullInt64
	if app.HasRow() {
		row = sql.NullInt64{Int64: int64(app.Row()), Valid: true}
	}
	_, err = ex.ExecContext(ctx, upsertApplication,
		app.ID, app.OwnerID, string(app.Status), row, app.CreatedAt, app.UpdatedAt, doc)
	return err
}

func (p *Postgres) Put(ctx context.Context, app *models.Application) error {
	if err := upsert(ctx, p.db, app); err != nil {
		return apperrors.NewStoreUnavailableError("put", err)
	}
	return nil
}

// PutMany upserts the batch in one transaction.
func (p *Postgres) PutMany(ctx context.Context, apps []*models.Application) error {
	if len(apps) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreUnavailableError("put_many", err)
	}
	for _, app := range apps {
		if err := upsert(ctx, tx, app); err != nil {
			_ = tx.Rollback()
			return apperrors.NewStoreUnavailableError("put_many", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreUnavailableError("put_many", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewStoreUnavailableError("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStoreUnavailableError("delete", err)
	}
	if n == 0 {
		return apperrors.NewApplicationNotFoundError(id)
	}
	return nil
}

func (p *Postgres) All(ctx context.Context) ([]*models.Application, error) {
	return p.query(ctx, "all",
		`SELECT document FROM applications ORDER BY created_at, id`)
}

func (p *Postgres) ListByOwner(ctx context.Context, ownerID string) ([]*models.Application, error) {
	return p.query(ctx, "list_by_owner",
		`SELECT document FROM applications WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
}

func (p *Postgres) query(ctx context.Context, op, q string, args ...interface{}) ([]*models.Application, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(op, err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, apperrors.NewStoreUnavailableError(op, err)
		}
		app, err := decodeApplication(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError(op, err)
	}
	return out, nil
}

func (p *Postgres) GetUser(ctx context.Context, id string) (*models.User, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `SELECT document FROM users WHERE id = $1`, id).Scan(&doc)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewUserNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("get_user", err)
	}
	var u models.User
	if err := json.Unmarshal(doc, &u); err != nil {
		return nil, apperrors.NewStoreUnavailableError("decode_user", err)
	}
	return &u, nil
}

func (p *Postgres) PutUser(ctx context.Context, user *models.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user %s: %w", user.ID, err)
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO users (id, membership, document) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET membership = EXCLUDED.membership, document = EXCLUDED.document`,
		user.ID, string(user.Membership), doc)
	if err != nil {
		return apperrors.NewStoreUnavailableError("put_user", err)
	}
	return nil
}

func (p *Postgres) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT document FROM users ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("list_users", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, apperrors.NewStoreUnavailableError("list_users", err)
		}
		var u models.User
		if err := json.Unmarshal(doc, &u); err != nil {
			return nil, apperrors.NewStoreUnavailableError("decode_user", err)
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("list_users", err)
	}
	return out, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return apperrors.NewStoreUnavailableError("ping", err)
	}
	return nil
}

// Close is a no-op; the pool belongs to the caller.
func (p *Postgres) Close() error { return nil }
