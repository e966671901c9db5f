package accounts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const pgUniqueViolation = "23505"

// Schema creates the accounts table used by PostgresStore.
const Schema = `CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL UNIQUE,
	phone         TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	active        BOOLEAN NOT NULL DEFAULT TRUE,
	refresh_token TEXT,
	assigned_bay  TEXT,
	managed_bays  JSONB NOT NULL DEFAULT '[]',
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
)`

const selectColumns = `SELECT id, name, email, phone, password_hash, role, active,
	refresh_token, assigned_bay, managed_bays, created_at, updated_at FROM accounts`

// PostgresStore persists accounts through database/sql using the pgx driver.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenPostgres opens a pgx-backed *sql.DB for dsn and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return db, nil
}

// NewPostgresStore wraps db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) GetByEmail(ctx context.Context, normalizedEmail string) (Account, error) {
	return s.queryOne(ctx, selectColumns+` WHERE email = $1`, normalizedEmail)
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Account, error) {
	return s.queryOne(ctx, selectColumns+` WHERE id = $1`, id)
}

// SetRefreshToken stores token; an empty token clears the column.
func (s *PostgresStore) SetRefreshToken(ctx context.Context, id, token string) error {
	value := sql.NullString{String: token, Valid: token != ""}
	return s.execOne(ctx, `UPDATE accounts SET refresh_token = $1, updated_at = $2 WHERE id = $3`, value, s.now(), id)
}

// ClearRefreshToken nulls the column only on the row still holding token.
func (s *PostgresStore) ClearRefreshToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNotFound
	}

	var id string
	err := s.db.QueryRowContext(ctx,
		`UPDATE accounts SET refresh_token = NULL, updated_at = $2 WHERE refresh_token = $1 RETURNING id`,
		token, s.now(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return id, nil
}

func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return s.execOne(ctx, `UPDATE accounts SET password_hash = $1, updated_at = $2 WHERE id = $3`, hash, s.now(), id)
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, p Profile) error {
	return s.execOne(ctx, `UPDATE accounts SET name = $1, phone = $2, updated_at = $3 WHERE id = $4`, p.Name, p.Phone, s.now(), id)
}

func (s *PostgresStore) Create(ctx context.Context, a Account) (Account, error) {
	a.Email = NormalizeEmail(a.Email)
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := a.Validate(); err != nil {
		return Account{}, err
	}

	bays := a.ManagedBays
	if bays == nil {
		bays = []string{}
	}
	baysJSON, err := json.Marshal(bays)
	if err != nil {
		return Account{}, err
	}

	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `INSERT INTO accounts
	(id, name, email, phone, password_hash, role, active, assigned_bay, managed_bays, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Name, a.Email, a.Phone, a.PasswordHash, string(a.Role), a.Active,
		sql.NullString{String: a.AssignedBay, Valid: a.AssignedBay != ""},
		baysJSON, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Account{}, ErrEmailTaken
		}
		return Account{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return a, nil
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, arg any) (Account, error) {
	var (
		a            Account
		role         string
		refreshToken sql.NullString
		assignedBay  sql.NullString
		baysJSON     []byte
	)

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &role, &a.Active,
		&refreshToken, &assignedBay, &baysJSON, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	a.Role, err = ParseRole(role)
	if err != nil {
		return Account{}, err
	}
	a.RefreshToken = refreshToken.String
	a.AssignedBay = assignedBay.String
	if len(baysJSON) > 0 {
		if err := json.Unmarshal(baysJSON, &a.ManagedBays); err != nil {
			return Account{}, fmt.Errorf("accounts: decode managed bays: %w", err)
		}
	}
	return a, nil
}

func (s *PostgresStore) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
