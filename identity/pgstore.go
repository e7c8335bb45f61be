package identity

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrEthical07/subAuth/internal/ids"
	"github.com/MrEthical07/subAuth/role"
)

const pgErrUniqueViolation = "23505"

//go:embed schema.sql
var schemaSQL string

const identityColumns = `id, name, email, password_hash, role, active, created_at, updated_at`

var _ Store = (*PGStore)(nil)

// PGStore is the Postgres-backed identity store. It expects a *sql.DB opened
// with the pgx stdlib driver.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps db.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// EnsureSchema creates the identities table and its indexes if missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: ensure schema: %v", ErrUnavailable, err)
	}
	return nil
}

// Create inserts id, assigning ID, CreatedAt and UpdatedAt when empty.
func (s *PGStore) Create(ctx context.Context, id *Identity) error {
	if id.ID == "" {
		id.ID = ids.NewIdentityID()
	}
	if !id.Role.Valid() {
		id.Role = role.Default
	}

	row := s.db.QueryRowContext(ctx, `
		insert into identities (id, name, email, password_hash, role, active)
		values ($1, $2, $3, $4, $5, $6)
		returning created_at, updated_at
	`, id.ID, id.Name, id.Email, id.PasswordHash, id.Role.String(), id.Active)
	if err := row.Scan(&id.CreatedAt, &id.UpdatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

// ByID loads an identity by primary key.
func (s *PGStore) ByID(ctx context.Context, id string) (Identity, error) {
	if !ids.ValidIdentityID(id) {
		return Identity{}, ErrNotFound
	}
	return s.queryOne(ctx, `select `+identityColumns+` from identities where id = $1`, id)
}

// ByEmail loads an identity by case-insensitive email.
func (s *PGStore) ByEmail(ctx context.Context, email string) (Identity, error) {
	return s.queryOne(ctx, `select `+identityColumns+` from identities where lower(email) = lower($1)`, email)
}

// List returns identities ordered by creation time, newest first.
func (s *PGStore) List(ctx context.Context, page Page) ([]Identity, error) {
	page = page.Normalize()
	rows, err := s.db.QueryContext(ctx, `
		select `+identityColumns+`
		from identities
		order by created_at desc, id desc
		limit $1 offset $2
	`, page.Limit, page.Offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		id, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// UpdateProfile applies the non-nil fields of p.
func (s *PGStore) UpdateProfile(ctx context.Context, id string, p Profile) (Identity, error) {
	if !ids.ValidIdentityID(id) {
		return Identity{}, ErrNotFound
	}
	if p.Empty() {
		return s.ByID(ctx, id)
	}

	sets := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if p.Name != nil {
		args = append(args, *p.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if p.Email != nil {
		args = append(args, *p.Email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := `update identities set ` + strings.Join(sets, ", ") +
		fmt.Sprintf(` where id = $%d returning `, len(args)) + identityColumns
	return s.queryOne(ctx, query, args...)
}

// SetRole changes the identity's role.
func (s *PGStore) SetRole(ctx context.Context, id string, r role.Role) (Identity, error) {
	if !r.Valid() {
		return Identity{}, role.ErrInvalidRole
	}
	if !ids.ValidIdentityID(id) {
		return Identity{}, ErrNotFound
	}
	return s.queryOne(ctx, `
		update identities set role = $1, updated_at = now()
		where id = $2
		returning `+identityColumns, r.String(), id)
}

// SetActive toggles whether the identity may sign in.
func (s *PGStore) SetActive(ctx context.Context, id string, active bool) (Identity, error) {
	if !ids.ValidIdentityID(id) {
		return Identity{}, ErrNotFound
	}
	return s.queryOne(ctx, `
		update identities set active = $1, updated_at = now()
		where id = $2
		returning `+identityColumns, active, id)
}

// SetPasswordHash replaces the stored password hash.
func (s *PGStore) SetPasswordHash(ctx context.Context, id, hash string) error {
	if !ids.ValidIdentityID(id) {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `
		update identities set password_hash = $1, updated_at = now()
		where id = $2
	`, hash, id)
	if err != nil {
		return mapError(err)
	}
	return requireOneRow(res)
}

// Delete removes the identity row.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	if !ids.ValidIdentityID(id) {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `delete from identities where id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireOneRow(res)
}

// Ping checks database reachability.
func (s *PGStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PGStore) queryOne(ctx context.Context, query string, args ...any) (Identity, error) {
	id, err := scanIdentity(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return Identity{}, err
	}
	return id, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row scanner) (Identity, error) {
	var (
		id       Identity
		roleName string
	)
	err := row.Scan(&id.ID, &id.Name, &id.Email, &id.PasswordHash, &roleName, &id.Active, &id.CreatedAt, &id.UpdatedAt)
	if err != nil {
		return Identity{}, mapError(err)
	}
	r, err := role.Parse(roleName)
	if err != nil {
		return Identity{}, fmt.Errorf("identity %s: stored role %q: %w", id.ID, roleName, err)
	}
	id.Role = r
	id.CreatedAt = id.CreatedAt.UTC()
	id.UpdatedAt = id.UpdatedAt.UTC()
	return id, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
		return ErrEmailTaken
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

