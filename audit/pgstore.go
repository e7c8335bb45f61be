package audit

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgErrRaiseException = "P0001"

//go:embed schema.sql
var schemaSQL string

const entryColumns = `id, actor_id, action, target_type, target_id, ip, user_agent, metadata, created_at`

var _ Store = (*PGStore)(nil)

// PGStore is the append-only Postgres audit store. A trigger installed by
// EnsureSchema rejects UPDATE, DELETE and TRUNCATE at the database level as well.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps db.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// EnsureSchema creates the audit table, its indexes and the append-only trigger.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: ensure schema: %v", ErrUnavailable, err)
	}
	return nil
}

// Append inserts e.
func (s *PGStore) Append(ctx context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	metaJSON := []byte("{}")
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metaJSON = b
	}

	_, err := s.db.ExecContext(ctx, `
		insert into audit_log (id, actor_id, action, target_type, target_id, ip, user_agent, metadata, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.ActorID, string(e.Action), string(e.TargetType), nullIfEmpty(e.TargetID), e.IP, e.UserAgent, metaJSON, e.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// Update always fails; entries are immutable.
func (s *PGStore) Update(context.Context, Entry) error {
	return ErrAppendOnly
}

// Delete always fails; entries are immutable.
func (s *PGStore) Delete(context.Context, string) error {
	return ErrAppendOnly
}

// Get loads one entry.
func (s *PGStore) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `select `+entryColumns+` from audit_log where id = $1`, id)
	return scanEntry(row)
}

// ByActor lists entries recorded for actorID.
func (s *PGStore) ByActor(ctx context.Context, actorID string, page Page) ([]Entry, error) {
	return s.list(ctx, `where actor_id = $1`, page, actorID)
}

// ByAction lists entries of one action.
func (s *PGStore) ByAction(ctx context.Context, action Action, page Page) ([]Entry, error) {
	return s.list(ctx, `where action = $1`, page, string(action))
}

// ByTarget lists entries about one target.
func (s *PGStore) ByTarget(ctx context.Context, targetType TargetType, targetID string, page Page) ([]Entry, error) {
	return s.list(ctx, `where target_type = $1 and target_id = $2`, page, string(targetType), targetID)
}

// Recent lists the newest entries.
func (s *PGStore) Recent(ctx context.Context, page Page) ([]Entry, error) {
	return s.list(ctx, ``, page)
}

func (s *PGStore) list(ctx context.Context, where string, page Page, args ...any) ([]Entry, error) {
	page = page.Normalize()
	n := len(args)
	query := `select ` + entryColumns + ` from audit_log ` + where +
		fmt.Sprintf(` order by created_at desc, id desc limit $%d offset $%d`, n+1, n+2)
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]Entry, 0, page.Limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e          Entry
		action     string
		targetType string
		targetID   sql.NullString
		rawMeta    []byte
	)
	if err := row.Scan(&e.ID, &e.ActorID, &action, &targetType, &targetID, &e.IP, &e.UserAgent, &rawMeta, &e.CreatedAt); err != nil {
		return Entry{}, mapError(err)
	}
	e.Action = Action(action)
	e.TargetType = TargetType(targetType)
	e.TargetID = targetID.String
	e.CreatedAt = e.CreatedAt.UTC()
	if len(rawMeta) > 0 && string(rawMeta) != "{}" {
		if err := json.Unmarshal(rawMeta, &e.Metadata); err != nil {
			return Entry{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return e, nil
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrRaiseException && strings.HasPrefix(pgErr.Message, "SecurityViolation") {
		return ErrAppendOnly
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
