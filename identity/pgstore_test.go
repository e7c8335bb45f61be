package identity

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrEthical07/subAuth/role"
)

var identityRowColumns = []string{"id", "name", "email", "password_hash", "role", "active", "created_at", "updated_at"}

const testID = "0b8f5a0e-3f43-4a8e-9d7c-2f5d8e6b1a10"

func newMockStore(t *testing.T) (*PGStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewPGStore(db), mock, func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
		db.Close()
	}
}

func TestPGStoreCreate(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("insert into identities").
		WithArgs(sqlmock.AnyArg(), "Ada", "ada@example.com", "phc", "USER", true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

	id := &Identity{Name: "Ada", Email: "ada@example.com", PasswordHash: "phc", Active: true}
	if err := store.Create(context.Background(), id); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id.ID == "" || id.Role != role.User || !id.CreatedAt.Equal(created) {
		t.Fatalf("unexpected identity after create: %+v", id)
	}
}

func TestPGStoreCreateDuplicateEmail(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery("insert into identities").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "identities_email_lower_key"})

	err := store.Create(context.Background(), &Identity{Name: "Ada", Email: "ADA@example.com", PasswordHash: "phc"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestPGStoreByEmail(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery(`from identities where lower\(email\) = lower\(\$1\)`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(identityRowColumns).
			AddRow(testID, "Ada", "ada@example.com", "phc", "MANAGER", true, now, now))

	got, err := store.ByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("ByEmail: %v", err)
	}
	if got.ID != testID || got.Role != role.Manager || !got.Active {
		t.Fatalf("unexpected identity %+v", got)
	}
}

func TestPGStoreByIDNotFound(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery("from identities where id").WithArgs(testID).WillReturnError(sql.ErrNoRows)

	if _, err := store.ByID(context.Background(), testID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.ByID(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestPGStoreRejectsUnknownStoredRole(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery("from identities where id").WithArgs(testID).
		WillReturnRows(sqlmock.NewRows(identityRowColumns).
			AddRow(testID, "Ada", "ada@example.com", "phc", "ROOT", true, now, now))

	if _, err := store.ByID(context.Background(), testID); !errors.Is(err, role.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestPGStoreUpdateProfile(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	now := time.Now()
	name := "Ada L"
	mock.ExpectQuery(`update identities set name = \$1, updated_at = now\(\) where id = \$2 returning`).
		WithArgs(name, testID).
		WillReturnRows(sqlmock.NewRows(identityRowColumns).
			AddRow(testID, name, "ada@example.com", "phc", "USER", true, now, now))

	got, err := store.UpdateProfile(context.Background(), testID, Profile{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.Name != name {
		t.Fatalf("unexpected name %q", got.Name)
	}
}

func TestPGStoreSetRole(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery("update identities set role").
		WithArgs("ADMIN", testID).
		WillReturnRows(sqlmock.NewRows(identityRowColumns).
			AddRow(testID, "Ada", "ada@example.com", "phc", "ADMIN", true, now, now))

	got, err := store.SetRole(context.Background(), testID, role.Admin)
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if got.Role != role.Admin {
		t.Fatalf("unexpected role %s", got.Role)
	}
	if _, err := store.SetRole(context.Background(), testID, role.Invalid); !errors.Is(err, role.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestPGStoreDelete(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec("delete from identities where id").WithArgs(testID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from identities where id").WithArgs(testID).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Delete(context.Background(), testID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(context.Background(), testID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPGStoreListClampsPage(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery("from identities.*order by created_at desc, id desc.*limit").
		WithArgs(200, 0).
		WillReturnRows(sqlmock.NewRows(identityRowColumns))

	items, err := store.List(context.Background(), Page{Limit: 1000, Offset: -5})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestPGStoreBackendError(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec("update identities set password_hash").WillReturnError(context.DeadlineExceeded)

	err := store.SetPasswordHash(context.Background(), testID, "phc")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
