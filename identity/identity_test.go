package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrEthical07/subAuth/role"
)

func TestValidateEmail(t *testing.T) {
	good := []string{"a@b.co", "first.last@example.com"}
	for _, e := range good {
		if err := ValidateEmail(NormalizeEmail(e)); err != nil {
			t.Fatalf("expected %q to be valid: %v", e, err)
		}
	}
	bad := []string{"", "plain", "a@b", "a b@c.d", "@.", strings.Repeat("a", 250) + "@b.co"}
	for _, e := range bad {
		if err := ValidateEmail(e); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected %q to be rejected, got %v", e, err)
		}
	}
	if NormalizeEmail("  Ada@Example.COM ") != "ada@example.com" {
		t.Fatal("email should be trimmed and lower-cased")
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("A"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected short name to fail, got %v", err)
	}
	if err := ValidateName(strings.Repeat("n", 51)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected long name to fail, got %v", err)
	}
	if err := ValidateName("Zoë"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPageNormalize(t *testing.T) {
	if p := (Page{}).Normalize(); p.Limit != 50 || p.Offset != 0 {
		t.Fatalf("unexpected default page %+v", p)
	}
	if p := (Page{Limit: 999, Offset: -1}).Normalize(); p.Limit != 200 || p.Offset != 0 {
		t.Fatalf("unexpected clamped page %+v", p)
	}
}

func TestMemoryStoreEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	a := &Identity{Name: "Ada", Email: "ada@example.com", Active: true}
	if err := m.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Role != role.User {
		t.Fatalf("default role should be USER, got %s", a.Role)
	}
	if err := m.Create(ctx, &Identity{Name: "Ada2", Email: "ADA@example.com"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	b := &Identity{Name: "Bob", Email: "bob@example.com"}
	if err := m.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	taken := "ada@example.com"
	if _, err := m.UpdateProfile(ctx, b.ID, Profile{Email: &taken}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken on update, got %v", err)
	}

	if err := m.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.UpdateProfile(ctx, b.ID, Profile{Email: &taken}); err != nil {
		t.Fatalf("email should be free after delete: %v", err)
	}
	got, err := m.ByEmail(ctx, "ADA@EXAMPLE.COM")
	if err != nil || got.ID != b.ID {
		t.Fatalf("lookup by email: got=%+v err=%v", got, err)
	}
}

func TestMemoryStoreListPaging(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	for _, name := range []string{"aa", "bb", "cc"} {
		if err := m.Create(ctx, &Identity{Name: name, Email: name + "@example.com"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	items, err := m.List(ctx, Page{Limit: 2})
	if err != nil || len(items) != 2 {
		t.Fatalf("first page: %d items err=%v", len(items), err)
	}
	items, err = m.List(ctx, Page{Limit: 2, Offset: 2})
	if err != nil || len(items) != 1 {
		t.Fatalf("second page: %d items err=%v", len(items), err)
	}
	items, _ = m.List(ctx, Page{Offset: 10})
	if len(items) != 0 {
		t.Fatalf("past the end should be empty, got %d", len(items))
	}
}

func TestProfileNormalize(t *testing.T) {
	name, email := "  Ada  ", " ADA@Example.com "
	p, err := Profile{Name: &name, Email: &email}.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if *p.Name != "Ada" || *p.Email != "ada@example.com" {
		t.Fatalf("unexpected normalized profile %q %q", *p.Name, *p.Email)
	}
	bad := "x"
	if _, err := (Profile{Name: &bad}).Normalize(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !(Profile{}).Empty() {
		t.Fatal("zero profile should be empty")
	}
}
