package store

import (
	"testing"

	"vizboard/internal/database"
)

func setupTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreateAndGet(t *testing.T) {
	us := setupTestDB(t)

	u, err := us.Create("Ada", "ada@example.com", "hash-1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected non-zero id")
	}
	if u.Name != "Ada" || u.Email != "ada@example.com" {
		t.Errorf("user = %+v", u)
	}

	got, err := us.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil || got.Email != "ada@example.com" {
		t.Errorf("got = %+v", got)
	}
}

func TestUserGetByEmail(t *testing.T) {
	us := setupTestDB(t)

	if _, err := us.Create("Ada", "ada@example.com", "hash-1"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	u, err := us.GetByEmail("ada@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil || u.Name != "Ada" {
		t.Errorf("u = %+v", u)
	}

	missing, err := us.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("missing = %+v, want nil", missing)
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	us := setupTestDB(t)

	if _, err := us.Create("Ada", "ada@example.com", "hash-1"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("Other", "ada@example.com", "hash-2"); err == nil {
		t.Error("expected unique constraint error for duplicate email")
	}
}

func TestUserDelete(t *testing.T) {
	us := setupTestDB(t)

	u, err := us.Create("Ada", "ada@example.com", "hash-1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := us.Delete(u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := us.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v, want nil", got)
	}
}
