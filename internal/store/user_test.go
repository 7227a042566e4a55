package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/cuidamed/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	return NewUserStore(setupTestDB(t))
}

func TestUserCreate(t *testing.T) {
	us := setupUserTestDB(t)
	ctx := context.Background()

	u, err := us.Create(ctx, "alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@example.com")
	}
	if u.Name != "Alice" {
		t.Errorf("name = %q, want %q", u.Name, "Alice")
	}
	if u.PasswordHash != "hash" {
		t.Errorf("password hash = %q, want %q", u.PasswordHash, "hash")
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	us := setupUserTestDB(t)
	ctx := context.Background()

	if _, err := us.Create(ctx, "alice@example.com", "Alice", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create(ctx, "alice@example.com", "Alice2", "hash"); err == nil {
		t.Fatal("expected error for duplicate email, got nil")
	}
}

func TestUserGetByEmail(t *testing.T) {
	us := setupUserTestDB(t)
	ctx := context.Background()

	created, _ := us.Create(ctx, "alice@example.com", "Alice", "hash")

	u, err := us.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil || u.ID != created.ID {
		t.Fatalf("got %+v, want user %d", u, created.ID)
	}

	missing, err := us.GetByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown email, got %+v", missing)
	}
}

func TestUserUpdate(t *testing.T) {
	us := setupUserTestDB(t)
	ctx := context.Background()

	created, _ := us.Create(ctx, "alice@example.com", "Alice", "hash")

	u, err := us.Update(ctx, created.ID, "alice@new.example.com", "Alice B")
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if u.Email != "alice@new.example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@new.example.com")
	}
	if u.Name != "Alice B" {
		t.Errorf("name = %q, want %q", u.Name, "Alice B")
	}

	if err := us.UpdatePassword(ctx, created.ID, "hash2"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	u, _ = us.GetByID(ctx, created.ID)
	if u.PasswordHash != "hash2" {
		t.Errorf("password hash = %q, want %q", u.PasswordHash, "hash2")
	}
}

func TestUserDelete(t *testing.T) {
	us := setupUserTestDB(t)
	ctx := context.Background()

	created, _ := us.Create(ctx, "alice@example.com", "Alice", "hash")
	if err := us.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	u, err := us.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get deleted user: %v", err)
	}
	if u != nil {
		t.Error("expected nil after delete")
	}
}
