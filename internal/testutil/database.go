// Package testutil provides test database setup for the spendsense packages.
package testutil

import (
	"context"
	"testing"

	"github.com/ppiont/spendsense/internal/model"
	"github.com/ppiont/spendsense/internal/storage"
)

// TestDB is a migrated in-memory profile store.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	Users   []model.UserRecord
}

// SetupTestDB creates an in-memory database seeded with users. It
// automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, users.OnePerPersona()...)
func SetupTestDB(t *testing.T, records ...model.UserRecord) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(records) > 0 {
		if err := store.SaveUsers(ctx, records); err != nil {
			t.Fatalf("failed to seed users: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		Users:   records,
		t:       t,
	}
}

// UserIDs returns the seeded ids in seed order.
func (db *TestDB) UserIDs() []string {
	ids := make([]string, 0, len(db.Users))
	for _, u := range db.Users {
		ids = append(ids, u.ID)
	}
	return ids
}

// MustUser returns the seeded record for id or fails the test.
func (db *TestDB) MustUser(id string) model.UserRecord {
	db.t.Helper()
	for _, u := range db.Users {
		if u.ID == id {
			return u
		}
	}
	db.t.Fatalf("user %q was not seeded", id)
	return model.UserRecord{}
}
