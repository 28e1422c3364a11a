package testutil

import (
	"path/filepath"
	"testing"

	"trackerdeploy/internal/db"
)

// SetupTestDB opens a migrated SQLite database in the test's temp directory
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "trackerdeploy.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}
