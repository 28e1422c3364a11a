package db

import (
	"context"
	"fmt"
)

// MigrationInfo is the schema version recorded by golang-migrate
type MigrationInfo struct {
	Version uint `db:"version" json:"version"`
	Dirty   bool `db:"dirty" json:"dirty"`
}

// GetMigrationInfo returns the applied schema version
func (db *DB) GetMigrationInfo(ctx context.Context) (MigrationInfo, error) {
	var info MigrationInfo
	query := `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`

	if err := db.GetContext(ctx, &info, query); err != nil {
		return MigrationInfo{}, fmt.Errorf("failed to get current version: %w", err)
	}

	return info, nil
}
