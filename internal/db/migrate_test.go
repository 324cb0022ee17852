package db_test

import (
	"context"
	"testing"

	dbfs "github.com/openfield/crewmarket/db"
	"github.com/openfield/crewmarket/internal/db"
)

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()

	d, err := db.New(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	// Run again to ensure idempotency
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	var count int
	row := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan schema_migrations count: %v", err)
	}
	if count < 1 {
		t.Fatalf("expected at least 1 migration recorded, got %d", count)
	}

	// verify the core tables from the embedded migrations exist
	for _, table := range []string{"accounts", "worker_profiles", "job_requests", "service_requests", "quotes", "ratings", "jobs", "dead_letter_jobs"} {
		var name string
		row := d.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table)
		if err := row.Scan(&name); err != nil {
			t.Fatalf("expected table %s to exist: %v", table, err)
		}
	}
}

func TestNew_EnforcesForeignKeys(t *testing.T) {
	ctx := context.Background()

	d, err := db.New(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	// a job request pointing at a missing account must be rejected
	_, err = d.Exec(ctx, `INSERT INTO job_requests (poster_id, work_type, service_type, location, scheduled_at, urgency, status, detail, created) VALUES (999, 'backhoe', 'operator_only', 'site', 0, 'low', 'Open', '{}', 0)`)
	if err == nil {
		t.Fatalf("expected foreign key violation")
	}
}
