package history

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-haptics/migrations"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestRecord_GeneratesIDAndTimestamp(t *testing.T) {
	repo := setupRepo(t)

	event := &Event{Source: "api", Pattern: 6, Attempts: 1, Success: true}
	if err := repo.Record(context.Background(), event); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if event.ID == "" {
		t.Error("Record() did not assign an ID")
	}
	if event.OccurredAt.IsZero() {
		t.Error("Record() did not assign OccurredAt")
	}
}

func TestRecent_RoundTripNewestFirst(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	failed := &Event{
		Source:     "mqtt",
		Pattern:    3,
		Flags:      0xdeadbeef,
		Param1:     0.5,
		Param2:     -1.25,
		DeviceID:   "144115188092132096",
		Attempts:   2,
		Status:     "0xe00002d8 (kIOReturnNotReady)",
		Error:      "actuator: actuation failed",
		Duration:   1500 * time.Microsecond,
		OccurredAt: base,
	}
	ok := &Event{Source: "api", Pattern: 6, Attempts: 1, Success: true, OccurredAt: base.Add(time.Second)}

	for _, e := range []*Event{failed, ok} {
		if err := repo.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	events, err := repo.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].ID != ok.ID {
		t.Errorf("events[0] = %s, want newest %s", events[0].ID, ok.ID)
	}

	got := events[1]
	if got.Flags != 0xdeadbeef || got.Param1 != 0.5 || got.Param2 != -1.25 {
		t.Errorf("tuning values = %#x %g %g", got.Flags, got.Param1, got.Param2)
	}
	if got.Success || got.Attempts != 2 || got.DeviceID != failed.DeviceID {
		t.Errorf("outcome = %+v", got)
	}
	if got.Duration != 1500*time.Microsecond || !got.OccurredAt.Equal(base) {
		t.Errorf("timing = %v at %v", got.Duration, got.OccurredAt)
	}
	if got.Status != failed.Status || got.Error != failed.Error {
		t.Errorf("status/error = %q / %q", got.Status, got.Error)
	}
	if events[0].DeviceID != "" || events[0].Error != "" {
		t.Errorf("empty optional fields came back as %q / %q", events[0].DeviceID, events[0].Error)
	}
}

func TestRecent_Limit(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Record(ctx, &Event{Source: "cli", Pattern: 6, Attempts: 1, Success: true}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	events, err := repo.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(events) != 3 {
		t.Errorf("len(events) = %d, want 3", len(events))
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{-1, DefaultLimit},
		{0, DefaultLimit},
		{1, 1},
		{MaxLimit, MaxLimit},
		{MaxLimit + 1, MaxLimit},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
