package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"seacatgo/pkg/db"
)

func TestDB(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nested", "db_test.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if d == nil {
		t.Fatal("Init() returned nil DB")
	}
	d.Close()

	// Migrations are idempotent
	d, err = db.Init(path)
	if err != nil {
		t.Fatalf("second Init() failed: %v", err)
	}
	d.Close()
}

func TestPruneExports(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "prune.db"))
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer d.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		_, err := d.Exec("INSERT INTO exports (id, created_at) VALUES (?, ?)", id, base.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	n, err := d.PruneExports(2)
	if err != nil {
		t.Fatalf("PruneExports failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted rows, got %d", n)
	}

	rows, err := d.Query("SELECT id FROM exports ORDER BY id")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	if len(ids) != 2 || ids[0] != "c" || ids[1] != "d" {
		t.Errorf("expected newest records c,d to survive, got %v", ids)
	}
}
