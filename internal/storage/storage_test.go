package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store database is nil")
	}

	dbPath := filepath.Join(tempDir, dbFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_InvalidPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := New(filepath.Join(file, "data")); err == nil {
		t.Error("Expected error for path below a regular file, got nil")
	}
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Error closing store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Error closing already closed store: %v", err)
	}
	if err := store.StorePredictions(PredictionRecord{}); err == nil {
		t.Error("Expected error writing to a closed store")
	}
}

func TestStore_PredictionsRange(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var records []PredictionRecord
	for i := 0; i < 5; i++ {
		label := "Approved"
		if i%2 == 1 {
			label = "Rejected"
		}
		records = append(records, PredictionRecord{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Label:     label,
			PApprove:  float64(i) / 10,
			PReject:   1 - float64(i)/10,
			Applicant: map[string]any{"person_age": float64(20 + i)},
		})
	}
	if err := store.StorePredictions(records...); err != nil {
		t.Fatalf("StorePredictions: %v", err)
	}

	got, err := store.GetPredictions(base.Add(time.Minute), base.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("GetPredictions: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 records in range, got %d", len(got))
	}
	for i, rec := range got {
		want := base.Add(time.Duration(i+1) * time.Minute)
		if !rec.Timestamp.Equal(want) {
			t.Errorf("record %d: expected timestamp %v, got %v", i, want, rec.Timestamp)
		}
		if rec.ID == "" {
			t.Errorf("record %d: ID was not assigned", i)
		}
	}
	if got[0].Applicant["person_age"] != 21.0 {
		t.Errorf("Expected applicant age 21, got %v", got[0].Applicant["person_age"])
	}

	none, err := store.GetPredictions(base.Add(time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("GetPredictions: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no records, got %d", len(none))
	}
}

func TestStore_RecentAndCount(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		rec := PredictionRecord{Timestamp: base.Add(time.Duration(i) * time.Second), Label: "Approved"}
		if i == 3 {
			rec.Label = ""
			rec.Error = "unknown category"
			rec.ErrorKind = "unknown_category"
		}
		if err := store.StorePredictions(rec); err != nil {
			t.Fatalf("StorePredictions: %v", err)
		}
	}

	recent, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 recent records, got %d", len(recent))
	}
	if recent[0].ErrorKind != "unknown_category" {
		t.Errorf("Expected newest record first, got %+v", recent[0])
	}
	if !recent[0].Timestamp.After(recent[1].Timestamp) {
		t.Error("Expected records newest first")
	}

	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 4 {
		t.Errorf("Expected 4 records, got %d", n)
	}
}
