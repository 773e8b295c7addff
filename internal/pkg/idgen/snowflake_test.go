package idgen

import "testing"

func TestGenerateJobID_Unique(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateJobID()
		if id <= 0 {
			t.Fatalf("expected positive job ID, got %d", id)
		}
		if seen[id] {
			t.Fatalf("duplicate job ID %d", id)
		}
		seen[id] = true
	}
}

func TestGenerateID_NotEmpty(t *testing.T) {
	if GenerateID() == "" {
		t.Error("expected non-empty ID")
	}
}
