package payload

import (
	"strconv"
	"testing"
	"time"
)

func TestIDGenerator_Generate(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	tests := []struct {
		name   string
		digits int
		want   uint64
	}{
		{"three digits", 123, 1231700000000000},
		{"leading zero dropped", 42, 421700000000000},
		{"all zeros", 0, 1700000000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := IDGenerator{
				Now:    func() time.Time { return now },
				Digits: func() int { return tt.digits },
			}
			got := g.Generate()
			if want := strconv.FormatUint(tt.want, 36); got != want {
				t.Errorf("Generate() = %q, want %q", got, want)
			}
		})
	}
}

func TestGenerateID_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	collisions := 0
	for range 20 {
		id := GenerateID()
		if id == "" {
			t.Fatal("GenerateID() returned empty string")
		}
		if _, err := strconv.ParseUint(id, 36, 64); err != nil {
			t.Fatalf("GenerateID() = %q is not base 36: %v", id, err)
		}
		if seen[id] {
			collisions++
		}
		seen[id] = true
	}
	// Collisions need the same millisecond and the same random fragment.
	if collisions > 3 {
		t.Errorf("collisions = %d, want almost none", collisions)
	}
}
