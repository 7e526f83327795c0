package delayprofile

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testProfiles() []Profile {
	return []Profile{
		{ID: 1, Order: Fallback, Tags: []int64{}},
		{ID: 2, Order: Ranked(2), Tags: []int64{5}},
		{ID: 3, Order: Ranked(1), Tags: []int64{5, 7}},
		{ID: 4, Order: Ranked(3), Tags: []int64{9}},
	}
}

func ids(profiles []Profile) []int64 {
	out := make([]int64, len(profiles))
	for i := range profiles {
		out[i] = profiles[i].ID
	}
	return out
}

func TestNewSnapshot_Ordering(t *testing.T) {
	snap := NewSnapshot(testProfiles())

	if diff := cmp.Diff([]int64{3, 2, 4, 1}, ids(snap.Profiles())); diff != "" {
		t.Errorf("Profiles() order mismatch (-want +got):\n%s", diff)
	}

	def, ok := snap.Default()
	if !ok || def.ID != 1 {
		t.Errorf("Default() = %d, %v", def.ID, ok)
	}
}

func TestSnapshot_ResolveApplicable(t *testing.T) {
	snap := NewSnapshot(testProfiles())

	tests := []struct {
		name string
		tags []int64
		want int64
	}{
		{"lowest order among intersecting", []int64{5}, 3},
		{"only the rank three profile matches", []int64{9}, 4},
		{"disjoint tags fall back to default", []int64{42}, 1},
		{"untagged series falls back to default", nil, 1},
		{"several matches pick the lowest order", []int64{9, 5}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := snap.ResolveApplicable(tt.tags)
			if err != nil {
				t.Fatalf("ResolveApplicable() error = %v", err)
			}
			if got.ID != tt.want {
				t.Errorf("ResolveApplicable(%v) = profile %d, want %d", tt.tags, got.ID, tt.want)
			}
		})
	}
}

func TestSnapshot_ResolveApplicable_Deterministic(t *testing.T) {
	profiles := []Profile{
		{ID: 1, Order: Fallback, Tags: []int64{}},
		{ID: 9, Order: Ranked(1), Tags: []int64{5}},
		{ID: 4, Order: Ranked(1), Tags: []int64{5}},
	}

	first := NewSnapshot(profiles)
	reversed := NewSnapshot([]Profile{profiles[2], profiles[1], profiles[0]})

	for range 3 {
		a, err := first.ResolveApplicable([]int64{5})
		if err != nil {
			t.Fatalf("ResolveApplicable() error = %v", err)
		}
		b, _ := reversed.ResolveApplicable([]int64{5})
		if a.ID != 4 || b.ID != 4 {
			t.Fatalf("tie should resolve to the lower id, got %d and %d", a.ID, b.ID)
		}
	}
}

func TestSnapshot_ResolveApplicable_OrderWins(t *testing.T) {
	snap := NewSnapshot([]Profile{
		{ID: 1, Order: Fallback, Tags: []int64{}},
		{ID: 2, Order: Ranked(2), Tags: []int64{5}},
		{ID: 3, Order: Ranked(1), Tags: []int64{5}},
	})

	got, err := snap.ResolveApplicable([]int64{5})
	if err != nil {
		t.Fatalf("ResolveApplicable() error = %v", err)
	}
	if got.ID != 3 {
		t.Errorf("ResolveApplicable() = %d, want the order=1 profile", got.ID)
	}
}

func TestSnapshot_UntaggedRankedProfileBeatsDefault(t *testing.T) {
	snap := NewSnapshot([]Profile{
		{ID: 1, Order: Fallback, Tags: []int64{}},
		{ID: 2, Order: Ranked(4), Tags: []int64{}},
	})

	got, _ := snap.ResolveApplicable([]int64{8})
	if got.ID != 2 {
		t.Errorf("ResolveApplicable() = %d, want 2", got.ID)
	}
}

func TestSnapshot_NoDefault(t *testing.T) {
	snap := NewSnapshot([]Profile{{ID: 2, Order: Ranked(1), Tags: []int64{5}}})

	_, err := snap.ResolveApplicable([]int64{3})
	if !errors.Is(err, ErrNoDefaultProfile) {
		t.Fatalf("error = %v, want ErrNoDefaultProfile", err)
	}
	if !errors.Is(err, ErrInvariantViolation) {
		t.Error("ErrNoDefaultProfile should wrap ErrInvariantViolation")
	}
}

func TestSnapshot_AllForTags(t *testing.T) {
	snap := NewSnapshot(testProfiles())

	if diff := cmp.Diff([]int64{3, 2, 1}, ids(snap.AllForTags([]int64{5}))); diff != "" {
		t.Errorf("AllForTags() mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot_ProfilesIsACopy(t *testing.T) {
	snap := NewSnapshot(testProfiles())
	got := snap.Profiles()
	got[0].ID = 99

	if snap.Profiles()[0].ID == 99 {
		t.Error("mutating Profiles() result changed the snapshot")
	}
}
