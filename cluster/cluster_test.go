package cluster

import (
	"reflect"
	"testing"

	"coatpath/core"
)

func hseg(id string, x1, x2, y float64) core.PathSegment {
	return core.PathSegment{
		ID:    id,
		Start: core.Point{X: x1, Y: y},
		End:   core.Point{X: x2, Y: y},
		Kind:  core.Coat,
	}
}

// twoClusters returns segments in two well-separated spatial groups.
func twoClusters() []core.PathSegment {
	return []core.PathSegment{
		hseg("a1", 0, 10, 0),
		hseg("b1", 100, 110, 100),
		hseg("a2", 0, 10, 2),
		hseg("b2", 100, 110, 102),
		hseg("a3", 0, 10, 4),
		hseg("b3", 100, 110, 104),
	}
}

func TestPartitionConservation(t *testing.T) {
	tests := []struct {
		name string
		segs []core.PathSegment
		k    int
	}{
		{"two groups k2", twoClusters(), 2},
		{"two groups k5", twoClusters(), 5},
		{"single segment", twoClusters()[:1], 5},
		{"k1 keeps all", twoClusters(), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zones := Partition(tt.segs, tt.k, 50)

			seen := make(map[string]int)
			total := 0
			for _, zone := range zones {
				total += len(zone)
				for _, s := range zone {
					seen[s.ID]++
				}
			}
			if total != len(tt.segs) {
				t.Fatalf("zones hold %d segments, want %d", total, len(tt.segs))
			}
			for id, n := range seen {
				if n != 1 {
					t.Errorf("segment %s appears %d times", id, n)
				}
			}
		})
	}
}

func TestPartitionSeparatesSpatialGroups(t *testing.T) {
	zones := Partition(twoClusters(), 2, 50)
	if len(zones) != 2 {
		t.Fatalf("got %d zones, want 2", len(zones))
	}

	for _, zone := range zones {
		if len(zone) == 0 {
			continue
		}
		left := zone[0].Midpoint().X < 50
		for _, s := range zone[1:] {
			if (s.Midpoint().X < 50) != left {
				t.Errorf("zone mixes spatial groups: %v", zone)
			}
		}
	}
}

func TestPartitionDeterminism(t *testing.T) {
	a := Partition(twoClusters(), 3, 50)
	b := Partition(twoClusters(), 3, 50)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs must produce identical zones")
	}
}

func TestPartitionEmptyInput(t *testing.T) {
	if zones := Partition(nil, 5, 50); zones != nil {
		t.Errorf("empty input should give no zones, got %v", zones)
	}
	if zones := Partition(twoClusters(), 0, 50); zones != nil {
		t.Errorf("k=0 should give no zones, got %v", zones)
	}
}
