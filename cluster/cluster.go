// Package cluster partitions coating segments into spatial zones. The
// partition exists purely to bound the cost of greedy routing by keeping each
// working set small; it makes no clustering-quality guarantees.
package cluster

import (
	"coatpath/core"
)

// convergenceThreshold stops iteration once total centroid displacement in
// one pass falls below it.
const convergenceThreshold = 0.01

// Partition groups segments into up to k zones by iterative centroid
// clustering over segment midpoints. The result is deterministic for a given
// input order: centroids are seeded from the first k midpoints and ties in
// the nearest-centroid assignment go to the lowest centroid index. Every
// input segment appears in exactly one zone.
func Partition(segments []core.PathSegment, k, maxIterations int) [][]core.PathSegment {
	if len(segments) == 0 || k <= 0 {
		return nil
	}
	if k > len(segments) {
		k = len(segments)
	}

	midpoints := make([]core.Point, len(segments))
	for i, s := range segments {
		midpoints[i] = s.Midpoint()
	}

	centroids := make([]core.Point, k)
	copy(centroids, midpoints[:k])

	assignment := make([]int, len(segments))

	for iter := 0; iter < maxIterations; iter++ {
		// Assign every segment to its nearest centroid.
		for i, mid := range midpoints {
			best := 0
			bestDist := mid.DistanceTo(centroids[0])
			for c := 1; c < k; c++ {
				if d := mid.DistanceTo(centroids[c]); d < bestDist {
					best = c
					bestDist = d
				}
			}
			assignment[i] = best
		}

		// Recompute centroids as the mean of assigned midpoints; a centroid
		// with no assignments keeps its position.
		sumX := make([]float64, k)
		sumY := make([]float64, k)
		counts := make([]int, k)
		for i, c := range assignment {
			sumX[c] += midpoints[i].X
			sumY[c] += midpoints[i].Y
			counts[c]++
		}

		moved := 0.0
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			next := core.Point{
				X: sumX[c] / float64(counts[c]),
				Y: sumY[c] / float64(counts[c]),
			}
			moved += centroids[c].DistanceTo(next)
			centroids[c] = next
		}

		if moved < convergenceThreshold {
			break
		}
	}

	zones := make([][]core.PathSegment, k)
	for i, c := range assignment {
		zones[c] = append(zones[c], segments[i])
	}
	return zones
}
