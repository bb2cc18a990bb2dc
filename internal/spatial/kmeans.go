// Package spatial partitions sample coordinates into spatial blocks for
// cross-validation. Ordinary random k-fold leaks information between train
// and test sets when samples are spatially autocorrelated; clustering the
// coordinates and holding out whole clusters removes that optimism.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrTooFewSamples is returned when there are fewer samples than requested
// clusters.
var ErrTooFewSamples = errors.New("spatial: fewer samples than clusters")

// Point is a 2-D sample coordinate (x=lon/easting, y=lat/northing).
type Point struct {
	X float64
	Y float64
}

// KMeans clusters 2-D points with Lloyd's algorithm and k-means++ seeding.
// The random source is seeded explicitly so fold assignments are
// reproducible across runs.
type KMeans struct {
	K       int
	Seed    int64
	MaxIter int
}

// NewKMeans returns a clusterer with the default iteration cap.
func NewKMeans(k int, seed int64) *KMeans {
	return &KMeans{K: k, Seed: seed, MaxIter: 100}
}

// Fit assigns every point a cluster id in [0, K) and returns the
// assignment. Cluster sizes follow the spatial distribution of the points
// and are intentionally not balanced.
func (km *KMeans) Fit(points []Point) ([]int, error) {
	if km.K < 1 {
		return nil, fmt.Errorf("spatial: k must be >= 1, got %d", km.K)
	}
	if len(points) < km.K {
		return nil, fmt.Errorf("%w: %d samples, k=%d", ErrTooFewSamples, len(points), km.K)
	}

	rng := rand.New(rand.NewSource(km.Seed))
	centers := km.seedCenters(points, rng)
	labels := make([]int, len(points))

	maxIter := km.MaxIter
	if maxIter < 1 {
		maxIter = 100
	}
	for iter := 0; iter < maxIter; iter++ {
		changed := assign(points, centers, labels)
		recenter(points, labels, centers)
		fixEmptyClusters(points, labels, centers)
		if !changed && iter > 0 {
			break
		}
	}
	return labels, nil
}

// seedCenters picks initial centers with k-means++: the first uniformly,
// each subsequent one with probability proportional to squared distance
// from the nearest chosen center.
func (km *KMeans) seedCenters(points []Point, rng *rand.Rand) []Point {
	centers := make([]Point, 0, km.K)
	centers = append(centers, points[rng.Intn(len(points))])

	d2 := make([]float64, len(points))
	for len(centers) < km.K {
		total := 0.0
		for i, p := range points {
			d2[i] = nearestDist2(p, centers)
			total += d2[i]
		}
		if total == 0 {
			// All remaining points coincide with a center; any choice works.
			centers = append(centers, points[rng.Intn(len(points))])
			continue
		}
		target := rng.Float64() * total
		acc := 0.0
		pick := len(points) - 1
		for i, d := range d2 {
			acc += d
			if acc >= target {
				pick = i
				break
			}
		}
		centers = append(centers, points[pick])
	}
	return centers
}

func assign(points []Point, centers []Point, labels []int) bool {
	changed := false
	for i, p := range points {
		best, bestD := 0, math.Inf(1)
		for k, c := range centers {
			if d := dist2(p, c); d < bestD {
				best, bestD = k, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

func recenter(points []Point, labels []int, centers []Point) {
	sums := make([]Point, len(centers))
	counts := make([]int, len(centers))
	for i, p := range points {
		k := labels[i]
		sums[k].X += p.X
		sums[k].Y += p.Y
		counts[k]++
	}
	for k := range centers {
		if counts[k] > 0 {
			centers[k] = Point{X: sums[k].X / float64(counts[k]), Y: sums[k].Y / float64(counts[k])}
		}
	}
}

// fixEmptyClusters moves the point farthest from its center into any empty
// cluster, so every cluster id in [0, K) labels at least one sample.
func fixEmptyClusters(points []Point, labels []int, centers []Point) {
	counts := make([]int, len(centers))
	for _, l := range labels {
		counts[l]++
	}
	for k := range centers {
		if counts[k] > 0 {
			continue
		}
		far, farD := -1, -1.0
		for i, p := range points {
			if counts[labels[i]] <= 1 {
				continue // don't empty another cluster
			}
			if d := dist2(p, centers[labels[i]]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 {
			continue
		}
		counts[labels[far]]--
		labels[far] = k
		counts[k] = 1
		centers[k] = points[far]
	}
}

func nearestDist2(p Point, centers []Point) float64 {
	best := math.Inf(1)
	for _, c := range centers {
		if d := dist2(p, c); d < best {
			best = d
		}
	}
	return best
}

func dist2(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
