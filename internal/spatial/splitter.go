package spatial

import (
	"fmt"

	"github.com/aquapredict-data/feature-engine/internal/monitoring"
)

// DefaultSeed fixes the clustering random source so cross-validation folds
// are reproducible between runs over the same samples.
const DefaultSeed = 42

// Fold is one train/test partition. Test holds every sample in the fold's
// spatial cluster; Train holds everything else. The two are always
// disjoint, and across all folds the Test sets partition the sample index
// set exactly.
type Fold struct {
	Train []int
	Test  []int
}

// Splitter yields spatially blocked cross-validation folds.
type Splitter interface {
	Split(coords []Point) ([]Fold, error)
}

// BlockSplitter clusters sample coordinates into K spatial groups and holds
// each group out as a test set in turn. Fold sizes follow the spatial
// clustering of the samples; they are intentionally unequal.
type BlockSplitter struct {
	K    int
	Seed int64
}

// NewBlockSplitter returns a splitter over k spatial blocks with the
// default seed.
func NewBlockSplitter(k int) *BlockSplitter {
	return &BlockSplitter{K: k, Seed: DefaultSeed}
}

// Split clusters coords and returns K folds, one per cluster. The feature
// values attached to each sample are irrelevant here; only geometry decides
// fold membership.
func (s *BlockSplitter) Split(coords []Point) ([]Fold, error) {
	labels, err := NewKMeans(s.K, s.Seed).Fit(coords)
	if err != nil {
		return nil, fmt.Errorf("spatial split: %w", err)
	}

	folds := make([]Fold, s.K)
	for i, l := range labels {
		for k := 0; k < s.K; k++ {
			if k == l {
				folds[k].Test = append(folds[k].Test, i)
			} else {
				folds[k].Train = append(folds[k].Train, i)
			}
		}
	}

	for k, f := range folds {
		monitoring.Logf("spatial split: fold %d: %d train / %d test", k, len(f.Train), len(f.Test))
	}
	return folds, nil
}

// Verify at compile time that *BlockSplitter implements Splitter.
var _ Splitter = (*BlockSplitter)(nil)
