package cmsrate

import (
	"hash/maphash"
	"sync"
)

// sketch is a count-min sketch: width counters per row, depth
// independent hash rows. It overestimates frequency, never
// underestimates, which is an acceptable tradeoff for rate limiting
// (spec §4.2: "CMS overestimation is allowed and expected").
type sketch struct {
	mu    sync.Mutex
	rows  [][]uint32
	seeds []maphash.Seed
	width uint64
}

const (
	defaultWidth = 1024
	defaultDepth = 4
)

func newSketch(width, depth int) *sketch {
	if width <= 0 {
		width = defaultWidth
	}
	if depth <= 0 {
		depth = defaultDepth
	}
	s := &sketch{
		rows:  make([][]uint32, depth),
		seeds: make([]maphash.Seed, depth),
		width: uint64(width),
	}
	for i := range s.rows {
		s.rows[i] = make([]uint32, width)
		s.seeds[i] = maphash.MakeSeed()
	}
	return s
}

// add increments the estimate for key and returns the new estimate.
func (s *sketch) add(key string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var min uint32 = ^uint32(0)
	idxs := make([]uint64, len(s.rows))
	for i, row := range s.rows {
		idx := s.index(i, key)
		idxs[i] = idx
		row[idx]++
	}
	for i, row := range s.rows {
		if row[idxs[i]] < min {
			min = row[idxs[i]]
		}
	}
	return min
}

// reset zeroes every counter, used on interval window rollover.
func (s *sketch) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		for i := range row {
			row[i] = 0
		}
	}
}

func (s *sketch) index(row int, key string) uint64 {
	var h maphash.Hash
	h.SetSeed(s.seeds[row])
	_, _ = h.WriteString(key)
	return h.Sum64() % s.width
}
