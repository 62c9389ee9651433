// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package batch

import (
	"sort"
	"strconv"
	"strings"

	"github.com/wattsonlabs/gridmeter/internal/models"
)

// openRange is a characterisation range still being extended by the sweep.
type openRange struct {
	rng models.CharacterisationRange
	seq int // opening order, for deterministic output
}

// Characterise partitions the batch's timeline into the minimal set of
// maximal contiguous ranges in which a fixed set of points is present and
// all share one quality.
//
// The sweep walks intervals chronologically. At each interval the points
// holding a reading are partitioned into equivalence classes by quality
// code (n-way: any number of classes may coexist). A class that matches an
// open range's (quality, point-set) identity extends it; open ranges whose
// identity does not reappear are closed. Point-set identity is structural
// and order-independent, and a point absent at one interval always breaks
// its range: there is no look-ahead gap tolerance.
//
// Ranges whose quality encodes to the missing sentinel (readings with an
// unrecognized tier) are dropped from the output. Output order is
// discovery order: ascending by the interval at which each range opened.
//
// Only a mixed batch yields a useful characterisation; callers should
// treat a none/final batch as having no characterisation worth reporting.
func (b *Batch) Characterise() []models.CharacterisationRange {
	open := make(map[string]*openRange)
	var closed []*openRange
	seq := 0

	for i := 0; i < b.grid.Len(); i++ {
		ts := b.grid.End(i)

		// Partition points present at this interval into classes by
		// quality code.
		classes := make(map[byte][]int)
		for idx := 0; idx < b.reg.Len(); idx++ {
			if r, ok := b.at(i, idx); ok {
				code := r.Quality.Code()
				classes[code] = append(classes[code], idx)
			}
		}

		// Build the identity keys present at this interval. Sorted
		// iteration keeps opening order deterministic when several
		// classes appear at once.
		keys := make([]string, 0, len(classes))
		byKey := make(map[string][]int, len(classes))
		for code, idxs := range classes {
			sort.Ints(idxs)
			key := classKey(code, idxs)
			keys = append(keys, key)
			byKey[key] = idxs
		}
		sort.Strings(keys)

		// Close open ranges whose (quality, point-set) identity has
		// disappeared.
		for key, or := range open {
			if _, alive := byKey[key]; !alive {
				closed = append(closed, or)
				delete(open, key)
			}
		}

		// Extend surviving ranges; open new ones.
		for _, key := range keys {
			if or, ok := open[key]; ok {
				or.rng.End = ts
				or.rng.Periods++
				continue
			}
			idxs := byKey[key]
			q, _ := models.QualityFromCode(key[0])
			points := make([]string, len(idxs))
			for j, idx := range idxs {
				points[j] = b.reg.ID(idx)
			}
			sort.Strings(points)
			open[key] = &openRange{
				rng: models.CharacterisationRange{
					Start:    ts,
					End:      ts,
					Quality:  q,
					PointIDs: points,
					Periods:  1,
				},
				seq: seq,
			}
			seq++
		}
	}

	// Close whatever survived to the last interval.
	for _, or := range open {
		closed = append(closed, or)
	}

	sort.Slice(closed, func(i, j int) bool { return closed[i].seq < closed[j].seq })

	out := make([]models.CharacterisationRange, 0, len(closed))
	for _, or := range closed {
		if or.rng.Quality.Code() == models.QualityMissingCode {
			continue
		}
		out = append(out, or.rng)
	}
	return out
}

// classKey builds the (quality, point-set) identity of one equivalence
// class. idxs must already be sorted.
func classKey(code byte, idxs []int) string {
	var sb strings.Builder
	sb.WriteByte(code)
	for _, idx := range idxs {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(idx))
	}
	return sb.String()
}
