// elPipe: a pipeline driver for preparing raw sequencing reads for variant calling.
// Copyright (c) 2021-2023 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elpipe/blob/master/LICENSE.txt>.

package pileup

import (
	"sort"

	"github.com/exascience/pargo/parallel"
	psort "github.com/exascience/pargo/sort"
	"gonum.org/v1/gonum/stat"

	"github.com/exascience/elpipe/utils"
)

// A Pile is the pileup of a single reference position: its coverage
// depth and the read bases and base qualities observed there, with
// the pileup markup already removed.
type Pile struct {
	Pos   int32
	Ref   byte
	Depth int32
	Bases string
	Quals string
}

// A Pileup holds the piles of an mpileup file, grouped per
// chromosome. The piles of a chromosome are sorted by position, and
// Chroms lists the chromosomes in the order they first occur in the
// file.
type Pileup struct {
	Chroms []utils.Symbol
	Piles  map[utils.Symbol][]Pile
}

// The mitochondrial chromosome is excluded from the mean when
// computing uniformity: its coverage is typically orders of magnitude
// higher than that of the nuclear target regions and would skew the
// threshold.
var mitochondrial = utils.Intern("chrM")

// SortByPos sorts piles by position.
func SortByPos(piles []Pile) {
	sort.SliceStable(piles, func(i, j int) bool {
		return piles[i].Pos < piles[j].Pos
	})
}

type stablePileSorter []Pile

func (s stablePileSorter) SequentialSort(i, j int) {
	SortByPos(s[i:j])
}

func (s stablePileSorter) NewTemp() psort.StableSorter {
	return stablePileSorter(make([]Pile, len(s)))
}

func (s stablePileSorter) Len() int {
	return len(s)
}

func (s stablePileSorter) Less(i, j int) bool {
	return s[i].Pos < s[j].Pos
}

func (s stablePileSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stablePileSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// ParallelSortByPos sorts piles by position using a parallel stable
// sort.
func ParallelSortByPos(piles []Pile) {
	psort.StableSort(stablePileSorter(piles))
}

// NrOfPositions returns the total number of positions in the pileup.
func (pileup *Pileup) NrOfPositions() int {
	n := 0
	for _, piles := range pileup.Piles {
		n += len(piles)
	}
	return n
}

// MeanDepth returns the mean coverage depth over all positions of the
// pileup, including the mitochondrial chromosome. It returns 0 for an
// empty pileup.
func (pileup *Pileup) MeanDepth() float64 {
	n := pileup.NrOfPositions()
	if n == 0 {
		return 0
	}
	depths := make([]float64, 0, n)
	for _, chrom := range pileup.Chroms {
		for _, pile := range pileup.Piles[chrom] {
			depths = append(depths, float64(pile.Depth))
		}
	}
	return stat.Mean(depths, nil)
}

// Uniformity returns the fraction of all positions whose depth is at
// least half the mean depth, where the mean is computed over the
// non-mitochondrial positions only. It returns 0 when the pileup has
// no non-mitochondrial positions.
func (pileup *Pileup) Uniformity() float64 {
	var sum, count int
	for chrom, piles := range pileup.Piles {
		if chrom == mitochondrial {
			continue
		}
		sum += sumDepths(piles)
		count += len(piles)
	}
	if count == 0 {
		return 0
	}
	threshold := float64(sum) / float64(count) / 2
	covered := 0
	for _, piles := range pileup.Piles {
		covered += countAtLeast(piles, threshold)
	}
	return float64(covered) / float64(pileup.NrOfPositions())
}

func sumDepths(piles []Pile) int {
	return parallel.RangeReduceInt(0, len(piles), 0, func(low, high int) int {
		sum := 0
		for i := low; i < high; i++ {
			sum += int(piles[i].Depth)
		}
		return sum
	}, func(x, y int) int { return x + y })
}

func countAtLeast(piles []Pile, threshold float64) int {
	return parallel.RangeReduceInt(0, len(piles), 0, func(low, high int) int {
		count := 0
		for i := low; i < high; i++ {
			if float64(piles[i].Depth) >= threshold {
				count++
			}
		}
		return count
	}, func(x, y int) int { return x + y })
}

// Region returns the piles of the given chromosome with start <= Pos
// <= end. The result shares memory with the pileup.
func (pileup *Pileup) Region(chrom utils.Symbol, start, end int32) []Pile {
	piles := pileup.Piles[chrom]
	n := len(piles)
	return piles[sort.Search(n, func(i int) bool {
		return piles[i].Pos >= start
	}):sort.Search(n, func(i int) bool {
		return piles[i].Pos > end
	})]
}

// RegionDepth returns the mean coverage depth over the given
// inclusive position range, or 0 when the pileup has no positions in
// the range.
func (pileup *Pileup) RegionDepth(chrom utils.Symbol, start, end int32) float64 {
	region := pileup.Region(chrom, start, end)
	if len(region) == 0 {
		return 0
	}
	depths := make([]float64, len(region))
	for i, pile := range region {
		depths[i] = float64(pile.Depth)
	}
	return stat.Mean(depths, nil)
}
