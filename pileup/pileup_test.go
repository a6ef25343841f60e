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
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/exascience/elpipe/utils"
)

func pilesEqual(piles1, piles2 []Pile) bool {
	if len(piles1) != len(piles2) {
		return false
	}
	for i, pile1 := range piles1 {
		if pile1 != piles2[i] {
			return false
		}
	}
	return true
}

func symbolsEqual(symbols1, symbols2 []utils.Symbol) bool {
	if len(symbols1) != len(symbols2) {
		return false
	}
	for i, symbol1 := range symbols1 {
		if symbol1 != symbols2[i] {
			return false
		}
	}
	return true
}

func TestCleanBases(t *testing.T) {
	if bases, quals := cleanBases("..,.", "FFFI"); bases != "..,." || quals != "FFFI" {
		t.Error("cleanBases 1 failed: ", bases, quals)
	}
	if bases, quals := cleanBases("^F..$", "FI"); bases != ".." || quals != "FI" {
		t.Error("cleanBases 2 failed: ", bases, quals)
	}
	if bases, quals := cleanBases(".+2AG.", "FI"); bases != ".." || quals != "FI" {
		t.Error("cleanBases 3 failed: ", bases, quals)
	}
	if bases, quals := cleanBases(".-12NNNNNNNNNNNN.", "FI"); bases != ".." || quals != "FI" {
		t.Error("cleanBases 4 failed: ", bases, quals)
	}
	if bases, quals := cleanBases("*.", "FI"); bases != "." || quals != "I" {
		t.Error("cleanBases 5 failed: ", bases, quals)
	}
	if bases, quals := cleanBases(">.<", "ABC"); bases != "." || quals != "B" {
		t.Error("cleanBases 6 failed: ", bases, quals)
	}
	if bases, quals := cleanBases("^!*", "F"); bases != "" || quals != "" {
		t.Error("cleanBases 7 failed: ", bases, quals)
	}
	if bases, quals := cleanBases("A,t.", "FFII"); bases != "A,t." || quals != "FFII" {
		t.Error("cleanBases 8 failed: ", bases, quals)
	}
	if bases, quals := cleanBases("", ""); bases != "" || quals != "" {
		t.Error("cleanBases 9 failed: ", bases, quals)
	}
}

func writePileupFile(t *testing.T, contents string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "test.mpileup")
	if err := os.WriteFile(filename, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestParsePileup(t *testing.T) {
	filename := writePileupFile(t,
		"chr1\t11\ta\t3\t..,\tFFF\n"+
			"chr1\t12\tC\t0\n"+
			"chr1\t13\tg\t2\t^F.$,\tFD\n"+
			"chr2\t5\tT\t4\t..+2AG,,\tFFFF\n"+
			"chrM\t3\tA\t100\t...\tFFF\n")
	pileup, err := ParsePileup(filename)
	if err != nil {
		t.Fatal(err)
	}
	chr1 := utils.Intern("chr1")
	chr2 := utils.Intern("chr2")
	chrM := utils.Intern("chrM")
	if !symbolsEqual(pileup.Chroms, []utils.Symbol{chr1, chr2, chrM}) {
		t.Error("ParsePileup chromosome order failed")
	}
	if !pilesEqual(pileup.Piles[chr1], []Pile{
		{Pos: 11, Ref: 'A', Depth: 3, Bases: "..,", Quals: "FFF"},
		{Pos: 12, Ref: 'C', Depth: 0},
		{Pos: 13, Ref: 'G', Depth: 2, Bases: ".,", Quals: "FD"},
	}) {
		t.Error("ParsePileup chr1 failed: ", pileup.Piles[chr1])
	}
	if !pilesEqual(pileup.Piles[chr2], []Pile{
		{Pos: 5, Ref: 'T', Depth: 4, Bases: "..,,", Quals: "FFFF"},
	}) {
		t.Error("ParsePileup chr2 failed: ", pileup.Piles[chr2])
	}
	if pileup.NrOfPositions() != 5 {
		t.Error("ParsePileup position count failed: ", pileup.NrOfPositions())
	}
	if mean := pileup.MeanDepth(); mean != 21.8 {
		t.Error("MeanDepth failed: ", mean)
	}
	// the mean that sets the uniformity threshold excludes chrM:
	// (3+0+2+4)/4 = 2.25, so positions with depth >= 1.125 count
	if uniformity := pileup.Uniformity(); uniformity != 0.8 {
		t.Error("Uniformity failed: ", uniformity)
	}
	if !pilesEqual(pileup.Region(chr1, 12, 13), pileup.Piles[chr1][1:3]) {
		t.Error("Region failed")
	}
	if depth := pileup.RegionDepth(chr1, 11, 12); depth != 1.5 {
		t.Error("RegionDepth failed: ", depth)
	}
	if depth := pileup.RegionDepth(chr2, 100, 200); depth != 0 {
		t.Error("RegionDepth empty region failed: ", depth)
	}
	if len(pileup.Region(utils.Intern("chr3"), 1, 100)) != 0 {
		t.Error("Region absent chromosome failed")
	}
}

func TestParsePileupErrors(t *testing.T) {
	if _, err := ParsePileup(writePileupFile(t, "chr1\tx\tA\t3\t.\tF\n")); err == nil {
		t.Error("ParsePileup invalid position failed")
	}
	if _, err := ParsePileup(writePileupFile(t, "chr1\t11\tA\t3\t.\n")); err == nil {
		t.Error("ParsePileup missing quals column failed")
	}
	if _, err := ParsePileup(writePileupFile(t, "chr1\t11\tAC\t3\t.\tF\n")); err == nil {
		t.Error("ParsePileup invalid reference base failed")
	}
	if _, err := ParsePileup(writePileupFile(t, "chr1\t11\tA\tx\t.\tF\n")); err == nil {
		t.Error("ParsePileup invalid depth failed")
	}
}

func TestParsePileupUnsorted(t *testing.T) {
	filename := writePileupFile(t,
		"chr1\t13\tA\t1\t.\tF\n"+
			"chr1\t11\tA\t2\t.,\tFF\n"+
			"chr1\t12\tA\t3\t..,\tFFF\n")
	pileup, err := ParsePileup(filename)
	if err != nil {
		t.Fatal(err)
	}
	chr1 := utils.Intern("chr1")
	if !pilesEqual(pileup.Piles[chr1], []Pile{
		{Pos: 11, Ref: 'A', Depth: 2, Bases: ".,", Quals: "FF"},
		{Pos: 12, Ref: 'A', Depth: 3, Bases: "..,", Quals: "FFF"},
		{Pos: 13, Ref: 'A', Depth: 1, Bases: ".", Quals: "F"},
	}) {
		t.Error("ParsePileup unsorted input failed: ", pileup.Piles[chr1])
	}
}

func TestUniformityWithoutNuclearPositions(t *testing.T) {
	chrM := utils.Intern("chrM")
	pileup := &Pileup{
		Chroms: []utils.Symbol{chrM},
		Piles: map[utils.Symbol][]Pile{
			chrM: {{Pos: 1, Depth: 100}},
		},
	}
	if uniformity := pileup.Uniformity(); uniformity != 0 {
		t.Error("Uniformity without nuclear positions failed: ", uniformity)
	}
}

func TestMeanDepthEmpty(t *testing.T) {
	pileup := &Pileup{Piles: make(map[utils.Symbol][]Pile)}
	if mean := pileup.MeanDepth(); mean != 0 {
		t.Error("MeanDepth empty failed: ", mean)
	}
	if uniformity := pileup.Uniformity(); uniformity != 0 {
		t.Error("Uniformity empty failed: ", uniformity)
	}
}

func makeLargePileSlice() []Pile {
	piles := make([]Pile, 0x30000)
	for i := range piles {
		piles[i].Pos = int32(rand.Intn(0x10000))
		piles[i].Depth = int32(i)
	}
	return piles
}

func sortedByPos(piles []Pile) bool {
	for i := 1; i < len(piles); i++ {
		if piles[i].Pos < piles[i-1].Pos {
			return false
		}
	}
	return true
}

func TestSortByPos(t *testing.T) {
	piles := []Pile{
		{Pos: 3, Depth: 1},
		{Pos: 1, Depth: 2},
		{Pos: 3, Depth: 3},
	}
	SortByPos(piles)
	if !pilesEqual(piles, []Pile{
		{Pos: 1, Depth: 2},
		{Pos: 3, Depth: 1},
		{Pos: 3, Depth: 3},
	}) {
		t.Error("SortByPos failed: ", piles)
	}
}

func TestParallelSortByPos(t *testing.T) {
	piles := makeLargePileSlice()
	ParallelSortByPos(piles)
	if !sortedByPos(piles) {
		t.Error("ParallelSortByPos failed")
	}
	for i := 1; i < len(piles); i++ {
		if piles[i].Pos == piles[i-1].Pos && piles[i].Depth < piles[i-1].Depth {
			t.Error("ParallelSortByPos stability failed")
			break
		}
	}
}
