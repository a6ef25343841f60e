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

package genes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/exascience/elpipe/pileup"
	"github.com/exascience/elpipe/utils"
)

func genesEqual(genes1, genes2 []Gene) bool {
	if len(genes1) != len(genes2) {
		return false
	}
	for i, gene1 := range genes1 {
		if gene1 != genes2[i] {
			return false
		}
	}
	return true
}

func writeGeneList(t *testing.T, contents string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "genes.tsv")
	if err := os.WriteFile(filename, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestParseGenes(t *testing.T) {
	// columns are located by name; extra columns and empty lines are ignored
	filename := writeGeneList(t,
		"Chrom\tSource\tStart\tEnd\tSymbol\n"+
			"chr17\tensembl\t43044295\t43125364\tBRCA1\n"+
			"\n"+
			"chr13\tensembl\t32315508\t32400268\tBRCA2\n")
	genes, err := ParseGenes(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !genesEqual(genes, []Gene{
		{Symbol: "BRCA1", Chrom: utils.Intern("chr17"), Start: 43044295, End: 43125364},
		{Symbol: "BRCA2", Chrom: utils.Intern("chr13"), Start: 32315508, End: 32400268},
	}) {
		t.Error("ParseGenes failed: ", genes)
	}
}

func TestParseGenesErrors(t *testing.T) {
	if _, err := ParseGenes(writeGeneList(t, "")); err == nil {
		t.Error("ParseGenes missing header failed")
	}
	if _, err := ParseGenes(writeGeneList(t, "Symbol\tChrom\tStart\nTP53\tchr17\t7668402\n")); err == nil {
		t.Error("ParseGenes missing column failed")
	}
	if _, err := ParseGenes(writeGeneList(t, "Symbol\tChrom\tStart\tEnd\nTP53\tchr17\n")); err == nil {
		t.Error("ParseGenes short line failed")
	}
	if _, err := ParseGenes(writeGeneList(t, "Symbol\tChrom\tStart\tEnd\nTP53\tchr17\tx\t7687550\n")); err == nil {
		t.Error("ParseGenes invalid start failed")
	}
	if _, err := ParseGenes(writeGeneList(t, "Symbol\tChrom\tStart\tEnd\nTP53\tchr17\t7687550\t7668402\n")); err == nil {
		t.Error("ParseGenes inverted region failed")
	}
}

func TestDepthTable(t *testing.T) {
	chr1 := utils.Intern("chr1")
	p := &pileup.Pileup{
		Chroms: []utils.Symbol{chr1},
		Piles: map[utils.Symbol][]pileup.Pile{
			chr1: {
				{Pos: 10, Depth: 5},
				{Pos: 11, Depth: 0},
				{Pos: 12, Depth: 3},
				{Pos: 14, Depth: 2},
			},
		},
	}
	rows := DepthTable([]Gene{
		{Symbol: "GENE1", Chrom: chr1, Start: 10, End: 14},
		{Symbol: "GENE2", Chrom: chr1, Start: 13, End: 13},
	}, p)
	if len(rows) != 2 {
		t.Fatal("DepthTable row count failed")
	}
	if rows[0].Gene.Symbol != "GENE1" || rows[0].Depth != 2.5 || rows[0].Breadth != 0.6 {
		t.Error("DepthTable row 1 failed: ", rows[0])
	}
	if rows[1].Gene.Symbol != "GENE2" || rows[1].Depth != 0 || rows[1].Breadth != 0 {
		t.Error("DepthTable row 2 failed: ", rows[1])
	}
}

func TestWriteDepthTable(t *testing.T) {
	rows := []GeneDepth{
		{Gene: Gene{Symbol: "GENE1"}, Depth: 2.5, Breadth: 0.6},
		{Gene: Gene{Symbol: "GENE2"}, Depth: 0, Breadth: 0},
	}
	filename := filepath.Join(t.TempDir(), "gene_depth.tsv")
	if err := WriteDepthTable(rows, filename); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	expected := DepthTableHeader +
		"GENE1\t2.50\t0.6000\tGENE\n" +
		"GENE2\t0.00\t0.0000\tGENE\n"
	if string(data) != expected {
		t.Error("WriteDepthTable failed: ", string(data))
	}
}
