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
	"strconv"

	"github.com/exascience/pargo/parallel"
	"github.com/willf/bitset"

	"github.com/exascience/elpipe/pileup"
)

// A GeneDepth row reports the coverage of one gene: the mean depth
// over its region, and the breadth, which is the fraction of its
// positions covered by at least one read.
type GeneDepth struct {
	Gene    Gene
	Depth   float64
	Breadth float64
}

// DepthTable computes the per-gene coverage rows for the given gene
// list, in gene list order.
func DepthTable(genes []Gene, p *pileup.Pileup) []GeneDepth {
	rows := make([]GeneDepth, len(genes))
	parallel.Range(0, len(genes), 0, func(low, high int) {
		for i := low; i < high; i++ {
			gene := genes[i]
			size := uint(gene.End - gene.Start + 1)
			covered := bitset.New(size)
			for _, pile := range p.Region(gene.Chrom, gene.Start, gene.End) {
				if pile.Depth > 0 {
					covered.Set(uint(pile.Pos - gene.Start))
				}
			}
			rows[i] = GeneDepth{
				Gene:    gene,
				Depth:   p.RegionDepth(gene.Chrom, gene.Start, gene.End),
				Breadth: float64(covered.Count()) / float64(size),
			}
		}
	})
	return rows
}

// DepthTableHeader is the header line of a gene depth table.
const DepthTableHeader = "HUGO_SYMBOL\tDEPTH\tBREADTH\tVARIANT_GROUP_ID\n"

// WriteDepthTable stores a gene depth table as a tab-separated file.
// Depths are rounded to two decimals and breadths to four.
func WriteDepthTable(rows []GeneDepth, filename string) (err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return err
	}
	output, err := os.Create(pathname)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := output.Close(); nerr != nil {
			if err == nil {
				err = nerr
			}
		}
	}()
	if _, err = output.WriteString(DepthTableHeader); err != nil {
		return err
	}
	var buf []byte
	for _, row := range rows {
		buf = append(buf, row.Gene.Symbol...)
		buf = append(buf, '\t')
		buf = strconv.AppendFloat(buf, row.Depth, 'f', 2, 64)
		buf = append(buf, '\t')
		buf = strconv.AppendFloat(buf, row.Breadth, 'f', 4, 64)
		buf = append(buf, "\tGENE\n"...)
	}
	_, err = output.Write(buf)
	return err
}
