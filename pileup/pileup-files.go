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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/exascience/pargo/pipeline"
	"github.com/pkg/errors"

	"github.com/exascience/elpipe/utils"
)

// A parsed chunk of mpileup lines, with chromosomes in encounter
// order so that chunks can be merged deterministically.
type pileupChunk struct {
	chroms []utils.Symbol
	piles  map[utils.Symbol][]Pile
}

func (chunk *pileupChunk) add(chrom utils.Symbol, pile Pile) {
	if _, ok := chunk.piles[chrom]; !ok {
		chunk.chroms = append(chunk.chroms, chrom)
	}
	chunk.piles[chrom] = append(chunk.piles[chrom], pile)
}

// ParsePileup parses the text output of samtools mpileup.
func ParsePileup(filename string) (pileup *Pileup, err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := in.Close(); nerr != nil {
			if err == nil {
				pileup, err = nil, nerr
			}
		}
	}()
	input := bufio.NewReader(in)
	pileup = &Pileup{Piles: make(map[utils.Symbol][]Pile)}
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		lines := data.([]string)
		chunk := &pileupChunk{piles: make(map[utils.Symbol][]Pile)}
		for _, line := range lines {
			chrom, pile, err := parsePile(line)
			if err != nil {
				p.SetErr(err)
				return chunk
			}
			chunk.add(chrom, pile)
		}
		return chunk
	})))
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		chunk := data.(*pileupChunk)
		for _, chrom := range chunk.chroms {
			if _, ok := pileup.Piles[chrom]; !ok {
				pileup.Chroms = append(pileup.Chroms, chrom)
			}
			pileup.Piles[chrom] = append(pileup.Piles[chrom], chunk.piles[chrom]...)
		}
		return data
	})))
	p.Run()
	if err = p.Err(); err != nil {
		return nil, err
	}
	// mpileup output is position sorted per chromosome; make sure the
	// pileup is, even for unsorted input.
	for _, piles := range pileup.Piles {
		ParallelSortByPos(piles)
	}
	return pileup, nil
}

// parsePile parses one mpileup line: chromosome, 1-based position,
// reference base, depth, read bases, and base qualities. samtools
// omits the bases and quals columns for positions without coverage.
func parsePile(line string) (utils.Symbol, Pile, error) {
	fields := strings.SplitN(line, "\t", 6)
	if len(fields) != 4 && len(fields) != 6 {
		return nil, Pile{}, fmt.Errorf("invalid pileup line %v", line)
	}
	chrom := utils.Intern(fields[0])
	pos, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return nil, Pile{}, errors.Wrapf(err, "invalid position in pileup line %v", line)
	}
	if len(fields[2]) != 1 {
		return nil, Pile{}, fmt.Errorf("invalid reference base in pileup line %v", line)
	}
	depth, err := strconv.ParseInt(fields[3], 10, 32)
	if err != nil {
		return nil, Pile{}, errors.Wrapf(err, "invalid depth in pileup line %v", line)
	}
	pile := Pile{
		Pos:   int32(pos),
		Ref:   upper(fields[2][0]),
		Depth: int32(depth),
	}
	if len(fields) == 6 {
		pile.Bases, pile.Quals = cleanBases(fields[4], fields[5])
	}
	return chrom, pile, nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// cleanBases removes the pileup markup from a read bases column: read
// start markers together with their mapping quality byte, read end
// markers, and insertion and deletion runs. Deletion placeholders and
// reference skips have an entry in the quals column, unlike the other
// markup, so they are removed together with their base quality to
// keep the remaining bases and qualities aligned.
func cleanBases(bases, quals string) (string, string) {
	var cleanedBases, cleanedQuals []byte
	q := 0
	for i := 0; i < len(bases); i++ {
		switch b := bases[i]; b {
		case '^':
			// the next byte is a mapping quality, not a base
			i++
		case '$':
		case '+', '-':
			n := 0
			j := i + 1
			for ; j < len(bases) && bases[j] >= '0' && bases[j] <= '9'; j++ {
				n = 10*n + int(bases[j]-'0')
			}
			if j > i+1 {
				i = j + n - 1
			}
		case '*', '<', '>':
			q++
		default:
			cleanedBases = append(cleanedBases, b)
			if q < len(quals) {
				cleanedQuals = append(cleanedQuals, quals[q])
			}
			q++
		}
	}
	return string(cleanedBases), string(cleanedQuals)
}
