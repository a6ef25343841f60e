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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/exascience/elpipe/utils"
)

// A Gene is a named region of the reference genome, with inclusive
// 1-based start and end positions.
type Gene struct {
	Symbol     string
	Chrom      utils.Symbol
	Start, End int32
}

// The columns of a gene list that ParseGenes looks for.
var geneListColumns = [...]string{"Symbol", "Chrom", "Start", "End"}

// ParseGenes parses a gene list: a tab-separated file with a header
// line, in which the Symbol, Chrom, Start, and End columns are
// located by name. Other columns are ignored. The genes keep the
// order of the file.
func ParseGenes(filename string) (genes []Gene, err error) {
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
				genes, err = nil, nerr
			}
		}
	}()
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%v is not a gene list - missing header", filename)
	}
	header := strings.Split(scanner.Text(), "\t")
	columns := make(map[string]int)
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	var fields [len(geneListColumns)]int
	needed := 0
	for i, name := range geneListColumns {
		index, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("%v is not a gene list - missing %v column", filename, name)
		}
		fields[i] = index
		if index+1 > needed {
			needed = index + 1
		}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		data := strings.Split(line, "\t")
		if len(data) < needed {
			return nil, fmt.Errorf("invalid gene list line %v", line)
		}
		start, err := strconv.ParseInt(data[fields[2]], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid start position in gene list line %v", line)
		}
		end, err := strconv.ParseInt(data[fields[3]], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid end position in gene list line %v", line)
		}
		if end < start {
			return nil, fmt.Errorf("gene region ends before it starts in gene list line %v", line)
		}
		genes = append(genes, Gene{
			Symbol: data[fields[0]],
			Chrom:  utils.Intern(data[fields[1]]),
			Start:  int32(start),
			End:    int32(end),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return genes, nil
}
