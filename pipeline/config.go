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

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/exascience/elpipe/internal"
)

// A Config holds the validated parameters of a pipeline run.
// Construct it with NewConfig and treat it as read-only afterwards.
type Config struct {
	// Sample name, used for the output directory and artifact names.
	Sample string
	// Number of threads passed through to the tools.
	Threads int
	// Heap size in gigabytes for the tools that run on a JVM.
	MemoryGB int
	// Reference genome in FASTA format.
	Reference string
	// Base output directory.
	OutputDir string
	// Paired-end read files.
	ReadsR1, ReadsR2 string
}

// NewConfig validates the given pipeline parameters and returns a
// Config with all paths made absolute. It returns a *ValidationError
// when a parameter is missing, out of range, or does not refer to an
// existing file.
func NewConfig(sample string, threads, memoryGB int, reference, outputDir, readsR1, readsR2 string) (*Config, error) {
	if sample == "" {
		return nil, &ValidationError{Option: "sample", Reason: "missing sample name"}
	}
	if strings.ContainsRune(sample, filepath.Separator) {
		return nil, &ValidationError{Option: "sample", Reason: fmt.Sprintf("sample name %v contains a path separator", sample)}
	}
	if threads < 1 {
		return nil, &ValidationError{Option: "threads", Reason: fmt.Sprintf("invalid number of threads %v", threads)}
	}
	if memoryGB < 1 {
		return nil, &ValidationError{Option: "memory-gb", Reason: fmt.Sprintf("invalid memory size %v", memoryGB)}
	}
	reference, err := existingFile("reference", reference)
	if err != nil {
		return nil, err
	}
	readsR1, err = existingFile("reads-R1", readsR1)
	if err != nil {
		return nil, err
	}
	readsR2, err = existingFile("reads-R2", readsR2)
	if err != nil {
		return nil, err
	}
	if outputDir == "" {
		return nil, &ValidationError{Option: "output-dir", Reason: "missing directory name"}
	}
	outputDir, err = internal.FullPathname(outputDir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving output directory %v", outputDir)
	}
	return &Config{
		Sample:    sample,
		Threads:   threads,
		MemoryGB:  memoryGB,
		Reference: reference,
		OutputDir: outputDir,
		ReadsR1:   readsR1,
		ReadsR2:   readsR2,
	}, nil
}

func existingFile(option, filename string) (string, error) {
	if filename == "" {
		return "", &ValidationError{Option: option, Reason: "missing filename"}
	}
	full, err := internal.FullPathname(filename)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %v", filename)
	}
	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return "", &ValidationError{Option: option, Reason: fmt.Sprintf("file %v does not exist", full)}
	}
	if err != nil {
		return "", errors.Wrapf(err, "accessing %v", full)
	}
	if info.IsDir() {
		return "", &ValidationError{Option: option, Reason: fmt.Sprintf("%v is a directory", full)}
	}
	return full, nil
}

// SampleDir returns the per-sample output directory.
func (conf *Config) SampleDir() string {
	return filepath.Join(conf.OutputDir, conf.Sample)
}

// QCDir returns the directory for the quality reports and the
// trimmed read files.
func (conf *Config) QCDir() string {
	return filepath.Join(conf.SampleDir(), "FASTQC")
}

// BamDir returns the directory for the alignment artifacts.
func (conf *Config) BamDir() string {
	return filepath.Join(conf.SampleDir(), "BAM")
}

// TrimmedR1 returns the path of the quality-trimmed first read file.
func (conf *Config) TrimmedR1() string {
	return filepath.Join(conf.QCDir(), conf.Sample+".trimmed.R1.fastq.gz")
}

// TrimmedR2 returns the path of the quality-trimmed second read file.
func (conf *Config) TrimmedR2() string {
	return filepath.Join(conf.QCDir(), conf.Sample+".trimmed.R2.fastq.gz")
}

// RawBam returns the path of the unsorted alignment.
func (conf *Config) RawBam() string {
	return filepath.Join(conf.BamDir(), conf.Sample+".bam")
}

// SortedBam returns the path of the coordinate-sorted alignment.
func (conf *Config) SortedBam() string {
	return filepath.Join(conf.BamDir(), conf.Sample+".sorted.bam")
}

// DedupBam returns the path of the deduplicated sorted alignment,
// the final artifact of the pipeline.
func (conf *Config) DedupBam() string {
	return filepath.Join(conf.BamDir(), conf.Sample+".dedup.sorted.bam")
}

// DedupMetrics returns the path of the duplication metrics file that
// accompanies the final artifact.
func (conf *Config) DedupMetrics() string {
	return conf.DedupBam() + ".metrics"
}

// ReportPath returns the path of the run report.
func (conf *Config) ReportPath() string {
	return filepath.Join(conf.SampleDir(), conf.Sample+".run.json")
}
