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
	"strconv"
)

// A Step is one stage of the pipeline: the commands it runs, the
// artifact paths it requires, and the artifact paths it creates.
// Steps are plain data so that a plan can be inspected and verified
// before anything runs.
type Step struct {
	Name string
	// Commands holds a single command, or two commands of which the
	// first one's standard output is piped into the second one's
	// standard input.
	Commands []*Command
	// Inputs must exist when the step starts.
	Inputs []string
	// Outputs are created by the step; later steps may consume them.
	Outputs []string
}

// The names of the pipeline steps, in execution order.
const (
	QualityCheck = "QualityCheck"
	Trim         = "Trim"
	Align        = "Align"
	Sort         = "Sort"
	Deduplicate  = "Deduplicate"
)

// Plan returns the pipeline steps for the given configuration, in
// execution order. The step list and the tool command lines are fixed;
// only sample names, paths, thread counts, and memory sizes vary with
// the configuration.
func Plan(conf *Config) []*Step {
	threads := strconv.Itoa(conf.Threads)
	memory := fmt.Sprintf("-Xmx%vg", conf.MemoryGB)
	// The tabs are real tab characters; they reach the aligner without
	// passing through a shell.
	readGroup := "@RG\tID:" + conf.Sample + "\tSM:" + conf.Sample + "\tLB:" + conf.Sample + "\tPL:ILLUMINA"
	return []*Step{
		{
			Name: QualityCheck,
			Commands: []*Command{
				NewCommand("fastqc", "-t", threads, "-o", conf.QCDir(), conf.ReadsR1, conf.ReadsR2),
			},
			Inputs: []string{conf.ReadsR1, conf.ReadsR2},
		},
		{
			Name: Trim,
			Commands: []*Command{
				NewCommand("bbduk.sh",
					memory,
					"in1="+conf.ReadsR1,
					"in2="+conf.ReadsR2,
					"out1="+conf.TrimmedR1(),
					"out2="+conf.TrimmedR2(),
					"qtrim=rl",
					"trimq=20",
					"minlength=35",
					"threads="+threads),
			},
			Inputs:  []string{conf.ReadsR1, conf.ReadsR2},
			Outputs: []string{conf.TrimmedR1(), conf.TrimmedR2()},
		},
		{
			Name: Align,
			Commands: []*Command{
				NewCommand("bwa", "mem", "-M", "-t", threads, "-R", readGroup,
					conf.Reference, conf.TrimmedR1(), conf.TrimmedR2()),
				NewCommand("samtools", "view", "-b", "-q", "30", "-F", "4",
					"-@", threads, "-o", conf.RawBam(), "-"),
			},
			Inputs:  []string{conf.Reference, conf.TrimmedR1(), conf.TrimmedR2()},
			Outputs: []string{conf.RawBam()},
		},
		{
			Name: Sort,
			Commands: []*Command{
				NewCommand("samtools", "sort", "-@", threads, "-o", conf.SortedBam(), conf.RawBam()),
			},
			Inputs:  []string{conf.RawBam()},
			Outputs: []string{conf.SortedBam()},
		},
		{
			Name: Deduplicate,
			Commands: []*Command{
				NewCommand("picard",
					memory,
					"MarkDuplicates",
					"I="+conf.SortedBam(),
					"O="+conf.DedupBam(),
					"M="+conf.DedupMetrics(),
					"REMOVE_DUPLICATES=true",
					"VALIDATION_STRINGENCY=LENIENT"),
			},
			Inputs:  []string{conf.SortedBam()},
			Outputs: []string{conf.DedupBam(), conf.DedupMetrics()},
		},
	}
}
