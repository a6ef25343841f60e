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

package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/exascience/elpipe/pipeline"
)

// RunHelp is the help string for this command.
const RunHelp = "\nrun parameters:\n" +
	"elpipe run\n" +
	"-p sample-id\n" +
	"-t nr-of-threads\n" +
	"-m memory-gb\n" +
	"-r reference.fasta\n" +
	"-o output-dir\n" +
	"-1 reads-R1.fastq.gz\n" +
	"-2 reads-R2.fastq.gz\n" +
	"[--graph file]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// Run parses the command line for preparing a paired-end sample for
// variant calling, and executes the pipeline steps in order.
func Run() error {
	var (
		sample, reference, outputDir, readsR1, readsR2 string
		nrOfThreads, memoryGB                          int
		graphFile, profile, logPath                    string
		timed                                          bool
	)

	var flags flag.FlagSet

	flags.StringVar(&sample, "p", "", "sample name used for the output directory and the artifact names")
	flags.IntVar(&nrOfThreads, "t", 0, "number of threads passed through to the tools")
	flags.IntVar(&memoryGB, "m", 0, "heap size in gigabytes for the tools that run on a JVM")
	flags.StringVar(&reference, "r", "", "reference genome in FASTA format")
	flags.StringVar(&outputDir, "o", "", "base output directory")
	flags.StringVar(&readsR1, "1", "", "first file of the paired-end reads")
	flags.StringVar(&readsR2, "2", "", "second file of the paired-end reads")
	flags.StringVar(&graphFile, "graph", "", "write the executed pipeline as a Graphviz dot file")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file(s)")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 2, RunHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if sample == "" {
		sanityChecksFailed = true
		log.Println("Error: Missing sample name. Please add the -p option to your call.")
	}
	if nrOfThreads < 1 {
		sanityChecksFailed = true
		log.Println("Error: Invalid number of threads: ", nrOfThreads)
	}
	if memoryGB < 1 {
		sanityChecksFailed = true
		log.Println("Error: Invalid memory size: ", memoryGB)
	}
	if !checkExist("-r", reference) {
		sanityChecksFailed = true
	}
	if outputDir == "" {
		sanityChecksFailed = true
		log.Println("Error: Missing output directory. Please add the -o option to your call.")
	}
	if !checkExist("-1", readsR1) {
		sanityChecksFailed = true
	}
	if !checkExist("-2", readsR2) {
		sanityChecksFailed = true
	}
	if graphFile != "" && !checkCreate("--graph", graphFile) {
		sanityChecksFailed = true
	}
	if profile != "" && !checkCreate("--profile", profile) {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, RunHelp)
		os.Exit(1)
	}

	conf, err := pipeline.NewConfig(sample, nrOfThreads, memoryGB, reference, outputDir, readsR1, readsR2)
	if err != nil {
		return err
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " run -p ", sample, " -t ", nrOfThreads, " -m ", memoryGB, " -r ", reference, " -o ", outputDir, " -1 ", readsR1, " -2 ", readsR2)
	if graphFile != "" {
		fmt.Fprint(&command, " --graph ", graphFile)
	}
	if timed {
		fmt.Fprint(&command, " --timed")
	}
	if profile != "" {
		fmt.Fprint(&command, " --profile ", profile)
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	// executing command

	log.Println("Executing command:\n", command.String())

	var result *pipeline.Result
	var runErr error
	timedRun(timed, profile, "Running pipeline.", 1, func() {
		result, runErr = pipeline.Run(conf)
	})
	if runErr != nil {
		return runErr
	}

	if graphFile != "" {
		if err := writeGraphFile(conf, result, graphFile); err != nil {
			return err
		}
	}
	if err := pipeline.WriteReport(result, conf.ReportPath()); err != nil {
		return err
	}
	log.Println("Run report written to", conf.ReportPath())
	log.Println("Pipeline done. Final artifact:", result.FinalArtifact)
	return nil
}

func writeGraphFile(conf *pipeline.Config, result *pipeline.Result, filename string) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := f.Close(); err == nil {
			err = nerr
		}
	}()
	if err := pipeline.WriteDOT(f, pipeline.Plan(conf), conf, result.StepDurations()); err != nil {
		return err
	}
	log.Println("Pipeline graph written to", filename)
	return nil
}
