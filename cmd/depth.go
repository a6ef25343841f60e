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
	"path/filepath"
	"strings"

	"github.com/exascience/elpipe/genes"
	"github.com/exascience/elpipe/pileup"
	"github.com/exascience/elpipe/pipeline"
)

// DepthHelp is the help string for this command.
const DepthHelp = "\ndepth parameters:\n" +
	"elpipe depth\n" +
	"-i input.bam\n" +
	"-r reference.fasta\n" +
	"-b targets.bed\n" +
	"-o output-dir\n" +
	"[-g gene-list.tsv]\n" +
	"[--prefix name]\n" +
	"[--overwrite]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// Depth parses the command line for computing depth of coverage
// statistics over the target regions of an alignment, and optionally a
// per-gene depth table.
func Depth() error {
	var (
		inputBam, reference, targetBed, outputDir string
		geneList, prefix, profile, logPath        string
		overwrite, timed                          bool
	)

	var flags flag.FlagSet

	flags.StringVar(&inputBam, "i", "", "alignment to compute the coverage for")
	flags.StringVar(&reference, "r", "", "reference genome in FASTA format")
	flags.StringVar(&targetBed, "b", "", "target regions in BED format")
	flags.StringVar(&outputDir, "o", "", "base output directory")
	flags.StringVar(&geneList, "g", "", "gene list for the per-gene depth table")
	flags.StringVar(&prefix, "prefix", "", "prefix for the output files")
	flags.BoolVar(&overwrite, "overwrite", false, "overwrite an existing MPILEUP directory")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file(s)")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 2, DepthHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("-i", inputBam) {
		sanityChecksFailed = true
	}
	if !checkExist("-r", reference) {
		sanityChecksFailed = true
	}
	if !checkExist("-b", targetBed) {
		sanityChecksFailed = true
	}
	if outputDir == "" {
		sanityChecksFailed = true
		log.Println("Error: Missing output directory. Please add the -o option to your call.")
	}
	if geneList != "" && !checkExist("-g", geneList) {
		sanityChecksFailed = true
	}
	if profile != "" && !checkCreate("--profile", profile) {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, DepthHelp)
		os.Exit(1)
	}

	if prefix == "" {
		base := filepath.Base(inputBam)
		prefix = strings.TrimSuffix(base, filepath.Ext(base))
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " depth -i ", inputBam, " -r ", reference, " -b ", targetBed, " -o ", outputDir)
	if geneList != "" {
		fmt.Fprint(&command, " -g ", geneList)
	}
	fmt.Fprint(&command, " --prefix ", prefix)
	if overwrite {
		fmt.Fprint(&command, " --overwrite")
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

	mpileupDir := filepath.Join(outputDir, "MPILEUP")
	if _, err := os.Stat(mpileupDir); err == nil {
		if !overwrite {
			return fmt.Errorf("output directory %v already exists; remove it or pass --overwrite", mpileupDir)
		}
		log.Println("Overwriting", mpileupDir)
		if err := os.RemoveAll(mpileupDir); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(mpileupDir, 0700); err != nil {
		return err
	}
	mpileupFile := filepath.Join(mpileupDir, prefix+".mpileup")

	mpileup := pipeline.NewCommand("samtools",
		"mpileup", "-a",
		"--fasta-ref", reference,
		inputBam,
		"--min-MQ", "1",
		"--positions", targetBed,
		"--output", mpileupFile,
	)

	var runErr error
	timedRun(timed, profile, "Running mpileup.", 1, func() {
		runErr = mpileup.Run()
	})
	if runErr != nil {
		return runErr
	}

	var pile *pileup.Pileup
	var parseErr error
	timedRun(timed, profile, "Parsing pileup.", 2, func() {
		pile, parseErr = pileup.ParsePileup(mpileupFile)
	})
	if parseErr != nil {
		return parseErr
	}

	log.Printf("Mean target depth: %.2f.\n", pile.MeanDepth())
	log.Printf("Uniformity of coverage: %.4f.\n", pile.Uniformity())

	if geneList != "" {
		gs, err := genes.ParseGenes(geneList)
		if err != nil {
			return err
		}
		tableFile := filepath.Join(mpileupDir, prefix+".gene_depth.tsv")
		var tableErr error
		timedRun(timed, profile, "Computing gene depth table.", 3, func() {
			tableErr = genes.WriteDepthTable(genes.DepthTable(gs, pile), tableFile)
		})
		if tableErr != nil {
			return tableErr
		}
		log.Println("Gene depth table written to", tableFile)
	}
	return nil
}
