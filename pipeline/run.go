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
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/exascience/elpipe/internal"
	"github.com/exascience/elpipe/utils"
)

// A StepResult records one executed step for the run report.
type StepResult struct {
	Name     string        `json:"name"`
	Commands []string      `json:"commands"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// A Result describes a completed pipeline run.
type Result struct {
	RunID         string       `json:"run_id"`
	Program       string       `json:"program"`
	Version       string       `json:"version"`
	Sample        string       `json:"sample"`
	Started       time.Time    `json:"started"`
	Finished      time.Time    `json:"finished"`
	Steps         []StepResult `json:"steps"`
	FinalArtifact string       `json:"final_artifact"`
}

// StepDurations returns the per-step wall-clock times of the run,
// keyed by step name.
func (r *Result) StepDurations() map[string]time.Duration {
	durations := make(map[string]time.Duration, len(r.Steps))
	for _, s := range r.Steps {
		durations[s.Name] = s.Elapsed
	}
	return durations
}

// Run executes the pipeline plan for the given configuration. It
// verifies the artifact flow of the plan, creates the output
// directories, and checks that all required tools can be resolved
// before the first child process is spawned. The steps then run
// strictly in order, each one a blocking child process, with the
// declared inputs of a step checked immediately before it starts.
// The first failure stops the run; nothing is retried, and artifacts
// of completed steps are left in place. On success, the returned
// Result holds the path of the deduplicated sorted BAM file as its
// final artifact.
func Run(conf *Config) (*Result, error) {
	plan := Plan(conf)
	if _, err := planGraph(plan, conf); err != nil {
		return nil, err
	}
	id, err := uuid.NewUUID()
	if err != nil {
		return nil, errors.Wrap(err, "creating run id")
	}
	for _, dir := range []string{conf.QCDir(), conf.BamDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, errors.Wrapf(err, "creating directory %v", dir)
		}
	}
	if err := checkTools(plan); err != nil {
		return nil, err
	}
	result := &Result{
		RunID:   id.String(),
		Program: utils.ProgramName,
		Version: utils.ProgramVersion,
		Sample:  conf.Sample,
		Started: time.Now(),
	}
	for _, step := range plan {
		for _, input := range step.Inputs {
			if _, err := os.Stat(input); err != nil {
				return nil, &PrerequisiteError{Step: step.Name, Kind: MissingInput, Path: input}
			}
		}
		log.Println("Executing step", step.Name+":", renderCommands(step))
		start := time.Now()
		if err := runStep(step); err != nil {
			return nil, err
		}
		result.Steps = append(result.Steps, StepResult{
			Name:     step.Name,
			Commands: commandStrings(step),
			Elapsed:  time.Since(start),
		})
	}
	final := conf.DedupBam()
	if _, err := os.Stat(final); err != nil {
		return nil, &PrerequisiteError{Step: Deduplicate, Kind: MissingOutput, Path: final}
	}
	result.Finished = time.Now()
	result.FinalArtifact = final
	return result, nil
}

// checkTools resolves every tool of the plan on PATH, so that a
// missing installation is reported before any child process runs.
func checkTools(plan []*Step) error {
	seen := make(map[string]bool)
	for _, step := range plan {
		for _, c := range step.Commands {
			if seen[c.Tool] {
				continue
			}
			seen[c.Tool] = true
			if _, err := exec.LookPath(c.Tool); err != nil {
				return &PrerequisiteError{Step: step.Name, Kind: MissingTool, Path: c.Tool}
			}
		}
	}
	return nil
}

func commandStrings(step *Step) []string {
	strs := make([]string, len(step.Commands))
	for i, c := range step.Commands {
		strs[i] = c.String()
	}
	return strs
}

func renderCommands(step *Step) string {
	return strings.Join(commandStrings(step), " | ")
}

// runStep runs the commands of a step and waits for all of them.
// When the step has two commands, the first one's standard output is
// connected to the second one's standard input, and both children
// run concurrently. A non-zero exit is reported as a *StepError
// attributed to the failing command.
func runStep(step *Step) error {
	cmds := make([]*exec.Cmd, len(step.Commands))
	tails := make([]*internal.TailWriter, len(step.Commands))
	for i, c := range step.Commands {
		cmds[i] = exec.Command(c.Tool, c.Args...)
		tails[i] = internal.NewTailWriter(stderrTailSize)
		cmds[i].Stderr = io.MultiWriter(os.Stderr, tails[i])
	}
	if len(cmds) == 2 {
		pipe, err := cmds[0].StdoutPipe()
		if err != nil {
			return errors.Wrapf(err, "step %v: creating pipe", step.Name)
		}
		cmds[1].Stdin = pipe
	}
	for i, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			return errors.Wrapf(err, "step %v: starting %v", step.Name, step.Commands[i].Tool)
		}
	}
	var g errgroup.Group
	for i := range cmds {
		i := i
		g.Go(func() error {
			if err := cmds[i].Wait(); err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					return &StepError{
						Step:     step.Name,
						Command:  step.Commands[i].String(),
						ExitCode: exitErr.ExitCode(),
						Stderr:   strings.TrimSpace(tails[i].String()),
					}
				}
				return errors.Wrapf(err, "step %v: waiting for %v", step.Name, step.Commands[i].Tool)
			}
			return nil
		})
	}
	return g.Wait()
}
