package pipeline

import (
	"fmt"
	"strings"
)

// A ValidationError reports a configuration parameter that does not
// satisfy the constraints checked by NewConfig.
type ValidationError struct {
	Option string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v: %v", e.Option, e.Reason)
}

// A StepError reports a pipeline step whose child process exited with
// a non-zero exit code. Stderr holds the tail of the standard error
// stream of the failing process.
type StepError struct {
	Step     string
	Command  string
	ExitCode int
	Stderr   string
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("step %v: %v: exit code %v", e.Step, e.Command, e.ExitCode)
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg += "\nstderr tail:\n" + tail
	}
	return msg
}

// Prerequisite kinds reported by PrerequisiteError.
const (
	MissingInput  = "input"
	MissingOutput = "output"
	MissingTool   = "tool"
)

// A PrerequisiteError reports a file or tool that a pipeline step
// needs but that is absent when the step is about to run. A missing
// input file of a step whose producing step exited successfully means
// the producer silently failed.
type PrerequisiteError struct {
	Step string
	Kind string
	Path string
}

func (e *PrerequisiteError) Error() string {
	switch e.Kind {
	case MissingTool:
		return fmt.Sprintf("step %v: required tool %v not found on PATH", e.Step, e.Path)
	case MissingOutput:
		return fmt.Sprintf("step %v: expected output file %v was not created", e.Step, e.Path)
	default:
		return fmt.Sprintf("step %v: required input file %v does not exist", e.Step, e.Path)
	}
}
