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
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/exascience/elpipe/internal"
)

// stderrTailSize is the number of bytes of child stderr retained for
// error reports.
const stderrTailSize = 4096

// A Command is the name of an external tool plus its argument list.
// The arguments are handed to the tool verbatim; no shell is
// involved, so paths with spaces and read-group strings with tab
// characters need no quoting.
type Command struct {
	Tool string
	Args []string
}

// NewCommand returns a Command for the given tool and arguments.
func NewCommand(tool string, args ...string) *Command {
	return &Command{Tool: tool, Args: args}
}

// String renders the command line for logs and error reports.
func (c *Command) String() string {
	if len(c.Args) == 0 {
		return c.Tool
	}
	return c.Tool + " " + strings.Join(c.Args, " ")
}

// Run executes the command, forwarding its standard error stream to
// the parent's standard error. On a non-zero exit it returns an error
// that includes the exit code and the stderr tail of the child.
func (c *Command) Run() error {
	cmd := exec.Command(c.Tool, c.Args...)
	tail := internal.NewTailWriter(stderrTailSize)
	cmd.Stderr = io.MultiWriter(os.Stderr, tail)
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return errors.Errorf("%v: exit code %v\nstderr tail:\n%v", c, exitErr.ExitCode(), strings.TrimSpace(tail.String()))
		}
		return errors.Wrapf(err, "running %v", c)
	}
	return nil
}
