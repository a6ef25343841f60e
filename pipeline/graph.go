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
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
	colors "gopkg.in/go-playground/colors.v1"
)

// planGraph builds the directed artifact-flow graph of a plan:
// vertices are step names, and an edge connects a step to a later
// step that consumes one of its output files. It verifies that every
// input of every step is either a configured input file or an output
// of an earlier step, and that no two steps declare the same output.
func planGraph(plan []*Step, conf *Config) (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	initial := map[string]bool{
		conf.ReadsR1:   true,
		conf.ReadsR2:   true,
		conf.Reference: true,
	}
	type link struct{ from, to string }
	producers := make(map[string]string)
	artifacts := make(map[link][]string)
	var links []link
	for _, step := range plan {
		if err := g.AddVertex(step.Name); err != nil {
			return nil, errors.Wrapf(err, "adding step %v", step.Name)
		}
		for _, input := range step.Inputs {
			if producer, ok := producers[input]; ok {
				l := link{from: producer, to: step.Name}
				if len(artifacts[l]) == 0 {
					links = append(links, l)
				}
				artifacts[l] = append(artifacts[l], filepath.Base(input))
				continue
			}
			if !initial[input] {
				return nil, fmt.Errorf("step %v consumes %v, which is neither a configured input nor produced by an earlier step", step.Name, input)
			}
		}
		for _, output := range step.Outputs {
			if producer, ok := producers[output]; ok {
				return nil, fmt.Errorf("steps %v and %v both declare output %v", producer, step.Name, output)
			}
			producers[output] = step.Name
		}
	}
	for _, l := range links {
		if err := g.AddEdge(l.from, l.to, graph.EdgeAttribute("label", strings.Join(artifacts[l], ", "))); err != nil {
			return nil, errors.Wrapf(err, "adding edge %v -> %v", l.from, l.to)
		}
	}
	return g, nil
}

const maxRGB = 240

// WriteDOT renders the artifact-flow graph of a plan in Graphviz DOT
// format. When step durations from a completed run are given, the
// step nodes are filled with a red to blue gradient from the slowest
// to the fastest step.
func WriteDOT(w io.Writer, plan []*Step, conf *Config, durations map[string]time.Duration) error {
	g, err := planGraph(plan, conf)
	if err != nil {
		return err
	}
	if len(durations) > 0 {
		var min, max time.Duration
		for _, d := range durations {
			if min == 0 || d < min {
				min = d
			}
			if d > max {
				max = d
			}
		}
		for name, d := range durations {
			fraction := 1.0
			if max > min {
				fraction = float64(d-min) / float64(max-min)
			}
			red := uint8(maxRGB * fraction)
			blue := uint8(maxRGB * (1 - fraction))
			fill, err := colors.RGB(red, 0, blue)
			if err != nil {
				return errors.Wrap(err, "computing step colour")
			}
			_, properties, err := g.VertexWithProperties(name)
			if err != nil {
				return errors.Wrapf(err, "looking up step %v", name)
			}
			properties.Attributes["style"] = "filled"
			properties.Attributes["fontcolor"] = "white"
			properties.Attributes["fillcolor"] = fill.ToHEX().String()
			properties.Attributes["xlabel"] = d.String()
		}
	}
	return errors.Wrap(draw.DOT(g, w), "rendering dot graph")
}
