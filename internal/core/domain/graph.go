// Package domain contains the core domain models of the target dependency graph.
package domain

import (
	"bytes"
	"encoding/json"
	"iter"
	"strings"

	"go.trai.ch/zerr"
)

// Graph maps every target to the ordered list of its direct dependencies.
// The insertion order of targets is preserved; the first target added is the default target.
// A Graph is built once and must not be mutated after it has been handed to the scheduler.
type Graph struct {
	deps  map[TargetName][]TargetName
	order []TargetName
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		deps: make(map[TargetName][]TargetName),
	}
}

// AddTarget adds a target with its direct dependencies.
// It returns an error if a target with the same name already exists.
func (g *Graph) AddTarget(name TargetName, deps []TargetName) error {
	if _, exists := g.deps[name]; exists {
		return zerr.With(ErrTargetAlreadyExists, "target", name.String())
	}
	g.deps[name] = append([]TargetName(nil), deps...)
	g.order = append(g.order, name)
	return nil
}

// EnsureTarget adds name as a leaf target unless it is already present.
func (g *Graph) EnsureTarget(name TargetName) {
	if _, exists := g.deps[name]; exists {
		return
	}
	g.deps[name] = nil
	g.order = append(g.order, name)
}

// HasTarget reports whether name is a target of the graph.
func (g *Graph) HasTarget(name TargetName) bool {
	_, ok := g.deps[name]
	return ok
}

// Dependencies returns the direct dependencies of name in declaration order.
// The returned slice is shared with the graph and must not be modified.
func (g *Graph) Dependencies(name TargetName) ([]TargetName, bool) {
	deps, ok := g.deps[name]
	return deps, ok
}

// DefaultTarget returns the first target that was added to the graph.
func (g *Graph) DefaultTarget() (TargetName, error) {
	if len(g.order) == 0 {
		return TargetName{}, ErrEmptyGraph
	}
	return g.order[0], nil
}

// TargetCount returns the number of targets in the graph.
func (g *Graph) TargetCount() int {
	return len(g.order)
}

// Targets returns an iterator over all targets in insertion order.
func (g *Graph) Targets() iter.Seq[TargetName] {
	return func(yield func(TargetName) bool) {
		for _, name := range g.order {
			if !yield(name) {
				return
			}
		}
	}
}

// Validate checks that every dependency refers to a known target and that the
// graph is acyclic. The scheduler never calls it; callers opt in before building.
func (g *Graph) Validate() error {
	visited := make(map[TargetName]int, len(g.order)) // 0: unvisited, 1: visiting, 2: visited
	var path []TargetName

	var visit func(u TargetName) error
	visit = func(u TargetName) error {
		visited[u] = 1
		path = append(path, u)

		deps, exists := g.deps[u]
		if !exists {
			return zerr.With(ErrMissingDependency, "dependency", u.String())
		}

		for _, dep := range deps {
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		return nil
	}

	for _, name := range g.order {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []TargetName, dep TargetName) error {
	startIdx := 0
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}

	parts := make([]string, 0, len(path)-startIdx+1)
	for _, node := range path[startIdx:] {
		parts = append(parts, node.String())
	}
	parts = append(parts, dep.String())
	return zerr.With(ErrCycleDetected, "cycle", strings.Join(parts, " -> "))
}

// MarshalJSON encodes the graph as an object keyed by target name, in insertion
// order, whose values are arrays of dependency names.
func (g *Graph) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name.String())
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(Strings(g.deps[name]))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
