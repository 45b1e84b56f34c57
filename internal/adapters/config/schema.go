package config

import (
	"strings"

	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Description is the structured build description:
//
//	targets:
//	  all: [app, docs]
//	  app: [lib]
//	  lib: []
//
// Targets is kept as a node so that key order survives decoding.
type Description struct {
	Version string    `yaml:"version"`
	Targets yaml.Node `yaml:"targets"`
}

// ParseTargets decodes a YAML or JSON description into a graph. Targets keep
// their declaration order; dependencies that are never declared become leaves.
func ParseTargets(data []byte) (*domain.Graph, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrParse, "invalid document"), "reason", err.Error())
	}

	node := &desc.Targets
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return domain.NewGraph(), nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, parseError(node, "targets must be a mapping")
	}

	g := domain.NewGraph()
	var referenced []domain.TargetName
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return nil, parseError(key, "target name must be a non-empty string")
		}

		deps, err := dependencies(value)
		if err != nil {
			return nil, err
		}
		if err := g.AddTarget(domain.NewTargetName(key.Value), deps); err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrParse, err.Error()), "line", key.Line)
		}
		referenced = append(referenced, deps...)
	}

	for _, dep := range referenced {
		g.EnsureTarget(dep)
	}
	return g, nil
}

func dependencies(node *yaml.Node) ([]domain.TargetName, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return domain.TargetNames(strings.Fields(node.Value)...), nil
	case yaml.SequenceNode:
		deps := make([]domain.TargetName, 0, len(node.Content))
		seen := make(map[string]bool, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode || item.Value == "" {
				return nil, parseError(item, "dependency must be a non-empty string")
			}
			if seen[item.Value] {
				continue
			}
			seen[item.Value] = true
			deps = append(deps, domain.NewTargetName(item.Value))
		}
		return deps, nil
	default:
		return nil, parseError(node, "dependencies must be a list")
	}
}

func parseError(node *yaml.Node, msg string) error {
	return zerr.With(zerr.Wrap(domain.ErrParse, msg), "line", node.Line)
}
