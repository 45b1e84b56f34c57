// Package config loads build descriptions into target graphs.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/smake/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader implements ports.GraphLoader. The description format is selected by
// file extension: .yaml, .yml and .json use the targets schema, anything else
// is read as a Makefile.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the build description at path and returns its target graph.
func (l *Loader) Load(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigRead, err.Error()), "path", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		g, err := ParseTargets(data)
		if err != nil {
			return nil, zerr.With(err, "path", path)
		}
		return g, nil
	default:
		g, warnings, err := ParseMakefile(strings.NewReader(string(data)))
		if err != nil {
			return nil, zerr.With(err, "path", path)
		}
		for _, w := range warnings {
			l.logger.Warn(path + ":" + w)
		}
		return g, nil
	}
}
