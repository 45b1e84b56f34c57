package ports

import "go.trai.ch/smake/internal/core/domain"

// GraphLoader defines the interface for loading the target graph from a build description.
//
//go:generate go run go.uber.org/mock/mockgen -source=graph_loader.go -destination=mocks/mock_graph_loader.go -package=mocks
type GraphLoader interface {
	// Load reads the build description at path and returns the target graph.
	Load(path string) (*domain.Graph, error)
}
