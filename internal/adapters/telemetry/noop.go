// Package telemetry provides progress reporters for build runs.
package telemetry

import (
	"io"

	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/smake/internal/core/ports"
)

// NoOpReporter is a no-op implementation of ports.Reporter.
type NoOpReporter struct{}

// NewNoOpReporter creates a new NoOpReporter.
func NewNoOpReporter() *NoOpReporter {
	return &NoOpReporter{}
}

// Queue returns a no-op indicator.
func (r *NoOpReporter) Queue(_ domain.TargetName, _ []domain.TargetName, _ int) ports.Indicator {
	return &NoOpIndicator{}
}

// Close does nothing.
func (r *NoOpReporter) Close() error { return nil }

// NoOpIndicator is a no-op implementation of ports.Indicator.
type NoOpIndicator struct{}

// Start does nothing.
func (i *NoOpIndicator) Start() {}

// Stdout discards recipe output.
func (i *NoOpIndicator) Stdout() io.Writer { return io.Discard }

// Stderr discards recipe output.
func (i *NoOpIndicator) Stderr() io.Writer { return io.Discard }

// Complete does nothing.
func (i *NoOpIndicator) Complete(_ error) {}
