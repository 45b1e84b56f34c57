package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/smake/internal/core/domain"
)

func TestUnitStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.UnitStatus
		isTerminal bool
	}{
		{"Queued", domain.UnitStatusQueued, false},
		{"Running", domain.UnitStatusRunning, false},
		{"Completed", domain.UnitStatusCompleted, true},
		{"Failed", domain.UnitStatusFailed, true},
		{"Skipped", domain.UnitStatusSkipped, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isTerminal, tt.status.IsTerminal())
		})
	}
}

func TestNormalizeUnitStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected domain.UnitStatus
	}{
		{"queued", domain.UnitStatusQueued},
		{"RUNNING", domain.UnitStatusRunning},
		{"completed", domain.UnitStatusCompleted},
		{"Failed", domain.UnitStatusFailed},
		{"skipped", domain.UnitStatusSkipped},
		{"cached", domain.UnitStatusQueued},
		{"", domain.UnitStatusQueued},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.NormalizeUnitStatus(tt.input))
		})
	}
}

func TestBuildSummary_Failed(t *testing.T) {
	summary := domain.BuildSummary{
		Results: []domain.UnitResult{
			{Target: domain.NewTargetName("ok"), Status: domain.UnitStatusCompleted, Duration: time.Second},
			{Target: domain.NewTargetName("bad"), Status: domain.UnitStatusCompleted, ExitCode: 2},
			{Target: domain.NewTargetName("never"), Status: domain.UnitStatusSkipped, ExitCode: -1,
				Err: errors.New("skipped")},
		},
	}

	failed := summary.Failed()
	if assert.Len(t, failed, 1) {
		assert.Equal(t, "bad", failed[0].Target.String())
	}
}
