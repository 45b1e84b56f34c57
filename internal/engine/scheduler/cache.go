package scheduler

import (
	"sync"

	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/smake/internal/core/ports"
)

// unit is the execution unit of a single target within one build.
type unit struct {
	target domain.TargetName
	depth  int
	deps   []*unit

	indicator ports.Indicator

	// done is closed once result is final.
	done   chan struct{}
	result domain.UnitResult
}

func (u *unit) dependencyNames() []domain.TargetName {
	names := make([]domain.TargetName, len(u.deps))
	for i, d := range u.deps {
		names[i] = d.target
	}
	return names
}

// executionCache maps each target to the one unit created for it during a build.
// Entries are written once and never removed.
type executionCache struct {
	mu         sync.Mutex
	units      map[domain.TargetName]*unit
	registered []*unit
}

func newExecutionCache() *executionCache {
	return &executionCache{
		units: make(map[domain.TargetName]*unit),
	}
}

// reserve returns the unit for name, creating it at depth if it does not exist yet.
// The boolean reports whether the unit was created by this call.
func (c *executionCache) reserve(name domain.TargetName, depth int) (*unit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u, ok := c.units[name]; ok {
		return u, false
	}
	u := &unit{
		target: name,
		depth:  depth,
		done:   make(chan struct{}),
		result: domain.UnitResult{Target: name, Status: domain.UnitStatusQueued, ExitCode: -1},
	}
	c.units[name] = u
	return u, true
}

// register records u as ready to start. Outside of a cycle, every dependency of u
// is registered before u.
func (c *executionCache) register(u *unit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registered = append(c.registered, u)
}

// snapshot returns the registered units in registration order.
func (c *executionCache) snapshot() []*unit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*unit(nil), c.registered...)
}
