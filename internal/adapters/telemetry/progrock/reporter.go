// Package progrock reports build progress as a progrock vertex stream.
package progrock

import (
	"io"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/smake/internal/core/ports"
)

// labelMarker precedes the name of every target below the root.
const labelMarker = "↱ "

// Reporter implements ports.Reporter with one progrock vertex per execution unit.
// The vertex of a unit is recorded twice: once when queued and again when its
// recipe starts, which is what renderers use to tell the two states apart.
type Reporter struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

var _ ports.Reporter = (*Reporter)(nil)

// NewReporter creates a Reporter writing to w.
func NewReporter(w progrock.Writer) *Reporter {
	return &Reporter{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Queue records a queued vertex for target whose inputs are its dependencies.
func (r *Reporter) Queue(target domain.TargetName, deps []domain.TargetName, depth int) ports.Indicator {
	inputs := make([]digest.Digest, len(deps))
	for i, dep := range deps {
		inputs[i] = VertexID(dep)
	}

	ind := &indicator{
		rec:    r.rec,
		id:     VertexID(target),
		name:   Label(target.String(), depth),
		inputs: inputs,
	}
	ind.vertex = r.rec.Vertex(ind.id, ind.name, progrock.WithInputs(inputs...))
	return ind
}

// Close closes the underlying writer.
func (r *Reporter) Close() error {
	return r.w.Close()
}

// VertexID returns the vertex digest of a target.
func VertexID(target domain.TargetName) digest.Digest {
	return digest.FromString(target.String())
}

// Label renders a target name indented by the depth at which it was discovered.
func Label(name string, depth int) string {
	if depth == 0 {
		return name
	}
	return strings.Repeat(" ", depth-1) + labelMarker + name
}

// TargetOf recovers the target name from a label.
func TargetOf(label string) string {
	return strings.TrimPrefix(strings.TrimLeft(label, " "), labelMarker)
}

type indicator struct {
	rec    *progrock.Recorder
	id     digest.Digest
	name   string
	inputs []digest.Digest

	mu     sync.Mutex
	vertex *progrock.VertexRecorder
}

func (i *indicator) Start() {
	v := i.rec.Vertex(i.id, i.name, progrock.WithInputs(i.inputs...))
	i.mu.Lock()
	i.vertex = v
	i.mu.Unlock()
}

func (i *indicator) current() *progrock.VertexRecorder {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.vertex
}

func (i *indicator) Stdout() io.Writer { return i.current().Stdout() }

func (i *indicator) Stderr() io.Writer { return i.current().Stderr() }

func (i *indicator) Complete(err error) {
	i.current().Done(err)
}
