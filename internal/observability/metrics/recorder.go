package metrics

import (
	"maps"
	"sync"
	"time"
)

// Point is a single recorded metric.
type Point struct {
	Name  string
	Value float64
	Tags  map[string]string
}

// Recorder is an in-memory statsd.Sink used by tests and the CLI's debug mode.
type Recorder struct {
	mu     sync.Mutex
	points []Point
}

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(Point{Name: name, Value: float64(value), Tags: maps.Clone(tags)})
}

func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(Point{Name: name, Value: float64(value) / float64(time.Millisecond), Tags: maps.Clone(tags)})
}

func (r *Recorder) add(p Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, p)
}

// Points returns a copy of everything recorded so far.
func (r *Recorder) Points() []Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Point, len(r.points))
	copy(out, r.points)
	return out
}

// Find returns recorded points with the given name.
func (r *Recorder) Find(name string) []Point {
	var out []Point
	for _, p := range r.Points() {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}
