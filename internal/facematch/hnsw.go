package facematch

import (
	"errors"
	"math"

	"github.com/coder/hnsw"
)

// ErrNoReferences is returned when a matcher is built without usable descriptors.
var ErrNoReferences = errors.New("no reference descriptors")

// HNSWMatcher matches probes against reference descriptors using Euclidean
// distance. Up to ExactSearchLimit references are scanned linearly so the
// nearest one is always found; larger sets are indexed in an HNSW graph.
// It is immutable after construction and safe for concurrent use.
type HNSWMatcher struct {
	graph     *hnsw.Graph[string] // nil for exact matchers
	refs      []LabeledDescriptor
	dim       int
	count     int
	threshold float64
}

// NewHNSWMatcher builds a matcher from labeled descriptors. References whose
// dimension differs from the first usable one are skipped. A label listed
// twice keeps its last descriptor.
func NewHNSWMatcher(refs []LabeledDescriptor, threshold float64) (*HNSWMatcher, error) {
	if threshold <= 0 {
		threshold = DefaultDistanceThreshold
	}

	latest := make(map[string][]float32, len(refs))
	var order []string
	dim := 0
	for _, ref := range refs {
		if len(ref.Descriptor) == 0 || ref.Label == "" {
			continue
		}
		if dim == 0 {
			dim = len(ref.Descriptor)
		}
		if len(ref.Descriptor) != dim {
			continue
		}
		if _, seen := latest[ref.Label]; !seen {
			order = append(order, ref.Label)
		}
		latest[ref.Label] = ref.Descriptor
	}
	if len(order) == 0 {
		return nil, ErrNoReferences
	}

	m := &HNSWMatcher{
		refs:      make([]LabeledDescriptor, 0, len(order)),
		dim:       dim,
		count:     len(order),
		threshold: threshold,
	}
	for _, label := range order {
		m.refs = append(m.refs, LabeledDescriptor{Label: label, Descriptor: latest[label]})
	}
	if m.count <= ExactSearchLimit {
		return m, nil
	}

	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors)
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance
	for _, ref := range m.refs {
		g.Add(hnsw.MakeNode(ref.Label, ref.Descriptor))
	}
	m.graph = g
	return m, nil
}

// NewMatcher is a MatcherFactory backed by HNSWMatcher.
func NewMatcher(refs []LabeledDescriptor, threshold float64) (Matcher, error) {
	m, err := NewHNSWMatcher(refs, threshold)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// FindBestMatch returns the nearest reference label, or UnknownLabel when the
// nearest reference is farther than the threshold.
func (m *HNSWMatcher) FindBestMatch(probe []float32) MatchResult {
	result := MatchResult{Probe: probe, Label: UnknownLabel, Distance: math.Inf(1)}
	if len(probe) != m.dim {
		return result
	}

	consider := func(label string, descriptor []float32) {
		// Recompute exactly; the graph distance is float32.
		if d := EuclideanDistance(probe, descriptor); d < result.Distance {
			result.Distance = d
			result.Label = label
		}
	}
	if m.graph == nil {
		for _, ref := range m.refs {
			consider(ref.Label, ref.Descriptor)
		}
	} else {
		for _, n := range m.graph.Search(probe, HNSWCandidates) {
			consider(n.Key, n.Value)
		}
	}

	if result.Distance > m.threshold {
		result.Label = UnknownLabel
	}
	return result
}

// Count returns the number of indexed references.
func (m *HNSWMatcher) Count() int {
	return m.count
}

// Dim returns the descriptor dimension of the references.
func (m *HNSWMatcher) Dim() int {
	return m.dim
}

// Threshold returns the distance threshold.
func (m *HNSWMatcher) Threshold() float64 {
	return m.threshold
}
