// Package mock provides a scripted facematch.Matcher for testing.
package mock

import (
	"sync"

	"github.com/aakash670/smart-attendance/internal/facematch"
)

// ScriptedMatcher returns a scripted label for every probe. Probes are keyed by
// their first component, so tests can build probes with Probe(key).
type ScriptedMatcher struct {
	mu     sync.Mutex
	labels map[float32]string
	calls  int
}

// NewScriptedMatcher creates a matcher that labels Probe(key) with labels[key].
// Unscripted probes are labeled unknown.
func NewScriptedMatcher(labels map[float32]string) *ScriptedMatcher {
	return &ScriptedMatcher{labels: labels}
}

// Probe builds a probe descriptor recognized by the scripted matcher.
func Probe(key float32) []float32 {
	return []float32{key, 0, 0, 0}
}

// FindBestMatch returns the scripted label for the probe.
func (m *ScriptedMatcher) FindBestMatch(probe []float32) facematch.MatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	result := facematch.MatchResult{Probe: probe, Label: facematch.UnknownLabel, Distance: 1}
	if len(probe) == 0 {
		return result
	}
	if label, ok := m.labels[probe[0]]; ok {
		result.Label = label
		result.Distance = 0.1
	}
	return result
}

// Calls returns the number of FindBestMatch calls.
func (m *ScriptedMatcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Factory returns a facematch.MatcherFactory that always yields m.
func (m *ScriptedMatcher) Factory() facematch.MatcherFactory {
	return func(refs []facematch.LabeledDescriptor, threshold float64) (facematch.Matcher, error) {
		if len(refs) == 0 {
			return nil, facematch.ErrNoReferences
		}
		return m, nil
	}
}

var _ facematch.Matcher = (*ScriptedMatcher)(nil)
