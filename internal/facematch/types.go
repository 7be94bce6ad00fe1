// Package facematch labels face descriptors with the enrolled student they belong to.
package facematch

// LabeledDescriptor is the reference descriptor of one enrolled student.
type LabeledDescriptor struct {
	Label      string // student ID
	Name       string
	Descriptor []float32
}

// MatchResult is the outcome of matching one probe descriptor.
type MatchResult struct {
	Probe    []float32 `json:"-"`
	Label    string    `json:"label"` // student ID or UnknownLabel
	Distance float64   `json:"distance"`
}

// Known reports whether the probe matched an enrolled student.
func (r MatchResult) Known() bool {
	return r.Label != UnknownLabel && r.Label != ""
}

// Matcher finds the enrolled student nearest to a probe descriptor.
type Matcher interface {
	FindBestMatch(probe []float32) MatchResult
}

// MatcherFactory builds a Matcher over the given references.
type MatcherFactory func(refs []LabeledDescriptor, threshold float64) (Matcher, error)
