package facematch

// HNSW graph parameters for per-class descriptor graphs. Classes are small, so
// the search pool covers the whole graph in practice.
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	HNSWEfSearch = 100

	// HNSWCandidates is how many neighbors are requested before picking the
	// exact nearest by recomputed distance.
	HNSWCandidates = 5

	// ExactSearchLimit is the largest reference set matched by a linear scan.
	// Larger sets go through the graph, whose search is approximate.
	ExactSearchLimit = HNSWEfSearch
)

// DefaultDistanceThreshold is the maximum Euclidean distance between a probe
// and a reference descriptor for them to be considered the same person.
const DefaultDistanceThreshold = 0.6

// UnknownLabel is the label of a probe with no reference within the threshold.
const UnknownLabel = "unknown"
