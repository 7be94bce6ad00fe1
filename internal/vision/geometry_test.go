package vision

import (
	"math"
	"testing"
)

func TestComputeIoU(t *testing.T) {
	tests := []struct {
		name     string
		bbox1    []float64
		bbox2    []float64
		expected float64
	}{
		{
			name:     "identical boxes",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{0, 0, 10, 10},
			expected: 1.0,
		},
		{
			name:     "no overlap",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{20, 20, 30, 30},
			expected: 0.0,
		},
		{
			name:     "partial overlap",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{5, 5, 15, 15},
			expected: 25.0 / 175.0,
		},
		{
			name:     "one inside other",
			bbox1:    []float64{0, 0, 20, 20},
			bbox2:    []float64{5, 5, 15, 15},
			expected: 100.0 / 400.0,
		},
		{
			name:     "invalid bbox1",
			bbox1:    []float64{0, 0, 10},
			bbox2:    []float64{0, 0, 10, 10},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeIoU(tt.bbox1, tt.bbox2)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("ComputeIoU(%v, %v) = %v, want %v", tt.bbox1, tt.bbox2, result, tt.expected)
			}
		})
	}
}

func TestToRelative(t *testing.T) {
	tests := []struct {
		name     string
		bbox     []float64
		width    int
		height   int
		expected []float64
	}{
		{"simple", []float64{100, 200, 300, 400}, 1000, 1000, []float64{0.1, 0.2, 0.3, 0.4}},
		{"full frame", []float64{0, 0, 640, 480}, 640, 480, []float64{0, 0, 1, 1}},
		{"invalid bbox", []float64{100, 200}, 1000, 1000, []float64{100, 200}},
		{"zero width", []float64{1, 2, 3, 4}, 0, 100, []float64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToRelative(tt.bbox, tt.width, tt.height)
			if len(result) != len(tt.expected) {
				t.Fatalf("ToRelative() length = %d, want %d", len(result), len(tt.expected))
			}
			for i := range result {
				if math.Abs(result[i]-tt.expected[i]) > 0.0001 {
					t.Errorf("ToRelative()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestSuppressOverlaps(t *testing.T) {
	faces := []Face{
		{BBox: []float64{0, 0, 10, 10}, Score: 0.7},
		{BBox: []float64{1, 1, 11, 11}, Score: 0.9}, // same face, better score
		{BBox: []float64{50, 50, 60, 60}, Score: 0.8},
	}

	kept := SuppressOverlaps(faces, OverlapThreshold)

	if len(kept) != 2 {
		t.Fatalf("expected 2 faces after suppression, got %d", len(kept))
	}
	if kept[0].Score != 0.9 || kept[1].Score != 0.8 {
		t.Errorf("unexpected order/scores: %v, %v", kept[0].Score, kept[1].Score)
	}
	if faces[0].Score != 0.7 {
		t.Error("input slice was reordered")
	}
}

func TestBestFace(t *testing.T) {
	if _, ok := BestFace(nil); ok {
		t.Error("expected no best face for empty input")
	}

	best, ok := BestFace([]Face{{Score: 0.3}, {Score: 0.95}, {Score: 0.5}})
	if !ok || best.Score != 0.95 {
		t.Errorf("BestFace() = %v, %v; want score 0.95", best.Score, ok)
	}
}
