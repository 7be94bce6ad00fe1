package vision

import (
	"cmp"
	"slices"
)

// OverlapThreshold is the IoU above which two detections are treated as the same face.
const OverlapThreshold = 0.5

// ComputeIoU calculates Intersection over Union between two bounding boxes.
// bbox1 and bbox2 are [x1, y1, x2, y2] in the same coordinate system.
func ComputeIoU(bbox1, bbox2 []float64) float64 {
	if len(bbox1) != 4 || len(bbox2) != 4 {
		return 0
	}

	x1 := max(bbox1[0], bbox2[0])
	y1 := max(bbox1[1], bbox2[1])
	x2 := min(bbox1[2], bbox2[2])
	y2 := min(bbox1[3], bbox2[3])
	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	area1 := (bbox1[2] - bbox1[0]) * (bbox1[3] - bbox1[1])
	area2 := (bbox2[2] - bbox2[0]) * (bbox2[3] - bbox2[1])
	union := area1 + area2 - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

// ToRelative converts a pixel bbox to relative (0-1) coordinates of a
// width x height frame. Invalid input is returned unchanged.
func ToRelative(bbox []float64, width, height int) []float64 {
	if len(bbox) != 4 || width <= 0 || height <= 0 {
		return bbox
	}
	return []float64{
		bbox[0] / float64(width),
		bbox[1] / float64(height),
		bbox[2] / float64(width),
		bbox[3] / float64(height),
	}
}

// SortByScore orders faces by detection score, best first.
func SortByScore(faces []Face) {
	slices.SortStableFunc(faces, func(a, b Face) int { return cmp.Compare(b.Score, a.Score) })
}

// SuppressOverlaps drops detections that overlap a better-scoring detection
// by more than threshold. The result is ordered best first.
func SuppressOverlaps(faces []Face, threshold float64) []Face {
	sorted := slices.Clone(faces)
	SortByScore(sorted)

	kept := make([]Face, 0, len(sorted))
	for _, f := range sorted {
		duplicate := false
		for _, k := range kept {
			if ComputeIoU(f.BBox, k.BBox) > threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, f)
		}
	}
	return kept
}

// BestFace returns the highest-scoring face.
func BestFace(faces []Face) (Face, bool) {
	if len(faces) == 0 {
		return Face{}, false
	}
	best := faces[0]
	for _, f := range faces[1:] {
		if f.Score > best.Score {
			best = f
		}
	}
	return best, true
}
