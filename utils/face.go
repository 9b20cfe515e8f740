package utils

import (
	"math"

	"github.com/Aashish23092/loan-intake-verification/dto"
)

// FirstOrNone reduces a detector's ordered results to the primary (first) detection.
func FirstOrNone(detections []dto.BoundingBox) (dto.BoundingBox, bool) {
	if len(detections) == 0 {
		return dto.BoundingBox{}, false
	}
	return detections[0], true
}

// IoU returns the intersection-over-union of two boxes expressed in the same
// coordinate space. Degenerate or disjoint boxes give 0.
func IoU(a, b dto.BoundingBox) float64 {
	left := math.Max(a.X, b.X)
	top := math.Max(a.Y, b.Y)
	right := math.Min(a.X+a.Width, b.X+b.Width)
	bottom := math.Min(a.Y+a.Height, b.Y+b.Height)

	if right <= left || bottom <= top {
		return 0
	}

	intersection := (right - left) * (bottom - top)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}
