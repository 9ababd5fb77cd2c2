// Package dimension computes the measurements presented to the user and
// targeted by the transformation: the scene's tight world-space bounding box
// and, when floor objects exist, the floor footprint.
package dimension

import (
	"fmt"

	"github.com/scenekit/resize/internal/geometry"
	"github.com/scenekit/resize/internal/scene"
)

// Report holds the derived measurements of a scene document. Axes follow
// the authoring tool's Z-up convention: X is width, Y is depth, Z is height.
type Report struct {
	Bounds geometry.Box
	Width  float64 // X extent
	Depth  float64 // Y extent
	Height float64 // Z extent

	// Floor footprint: summed X/Y sizes of floor-category objects, the
	// quantity interior tools report as "total floor dimensions". Zero when
	// the scene has no floor objects; callers fall back to Width/Depth.
	FloorWidth float64
	FloorDepth float64

	ObjectCount int
}

// Dims returns the three overall extents in axis order (X, Y, Z).
func (r Report) Dims() [3]float64 {
	return [3]float64{r.Width, r.Depth, r.Height}
}

// Analyze measures a scene document. It is a pure function: no document
// mutation, deterministic, and independent of object order (the bounding box
// is a commutative union over objects). An empty scene yields a zero-sized
// box rather than an error.
func Analyze(doc *scene.Document) (Report, error) {
	bounds, err := doc.ComputeBounds()
	if err != nil {
		return Report{}, fmt.Errorf("analyze scene: %w", err)
	}
	size := bounds.Size()
	report := Report{
		Bounds:      bounds,
		Width:       size.X,
		Depth:       size.Y,
		Height:      size.Z,
		ObjectCount: len(doc.Objects),
	}

	idx, err := doc.Index()
	if err != nil {
		return Report{}, fmt.Errorf("analyze scene: %w", err)
	}
	for i, obj := range doc.Objects {
		if obj.Category != scene.CategoryFloor {
			continue
		}
		floorSize := doc.WorldExtent(idx, i).Size()
		report.FloorWidth += floorSize.X
		report.FloorDepth += floorSize.Y
	}
	return report, nil
}
