// Package extract reads a native authoring-tool scene through a narrow
// handle interface and produces the canonical scene document. The extractor
// never mutates the source scene.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scenekit/resize/internal/logging"
	"github.com/scenekit/resize/internal/scene"
)

// Error reports an unreadable or structurally corrupt source scene. It is
// fatal: a partial extraction is never returned.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// RawObject is one object as reported by the native handle. Transforms use
// the same conventions as the canonical document (XYZ Euler, radians).
type RawObject struct {
	Name        string
	Translation [3]float64
	Rotation    [3]float64
	Scale       [3]float64
	ExtentMin   [3]float64
	ExtentMax   [3]float64
	Parent      string // empty means top-level
	HasGeometry bool
}

// Handle is a read accessor for an open native scene. Implementations wrap
// whatever the authoring application exposes; the extractor treats them as
// opaque beyond this method.
type Handle interface {
	Objects(ctx context.Context) ([]RawObject, error)
}

// Extractor converts a native scene into a canonical document.
type Extractor struct {
	logger *logging.Logger
}

// New creates an extractor.
func New(logger *logging.Logger) *Extractor {
	return &Extractor{logger: logger.Stage("extract")}
}

// Extract reads every object from the handle and builds an order-preserving
// canonical document. Objects without renderable geometry are skipped with a
// log line rather than failing the extraction. Duplicate names, unresolvable
// parents, and cyclic hierarchies abort with *Error.
func (x *Extractor) Extract(ctx context.Context, h Handle) (*scene.Document, error) {
	raw, err := h.Objects(ctx)
	if err != nil {
		return nil, &Error{Reason: "cannot read native scene", Err: err}
	}

	doc := &scene.Document{Objects: make([]scene.Object, 0, len(raw))}
	kept := make(map[string]struct{}, len(raw))
	skipped := 0
	for _, r := range raw {
		if r.Name == "" {
			return nil, &Error{Reason: "object with empty name"}
		}
		if !r.HasGeometry {
			x.logger.Debug("skipping object without geometry", zap.String("id", r.Name))
			skipped++
			continue
		}
		if _, dup := kept[r.Name]; dup {
			return nil, &Error{Reason: fmt.Sprintf("duplicate object name %q", r.Name)}
		}
		kept[r.Name] = struct{}{}

		var parent *string
		if r.Parent != "" {
			p := r.Parent
			parent = &p
		}
		doc.Objects = append(doc.Objects, scene.Object{
			ID: r.Name,
			Transform: scene.Transform{
				Translation: r.Translation,
				Rotation:    r.Rotation,
				Scale:       r.Scale,
			},
			Extent:   scene.Extent{Min: r.ExtentMin, Max: r.ExtentMax},
			Parent:   parent,
			Category: Classify(r.Name),
		})
	}

	// Parents pointing at skipped (geometry-less) objects are reattached to
	// the nearest kept ancestor; a parent that never existed is corruption.
	byName := make(map[string]RawObject, len(raw))
	for _, r := range raw {
		byName[r.Name] = r
	}
	for i := range doc.Objects {
		obj := &doc.Objects[i]
		if obj.Parent == nil {
			continue
		}
		resolved, err := resolveParent(byName, kept, *obj.Parent, len(raw))
		if err != nil {
			return nil, &Error{Reason: fmt.Sprintf("object %q", obj.ID), Err: err}
		}
		obj.Parent = resolved
	}

	if err := doc.ValidateHierarchy(); err != nil {
		return nil, &Error{Reason: "invalid object hierarchy", Err: err}
	}
	if err := doc.RefreshBounds(); err != nil {
		return nil, &Error{Reason: "cannot compute scene bounds", Err: err}
	}

	x.logger.Info("scene extracted",
		zap.Int("objects", len(doc.Objects)),
		zap.Int("skipped", skipped))
	return doc, nil
}

// resolveParent walks up through skipped objects to the first kept ancestor.
// The walk is bounded by the raw object count so cycles cannot hang it.
func resolveParent(byName map[string]RawObject, kept map[string]struct{}, name string, limit int) (*string, error) {
	cur := name
	for depth := 0; depth <= limit; depth++ {
		r, ok := byName[cur]
		if !ok {
			return nil, fmt.Errorf("unresolvable parent reference %q", cur)
		}
		if _, isKept := kept[cur]; isKept {
			return &cur, nil
		}
		if r.Parent == "" {
			return nil, nil // chain ends at a skipped top-level object
		}
		cur = r.Parent
	}
	return nil, errors.New("cyclic parent chain")
}

// Classify tags an object's structural role from its name. Authoring tools
// in this domain name floor slabs after the room and walls literally; what
// remains is a placeable asset.
func Classify(name string) scene.Category {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "room") || strings.Contains(lower, "floor"):
		return scene.CategoryFloor
	case strings.Contains(lower, "wall"):
		return scene.CategoryWall
	default:
		return scene.CategoryAsset
	}
}
