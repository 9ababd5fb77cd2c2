// Package scene defines the canonical, tool-independent representation of a
// 3D scene: a flat list of objects with TRS transforms, local extents, and
// optional parent links. Parent links are lookup keys into the flat object
// list, never direct references, so cycle detection stays a bounded walk.
package scene

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/scenekit/resize/internal/geometry"
)

// Category classifies an object's structural role in the scene.
type Category string

const (
	CategoryFloor Category = "floor"
	CategoryWall  Category = "wall"
	CategoryAsset Category = "asset"
)

// Vec3 is a 3-component vector serialized as a JSON array [x, y, z].
type Vec3 [3]float64

// R3 converts to the gonum vector used for math.
func (v Vec3) R3() r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// FromR3 converts a gonum vector back to wire form.
func FromR3(v r3.Vec) Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// Transform holds an object's local translation, XYZ Euler rotation in
// radians, and per-axis scale.
type Transform struct {
	Translation Vec3 `json:"translation"`
	Rotation    Vec3 `json:"rotation"`
	Scale       Vec3 `json:"scale"`
}

// Affine returns the local transform as an affine map.
func (t Transform) Affine() geometry.Affine {
	return geometry.TRS(t.Translation.R3(), t.Rotation.R3(), t.Scale.R3())
}

// Extent is an axis-aligned box, local or world space depending on context.
type Extent struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// Box converts to the geometry type.
func (e Extent) Box() geometry.Box {
	return geometry.Box{Min: e.Min.R3(), Max: e.Max.R3()}
}

// FromBox converts a geometry box back to wire form.
func FromBox(b geometry.Box) Extent {
	if b.IsEmpty() {
		return Extent{}
	}
	return Extent{Min: FromR3(b.Min), Max: FromR3(b.Max)}
}

// Object is one scene element. ID is unique within a document; Parent, when
// non-nil, names another object's ID in the same document.
type Object struct {
	ID        string    `json:"id"`
	Transform Transform `json:"transform"`
	Extent    Extent    `json:"extent"`
	Parent    *string   `json:"parent"`
	Category  Category  `json:"category,omitempty"`
}

// Document is the canonical scene description. BoundingBox is derived and
// always recomputable from Objects; it is stored for the JSON artifact only.
type Document struct {
	Objects     []Object `json:"objects"`
	BoundingBox Extent   `json:"boundingBox"`
}

// Index returns a lookup from object ID to position in the object list.
// Fails if any ID appears more than once.
func (d *Document) Index() (map[string]int, error) {
	idx := make(map[string]int, len(d.Objects))
	for i, obj := range d.Objects {
		if obj.ID == "" {
			return nil, fmt.Errorf("object at position %d has empty id", i)
		}
		if prev, ok := idx[obj.ID]; ok {
			return nil, fmt.Errorf("duplicate object id %q (positions %d and %d)", obj.ID, prev, i)
		}
		idx[obj.ID] = i
	}
	return idx, nil
}

// ValidateHierarchy checks that every parent reference resolves to a known
// object and that no parent chain forms a cycle. The walk is depth-bounded by
// the object count, so a cycle is always caught.
func (d *Document) ValidateHierarchy() error {
	idx, err := d.Index()
	if err != nil {
		return err
	}
	limit := len(d.Objects)
	for _, obj := range d.Objects {
		cur := obj.Parent
		for depth := 0; cur != nil; depth++ {
			if depth >= limit {
				return fmt.Errorf("cyclic parent chain detected at object %q", obj.ID)
			}
			pos, ok := idx[*cur]
			if !ok {
				return fmt.Errorf("object %q references unknown parent %q", obj.ID, *cur)
			}
			cur = d.Objects[pos].Parent
		}
	}
	return nil
}

// WorldTransform returns the full ancestor-to-object affine for the object at
// position i. ValidateHierarchy must have passed first.
func (d *Document) WorldTransform(idx map[string]int, i int) geometry.Affine {
	obj := d.Objects[i]
	world := obj.Transform.Affine()
	for cur := obj.Parent; cur != nil; {
		parent := d.Objects[idx[*cur]]
		world = parent.Transform.Affine().Compose(world)
		cur = parent.Parent
	}
	return world
}

// WorldExtent returns the world-space envelope of the object at position i.
func (d *Document) WorldExtent(idx map[string]int, i int) geometry.Box {
	return geometry.TransformBox(d.WorldTransform(idx, i), d.Objects[i].Extent.Box())
}

// ComputeBounds recomputes the tight world-space envelope of all objects.
// Returns a zero-sized box for an empty document. Order-independent: the
// union over objects is commutative.
func (d *Document) ComputeBounds() (geometry.Box, error) {
	if err := d.ValidateHierarchy(); err != nil {
		return geometry.Box{}, err
	}
	if len(d.Objects) == 0 {
		return geometry.ZeroBox(), nil
	}
	idx, _ := d.Index()
	bounds := geometry.EmptyBox()
	for i := range d.Objects {
		bounds = bounds.Union(d.WorldExtent(idx, i))
	}
	return bounds, nil
}

// RefreshBounds recomputes and stores the derived bounding box.
func (d *Document) RefreshBounds() error {
	bounds, err := d.ComputeBounds()
	if err != nil {
		return err
	}
	d.BoundingBox = FromBox(bounds)
	return nil
}

// IdentitySet returns the set of object IDs in the document.
func (d *Document) IdentitySet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Objects))
	for _, obj := range d.Objects {
		set[obj.ID] = struct{}{}
	}
	return set
}
