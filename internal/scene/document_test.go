package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func cube(id string, at Vec3) Object {
	return Object{
		ID: id,
		Transform: Transform{
			Translation: at,
			Scale:       Vec3{1, 1, 1},
		},
		Extent: Extent{Min: Vec3{-1, -1, -1}, Max: Vec3{1, 1, 1}},
	}
}

func strPtr(s string) *string { return &s }

func TestValidateHierarchy(t *testing.T) {
	t.Run("accepts a flat scene", func(t *testing.T) {
		doc := &Document{Objects: []Object{cube("a", Vec3{}), cube("b", Vec3{3, 0, 0})}}
		assert.NoError(t, doc.ValidateHierarchy())
	})

	t.Run("accepts a valid parent chain", func(t *testing.T) {
		a := cube("a", Vec3{})
		b := cube("b", Vec3{1, 0, 0})
		b.Parent = strPtr("a")
		c := cube("c", Vec3{2, 0, 0})
		c.Parent = strPtr("b")
		doc := &Document{Objects: []Object{a, b, c}}
		assert.NoError(t, doc.ValidateHierarchy())
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		doc := &Document{Objects: []Object{cube("a", Vec3{}), cube("a", Vec3{})}}
		err := doc.ValidateHierarchy()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("rejects unknown parent", func(t *testing.T) {
		a := cube("a", Vec3{})
		a.Parent = strPtr("ghost")
		doc := &Document{Objects: []Object{a}}
		err := doc.ValidateHierarchy()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ghost")
	})

	t.Run("rejects a two-object cycle", func(t *testing.T) {
		a := cube("a", Vec3{})
		a.Parent = strPtr("b")
		b := cube("b", Vec3{})
		b.Parent = strPtr("a")
		doc := &Document{Objects: []Object{a, b}}
		err := doc.ValidateHierarchy()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cyclic")
	})

	t.Run("rejects a self-parent", func(t *testing.T) {
		a := cube("a", Vec3{})
		a.Parent = strPtr("a")
		doc := &Document{Objects: []Object{a}}
		assert.Error(t, doc.ValidateHierarchy())
	})
}

func TestComputeBounds(t *testing.T) {
	t.Run("empty document yields a zero-sized box", func(t *testing.T) {
		doc := &Document{}
		bounds, err := doc.ComputeBounds()
		require.NoError(t, err)
		assert.Equal(t, r3.Vec{}, bounds.Size())
	})

	t.Run("tight envelope of two cubes", func(t *testing.T) {
		doc := &Document{Objects: []Object{cube("a", Vec3{}), cube("b", Vec3{4, 0, 0})}}
		bounds, err := doc.ComputeBounds()
		require.NoError(t, err)
		assert.Equal(t, r3.Vec{X: 6, Y: 2, Z: 2}, bounds.Size())
	})

	t.Run("child extents map through the parent transform", func(t *testing.T) {
		parent := cube("parent", Vec3{10, 0, 0})
		parent.Transform.Scale = Vec3{2, 2, 2}
		child := cube("child", Vec3{1, 0, 0}) // at parent-space x=1, world x=12
		child.Parent = strPtr("parent")
		doc := &Document{Objects: []Object{parent, child}}

		bounds, err := doc.ComputeBounds()
		require.NoError(t, err)
		// Parent spans [8,12]; child spans world [10,14] after the 2x parent scale.
		assert.InDelta(t, 8, bounds.Min.X, 1e-12)
		assert.InDelta(t, 14, bounds.Max.X, 1e-12)
	})

	t.Run("invariant under object reordering", func(t *testing.T) {
		a, b, c := cube("a", Vec3{-3, 1, 0}), cube("b", Vec3{2, -2, 5}), cube("c", Vec3{0, 0, 0})
		fwd := &Document{Objects: []Object{a, b, c}}
		rev := &Document{Objects: []Object{c, b, a}}

		b1, err := fwd.ComputeBounds()
		require.NoError(t, err)
		b2, err := rev.ComputeBounds()
		require.NoError(t, err)
		assert.Equal(t, b1, b2)
	})
}

func TestRefreshBounds(t *testing.T) {
	doc := &Document{Objects: []Object{cube("a", Vec3{})}}
	require.NoError(t, doc.RefreshBounds())
	assert.Equal(t, Vec3{-1, -1, -1}, doc.BoundingBox.Min)
	assert.Equal(t, Vec3{1, 1, 1}, doc.BoundingBox.Max)

	// A stale stored box is always recomputable from the objects.
	doc.BoundingBox = Extent{Min: Vec3{-99, 0, 0}, Max: Vec3{99, 0, 0}}
	require.NoError(t, doc.RefreshBounds())
	assert.Equal(t, Vec3{1, 1, 1}, doc.BoundingBox.Max)
}

func TestCodecRoundTrip(t *testing.T) {
	a := cube("a", Vec3{1, 2, 3})
	a.Category = CategoryFloor
	b := cube("b", Vec3{0, 0, 4})
	b.Parent = strPtr("a")
	doc := &Document{Objects: []Object{a, b}}
	require.NoError(t, doc.RefreshBounds())

	data, err := Marshal(doc)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, doc, back)

	// Serialization is deterministic: a second pass is byte-identical.
	again, err := Marshal(back)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}
