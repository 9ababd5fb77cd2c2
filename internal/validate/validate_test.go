package validate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenekit/resize/internal/dimension"
	"github.com/scenekit/resize/internal/logging"
	"github.com/scenekit/resize/internal/request"
	"github.com/scenekit/resize/internal/scene"
	"github.com/scenekit/resize/internal/transform"
)

// cubeDoc builds a scene holding one cube of the given world size centered
// at the origin.
func cubeDoc(size scene.Vec3) *scene.Document {
	return &scene.Document{Objects: []scene.Object{{
		ID: "Cube",
		Transform: scene.Transform{
			Scale: scene.Vec3{1, 1, 1},
		},
		Extent: scene.Extent{
			Min: scene.Vec3{-size[0] / 2, -size[1] / 2, -size[2] / 2},
			Max: scene.Vec3{size[0] / 2, size[1] / 2, size[2] / 2},
		},
	}}}
}

func buildRequest(t *testing.T, doc *scene.Document, target request.DimensionSpec) *request.Request {
	t.Helper()
	report, err := dimension.Analyze(doc)
	require.NoError(t, err)
	req, err := request.Build(doc, report, target, "make it bigger", 0.01)
	require.NoError(t, err)
	return req
}

func candidate(doc *scene.Document) *transform.Candidate {
	return &transform.Candidate{Document: doc}
}

func sizes(t *testing.T, v *Validated) [3]float64 {
	t.Helper()
	s := v.Bounds.Size()
	return [3]float64{s.X, s.Y, s.Z}
}

func TestValidateStructural(t *testing.T) {
	v := New(0.01, logging.NewNop())
	original := cubeDoc(scene.Vec3{2, 2, 2})
	req := buildRequest(t, original, request.DimensionSpec{Width: 4, Depth: 2, Height: 2})

	t.Run("undecodable candidate is rejected without repair", func(t *testing.T) {
		_, err := v.Validate(&transform.Candidate{DecodeErr: errors.New("not json")}, req)
		var valErr *Error
		require.ErrorAs(t, err, &valErr)
		assert.True(t, valErr.Has(CheckDecode))
	})

	t.Run("object count mismatch is rejected", func(t *testing.T) {
		cand := cubeDoc(scene.Vec3{4, 2, 2})
		cand.Objects = append(cand.Objects, scene.Object{
			ID:        "Extra",
			Transform: scene.Transform{Scale: scene.Vec3{1, 1, 1}},
			Extent:    scene.Extent{Min: scene.Vec3{-1, -1, -1}, Max: scene.Vec3{1, 1, 1}},
		})
		_, err := v.Validate(candidate(cand), req)
		var valErr *Error
		require.ErrorAs(t, err, &valErr)
		assert.True(t, valErr.Has(CheckObjectCount))
	})

	t.Run("unknown identity is rejected by name and never promoted", func(t *testing.T) {
		cand := cubeDoc(scene.Vec3{4, 2, 2})
		cand.Objects[0].ID = "Imposter"
		validated, err := v.Validate(candidate(cand), req)
		assert.Nil(t, validated)
		var valErr *Error
		require.ErrorAs(t, err, &valErr)
		assert.True(t, valErr.Has(CheckIdentity))
		assert.Contains(t, err.Error(), "Imposter")
		assert.Contains(t, err.Error(), "Cube")
	})

	t.Run("non-finite transform is rejected", func(t *testing.T) {
		cand := cubeDoc(scene.Vec3{4, 2, 2})
		cand.Objects[0].Transform.Translation[1] = math.NaN()
		_, err := v.Validate(candidate(cand), req)
		var valErr *Error
		require.ErrorAs(t, err, &valErr)
		assert.True(t, valErr.Has(CheckTransform))
	})

	t.Run("zero scale component is rejected", func(t *testing.T) {
		cand := cubeDoc(scene.Vec3{4, 2, 2})
		cand.Objects[0].Transform.Scale = scene.Vec3{1, 0, 1}
		_, err := v.Validate(candidate(cand), req)
		var valErr *Error
		require.ErrorAs(t, err, &valErr)
		assert.True(t, valErr.Has(CheckTransform))
	})

	t.Run("broken hierarchy is rejected", func(t *testing.T) {
		cand := cubeDoc(scene.Vec3{4, 2, 2})
		ghost := "ghost"
		cand.Objects[0].Parent = &ghost
		_, err := v.Validate(candidate(cand), req)
		var valErr *Error
		require.ErrorAs(t, err, &valErr)
		assert.True(t, valErr.Has(CheckHierarchy))
	})
}

func TestValidateDimensions(t *testing.T) {
	v := New(0.01, logging.NewNop())
	original := cubeDoc(scene.Vec3{2, 2, 2})
	target := request.DimensionSpec{Width: 4, Depth: 2, Height: 2}
	req := buildRequest(t, original, target)

	t.Run("conformant candidate promotes without repair", func(t *testing.T) {
		validated, err := v.Validate(candidate(cubeDoc(scene.Vec3{4, 2, 2})), req)
		require.NoError(t, err)
		assert.False(t, validated.Repaired)
		assert.Equal(t, [3]float64{1, 1, 1}, validated.Factors)
		assert.Equal(t, [3]float64{4, 2, 2}, sizes(t, validated))
	})

	t.Run("within tolerance counts as conformant", func(t *testing.T) {
		validated, err := v.Validate(candidate(cubeDoc(scene.Vec3{4.03, 2, 2})), req)
		require.NoError(t, err)
		assert.False(t, validated.Repaired)
	})

	t.Run("dimensional drift triggers a per-axis rescale repair", func(t *testing.T) {
		// The candidate came back at (4, 2, 1.9): the height axis missed.
		validated, err := v.Validate(candidate(cubeDoc(scene.Vec3{4, 2, 1.9})), req)
		require.NoError(t, err)
		assert.True(t, validated.Repaired)

		got := sizes(t, validated)
		for axis, want := range [3]float64{4, 2, 2} {
			assert.InDelta(t, want, got[axis], want*0.01, "axis %d", axis)
		}
		assert.InDelta(t, 1, validated.Factors[0], 1e-12)
		assert.InDelta(t, 2.0/1.9, validated.Factors[2], 1e-12)
	})

	t.Run("repair rescales translations about the scene center", func(t *testing.T) {
		// Two unit cubes spanning (3,1,1) overall; target doubles the width.
		doc := &scene.Document{Objects: []scene.Object{
			{ID: "A", Transform: scene.Transform{Translation: scene.Vec3{-1, 0, 0}, Scale: scene.Vec3{1, 1, 1}}, Extent: scene.Extent{Min: scene.Vec3{-0.5, -0.5, -0.5}, Max: scene.Vec3{0.5, 0.5, 0.5}}},
			{ID: "B", Transform: scene.Transform{Translation: scene.Vec3{1, 0, 0}, Scale: scene.Vec3{1, 1, 1}}, Extent: scene.Extent{Min: scene.Vec3{-0.5, -0.5, -0.5}, Max: scene.Vec3{0.5, 0.5, 0.5}}},
		}}
		twoReq := buildRequest(t, doc, request.DimensionSpec{Width: 6, Depth: 1, Height: 1})

		cand := &scene.Document{Objects: []scene.Object{doc.Objects[0], doc.Objects[1]}}
		validated, err := v.Validate(candidate(cand), twoReq)
		require.NoError(t, err)
		require.True(t, validated.Repaired)
		assert.Equal(t, [3]float64{6, 1, 1}, sizes(t, validated))
		assert.InDelta(t, -2, validated.Document.Objects[0].Transform.Translation[0], 1e-12)
		assert.InDelta(t, 2, validated.Document.Objects[1].Transform.Translation[0], 1e-12)
	})

	t.Run("axis lock collapses repair to a uniform factor", func(t *testing.T) {
		lockedTarget := request.DimensionSpec{Width: 4, Depth: 4, Height: 4, Lock: [3]bool{true, false, false}}
		lockedReq := buildRequest(t, original, lockedTarget)

		// Candidate at (2,2,2): the width factor 2 applies to every axis.
		validated, err := v.Validate(candidate(cubeDoc(scene.Vec3{2, 2, 2})), lockedReq)
		require.NoError(t, err)
		require.True(t, validated.Repaired)
		assert.Equal(t, [3]float64{2, 2, 2}, validated.Factors)
		assert.Equal(t, [3]float64{4, 4, 4}, sizes(t, validated))
	})

	t.Run("unfixable drift still fails after repair", func(t *testing.T) {
		// Zero extent on the width axis cannot be rescaled to 4.
		flat := cubeDoc(scene.Vec3{0, 2, 2})
		_, err := v.Validate(candidate(flat), req)
		var valErr *Error
		require.ErrorAs(t, err, &valErr)
		assert.True(t, valErr.Has(CheckDimensions))
	})

	t.Run("structural failure suppresses repair entirely", func(t *testing.T) {
		cand := cubeDoc(scene.Vec3{1, 1, 1}) // badly off target
		cand.Objects[0].ID = "Imposter"      // and structurally invalid
		before := cand.Objects[0].Transform
		_, err := v.Validate(candidate(cand), req)
		var valErr *Error
		require.ErrorAs(t, err, &valErr)
		assert.False(t, valErr.Has(CheckDimensions))
		assert.Equal(t, before, cand.Objects[0].Transform, "repair must not touch a structurally invalid candidate")
	})
}

func TestRepairIdempotence(t *testing.T) {
	v := New(0.01, logging.NewNop())
	original := cubeDoc(scene.Vec3{2, 2, 2})
	req := buildRequest(t, original, request.DimensionSpec{Width: 4, Depth: 2, Height: 2})

	conformant := cubeDoc(scene.Vec3{4, 2, 2})
	first, err := v.Validate(candidate(conformant), req)
	require.NoError(t, err)

	// Validating the already-conformant result again changes nothing.
	second, err := v.Validate(candidate(first.Document), req)
	require.NoError(t, err)
	assert.False(t, second.Repaired)
	assert.Equal(t, sizes(t, first), sizes(t, second))
	assert.Equal(t, first.Document.Objects, second.Document.Objects)
}
