// Package request builds the immutable transformation request sent to the
// reasoning service: the canonical scene, the user's target dimensions and
// intent, and the strict response schema the candidate must satisfy.
package request

import (
	"fmt"
	"sort"

	"github.com/scenekit/resize/internal/dimension"
	"github.com/scenekit/resize/internal/scene"
	"github.com/scenekit/resize/internal/shared/id"
)

// InvalidSpecError reports an unusable user-supplied target. It is surfaced
// before any service call is made.
type InvalidSpecError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid dimension spec: %s=%v (%s)", e.Field, e.Value, e.Reason)
}

// DimensionSpec is the user's target size per axis, in the document's length
// unit and Z-up axis convention (width is X, depth is Y, height is Z).
// Locking any axis forces repair to use a single uniform factor instead of
// independent per-axis factors.
type DimensionSpec struct {
	Width  float64
	Depth  float64
	Height float64
	Lock   [3]bool
}

// Dims returns the target extents in axis order (X, Y, Z).
func (s DimensionSpec) Dims() [3]float64 {
	return [3]float64{s.Width, s.Depth, s.Height}
}

// Validate checks that every component is strictly positive.
func (s DimensionSpec) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"width", s.Width},
		{"depth", s.Depth},
		{"height", s.Height},
	}
	for _, f := range fields {
		if !(f.value > 0) { // catches NaN as well
			return &InvalidSpecError{Field: f.name, Value: f.value, Reason: "must be strictly positive"}
		}
	}
	return nil
}

// Schema is the mechanically checkable contract the candidate document must
// meet: the same object count and the exact identity set of the input.
type Schema struct {
	ObjectCount int      `json:"objectCount"`
	Identities  []string `json:"identities"`
}

// Request couples everything the reasoning service needs for one run. It is
// immutable once built and consumed exactly once by the transformer.
type Request struct {
	Run       id.RunID
	Document  *scene.Document
	Current   dimension.Report
	Target    DimensionSpec
	Intent    string
	Tolerance float64
	Schema    Schema
}

// Build validates the target spec and assembles a request. The identity list
// in the schema is sorted so two builds over the same scene are comparable.
func Build(doc *scene.Document, current dimension.Report, target DimensionSpec, intent string, tolerance float64) (*Request, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	identities := make([]string, 0, len(doc.Objects))
	for _, obj := range doc.Objects {
		identities = append(identities, obj.ID)
	}
	sort.Strings(identities)

	return &Request{
		Run:       id.NewRunID(),
		Document:  doc,
		Current:   current,
		Target:    target,
		Intent:    intent,
		Tolerance: tolerance,
		Schema: Schema{
			ObjectCount: len(doc.Objects),
			Identities:  identities,
		},
	}, nil
}
