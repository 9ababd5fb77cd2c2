// Package validate checks an untrusted candidate document against the
// original request and promotes it to the authoritative revised scene. A
// structurally sound candidate that only misses the target dimensions gets
// one deterministic rescale repair; everything else is rejected with the
// specific violated checks.
package validate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/scenekit/resize/internal/geometry"
	"github.com/scenekit/resize/internal/logging"
	"github.com/scenekit/resize/internal/request"
	"github.com/scenekit/resize/internal/scene"
	"github.com/scenekit/resize/internal/transform"
)

// Check names carried by validation violations.
const (
	CheckDecode      = "decode"
	CheckHierarchy   = "hierarchy"
	CheckObjectCount = "object-count"
	CheckIdentity    = "identity"
	CheckTransform   = "transform"
	CheckDimensions  = "dimensions"
)

// Violation is one failed check with enough detail to diagnose the run.
type Violation struct {
	Check  string
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Check, v.Detail)
}

// Error reports every check the candidate violated. A candidate failing any
// structural check is never repaired and never promoted.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "candidate rejected: " + strings.Join(parts, "; ")
}

// Has reports whether a given check is among the violations.
func (e *Error) Has(check string) bool {
	for _, v := range e.Violations {
		if v.Check == check {
			return true
		}
	}
	return false
}

// Validated is a candidate that passed every check, possibly after repair.
// It is the only form the writer persists.
type Validated struct {
	Document *scene.Document
	Bounds   geometry.Box
	Repaired bool
	// Factors holds the per-axis corrective scale applied by repair;
	// {1,1,1} when no repair ran.
	Factors [3]float64
}

// Validator checks and repairs candidate documents.
type Validator struct {
	tolerance float64
	logger    *logging.Logger
}

// New creates a validator with the given relative dimensional tolerance.
func New(tolerance float64, logger *logging.Logger) *Validator {
	return &Validator{tolerance: tolerance, logger: logger.Stage("validate")}
}

// Validate verifies the candidate against the request. Structural failures
// (undecodable body, broken hierarchy, count or identity mismatch, malformed
// transforms) reject immediately. Dimensional drift alone triggers a single
// rescale repair followed by re-verification.
func (v *Validator) Validate(cand *transform.Candidate, req *request.Request) (*Validated, error) {
	if structural := v.structural(cand, req); len(structural) > 0 {
		return nil, &Error{Violations: structural}
	}
	doc := cand.Document

	bounds, err := doc.ComputeBounds()
	if err != nil {
		// Hierarchy was already checked; this is unreachable in practice but
		// must not promote a document we could not measure.
		return nil, &Error{Violations: []Violation{{Check: CheckHierarchy, Detail: err.Error()}}}
	}

	if viol := v.conformance(bounds, req); viol != nil {
		v.logger.Info("candidate off target, attempting rescale repair",
			zap.String("detail", viol.Detail))
		factors, repairErr := v.repair(doc, bounds, req)
		if repairErr != nil {
			return nil, &Error{Violations: []Violation{*viol, *repairErr}}
		}
		bounds, err = doc.ComputeBounds()
		if err != nil {
			return nil, &Error{Violations: []Violation{{Check: CheckHierarchy, Detail: err.Error()}}}
		}
		if viol := v.conformance(bounds, req); viol != nil {
			viol.Detail = "after repair: " + viol.Detail
			return nil, &Error{Violations: []Violation{*viol}}
		}
		doc.BoundingBox = scene.FromBox(bounds)
		v.logger.Info("repair landed within tolerance",
			zap.Float64s("factors", factors[:]))
		return &Validated{Document: doc, Bounds: bounds, Repaired: true, Factors: factors}, nil
	}

	doc.BoundingBox = scene.FromBox(bounds)
	return &Validated{Document: doc, Bounds: bounds, Factors: [3]float64{1, 1, 1}}, nil
}

// structural runs every check that does not depend on measured dimensions.
func (v *Validator) structural(cand *transform.Candidate, req *request.Request) []Violation {
	if cand.DecodeErr != nil || cand.Document == nil {
		detail := "candidate document missing"
		if cand.DecodeErr != nil {
			detail = cand.DecodeErr.Error()
		}
		return []Violation{{Check: CheckDecode, Detail: detail}}
	}
	doc := cand.Document
	var violations []Violation

	if err := doc.ValidateHierarchy(); err != nil {
		return append(violations, Violation{Check: CheckHierarchy, Detail: err.Error()})
	}

	if len(doc.Objects) != req.Schema.ObjectCount {
		violations = append(violations, Violation{
			Check:  CheckObjectCount,
			Detail: fmt.Sprintf("got %d objects, want %d", len(doc.Objects), req.Schema.ObjectCount),
		})
	}
	violations = append(violations, identityViolations(doc, req)...)
	violations = append(violations, transformViolations(doc)...)
	return violations
}

// identityViolations checks that the candidate carries exactly the input
// identity set: nothing missing, nothing foreign, nothing duplicated.
func identityViolations(doc *scene.Document, req *request.Request) []Violation {
	var violations []Violation

	want := make(map[string]struct{}, len(req.Schema.Identities))
	for _, id := range req.Schema.Identities {
		want[id] = struct{}{}
	}
	seen := make(map[string]int, len(doc.Objects))
	for _, obj := range doc.Objects {
		seen[obj.ID]++
	}

	var missing, unknown, duplicated []string
	for id := range want {
		if seen[id] == 0 {
			missing = append(missing, id)
		}
	}
	for id, n := range seen {
		if _, ok := want[id]; !ok {
			unknown = append(unknown, id)
		}
		if n > 1 {
			duplicated = append(duplicated, id)
		}
	}
	sort.Strings(missing)
	sort.Strings(unknown)
	sort.Strings(duplicated)

	if len(missing) > 0 {
		violations = append(violations, Violation{
			Check:  CheckIdentity,
			Detail: "missing identities: " + strings.Join(missing, ", "),
		})
	}
	if len(unknown) > 0 {
		violations = append(violations, Violation{
			Check:  CheckIdentity,
			Detail: "unknown identities: " + strings.Join(unknown, ", "),
		})
	}
	if len(duplicated) > 0 {
		violations = append(violations, Violation{
			Check:  CheckIdentity,
			Detail: "duplicated identities: " + strings.Join(duplicated, ", "),
		})
	}
	return violations
}

// transformViolations checks transform well-formedness: every component
// finite, scale components non-zero.
func transformViolations(doc *scene.Document) []Violation {
	var violations []Violation
	for _, obj := range doc.Objects {
		t := obj.Transform
		if !geometry.Finite(t.Translation.R3()) || !geometry.Finite(t.Rotation.R3()) || !geometry.Finite(t.Scale.R3()) {
			violations = append(violations, Violation{
				Check:  CheckTransform,
				Detail: fmt.Sprintf("object %q has non-finite transform components", obj.ID),
			})
			continue
		}
		for axis, s := range t.Scale {
			if s == 0 {
				violations = append(violations, Violation{
					Check:  CheckTransform,
					Detail: fmt.Sprintf("object %q has zero scale on axis %d", obj.ID, axis),
				})
				break
			}
		}
	}
	return violations
}

// conformance checks the measured bounding box against the target within the
// relative tolerance. Returns nil when conformant.
func (v *Validator) conformance(bounds geometry.Box, req *request.Request) *Violation {
	actual := [3]float64{bounds.Size().X, bounds.Size().Y, bounds.Size().Z}
	target := req.Target.Dims()
	tol := v.tolerance
	if req.Tolerance > 0 {
		tol = req.Tolerance
	}

	var off []string
	for axis := 0; axis < 3; axis++ {
		if math.Abs(actual[axis]-target[axis]) > tol*target[axis] {
			off = append(off, fmt.Sprintf("axis %d is %.4f, want %.4f (tolerance %.2f%%)",
				axis, actual[axis], target[axis], tol*100))
		}
	}
	if len(off) == 0 {
		return nil
	}
	return &Violation{Check: CheckDimensions, Detail: strings.Join(off, "; ")}
}

// repair applies the deterministic corrective rescale in place: per-axis
// factors target/actual about the scene center, collapsed to a single
// uniform factor (the width axis's, matching the interior tool's
// scale_factor = new_X / total_X) when any axis is locked. Only top-level
// transforms change; children inherit the correction through the hierarchy.
// Non-axis-aligned top-level rotations can make a per-axis correction
// inexact — the re-verification after repair is the arbiter.
func (v *Validator) repair(doc *scene.Document, bounds geometry.Box, req *request.Request) ([3]float64, *Violation) {
	actual := [3]float64{bounds.Size().X, bounds.Size().Y, bounds.Size().Z}
	target := req.Target.Dims()

	var factors [3]float64
	for axis := 0; axis < 3; axis++ {
		if actual[axis] <= 0 {
			if target[axis] <= 0 {
				factors[axis] = 1
				continue
			}
			return factors, &Violation{
				Check:  CheckDimensions,
				Detail: fmt.Sprintf("axis %d has zero extent, cannot rescale to %.4f", axis, target[axis]),
			}
		}
		factors[axis] = target[axis] / actual[axis]
	}

	if req.Target.Lock[0] || req.Target.Lock[1] || req.Target.Lock[2] {
		uniform := factors[0]
		factors = [3]float64{uniform, uniform, uniform}
	}

	center := bounds.Center()
	f := r3.Vec{X: factors[0], Y: factors[1], Z: factors[2]}
	for i := range doc.Objects {
		obj := &doc.Objects[i]
		if obj.Parent != nil {
			continue
		}
		t := obj.Transform.Translation.R3()
		obj.Transform.Translation = scene.FromR3(r3.Add(center, mulElem(f, r3.Sub(t, center))))
		obj.Transform.Scale = scene.FromR3(mulElem(f, obj.Transform.Scale.R3()))
	}
	return factors, nil
}

func mulElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}
