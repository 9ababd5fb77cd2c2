package request

import (
	"fmt"
	"strings"

	"github.com/scenekit/resize/internal/scene"
)

const systemPrompt = `You are a 3D interior scene layout engine. You receive a scene as JSON and
must return a revised scene as JSON with the same schema.

Hard constraints, in priority order:
1. Keep every object: the output must contain exactly the listed identities,
   each exactly once, with no additions. Preserve each object's role and its
   parent relationships.
2. The revised scene's world-space bounding box must match the target
   dimensions within the stated relative tolerance. Adjust translations and
   scales to achieve this; keep rotations unless the user's intent requires
   otherwise.
3. Apply the user's intent only where it does not conflict with 1 and 2.

Respond with a single JSON object and nothing else: no prose,
no markdown fences. The response schema is identical to the input scene schema.`

// SystemPrompt returns the fixed instruction block for the reasoning service.
func (r *Request) SystemPrompt() string {
	return systemPrompt
}

// UserPrompt renders the scene, measurements, target, and intent into the
// message body for the reasoning service.
func (r *Request) UserPrompt() (string, error) {
	doc, err := scene.Marshal(r.Document)
	if err != nil {
		return "", fmt.Errorf("render request payload: %w", err)
	}

	var b strings.Builder
	cur := r.Current.Dims()
	tgt := r.Target.Dims()
	fmt.Fprintf(&b, "Current scene bounding box (width x depth x height): %.4f x %.4f x %.4f\n", cur[0], cur[1], cur[2])
	if r.Current.FloorWidth > 0 || r.Current.FloorDepth > 0 {
		fmt.Fprintf(&b, "Current floor footprint: %.4f x %.4f\n", r.Current.FloorWidth, r.Current.FloorDepth)
	}
	fmt.Fprintf(&b, "Target bounding box (width x depth x height): %.4f x %.4f x %.4f\n", tgt[0], tgt[1], tgt[2])
	fmt.Fprintf(&b, "Relative tolerance: %.4f\n", r.Tolerance)
	for axis, locked := range r.Target.Lock {
		if locked {
			fmt.Fprintf(&b, "Axis %s is locked: it must be hit without coupled scaling.\n", axisName(axis))
		}
	}
	fmt.Fprintf(&b, "Required object count: %d\n", r.Schema.ObjectCount)
	fmt.Fprintf(&b, "Required identities: %s\n", strings.Join(r.Schema.Identities, ", "))
	if intent := strings.TrimSpace(r.Intent); intent != "" {
		fmt.Fprintf(&b, "\nUser intent: %s\n", intent)
	}
	fmt.Fprintf(&b, "\nScene:\n%s\n", doc)
	return b.String(), nil
}

func axisName(i int) string {
	return [...]string{"X", "Y", "Z"}[i]
}
