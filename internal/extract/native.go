package extract

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/bytedance/sonic"
)

// nativeExport mirrors the JSON document the authoring tool's exporter
// writes: a map of object name to placement record. Scale may be a scalar or
// a 3-array, dimensions are the object's local size, and geometry-less
// helper objects carry "hasGeometry": false.
type nativeExport struct {
	Objects map[string]nativeObject `json:"objects"`
}

type nativeObject struct {
	Placements  []nativePlacement `json:"placements"`
	Dimensions  []float64         `json:"dimensions"`
	Parent      string            `json:"parent"`
	HasGeometry *bool             `json:"hasGeometry"`
}

type nativePlacement struct {
	Position []float64 `json:"position"`
	Rotation []float64 `json:"rotation"`
	Scale    any       `json:"scale"`
}

// FileHandle reads a native scene export from disk. It satisfies Handle.
type FileHandle struct {
	path string
}

// Open returns a handle over a native export file. The file is read lazily
// on the first Objects call; Open only records the path.
func Open(path string) *FileHandle {
	return &FileHandle{path: path}
}

// Objects parses the export and returns its objects sorted by name, so
// extraction order is deterministic regardless of JSON map ordering.
func (h *FileHandle) Objects(ctx context.Context) ([]RawObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(h.path)
	if err != nil {
		return nil, fmt.Errorf("open native scene: %w", err)
	}
	var export nativeExport
	if err := sonic.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parse native scene: %w", err)
	}
	if export.Objects == nil {
		return nil, fmt.Errorf("native scene %s has no objects section", h.path)
	}

	names := make([]string, 0, len(export.Objects))
	for name := range export.Objects {
		names = append(names, name)
	}
	sort.Strings(names)

	raw := make([]RawObject, 0, len(names))
	for _, name := range names {
		obj := export.Objects[name]
		r, err := toRaw(name, obj)
		if err != nil {
			return nil, err
		}
		raw = append(raw, r)
	}
	return raw, nil
}

func toRaw(name string, obj nativeObject) (RawObject, error) {
	r := RawObject{
		Name:        name,
		Scale:       [3]float64{1, 1, 1},
		Parent:      obj.Parent,
		HasGeometry: obj.HasGeometry == nil || *obj.HasGeometry,
	}
	if len(obj.Placements) > 0 {
		p := obj.Placements[0]
		if err := fill3(&r.Translation, p.Position); err != nil {
			return r, fmt.Errorf("object %q position: %w", name, err)
		}
		if err := fill3(&r.Rotation, p.Rotation); err != nil {
			return r, fmt.Errorf("object %q rotation: %w", name, err)
		}
		scale, err := parseScale(p.Scale)
		if err != nil {
			return r, fmt.Errorf("object %q: %w", name, err)
		}
		r.Scale = scale
	}
	// Dimensions describe the local size; the export centers each object's
	// origin on its geometry, so the local extent is symmetric about it.
	if len(obj.Dimensions) >= 3 {
		for i := 0; i < 3; i++ {
			half := obj.Dimensions[i] / 2
			r.ExtentMin[i] = -half
			r.ExtentMax[i] = half
		}
	} else {
		r.HasGeometry = false
	}
	return r, nil
}

// parseScale accepts either the scalar form ("scale": 1) or a 3-array.
func parseScale(v any) ([3]float64, error) {
	switch s := v.(type) {
	case nil:
		return [3]float64{1, 1, 1}, nil
	case float64:
		return [3]float64{s, s, s}, nil
	case []any:
		var out [3]float64
		if len(s) != 3 {
			return out, fmt.Errorf("scale array has %d components, want 3", len(s))
		}
		for i, c := range s {
			f, ok := c.(float64)
			if !ok {
				return out, fmt.Errorf("scale component %d is not a number", i)
			}
			out[i] = f
		}
		return out, nil
	default:
		return [3]float64{}, fmt.Errorf("unsupported scale value %T", v)
	}
}

func fill3(dst *[3]float64, src []float64) error {
	if len(src) == 0 {
		return nil
	}
	if len(src) != 3 {
		return fmt.Errorf("got %d components, want 3", len(src))
	}
	copy(dst[:], src)
	return nil
}
