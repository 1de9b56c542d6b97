package api

import (
	"fmt"

	"github.com/mynextid/zk-age/artifacts"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
)

// ShapeList resolves the shapes to serve. Explicit names win; otherwise
// every shape with a verifying key in the store is served, and fallback
// when the store holds none.
func ShapeList(store *artifacts.Store, names []string, fallback cae.Shape) ([]cae.Shape, error) {
	if len(names) > 0 {
		shapes := make([]cae.Shape, 0, len(names))
		for _, name := range names {
			shape, err := cae.ParseShapeName(name)
			if err != nil {
				return nil, fmt.Errorf("shape %q: %w", name, err)
			}
			shapes = append(shapes, shape)
		}
		return shapes, nil
	}

	shapes, err := store.Shapes()
	if err != nil {
		return nil, err
	}
	if len(shapes) == 0 {
		if err := fallback.Validate(); err != nil {
			return nil, err
		}
		shapes = []cae.Shape{fallback}
	}
	return shapes, nil
}
