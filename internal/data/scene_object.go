package data

import (
	"fmt"

	"github.com/ecopia-map/geo_transformer/internal/geometry"
)

// An object placed in the local scene frame, identified by name
type SceneObject struct {
	Name     string
	Position geometry.LocalCoordinate

	// set once the object has been placed at least once
	Placed bool
}

// Builds a new unplaced SceneObject at the scene origin
func NewSceneObject(name string) *SceneObject {
	return &SceneObject{
		Name: name,
	}
}

func (o *SceneObject) MoveTo(position geometry.LocalCoordinate) {
	o.Position = position
	o.Placed = true
}

func (o *SceneObject) String() string {
	return fmt.Sprintf("SceneObject (with Name: %s, Position: %s, Placed: %t)", o.Name, o.Position, o.Placed)
}
