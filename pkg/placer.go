package pkg

import (
	"errors"
	"fmt"

	"github.com/ecopia-map/geo_transformer/internal/data"
	"github.com/ecopia-map/geo_transformer/internal/geometry"
	"github.com/ecopia-map/geo_transformer/internal/placer"
	"github.com/ecopia-map/geo_transformer/internal/transformer"
	"github.com/ecopia-map/geo_transformer/pkg/algorithm_manager"
	"github.com/ecopia-map/geo_transformer/tools"
)

var ErrNotPlaced = errors.New("scene object has not been placed")

type IPlacer interface {
	RunPlacer(opts *placer.PlacerOptions) error
}

type Placer struct {
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewPlacer(algorithmManager algorithm_manager.AlgorithmManager) IPlacer {
	return &Placer{
		algorithmManager: algorithmManager,
	}
}

// Places a scene object first by geodetic then by UTM coordinates, reading back both positions after each placement
func (p *Placer) RunPlacer(opts *placer.PlacerOptions) error {
	if opts.PlaceOptions == nil {
		return errors.New("missing place options")
	}

	t, err := p.algorithmManager.GetTransformer(opts.Scene)
	if err != nil {
		return err
	}
	tools.LogOutput("Using", t)

	object := data.NewSceneObject(opts.PlaceOptions.ObjectName)

	if err := PlaceByGeodetic(t, object, opts.PlaceOptions.Geodetic); err != nil {
		return err
	}
	geodetic, err := reportPlacement(t, object)
	if err != nil {
		return err
	}
	in := opts.PlaceOptions.Geodetic
	if tools.IsFloatEqual(geodetic.Latitude, in.Latitude) && tools.IsFloatEqual(geodetic.Longitude, in.Longitude) {
		tools.LogOutput("> geodetic round trip matches the input")
	} else {
		tools.LogOutput("> geodetic round trip differs from the input:", in, "->", geodetic)
	}

	if err := PlaceByProjected(t, object, opts.PlaceOptions.Projected); err != nil {
		return err
	}
	if _, err := reportPlacement(t, object); err != nil {
		return err
	}

	return nil
}

func reportPlacement(t *transformer.CoordinateTransformer, object *data.SceneObject) (geometry.GeodeticCoordinate, error) {
	geodetic, err := GeodeticPositionOf(t, object)
	if err != nil {
		return geodetic, err
	}
	tools.LogOutput("> geodetic position of", object.Name, "is", geodetic)

	projected, err := ProjectedPositionOf(t, object)
	if err != nil {
		return geodetic, err
	}
	tools.LogOutput("> UTM position of", object.Name, "is", projected)

	return geodetic, nil
}

// Moves the object to the local position of a geodetic coordinate
func PlaceByGeodetic(t *transformer.CoordinateTransformer, object *data.SceneObject, g geometry.GeodeticCoordinate) error {
	local, err := t.GeodeticToLocal(g)
	if err != nil {
		return fmt.Errorf("place %s at %s: %w", object.Name, g, err)
	}
	object.MoveTo(local)
	tools.LogOutput("> placed", object.Name, "at", g, "->", local)
	return nil
}

// Moves the object to the local position of a UTM coordinate
func PlaceByProjected(t *transformer.CoordinateTransformer, object *data.SceneObject, p geometry.ProjectedCoordinate) error {
	local, err := t.ProjectedToLocal(p)
	if err != nil {
		return fmt.Errorf("place %s at %s: %w", object.Name, p, err)
	}
	object.MoveTo(local)
	tools.LogOutput("> placed", object.Name, "at", p, "->", local)
	return nil
}

func GeodeticPositionOf(t *transformer.CoordinateTransformer, object *data.SceneObject) (geometry.GeodeticCoordinate, error) {
	if !object.Placed {
		return geometry.GeodeticCoordinate{}, fmt.Errorf("%s: %w", object.Name, ErrNotPlaced)
	}
	return t.LocalToGeodetic(object.Position)
}

func ProjectedPositionOf(t *transformer.CoordinateTransformer, object *data.SceneObject) (geometry.ProjectedCoordinate, error) {
	if !object.Placed {
		return geometry.ProjectedCoordinate{}, fmt.Errorf("%s: %w", object.Name, ErrNotPlaced)
	}
	return t.LocalToProjected(object.Position), nil
}
