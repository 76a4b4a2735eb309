package io

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/ecopia-map/geo_transformer/internal/geometry"
	"github.com/ecopia-map/geo_transformer/internal/placer"
	"github.com/ecopia-map/geo_transformer/internal/transformer"
)

type StandardConsumer struct {
	transformer *transformer.CoordinateTransformer
	direction   placer.Direction
}

func NewStandardConsumer(t *transformer.CoordinateTransformer, direction placer.Direction) *StandardConsumer {
	return &StandardConsumer{
		transformer: t,
		direction:   direction,
	}
}

// Continually consumes WorkUnits submitted to a work channel converting every point with the shared transformer.
// Continues working until the work channel is closed. Failed points are submitted as results carrying the error,
// they never stop the consumer.
func (c *StandardConsumer) Consume(workchan chan *WorkUnit, results chan *Result, wg *sync.WaitGroup) {
	defer wg.Done()

	for work := range workchan {
		result := c.doWork(work)
		if result.Err != nil {
			glog.V(1).Infof("%s:%d: %v", work.File, work.Line, result.Err)
		}
		results <- result
	}
}

func (c *StandardConsumer) doWork(work *WorkUnit) *Result {
	result := &Result{
		File:  work.File,
		Line:  work.Line,
		Input: work.Values,
		Err:   work.Err,
	}
	if result.Err != nil {
		return result
	}

	v := work.Values
	switch c.direction {
	case placer.UTMToLocal:
		local, err := c.transformer.ProjectedToLocal(geometry.NewProjectedCoordinate(v[0], v[1], v[2]))
		result.Output, result.Local, result.Err = fromLocal(local), true, err
	case placer.GeoToLocal:
		local, err := c.transformer.GeodeticToLocal(geometry.NewGeodeticCoordinate(v[0], v[1], v[2]))
		result.Output, result.Local, result.Err = fromLocal(local), true, err
	case placer.LocalToUTM:
		p := c.transformer.LocalToProjected(toLocal(v))
		result.Output = [3]float64{p.East, p.North, p.Altitude}
	case placer.LocalToGeo:
		g, err := c.transformer.LocalToGeodetic(toLocal(v))
		result.Output, result.Err = [3]float64{g.Latitude, g.Longitude, g.Altitude}, err
	default:
		result.Err = fmt.Errorf("unknown conversion direction %q", c.direction)
	}

	if result.Err != nil {
		result.Output = [3]float64{}
	}
	return result
}

func toLocal(v [3]float64) geometry.LocalCoordinate {
	return geometry.NewLocalCoordinate(float32(v[0]), float32(v[1]), float32(v[2]))
}

func fromLocal(l geometry.LocalCoordinate) [3]float64 {
	return [3]float64{float64(l.X), float64(l.Y), float64(l.Z)}
}
