/*
Copyright © 2017 the FluxClim authors.
This file is part of FluxClim.

FluxClim is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FluxClim is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FluxClim.  If not, see <http://www.gnu.org/licenses/>.
*/

package fluxclim

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
)

// AreaOfInterest is a named region for which footprint contributions are
// reported. Coordinates are in meters relative to the tower, with x
// increasing to the east and y increasing to the north.
type AreaOfInterest struct {
	Name    string
	Polygon geom.Polygonal
}

// Bounds returns the bounding box of the area.
func (a *AreaOfInterest) Bounds() *geom.Bounds { return a.Polygon.Bounds() }

// NewAreaOfInterest creates an area of interest from a list of [x, y]
// vertices.
func NewAreaOfInterest(name string, vertices [][]float64) (*AreaOfInterest, error) {
	if len(vertices) < 3 {
		return nil, fmt.Errorf("fluxclim: area of interest %s must have at least 3 vertices; has %d",
			name, len(vertices))
	}
	ring := make([]geom.Point, len(vertices))
	for i, v := range vertices {
		if len(v) != 2 {
			return nil, fmt.Errorf("fluxclim: area of interest %s: vertex %d has %d coordinates; want 2",
				name, i, len(v))
		}
		ring[i] = geom.Point{X: v[0], Y: v[1]}
	}
	return &AreaOfInterest{Name: name, Polygon: geom.Polygon{ring}}, nil
}

// LoadAreasOfInterestShapefile reads areas of interest from a shapefile,
// using the field nameField as the area name.
func LoadAreasOfInterestShapefile(filename, nameField string) ([]*AreaOfInterest, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("fluxclim: opening area of interest shapefile: %v", err)
	}
	defer d.Close()
	var o []*AreaOfInterest
	for {
		g, fields, more := d.DecodeRowFields(nameField)
		if !more {
			break
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("fluxclim: area of interest %s in %s is a %T; want a polygon",
				fields[nameField], filename, g)
		}
		o = append(o, &AreaOfInterest{Name: strings.TrimSpace(fields[nameField]), Polygon: p})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("fluxclim: reading area of interest shapefile: %v", err)
	}
	return o, nil
}

// LoadAreaOfInterestGeoJSON reads an area of interest from a GeoJSON
// geometry file. The area is named after the file.
func LoadAreaOfInterestGeoJSON(filename string) (*AreaOfInterest, error) {
	b, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("fluxclim: reading area of interest: %v", err)
	}
	g, err := geojson.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("fluxclim: decoding area of interest %s: %v", filename, err)
	}
	p, ok := g.(geom.Polygonal)
	if !ok {
		return nil, fmt.Errorf("fluxclim: area of interest in %s is a %T; want a polygon", filename, g)
	}
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return &AreaOfInterest{Name: name, Polygon: p}, nil
}
