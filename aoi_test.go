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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestNewAreaOfInterest(t *testing.T) {
	if _, err := NewAreaOfInterest("a", [][]float64{{0, 0}, {1, 1}}); err == nil {
		t.Error("2 vertices should be an error")
	}
	if _, err := NewAreaOfInterest("a", [][]float64{{0, 0}, {1, 1}, {1}}); err == nil {
		t.Error("1-d vertex should be an error")
	}
	a, err := NewAreaOfInterest("a", [][]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	if err != nil {
		t.Fatal(err)
	}
	b := a.Polygon.Bounds()
	if b.Min.X != 0 || b.Max.Y != 10 {
		t.Errorf("bounds: %+v", b)
	}
}

func TestLoadAreaOfInterestGeoJSON(t *testing.T) {
	dir, err := ioutil.TempDir("", "fluxclim_aoi")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	filename := filepath.Join(dir, "wetland.geojson")
	const g = `{"type":"Polygon","coordinates":[[[0,-100],[100,-100],[100,100],[0,100],[0,-100]]]}`
	if err := ioutil.WriteFile(filename, []byte(g), 0644); err != nil {
		t.Fatal(err)
	}
	a, err := LoadAreaOfInterestGeoJSON(filename)
	if err != nil {
		t.Fatal(err)
	}
	if a.Name != "wetland" {
		t.Errorf("want name wetland but have %s", a.Name)
	}
	f := testField(testDomain(), 50, 0, 10)
	if p := Contribution(f, a); p < 99 {
		t.Errorf("footprint is inside the area but contribution is %g%%", p)
	}

	point := filepath.Join(dir, "point.geojson")
	if err := ioutil.WriteFile(point, []byte(`{"type":"Point","coordinates":[1,2]}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAreaOfInterestGeoJSON(point); err == nil {
		t.Error("point geometry should be an error")
	}
}
