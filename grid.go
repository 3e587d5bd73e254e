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
	"math"
	"os"
	"sort"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
)

const (
	// Mean radius of the Earth [m].
	earthRadius = 6371000.

	// Length of a degree of latitude [m].
	metersPerDegLat = 111132.954

	timeUnits        = "days since 1800-01-01 00:00:00"
	footprintVarName = "footprint"
)

var timeEpoch = time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)

// ClimatologyGrid holds the footprint climatologies of all windows in a
// run.
type ClimatologyGrid struct {
	Domain  *Domain
	Windows []Window

	// Data has dimensions [window, x, y].
	Data *sparse.DenseArray

	// NObs is the number of observations contributing to each window.
	NObs []int

	// Longitude and Latitude are the geographic coordinates of the grid
	// cell centers in the x and y directions [degrees].
	Longitude, Latitude []float64

	Normalized, Cumulative bool

	next int
}

// NewClimatologyGrid allocates a grid for the given windows on domain d.
func NewClimatologyGrid(d *Domain, windows []Window) *ClimatologyGrid {
	g := &ClimatologyGrid{
		Domain:  d,
		Windows: windows,
		Data:    sparse.ZerosDense(len(windows), d.Nx, d.Ny),
		NObs:    make([]int, len(windows)),
	}
	g.Longitude, g.Latitude = GeoCoordinates(d)
	return g
}

// GeoCoordinates converts the cell center coordinates of d to longitude
// and latitude using a planar approximation around the tower.
func GeoCoordinates(d *Domain) (lon, lat []float64) {
	mPerDegLon := math.Pi / 180 * earthRadius * math.Cos(d.Latitude*math.Pi/180)
	x, y := d.X(), d.Y()
	lon = make([]float64, len(x))
	for i, xx := range x {
		lon[i] = d.Longitude + xx/mPerDegLon
	}
	lat = make([]float64, len(y))
	for j, yy := range y {
		lat[j] = d.Latitude + yy/metersPerDegLat
	}
	return lon, lat
}

// Append stores the field for window i, which must be the next window.
// A nil field records a window with no result.
func (g *ClimatologyGrid) Append(i int, f *FootprintField) error {
	if i != g.next {
		return fmt.Errorf("fluxclim: appending window %d to climatology grid; expected window %d", i, g.next)
	}
	if i >= len(g.Windows) {
		return fmt.Errorf("fluxclim: climatology grid only has %d windows", len(g.Windows))
	}
	g.next++
	if f == nil {
		return nil
	}
	if f.Data.Shape[0] != g.Domain.Nx || f.Data.Shape[1] != g.Domain.Ny {
		return fmt.Errorf("fluxclim: field shape %v does not match grid [%d %d]",
			f.Data.Shape, g.Domain.Nx, g.Domain.Ny)
	}
	n := g.Domain.Nx * g.Domain.Ny
	copy(g.Data.Elements[i*n:(i+1)*n], f.Data.Elements)
	g.NObs[i] = f.N
	g.Normalized = g.Normalized || f.Normalized
	g.Cumulative = g.Cumulative || f.Cumulative
	return nil
}

// Window returns the field stored for window i.
func (g *ClimatologyGrid) Window(i int) *FootprintField {
	n := g.Domain.Nx * g.Domain.Ny
	f := NewFootprintField(g.Domain)
	copy(f.Data.Elements, g.Data.Elements[i*n:(i+1)*n])
	f.N = g.NObs[i]
	f.Normalized, f.Cumulative = g.Normalized, g.Cumulative
	return f
}

// Finalize checks that all windows have been appended and returns the
// grid.
func (g *ClimatologyGrid) Finalize() (*ClimatologyGrid, error) {
	if g.next != len(g.Windows) {
		return nil, fmt.Errorf("fluxclim: climatology grid has %d of %d windows", g.next, len(g.Windows))
	}
	return g, nil
}

// Units returns the units of the grid values.
func (g *ClimatologyGrid) Units() string {
	if g.Normalized || g.Cumulative {
		return "fraction"
	}
	return unit.Dimensions{unit.LengthDim: -2}.String()
}

// WriteNetCDF writes the grid to w in NetCDF format, with attrs as global
// attributes.
func (g *ClimatologyGrid) WriteNetCDF(w *os.File, attrs map[string]string) error {
	nw := len(g.Windows)
	h := cdf.NewHeader(
		[]string{"time", "longitude", "latitude"},
		[]int{nw, g.Domain.Nx, g.Domain.Ny})
	h.AddAttribute("", "comment", "FluxClim footprint climatology")
	h.AddAttribute("", "fluxclim_version", Version)
	h.AddAttribute("", "tower_height", []float64{g.Domain.TowerHeight})
	h.AddAttribute("", "canopy_height", []float64{g.Domain.CanopyHeight})
	h.AddAttribute("", "x_extent", []float64{g.Domain.Xmin, g.Domain.Xmax})
	h.AddAttribute("", "y_extent", []float64{g.Domain.Ymin, g.Domain.Ymax})
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.AddAttribute("", k, attrs[k])
	}

	h.AddVariable("longitude", []string{"longitude"}, []float64{0})
	h.AddAttribute("longitude", "units", "degrees_east")
	h.AddVariable("latitude", []string{"latitude"}, []float64{0})
	h.AddAttribute("latitude", "units", "degrees_north")
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", timeUnits)
	h.AddVariable("n_obs", []string{"time"}, []int32{0})
	h.AddAttribute("n_obs", "description", "number of observations in window")
	h.AddVariable(footprintVarName, []string{"time", "longitude", "latitude"}, []float32{0})
	h.AddAttribute(footprintVarName, "units", g.Units())
	h.AddAttribute(footprintVarName, "description", "footprint climatology")
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("fluxclim: creating netcdf file: %v", err)
	}

	t := make([]float64, nw)
	n := make([]int32, nw)
	for i, win := range g.Windows {
		t[i] = daysSinceEpoch(win.StartTime)
		n[i] = int32(g.NObs[i])
	}
	data32 := make([]float32, len(g.Data.Elements))
	for i, e := range g.Data.Elements {
		data32[i] = float32(e)
	}
	for _, v := range []struct {
		name string
		data interface{}
	}{
		{"longitude", g.Longitude},
		{"latitude", g.Latitude},
		{"time", t},
		{"n_obs", n},
		{footprintVarName, data32},
	} {
		if err := writeNCF(f, v.name, v.data); err != nil {
			return fmt.Errorf("fluxclim: writing variable %s to netcdf file: %v", v.name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeNCF(f *cdf.File, name string, data interface{}) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	_, err := f.Writer(name, start, end).Write(data)
	return err
}

func daysSinceEpoch(t time.Time) float64 {
	return float64(t.Unix()-timeEpoch.Unix()) / 86400
}

func timeFromDays(d float64) time.Time {
	s := math.Round(d * 86400)
	return time.Unix(timeEpoch.Unix()+int64(s), 0).UTC()
}
