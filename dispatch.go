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
	"runtime/debug"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// Domain is the tower-centered grid on which footprints are calculated.
type Domain struct {
	// Extent of the grid relative to the tower [m].
	Xmin, Xmax, Ymin, Ymax float64

	// Number of grid cells in the x (east-west) and y (north-south)
	// directions.
	Nx, Ny int

	TowerHeight, CanopyHeight float64 // [m]

	Latitude, Longitude float64 // Tower location [degrees]
}

// Check returns an error if the domain is not usable.
func (d *Domain) Check() error {
	switch {
	case d.Nx < 2 || d.Ny < 2:
		return fmt.Errorf("fluxclim: domain must have at least 2 cells in each direction; have %d×%d", d.Nx, d.Ny)
	case d.Xmax <= d.Xmin || d.Ymax <= d.Ymin:
		return fmt.Errorf("fluxclim: invalid domain extent x:[%g, %g] y:[%g, %g]", d.Xmin, d.Xmax, d.Ymin, d.Ymax)
	case d.Zm() <= 0:
		return fmt.Errorf("fluxclim: measurement height (tower height %g m, canopy height %g m) must be > 0",
			d.TowerHeight, d.CanopyHeight)
	case d.Latitude < -90 || d.Latitude > 90:
		return fmt.Errorf("fluxclim: invalid tower latitude %g", d.Latitude)
	}
	return nil
}

// Zm returns the measurement height above the zero-plane displacement,
// which is taken to be two thirds of the canopy height.
func (d *Domain) Zm() float64 { return d.TowerHeight - 2./3.*d.CanopyHeight }

// Dx returns the cell width in the x direction [m].
func (d *Domain) Dx() float64 { return (d.Xmax - d.Xmin) / float64(d.Nx) }

// Dy returns the cell width in the y direction [m].
func (d *Domain) Dy() float64 { return (d.Ymax - d.Ymin) / float64(d.Ny) }

// X returns the x coordinates of the cell centers.
func (d *Domain) X() []float64 {
	x := make([]float64, d.Nx)
	dx := d.Dx()
	for i := range x {
		x[i] = d.Xmin + (float64(i)+0.5)*dx
	}
	return x
}

// Y returns the y coordinates of the cell centers.
func (d *Domain) Y() []float64 {
	y := make([]float64, d.Ny)
	dy := d.Dy()
	for j := range y {
		y[j] = d.Ymin + (float64(j)+0.5)*dy
	}
	return y
}

// FootprintField is a footprint climatology on a Domain grid.
type FootprintField struct {
	// Data has dimensions [Nx, Ny] and units of m^-2 until it is normalized.
	Data *sparse.DenseArray

	// N is the number of observations that contributed to the field.
	N int

	X, Y []float64 // Cell center coordinates [m]

	// Extents maps footprint percentiles to the along-wind distance from
	// the tower [m] within which that fraction of the flux originates.
	Extents map[float64]float64

	// Normalized and Cumulative record the post-processing applied.
	Normalized, Cumulative bool
}

// NewFootprintField returns an empty field on the grid of d.
func NewFootprintField(d *Domain) *FootprintField {
	return &FootprintField{
		Data: sparse.ZerosDense(d.Nx, d.Ny),
		X:    d.X(),
		Y:    d.Y(),
	}
}

// FootprintModel calculates footprint climatologies.
type FootprintModel interface {
	Kind() ModelKind

	// Footprint calculates the climatology of the footprints of the
	// observations in `in` on the grid of d.
	Footprint(in *SyncedInputs, d *Domain) (*FootprintField, error)
}

// Dispatch calculates a footprint using m. Errors and panics from m are
// returned as errors so that a single failed window does not stop the
// run. A field with no contributing observations is returned as
// ErrNoValidData.
func Dispatch(m FootprintModel, in *SyncedInputs, d *Domain, log logrus.FieldLogger) (f *FootprintField, err error) {
	if in == nil || in.N == 0 {
		return nil, ErrNoValidData
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithFields(logrus.Fields{
		"model":  m.Kind(),
		"window": in.Window.Label,
		"n":      in.N,
	})
	defer func() {
		if r := recover(); r != nil {
			f = nil
			err = fmt.Errorf("fluxclim: %v model failed: %v", m.Kind(), r)
			log.WithField("stack", string(debug.Stack())).Error(err)
		}
	}()
	f, err = m.Footprint(in, d)
	if err != nil {
		log.WithError(err).Warn("footprint calculation failed")
		return nil, fmt.Errorf("fluxclim: %v model: %v", m.Kind(), err)
	}
	if f == nil || f.N == 0 {
		return nil, fmt.Errorf("%w: the %v model rejected all %d observations", ErrNoValidData, m.Kind(), in.N)
	}
	if f.Data == nil || len(f.Data.Shape) != 2 || f.Data.Shape[0] != d.Nx || f.Data.Shape[1] != d.Ny {
		return nil, fmt.Errorf("fluxclim: %v model returned a field with the wrong shape", m.Kind())
	}
	if f.X == nil {
		f.X = d.X()
	}
	if f.Y == nil {
		f.Y = d.Y()
	}
	log.WithField("n_used", f.N).Debug("calculated footprint")
	return f, nil
}
