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

// Package kljun implements the Kljun et al. (2015) flux footprint
// prediction (FFP) parameterization:
//
// Kljun, N., Calanca, P., Rotach, M. W., and Schmid, H. P.: A simple
// two-dimensional parameterisation for Flux Footprint Prediction (FFP),
// Geosci. Model Dev., 8, 3695-3713, 2015.
package kljun

import (
	"fmt"
	"math"

	"github.com/spatialmodel/fluxclim"
)

// Model fulfils the github.com/spatialmodel/fluxclim.FootprintModel
// interface.
type Model struct{}

// Parameters of the crosswind-integrated footprint and crosswind
// dispersion fits.
const (
	a  = 1.4524
	b  = -1.9914
	c  = 1.4622
	d  = 0.1359
	ac = 2.17
	bc = 1.66
	cc = 20.0

	k = 0.4 // von Karman constant

	// Obukhov lengths with larger magnitudes are treated as neutral.
	neutralL = 5000.
)

// smoothing kernel applied to the climatology.
var kernel = [3][3]float64{
	{0.05, 0.1, 0.05},
	{0.1, 0.4, 0.1},
	{0.05, 0.1, 0.05},
}

// Kind fulfils the FootprintModel interface.
func (Model) Kind() fluxclim.ModelKind { return fluxclim.Kljun }

// CheckInputs returns an error if the parameterization is not valid for
// a single observation.
func CheckInputs(zm, z0, h, L, sigmav, ustar, wd float64) error {
	switch {
	case zm <= 0:
		return fmt.Errorf("measurement height %g <= 0", zm)
	case z0 <= 0:
		return fmt.Errorf("roughness length %g <= 0", z0)
	case h <= 10:
		return fmt.Errorf("boundary layer height %g <= 10 m", h)
	case zm > h:
		return fmt.Errorf("measurement height %g above boundary layer height %g", zm, h)
	case L == 0 || math.IsNaN(L):
		return fmt.Errorf("invalid Obukhov length %g", L)
	case zm/L <= -15.5:
		return fmt.Errorf("zm/L = %g <= -15.5", zm/L)
	case sigmav <= 0:
		return fmt.Errorf("sigma_v %g <= 0", sigmav)
	case ustar < 0.1:
		return fmt.Errorf("u* %g < 0.1", ustar)
	case wd < 0 || wd > 360:
		return fmt.Errorf("wind direction %g outside of [0, 360]", wd)
	}
	return nil
}

// psiF returns the stability correction for the wind profile.
func psiF(zm, L float64) float64 {
	if L <= 0 || L >= neutralL {
		x := math.Pow(1-19*zm/L, 0.25)
		return math.Log((1+x*x)/2) + 2*math.Log((1+x)/2) - 2*math.Atan(x) + math.Pi/2
	}
	return -5.3 * zm / L
}

// Footprint fulfils the FootprintModel interface. Observations for which
// the parameterization is not valid are excluded from the climatology.
func (Model) Footprint(in *fluxclim.SyncedInputs, dom *fluxclim.Domain) (*fluxclim.FootprintField, error) {
	zm := dom.Zm()
	o := fluxclim.NewFootprintField(dom)
	nx, ny := dom.Nx, dom.Ny

	// Polar coordinates of the cell centers, with theta measured
	// clockwise from north.
	rho := make([]float64, nx*ny)
	theta := make([]float64, nx*ny)
	for i, x := range o.X {
		for j, y := range o.Y {
			rho[i*ny+j] = math.Hypot(x, y)
			theta[i*ny+j] = math.Atan2(x, y)
		}
	}

	sum := make([]float64, nx*ny)
	for t := 0; t < in.N; t++ {
		z0, h, L := in.Z0[t], in.Habl[t], in.L[t]
		sigmav, ustar, wd := in.SigmaV[t], in.Ustar[t], in.Wd[t]
		if CheckInputs(zm, z0, h, L, sigmav, ustar, wd) != nil {
			continue
		}
		denom := math.Log(zm/z0) - psiF(zm, L)
		if denom <= 0 {
			continue
		}
		scale := 1e-5/math.Abs(zm/L) + 0.80
		if L > 0 && L < neutralL {
			scale = 1e-5/math.Abs(zm/L) + 0.55
		}
		if scale > 1 {
			scale = 1
		}
		wdRad := wd * math.Pi / 180
		for idx, r := range rho {
			rt := theta[idx] - wdRad
			xx := r * math.Cos(rt) // upwind distance
			if xx <= 0 {
				continue
			}
			yy := r * math.Sin(rt)
			xstar := xx / zm * (1 - zm/h) / denom
			if xstar <= d {
				continue
			}
			fstar := a * math.Pow(xstar-d, b) * math.Exp(-c/(xstar-d))
			fci := fstar / zm * (1 - zm/h) / denom
			sigystar := ac * math.Sqrt(bc*xstar*xstar/(1+cc*xstar))
			sigy := sigystar / scale * zm * sigmav / ustar
			if sigy <= 0 {
				continue
			}
			v := fci / (math.Sqrt(2*math.Pi) * sigy) * math.Exp(-yy*yy/(2*sigy*sigy))
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				sum[idx] += v
			}
		}
		o.N++
	}
	if o.N == 0 {
		return o, nil
	}
	for i := range sum {
		sum[i] /= float64(o.N)
	}
	sum = smooth(smooth(sum, nx, ny), nx, ny)
	copy(o.Data.Elements, sum)
	return o, nil
}

// smooth convolves the nx×ny field f with the smoothing kernel, treating
// values outside of the grid as zero.
func smooth(f []float64, nx, ny int) []float64 {
	o := make([]float64, len(f))
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			var v float64
			for di := -1; di <= 1; di++ {
				ii := i + di
				if ii < 0 || ii >= nx {
					continue
				}
				for dj := -1; dj <= 1; dj++ {
					jj := j + dj
					if jj < 0 || jj >= ny {
						continue
					}
					v += kernel[di+1][dj+1] * f[ii*ny+jj]
				}
			}
			o[i*ny+j] = v
		}
	}
	return o
}
