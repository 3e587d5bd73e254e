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

// Package kormei implements the analytical footprint model of
//
// Kormann, R. and Meixner, F. X.: An analytical footprint model for
// non-neutral stratification, Boundary-Layer Meteorol., 99, 207-224, 2001.
//
// The model does not use the boundary layer height or the roughness
// length.
package kormei

import (
	"fmt"
	"math"

	"github.com/spatialmodel/fluxclim"
	"gonum.org/v1/gonum/mathext"
)

// Model fulfils the github.com/spatialmodel/fluxclim.FootprintModel
// interface.
type Model struct{}

const k = 0.4 // von Karman constant

// Percentiles are the cumulative flux fractions for which footprint
// extents are calculated.
var Percentiles = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

// Kind fulfils the FootprintModel interface.
func (Model) Kind() fluxclim.ModelKind { return fluxclim.KormannMeixner }

// Params are the power-law profile parameters for a single observation.
type Params struct {
	M, N   float64 // exponents of the wind speed and eddy diffusivity profiles
	U      float64 // wind speed profile constant
	Kappa  float64 // eddy diffusivity profile constant
	R, Mu  float64
	Xi     float64 // flux length scale [m]
	Sigmav float64
}

// NewParams calculates the model parameters for an observation at
// measurement height zm [m] with Obukhov length L [m], wind speed u
// [m/s], friction velocity ustar [m/s], and crosswind velocity standard
// deviation sigmav [m/s].
func NewParams(zm, L, u, ustar, sigmav float64) (*Params, error) {
	switch {
	case zm <= 0:
		return nil, fmt.Errorf("measurement height %g <= 0", zm)
	case ustar <= 0:
		return nil, fmt.Errorf("u* %g <= 0", ustar)
	case u <= 0:
		return nil, fmt.Errorf("wind speed %g <= 0", u)
	case sigmav <= 0:
		return nil, fmt.Errorf("sigma_v %g <= 0", sigmav)
	case L == 0 || math.IsNaN(L) || math.IsInf(L, 0):
		return nil, fmt.Errorf("invalid Obukhov length %g", L)
	}
	zeta := zm / L
	var phiM, phiC, n float64
	if zeta > 0 {
		phiM = 1 + 5*zeta
		phiC = phiM
		n = 1 / (1 + 5*zeta)
	} else {
		phiM = math.Pow(1-16*zeta, -0.25)
		phiC = math.Pow(1-16*zeta, -0.5)
		n = (1 - 24*zeta) / (1 - 16*zeta)
	}
	p := &Params{N: n, Sigmav: sigmav}
	p.M = ustar * phiM / (k * u)
	p.U = u / math.Pow(zm, p.M)
	p.Kappa = k * ustar * zm / (phiC * math.Pow(zm, n))
	p.R = 2 + p.M - n
	if p.R <= 0 {
		return nil, fmt.Errorf("shape factor r = %g <= 0", p.R)
	}
	p.Mu = (1 + p.M) / p.R
	p.Xi = p.U * math.Pow(zm, p.R) / (p.R * p.R * p.Kappa)
	if math.IsNaN(p.Xi) || math.IsInf(p.Xi, 0) || p.Xi <= 0 {
		return nil, fmt.Errorf("invalid flux length scale %g", p.Xi)
	}
	return p, nil
}

// CrosswindIntegrated returns the crosswind-integrated footprint [1/m]
// at upwind distance x [m].
func (p *Params) CrosswindIntegrated(x float64) float64 {
	if x <= 0 {
		return 0
	}
	lf := p.Mu*math.Log(p.Xi) - lgamma(p.Mu) - (1+p.Mu)*math.Log(x) - p.Xi/x
	return math.Exp(lf)
}

// SigmaY returns the crosswind dispersion [m] at upwind distance x [m].
func (p *Params) SigmaY(x float64) float64 {
	ubar := math.Gamma(p.Mu) / math.Gamma(1/p.R) *
		math.Pow(p.R*p.R*p.Kappa/p.U, p.M/p.R) * p.U * math.Pow(x, p.M/p.R)
	return p.Sigmav * x / ubar
}

// Extent returns the upwind distance [m] within which the fraction f of
// the crosswind-integrated footprint lies.
func (p *Params) Extent(f float64) float64 {
	return p.Xi / mathext.GammaIncRegCompInv(p.Mu, f)
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// Footprint fulfils the FootprintModel interface. Observations for which
// the model parameters cannot be calculated are excluded from the
// climatology.
func (Model) Footprint(in *fluxclim.SyncedInputs, dom *fluxclim.Domain) (*fluxclim.FootprintField, error) {
	zm := dom.Zm()
	o := fluxclim.NewFootprintField(dom)
	nx, ny := dom.Nx, dom.Ny
	rho := make([]float64, nx*ny)
	theta := make([]float64, nx*ny)
	for i, x := range o.X {
		for j, y := range o.Y {
			rho[i*ny+j] = math.Hypot(x, y)
			theta[i*ny+j] = math.Atan2(x, y)
		}
	}
	extents := make([]float64, len(Percentiles))
	e := o.Data.Elements
	for t := 0; t < in.N; t++ {
		wd := in.Wd[t]
		if wd < 0 || wd > 360 {
			continue
		}
		p, err := NewParams(zm, in.L[t], in.Ws[t], in.Ustar[t], in.SigmaV[t])
		if err != nil {
			continue
		}
		wdRad := wd * math.Pi / 180
		for idx, r := range rho {
			rt := theta[idx] - wdRad
			xx := r * math.Cos(rt)
			if xx <= 0 {
				continue
			}
			yy := r * math.Sin(rt)
			sy := p.SigmaY(xx)
			v := p.CrosswindIntegrated(xx) / (math.Sqrt(2*math.Pi) * sy) * math.Exp(-yy*yy/(2*sy*sy))
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				e[idx] += v
			}
		}
		for i, f := range Percentiles {
			extents[i] += p.Extent(f)
		}
		o.N++
	}
	if o.N == 0 {
		return o, nil
	}
	for i := range e {
		e[i] /= float64(o.N)
	}
	o.Extents = make(map[float64]float64, len(Percentiles))
	for i, f := range Percentiles {
		o.Extents[f] = extents[i] / float64(o.N)
	}
	return o, nil
}
