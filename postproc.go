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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PostProcessConfig holds options for post-processing footprint fields.
type PostProcessConfig struct {
	// Cumulative specifies whether normalized fields should be converted
	// to cumulative contribution fields.
	Cumulative bool

	// Floor is the lowest normalized value included in the cumulative
	// transform, and Width is the width of the isoline bands.
	Floor, Width float64
}

// DefaultPostProcessConfig returns the default post-processing options.
func DefaultPostProcessConfig() PostProcessConfig {
	return PostProcessConfig{Floor: 0.05, Width: 0.05}
}

// PostProcess normalizes f and, if requested, converts it to a cumulative
// contribution field. It returns false if the cumulative transform could
// not be fit and the normalized field was kept instead.
func PostProcess(f *FootprintField, cfg PostProcessConfig, log logrus.FieldLogger) bool {
	Normalize(f)
	if !cfg.Cumulative {
		return true
	}
	if err := CumulativeTransform(f, cfg.Floor, cfg.Width); err != nil {
		if log == nil {
			log = logrus.StandardLogger()
		}
		log.WithError(err).Warn("keeping normalized footprint")
		return false
	}
	return true
}

// Normalize divides f by its maximum value. Fields with no positive
// values are left unchanged.
func Normalize(f *FootprintField) {
	e := f.Data.Elements
	if len(e) == 0 {
		return
	}
	max := floats.Max(e)
	if math.IsNaN(max) || math.IsInf(max, 0) || max <= 0 {
		return
	}
	if max != 1 {
		floats.Scale(1/max, e)
	}
	f.Normalized = true
}

// CumulativeTransform converts the normalized field f into a cumulative
// contribution field, where each value is the fraction of the total
// footprint mass (above floor) held by cells with normalized values no
// greater than that cell's. The relation between normalized value and
// cumulative fraction is fit with a cubic polynomial using isoline bands
// of the given width. The output is clamped to [0, 1], is non-decreasing
// in the normalized value, and is zero below floor.
// If fewer than two bands contain any mass, f is left unchanged and an
// error is returned.
func CumulativeTransform(f *FootprintField, floor, width float64) error {
	if floor < 0 || floor >= 1 || width <= 0 {
		return fmt.Errorf("fluxclim: invalid cumulative transform floor %g and band width %g", floor, width)
	}
	e := f.Data.Elements
	nb := int(math.Ceil((1-floor)/width - 1e-9))
	mass := make([]float64, nb)
	var total float64
	for _, v := range e {
		if v < floor || math.IsNaN(v) {
			continue
		}
		k := int((v - floor) / width)
		if k >= nb {
			k = nb - 1
		}
		mass[k] += v
		total += v
	}
	nonEmpty := 0
	for _, m := range mass {
		if m > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < 2 || total <= 0 {
		return fmt.Errorf("fluxclim: cumulative transform needs at least 2 non-empty bands; have %d", nonEmpty)
	}

	// Fit points are the upper edges of the bands and the cumulative
	// mass fraction below them, anchored at (floor, 0).
	x := make([]float64, nb+1)
	y := make([]float64, nb+1)
	x[0] = floor
	for k := range mass {
		x[k+1] = math.Min(floor+float64(k+1)*width, 1)
		y[k+1] = y[k] + mass[k]/total
	}
	coef, err := polyFit(x, y, 3)
	if err != nil {
		return err
	}
	t := newMonotoneTable(coef, floor, 1, 200)
	for i, v := range e {
		if v < floor || math.IsNaN(v) {
			e[i] = 0
			continue
		}
		e[i] = t.eval(v)
	}
	f.Cumulative = true
	return nil
}

// polyFit returns the coefficients (lowest order first) of the least
// squares polynomial of degree at most degree through (x, y).
func polyFit(x, y []float64, degree int) ([]float64, error) {
	n := len(x)
	if degree > n-1 {
		degree = n - 1
	}
	X := mat.NewDense(n, degree+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= degree; j++ {
			X.Set(i, j, math.Pow(x[i], float64(j)))
		}
	}
	var qr mat.QR
	qr.Factorize(X)
	c := mat.NewVecDense(degree+1, nil)
	if err := qr.SolveVecTo(c, false, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("fluxclim: fitting cumulative polynomial: %v", err)
	}
	coef := make([]float64, degree+1)
	for i := range coef {
		coef[i] = c.AtVec(i)
	}
	return coef, nil
}

func polyEval(coef []float64, x float64) float64 {
	var y float64
	for i := len(coef) - 1; i >= 0; i-- {
		y = y*x + coef[i]
	}
	return y
}

// monotoneTable is a polynomial sampled on a regular grid, clamped to
// [0, 1] and forced to be non-decreasing.
type monotoneTable struct {
	x0, dx float64
	y      []float64
}

func newMonotoneTable(coef []float64, lo, hi float64, n int) monotoneTable {
	t := monotoneTable{x0: lo, dx: (hi - lo) / float64(n), y: make([]float64, n+1)}
	run := 0.
	for i := range t.y {
		v := polyEval(coef, lo+float64(i)*t.dx)
		if math.IsNaN(v) || v < 0 {
			v = 0
		}
		run = math.Max(run, math.Min(v, 1))
		t.y[i] = run
	}
	return t
}

func (t monotoneTable) eval(x float64) float64 {
	p := (x - t.x0) / t.dx
	if p <= 0 {
		return t.y[0]
	}
	i := int(p)
	if i >= len(t.y)-1 {
		return t.y[len(t.y)-1]
	}
	frac := p - float64(i)
	return t.y[i] + frac*(t.y[i+1]-t.y[i])
}

// Contribution returns the percentage of the total of f within a. Cells
// are assigned to a by their centers.
func Contribution(f *FootprintField, a *AreaOfInterest) float64 {
	return Contributions(f, []*AreaOfInterest{a})[a.Name]
}

// Contributions returns the percentage of the total of f within each of
// the areas of interest, keyed by area name. Cells are assigned to areas
// by their centers, and areas may overlap. A center lying on an area's
// boundary is tested again after a small shift toward +x and +y, so
// areas that share an edge each receive a cell at most once.
func Contributions(f *FootprintField, aois []*AreaOfInterest) map[string]float64 {
	o := make(map[string]float64, len(aois))
	for _, a := range aois {
		o[a.Name] = 0
	}
	total := floats.Sum(f.Data.Elements)
	if len(aois) == 0 || total <= 0 || math.IsNaN(total) {
		return o
	}
	ex, ey := edgeShift(f.X), 0.618034*edgeShift(f.Y)
	index := rtree.NewTree(25, 50)
	for _, a := range aois {
		index.Insert(a)
	}
	for i, x := range f.X {
		for j, y := range f.Y {
			v := f.Data.Get(i, j)
			if v == 0 {
				continue
			}
			p := geom.Point{X: x, Y: y}
			shifted := geom.Point{X: x + ex, Y: y + ey}
			for _, s := range index.SearchIntersect(p.Bounds()) {
				a := s.(*AreaOfInterest)
				switch p.Within(a.Polygon) {
				case geom.Inside:
					o[a.Name] += v
				case geom.OnEdge:
					if shifted.Within(a.Polygon) == geom.Inside {
						o[a.Name] += v
					}
				}
			}
		}
	}
	for name, v := range o {
		o[name] = math.Max(0, math.Min(100, 100*v/total))
	}
	return o
}

// edgeShift returns a distance that is small relative to the spacing of
// the cell centers c.
func edgeShift(c []float64) float64 {
	if len(c) < 2 {
		return 1e-9
	}
	return 1e-6 * math.Abs(c[1]-c[0])
}
