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

// Package climplot renders footprint climatologies as images.
package climplot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spatialmodel/fluxclim"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SourceAreas are the fractions of footprint mass whose source-area
// outlines are drawn on cumulative fields.
var SourceAreas = []float64{0.5, 0.7, 0.8, 0.9}

// contourLevels returns the cumulative field values that outline the
// given source areas. A cumulative value counts the mass in cells weaker
// than the cell itself, so the isoline at 1-p encloses the strongest
// cells holding fraction p of the mass.
func contourLevels(areas []float64) []float64 {
	levels := make([]float64, len(areas))
	for i, p := range areas {
		levels[i] = 1 - p
	}
	sort.Float64s(levels)
	return levels
}

// grid adapts a FootprintField to the plotter.GridXYZ interface.
type grid struct {
	f *fluxclim.FootprintField
}

func (g grid) Dims() (c, r int)   { return len(g.f.X), len(g.f.Y) }
func (g grid) Z(c, r int) float64 { return g.f.Data.Get(c, r) }
func (g grid) X(c int) float64    { return g.f.X[c] }
func (g grid) Y(r int) float64    { return g.f.Y[r] }

// Plot returns a heat map of f with the given title. Cumulative fields
// also get the outlines of the SourceAreas.
func Plot(f *fluxclim.FootprintField, title string) (*plot.Plot, error) {
	if f == nil || f.Data == nil {
		return nil, fmt.Errorf("climplot: no field to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Distance east of tower (m)"
	p.Y.Label.Text = "Distance north of tower (m)"

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(0)
	max := f.Data.Max()
	if max <= 0 {
		max = 1
	}
	cmap.SetMax(max)
	g := grid{f: f}
	p.Add(plotter.NewHeatMap(g, cmap.Palette(64)))

	if f.Cumulative {
		c := plotter.NewContour(g, contourLevels(SourceAreas), palette.Heat(len(SourceAreas), 1))
		p.Add(c)
	}
	return p, nil
}

// PNGExporter saves each window's footprint as a PNG file. It fulfils
// the fluxclim.Exporter interface.
type PNGExporter struct {
	Dir    string
	Prefix string

	// Size of the image.
	Width, Height vg.Length
}

// NewPNGExporter returns an exporter that saves images in dir, creating
// it if necessary.
func NewPNGExporter(dir, prefix string) (*PNGExporter, error) {
	dir = os.ExpandEnv(dir)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("climplot: creating plot directory: %v", err)
	}
	return &PNGExporter{Dir: dir, Prefix: prefix, Width: 6 * vg.Inch, Height: 6 * vg.Inch}, nil
}

// Filename returns the path of the image for window w.
func (e *PNGExporter) Filename(w fluxclim.Window) string {
	label := strings.NewReplacer(":", "", "/", "_", " ", "_").Replace(w.Label)
	name := label + ".png"
	if e.Prefix != "" {
		name = e.Prefix + "_" + name
	}
	return filepath.Join(e.Dir, name)
}

// Export fulfils the fluxclim.Exporter interface.
func (e *PNGExporter) Export(w fluxclim.Window, f *fluxclim.FootprintField) error {
	p, err := Plot(f, fmt.Sprintf("%s (n=%d)", w.Label, f.N))
	if err != nil {
		return err
	}
	if err := p.Save(e.Width, e.Height, e.Filename(w)); err != nil {
		return fmt.Errorf("climplot: saving %s: %v", e.Filename(w), err)
	}
	return nil
}
