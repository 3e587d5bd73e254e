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

package climplot

import (
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spatialmodel/fluxclim"
)

func testField(cumulative bool) *fluxclim.FootprintField {
	d := &fluxclim.Domain{
		Xmin: -100, Xmax: 100, Ymin: -100, Ymax: 100,
		Nx: 20, Ny: 20,
		TowerHeight: 10,
	}
	f := fluxclim.NewFootprintField(d)
	for i, x := range f.X {
		for j, y := range f.Y {
			f.Data.Set(math.Exp(-((x+30)*(x+30)+y*y)/800), i, j)
		}
	}
	f.N = 12
	fluxclim.Normalize(f)
	if cumulative {
		if err := fluxclim.CumulativeTransform(f, 0.05, 0.05); err != nil {
			panic(err)
		}
	}
	return f
}

func TestExport(t *testing.T) {
	dir, err := ioutil.TempDir("", "fluxclim_plot")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	e, err := NewPNGExporter(filepath.Join(dir, "plots"), "US-Test")
	if err != nil {
		t.Fatal(err)
	}
	w := fluxclim.Window{
		Label:     "2016-06-01T00:30:00Z/2016-06-02T00:00:00Z",
		StartTime: time.Date(2016, 6, 1, 0, 30, 0, 0, time.UTC),
	}
	want := filepath.Join(dir, "plots", "US-Test_2016-06-01T003000Z_2016-06-02T000000Z.png")
	if have := e.Filename(w); have != want {
		t.Errorf("want %s but have %s", want, have)
	}
	for _, cumulative := range []bool{false, true} {
		if err := e.Export(w, testField(cumulative)); err != nil {
			t.Fatal(err)
		}
		fi, err := os.Stat(want)
		if err != nil {
			t.Fatal(err)
		}
		if fi.Size() == 0 {
			t.Error("empty image")
		}
	}
}

func TestPlotNil(t *testing.T) {
	if _, err := Plot(nil, "x"); err == nil {
		t.Error("expected an error")
	}
}

func TestContourLevels(t *testing.T) {
	levels := contourLevels([]float64{0.5, 0.7, 0.8, 0.9})
	want := []float64{0.1, 0.2, 0.3, 0.5}
	if len(levels) != len(want) {
		t.Fatalf("want %v but have %v", want, levels)
	}
	for i := range want {
		if math.Abs(levels[i]-want[i]) > 1e-12 {
			t.Errorf("level %d: want %g but have %g", i, want[i], levels[i])
		}
	}
}
