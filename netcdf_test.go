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
	"math"
	"os"
	"testing"
)

func TestWriteInputsNCSource(t *testing.T) {
	cfg := DefaultDeriveConfig()
	cfg.Zm = 10
	src := testSource(96, kmInputs())
	src.Data[LabelWs].Valid[5] = false
	src.Data[LabelL].Values[7] = -120
	m, err := Prepare(src, KormannMeixner, cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	file, err := ioutil.TempFile("", "fluxclim_inputs_*.nc")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(file.Name())
	if err := WriteInputs(file, m, src.Meta()); err != nil {
		t.Fatal(err)
	}
	file.Close()

	nc, f, err := OpenNCSource(file.Name())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	meta := nc.Meta()
	if meta.SiteName != "test" || meta.Latitude != 40 || meta.Longitude != -105 {
		t.Errorf("site: %+v", meta)
	}
	if meta.TimeStep != src.Site.TimeStep {
		t.Errorf("time step: want %v but have %v", src.Site.TimeStep, meta.TimeStep)
	}
	times := nc.Times()
	if len(times) != 96 {
		t.Fatalf("want 96 time steps but have %d", len(times))
	}
	for i, tt := range times {
		if !tt.Equal(src.Time[i]) {
			t.Fatalf("time %d: want %v but have %v", i, src.Time[i], tt)
		}
	}
	for _, label := range []string{LabelWs, LabelL, LabelSigmaV, LabelUstar, LabelWd, LabelZ0, LabelHabl} {
		if !nc.Has(label) {
			t.Errorf("missing %s", label)
		}
	}
	if nc.Has("time") {
		t.Error("time should not be a series")
	}

	ws, err := nc.Series(LabelWs, 0, 96)
	if err != nil {
		t.Fatal(err)
	}
	if ws.Valid[5] || ws.Values[5] != MissingValue {
		t.Errorf("invalid value should be missing: %g", ws.Values[5])
	}
	if ws.NumValid() != 95 {
		t.Errorf("want 95 valid values but have %d", ws.NumValid())
	}
	if ws.Attr[Provenance] != "measured" {
		t.Errorf("provenance: %s", ws.Attr[Provenance])
	}
	l, err := nc.Series(LabelL, 6, 8)
	if err != nil {
		t.Fatal(err)
	}
	if l.Len() != 2 || l.Values[1] != -120 {
		t.Errorf("L: %v", l.Values)
	}
	z0, err := nc.Series(LabelZ0, 0, 96)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(z0.Values[0]-m.Z0.Values[0]) > 1e-12 {
		t.Errorf("z0: want %g but have %g", m.Z0.Values[0], z0.Values[0])
	}

	// The written file can be read back in as a footprint input source.
	m2, err := Prepare(nc, KormannMeixner, cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if m2.Ws.NumValid() != 95 {
		t.Errorf("want 95 valid values but have %d", m2.Ws.NumValid())
	}
}
