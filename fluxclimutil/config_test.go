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

package fluxclimutil

import (
	"testing"
	"time"

	"github.com/kr/pretty"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/fluxclim"
)

func TestGetVertexMap(t *testing.T) {
	want := map[string][][]float64{
		"wetland": {{0, 0}, {10, 0}, {10, 10}},
	}
	for name, val := range map[string]interface{}{
		"config": map[string]interface{}{
			"wetland": []interface{}{
				[]interface{}{0., 0.}, []interface{}{10., 0.}, []interface{}{10., 10.},
			},
		},
		"json":        `{"wetland": [[0, 0], [10, 0], [10, 10]]}`,
		"json values": map[string]string{"wetland": "[[0, 0], [10, 0], [10, 10]]"},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := viper.New()
			cfg.Set("AOI.Polygons", val)
			have, err := getVertexMap("AOI.Polygons", cfg)
			if err != nil {
				t.Fatal(err)
			}
			if diff := pretty.Diff(want, have); len(diff) > 0 {
				t.Errorf("want %v but have %v: %v", want, have, diff)
			}
		})
	}
	t.Run("empty", func(t *testing.T) {
		cfg := viper.New()
		cfg.Set("AOI.Polygons", "{}\n")
		have, err := getVertexMap("AOI.Polygons", cfg)
		if err != nil {
			t.Fatal(err)
		}
		if len(have) != 0 {
			t.Errorf("want empty map but have %v", have)
		}
	})
	t.Run("bad", func(t *testing.T) {
		cfg := viper.New()
		cfg.Set("AOI.Polygons", `{"a": [[0, "x"]]}`)
		if _, err := getVertexMap("AOI.Polygons", cfg); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestParseTime(t *testing.T) {
	want := time.Date(2016, 6, 1, 13, 30, 0, 0, time.UTC)
	for _, s := range []string{"2016-06-01 13:30", "2016-06-01T13:30", "2016-06-01T13:30:00Z"} {
		have, err := parseTime(s)
		if err != nil {
			t.Errorf("%s: %v", s, err)
			continue
		}
		if !have.Equal(want) {
			t.Errorf("%s: want %v but have %v", s, want, have)
		}
	}
	if tt, err := parseTime(" "); err != nil || !tt.IsZero() {
		t.Errorf("empty time: %v, %v", tt, err)
	}
	if _, err := parseTime("June first"); err == nil {
		t.Error("expected an error")
	}
}

func testConfig() *viper.Viper {
	cfg := viper.New()
	for k, v := range map[string]interface{}{
		"Model":                  "kormei",
		"Cadence":                "daily",
		"Domain.Xmin":            -300.,
		"Domain.Xmax":            300.,
		"Domain.Ymin":            -300.,
		"Domain.Ymax":            300.,
		"Domain.Nx":              30,
		"Domain.Ny":              30,
		"Domain.TowerHeight":     10.,
		"Domain.CanopyHeight":    3.,
		"Derive.MinZ0":           0.0001,
		"Derive.SigmaVFallback":  "0.5 * Ws",
		"Derive.Pressure":        101.325,
		"PostProcess.Cumulative": true,
		"PostProcess.Floor":      0.05,
		"PostProcess.Width":      0.05,
		"AOI.Polygons":           `{"west": [[-300, -300], [0, -300], [0, 300], [-300, 300]]}`,
	} {
		cfg.Set(k, v)
	}
	return cfg
}

func TestClimatologyConfig(t *testing.T) {
	cfg := testConfig()
	c, err := Climatology(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.Model.Kind() != fluxclim.KormannMeixner {
		t.Errorf("model: %v", c.Model.Kind())
	}
	if c.Cadence != fluxclim.Daily {
		t.Errorf("cadence: %v", c.Cadence)
	}
	if c.Domain.Nx != 30 || c.Domain.Zm() != 8 {
		t.Errorf("domain: %+v", c.Domain)
	}
	if !c.PostProcess.Cumulative || c.PostProcess.Floor != 0.05 {
		t.Errorf("post-processing: %+v", c.PostProcess)
	}
	if len(c.AOIs) != 1 || c.AOIs[0].Name != "west" {
		t.Errorf("areas of interest: %v", c.AOIs)
	}

	for name, set := range map[string][2]interface{}{
		"model":        {"Model", "gaussian"},
		"cadence":      {"Cadence", "weekly"},
		"tower height": {"Domain.TowerHeight", 0.},
		"canopy":       {"Domain.CanopyHeight", -1.},
		"nx":           {"Domain.Nx", 1},
		"floor":        {"PostProcess.Floor", 1.},
		"width":        {"PostProcess.Width", 0.},
		"min z0":       {"Derive.MinZ0", 0.},
		"start":        {"StartDate", "tomorrow"},
		"aoi":          {"AOI.Polygons", `{"a": [[0, 0], [1, 1]]}`},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Set(set[0].(string), set[1])
			if _, err := Climatology(cfg, nil, nil); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestCheckSiblingFile(t *testing.T) {
	if f := checkSiblingFile("", "/tmp/out.nc", ".log"); f != "/tmp/out.log" {
		t.Errorf("want /tmp/out.log but have %s", f)
	}
	if f := checkSiblingFile("x.log", "/tmp/out.nc", ".log"); f != "x.log" {
		t.Errorf("want x.log but have %s", f)
	}
}
