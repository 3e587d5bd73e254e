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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/fluxclim"
	"github.com/spatialmodel/fluxclim/science/footprint/kljun"
	"github.com/spatialmodel/fluxclim/science/footprint/kormei"
	"github.com/spf13/cast"
)

// Model returns the footprint model implementation for kind.
func Model(kind fluxclim.ModelKind) (fluxclim.FootprintModel, error) {
	switch kind {
	case fluxclim.Kljun:
		return kljun.Model{}, nil
	case fluxclim.KormannMeixner:
		return kormei.Model{}, nil
	default:
		return nil, fmt.Errorf("fluxclim: no implementation for footprint model %v", kind)
	}
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.nc"`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("fluxclim: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkSiblingFile fills in a default path next to outputFile, with
// extension ext, if f isn't specified.
func checkSiblingFile(f, outputFile, ext string) string {
	if f == "" {
		return strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ext
	}
	return os.ExpandEnv(f)
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// parseTime parses an optional time stamp. An empty string gives the
// zero time.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	t, err := cast.ToTimeE(s)
	if err != nil {
		return t, fmt.Errorf("fluxclim: invalid time stamp %q: %v", s, err)
	}
	return t, nil
}

// DomainConfig reads the footprint grid configuration from cfg.
func DomainConfig(cfg *viper.Viper) (*fluxclim.Domain, error) {
	d := &fluxclim.Domain{
		Xmin:         cfg.GetFloat64("Domain.Xmin"),
		Xmax:         cfg.GetFloat64("Domain.Xmax"),
		Ymin:         cfg.GetFloat64("Domain.Ymin"),
		Ymax:         cfg.GetFloat64("Domain.Ymax"),
		Nx:           cfg.GetInt("Domain.Nx"),
		Ny:           cfg.GetInt("Domain.Ny"),
		TowerHeight:  cfg.GetFloat64("Domain.TowerHeight"),
		CanopyHeight: cfg.GetFloat64("Domain.CanopyHeight"),
	}
	if d.TowerHeight <= 0 {
		return nil, fmt.Errorf("fluxclim: Domain.TowerHeight must be > 0 but is %g", d.TowerHeight)
	}
	if d.CanopyHeight < 0 {
		return nil, fmt.Errorf("fluxclim: Domain.CanopyHeight must be >= 0 but is %g", d.CanopyHeight)
	}
	if err := d.Check(); err != nil {
		return nil, err
	}
	return d, nil
}

// DeriveConfig reads the input derivation configuration from cfg.
func DeriveConfig(cfg *viper.Viper) (*fluxclim.DeriveConfig, error) {
	d := fluxclim.DefaultDeriveConfig()
	d.Z0 = cfg.GetFloat64("Derive.Z0")
	d.MinZ0 = cfg.GetFloat64("Derive.MinZ0")
	d.SigmaVFallback = cfg.GetString("Derive.SigmaVFallback")
	d.Pressure = cfg.GetFloat64("Derive.Pressure")
	d.CheckUnits = cfg.GetBool("Derive.CheckUnits")
	if d.Z0 < 0 {
		return nil, fmt.Errorf("fluxclim: Derive.Z0 must be >= 0 but is %g", d.Z0)
	}
	if d.MinZ0 <= 0 {
		return nil, fmt.Errorf("fluxclim: Derive.MinZ0 must be > 0 but is %g", d.MinZ0)
	}
	if d.Pressure <= 0 {
		return nil, fmt.Errorf("fluxclim: Derive.Pressure must be > 0 but is %g", d.Pressure)
	}
	return d, nil
}

// PostProcessConfig reads the post-processing configuration from cfg.
func PostProcessConfig(cfg *viper.Viper) (fluxclim.PostProcessConfig, error) {
	p := fluxclim.PostProcessConfig{
		Cumulative: cfg.GetBool("PostProcess.Cumulative"),
		Floor:      cfg.GetFloat64("PostProcess.Floor"),
		Width:      cfg.GetFloat64("PostProcess.Width"),
	}
	if p.Floor < 0 || p.Floor >= 1 {
		return p, fmt.Errorf("fluxclim: PostProcess.Floor must be in [0, 1) but is %g", p.Floor)
	}
	if p.Width <= 0 || p.Width > 1-p.Floor {
		return p, fmt.Errorf("fluxclim: PostProcess.Width must be in (0, %g] but is %g", 1-p.Floor, p.Width)
	}
	return p, nil
}

// AreasOfInterest reads the areas of interest from the configuration
// vertex lists, shapefile, and GeoJSON files in cfg.
func AreasOfInterest(cfg *viper.Viper) ([]*fluxclim.AreaOfInterest, error) {
	polys, err := getVertexMap("AOI.Polygons", cfg)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(polys))
	for n := range polys {
		names = append(names, n)
	}
	sort.Strings(names)
	var o []*fluxclim.AreaOfInterest
	for _, n := range names {
		a, err := fluxclim.NewAreaOfInterest(n, polys[n])
		if err != nil {
			return nil, err
		}
		o = append(o, a)
	}
	if f := os.ExpandEnv(cfg.GetString("AOI.Shapefile")); f != "" {
		a, err := fluxclim.LoadAreasOfInterestShapefile(f, cfg.GetString("AOI.NameField"))
		if err != nil {
			return nil, err
		}
		o = append(o, a...)
	}
	for _, f := range expandStringSlice(cast.ToStringSlice(cfg.Get("AOI.GeoJSON"))) {
		if f == "" {
			continue
		}
		a, err := fluxclim.LoadAreaOfInterestGeoJSON(f)
		if err != nil {
			return nil, err
		}
		o = append(o, a)
	}
	seen := make(map[string]bool)
	for _, a := range o {
		if seen[a.Name] {
			return nil, fmt.Errorf("fluxclim: duplicate area of interest name %q", a.Name)
		}
		seen[a.Name] = true
	}
	return o, nil
}

// getVertexMap returns a map of names to vertex lists from a viper
// configuration, accounting for the fact that it might be a json object
// if it was set from a command line argument, and that the vertex lists
// themselves might be json strings.
func getVertexMap(varName string, cfg *viper.Viper) (map[string][][]float64, error) {
	o := make(map[string][][]float64)
	var raw map[string]interface{}
	switch i := cfg.Get(varName).(type) {
	case nil:
		return o, nil
	case map[string]interface{}:
		raw = i
	case map[string]string:
		raw = make(map[string]interface{}, len(i))
		for k, v := range i {
			raw[k] = v
		}
	case string:
		if strings.TrimSpace(i) == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(i))
		if err := d.Decode(&raw); err != nil {
			return nil, fmt.Errorf("fluxclim: parsing %s: %v", varName, err)
		}
	default:
		return nil, fmt.Errorf("fluxclim: invalid type for %s: %#v", varName, i)
	}
	for name, v := range raw {
		verts, err := toVertices(v)
		if err != nil {
			return nil, fmt.Errorf("fluxclim: %s.%s: %v", varName, name, err)
		}
		o[name] = verts
	}
	return o, nil
}

func toVertices(v interface{}) ([][]float64, error) {
	if s, ok := v.(string); ok {
		var o [][]float64
		if err := json.Unmarshal([]byte(s), &o); err != nil {
			return nil, err
		}
		return o, nil
	}
	pts, err := cast.ToSliceE(v)
	if err != nil {
		return nil, err
	}
	o := make([][]float64, len(pts))
	for i, p := range pts {
		xy, err := cast.ToSliceE(p)
		if err != nil {
			return nil, err
		}
		o[i] = make([]float64, len(xy))
		for j, c := range xy {
			if o[i][j], err = cast.ToFloat64E(c); err != nil {
				return nil, err
			}
		}
	}
	return o, nil
}
