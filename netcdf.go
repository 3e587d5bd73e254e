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
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/spf13/cast"
)

// QCFlagSuffix is appended to a variable name to give the name of its
// quality control flag variable.
const QCFlagSuffix = "_QCFlag"

// Global attributes read from input files.
const (
	AttrSiteName  = "site_name"
	AttrLatitude  = "latitude"
	AttrLongitude = "longitude"
	AttrTimeStep  = "time_step" // minutes
)

// NCSource is a SeriesSource backed by a NetCDF file. The file must have
// a "time" variable in days since 1800-01-01 and one variable per series
// whose outermost dimension is time. Any other dimensions must have
// length 1.
type NCSource struct {
	f     *cdf.File
	meta  SiteMeta
	times []time.Time
	vars  map[string]bool

	// RejectQCFlags lists quality control flag values that mark a value
	// as invalid.
	RejectQCFlags []int
}

// NewNCSource reads the header and time stamps of the NetCDF file in rw.
func NewNCSource(rw cdf.ReaderWriterAt) (*NCSource, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("fluxclim: opening netcdf input: %v", err)
	}
	s := &NCSource{f: f, vars: make(map[string]bool)}
	for _, v := range f.Header.Variables() {
		s.vars[v] = true
	}
	if !s.vars["time"] {
		return nil, fmt.Errorf("fluxclim: netcdf input has no time variable")
	}
	days, err := s.readFloats("time", 0, f.Header.Lengths("time")[0])
	if err != nil {
		return nil, err
	}
	s.times = make([]time.Time, len(days))
	for i, d := range days {
		s.times[i] = timeFromDays(d)
	}

	s.meta.Attributes = make(map[string]string)
	for _, a := range f.Header.Attributes("") {
		s.meta.Attributes[a] = attrString(f.Header.GetAttribute("", a))
	}
	s.meta.SiteName = s.meta.Attributes[AttrSiteName]
	s.meta.RecordCount = len(s.times)
	if s.meta.Latitude, err = s.floatAttr(AttrLatitude); err != nil {
		return nil, err
	}
	if s.meta.Longitude, err = s.floatAttr(AttrLongitude); err != nil {
		return nil, err
	}
	if ts, ok := s.meta.Attributes[AttrTimeStep]; ok {
		m, err := cast.ToFloat64E(strings.TrimSpace(ts))
		if err != nil {
			return nil, fmt.Errorf("fluxclim: parsing %s attribute: %v", AttrTimeStep, err)
		}
		s.meta.TimeStep = time.Duration(m * float64(time.Minute))
	} else if len(s.times) > 1 {
		s.meta.TimeStep = s.times[1].Sub(s.times[0])
	}
	if err := checkTimes(s.times, s.meta.TimeStep); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenNCSource opens the named NetCDF file as a SeriesSource. The caller
// is responsible for closing the returned file.
func OpenNCSource(filename string) (*NCSource, *os.File, error) {
	f, err := os.Open(os.ExpandEnv(filename))
	if err != nil {
		return nil, nil, fmt.Errorf("fluxclim: opening input file: %v", err)
	}
	s, err := NewNCSource(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return s, f, nil
}

func (s *NCSource) floatAttr(name string) (float64, error) {
	a, ok := s.meta.Attributes[name]
	if !ok {
		return 0, fmt.Errorf("fluxclim: netcdf input is missing global attribute %s", name)
	}
	v, err := cast.ToFloat64E(strings.TrimSpace(a))
	if err != nil {
		return 0, fmt.Errorf("fluxclim: parsing global attribute %s: %v", name, err)
	}
	return v, nil
}

// attrString converts a NetCDF attribute value to a string.
func attrString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []float64:
		if len(t) == 1 {
			return cast.ToString(t[0])
		}
	case []float32:
		if len(t) == 1 {
			return cast.ToString(t[0])
		}
	case []int32:
		if len(t) == 1 {
			return cast.ToString(t[0])
		}
	case []int16:
		if len(t) == 1 {
			return cast.ToString(t[0])
		}
	}
	return fmt.Sprint(v)
}

// Meta fulfills the SeriesSource interface.
func (s *NCSource) Meta() SiteMeta { return s.meta }

// Times fulfills the SeriesSource interface.
func (s *NCSource) Times() []time.Time { return s.times }

// Has fulfills the SeriesSource interface.
func (s *NCSource) Has(label string) bool { return label != "time" && s.vars[label] }

// Series fulfills the SeriesSource interface.
func (s *NCSource) Series(label string, start, end int) (*Series, error) {
	if !s.Has(label) {
		return nil, fmt.Errorf("fluxclim: series %s not found in netcdf input", label)
	}
	if start < 0 || end > len(s.times) || start >= end {
		return nil, fmt.Errorf("fluxclim: invalid range [%d, %d) for series %s", start, end, label)
	}
	vals, err := s.readFloats(label, start, end)
	if err != nil {
		return nil, err
	}
	attr := make(map[string]string)
	for _, a := range s.f.Header.Attributes(label) {
		attr[a] = attrString(s.f.Header.GetAttribute(label, a))
	}
	o := NewSeries(label, vals, attr)
	if s.vars[label+QCFlagSuffix] && len(s.RejectQCFlags) > 0 {
		flags, err := s.readFloats(label+QCFlagSuffix, start, end)
		if err != nil {
			return nil, err
		}
		for i, fl := range flags {
			for _, r := range s.RejectQCFlags {
				if int(fl) == r {
					o.Valid[i] = false
				}
			}
		}
	}
	return o, nil
}

// readFloats reads time steps [start, end) of variable v.
func (s *NCSource) readFloats(v string, start, end int) ([]float64, error) {
	lengths := s.f.Header.Lengths(v)
	if len(lengths) == 0 {
		return nil, fmt.Errorf("fluxclim: netcdf variable %s has no dimensions", v)
	}
	begin := make([]int, len(lengths))
	stop := make([]int, len(lengths))
	begin[0], stop[0] = start, end
	for i, l := range lengths[1:] {
		if l != 1 {
			return nil, fmt.Errorf("fluxclim: netcdf variable %s has dimensions %v; "+
				"only the time dimension may be longer than 1", v, s.f.Header.Dimensions(v))
		}
		stop[i+1] = 1
	}
	r := s.f.Reader(v, begin, stop)
	buf := r.Zero(end - start)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("fluxclim: reading netcdf variable %s: %v", v, err)
	}
	o := make([]float64, end-start)
	switch t := buf.(type) {
	case []float64:
		copy(o, t)
	case []float32:
		for i, x := range t {
			o[i] = float64(x)
		}
	case []int32:
		for i, x := range t {
			o[i] = float64(x)
		}
	case []int16:
		for i, x := range t {
			o[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("fluxclim: netcdf variable %s has unsupported type %T", v, buf)
	}
	return o, nil
}

// WriteInputs writes the footprint inputs in m to w in a NetCDF format
// that can be read by NCSource.
func WriteInputs(w *os.File, m *MicrometInputSet, site SiteMeta) error {
	h := cdf.NewHeader([]string{"time"}, []int{len(m.Times)})
	h.AddAttribute("", "comment", "FluxClim footprint inputs")
	h.AddAttribute("", AttrSiteName, site.SiteName)
	h.AddAttribute("", AttrLatitude, []float64{site.Latitude})
	h.AddAttribute("", AttrLongitude, []float64{site.Longitude})
	h.AddAttribute("", AttrTimeStep, []float64{site.TimeStep.Minutes()})
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", timeUnits)
	for _, s := range m.Inputs() {
		h.AddVariable(s.Label, []string{"time"}, []float64{0})
		for _, a := range []string{"units", Provenance} {
			if v, ok := s.Attr[a]; ok && v != "" {
				h.AddAttribute(s.Label, a, v)
			}
		}
	}
	h.Define()
	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("fluxclim: creating netcdf file: %v", err)
	}
	t := make([]float64, len(m.Times))
	for i, tt := range m.Times {
		t[i] = daysSinceEpoch(tt)
	}
	if err := writeNCF(f, "time", t); err != nil {
		return fmt.Errorf("fluxclim: writing time to netcdf file: %v", err)
	}
	for _, s := range m.Inputs() {
		v := make([]float64, s.Len())
		for i, x := range s.Values {
			if !s.Valid[i] || math.IsNaN(x) || math.IsInf(x, 0) {
				x = MissingValue
			}
			v[i] = x
		}
		if err := writeNCF(f, s.Label, v); err != nil {
			return fmt.Errorf("fluxclim: writing %s to netcdf file: %v", s.Label, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}
