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
	"time"
)

// MissingValue marks an absent observation in input files.
const MissingValue = -9999.

// Series holds one measured or derived quantity over a range of
// time steps.
type Series struct {
	Label  string
	Values []float64
	// Valid is false where the corresponding value is missing or has
	// failed quality control.
	Valid []bool
	// Attr holds descriptive attributes such as units and provenance.
	Attr map[string]string
}

// NewSeries creates a series from values, marking non-finite values and
// MissingValue as invalid.
func NewSeries(label string, values []float64, attr map[string]string) *Series {
	s := &Series{
		Label:  label,
		Values: values,
		Valid:  make([]bool, len(values)),
		Attr:   make(map[string]string),
	}
	for k, v := range attr {
		s.Attr[k] = v
	}
	for i, v := range values {
		s.Valid[i] = !math.IsNaN(v) && !math.IsInf(v, 0) && v != MissingValue
	}
	return s
}

// ConstantSeries creates an all-valid series of length n holding v.
func ConstantSeries(label string, v float64, n int, attr map[string]string) *Series {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = v
	}
	s := NewSeries(label, vals, attr)
	for i := range s.Valid {
		s.Valid[i] = true
	}
	return s
}

// Len returns the number of time steps in s.
func (s *Series) Len() int { return len(s.Values) }

// NumValid returns the number of valid values in s.
func (s *Series) NumValid() int {
	n := 0
	for _, v := range s.Valid {
		if v {
			n++
		}
	}
	return n
}

// Slice returns the part of s in [start, end). The returned series shares
// memory with s.
func (s *Series) Slice(start, end int) (*Series, error) {
	if start < 0 || end > len(s.Values) || start >= end {
		return nil, fmt.Errorf("fluxclim: invalid range [%d, %d) for series %s of length %d",
			start, end, s.Label, len(s.Values))
	}
	return &Series{
		Label:  s.Label,
		Values: s.Values[start:end],
		Valid:  s.Valid[start:end],
		Attr:   s.Attr,
	}, nil
}

// SiteMeta holds information about the measurement site.
type SiteMeta struct {
	SiteName            string
	Latitude, Longitude float64 // degrees
	TimeStep            time.Duration
	RecordCount         int
	Attributes          map[string]string
}

// SeriesSource is a source of time series data for a single site.
// Time stamps must be strictly increasing with a fixed step.
type SeriesSource interface {
	Meta() SiteMeta
	Times() []time.Time

	// Has returns whether the source contains the named series.
	Has(label string) bool

	// Series returns the named series for time indices [start, end).
	Series(label string, start, end int) (*Series, error)
}

// MemSource is an in-memory SeriesSource.
type MemSource struct {
	Site SiteMeta
	Time []time.Time
	Data map[string]*Series
}

// NewMemSource returns an empty source with n time stamps of
// site.TimeStep starting at start.
func NewMemSource(site SiteMeta, start time.Time, n int) *MemSource {
	m := &MemSource{
		Site: site,
		Time: make([]time.Time, n),
		Data: make(map[string]*Series),
	}
	for i := range m.Time {
		m.Time[i] = start.Add(time.Duration(i) * site.TimeStep)
	}
	m.Site.RecordCount = n
	if m.Site.Attributes == nil {
		m.Site.Attributes = make(map[string]string)
	}
	return m
}

// Add adds s to the source, replacing any series with the same label.
func (m *MemSource) Add(s *Series) error {
	if s.Len() != len(m.Time) {
		return fmt.Errorf("fluxclim: series %s has length %d; source has %d time steps",
			s.Label, s.Len(), len(m.Time))
	}
	m.Data[s.Label] = s
	return nil
}

// Meta fulfills the SeriesSource interface.
func (m *MemSource) Meta() SiteMeta { return m.Site }

// Times fulfills the SeriesSource interface.
func (m *MemSource) Times() []time.Time { return m.Time }

// Has fulfills the SeriesSource interface.
func (m *MemSource) Has(label string) bool {
	_, ok := m.Data[label]
	return ok
}

// Series fulfills the SeriesSource interface.
func (m *MemSource) Series(label string, start, end int) (*Series, error) {
	s, ok := m.Data[label]
	if !ok {
		return nil, fmt.Errorf("fluxclim: series %s not found", label)
	}
	return s.Slice(start, end)
}

// IndexOf returns the index of t in times, which must have a fixed
// step.
func IndexOf(times []time.Time, t time.Time, step time.Duration) (int, error) {
	if len(times) == 0 {
		return -1, fmt.Errorf("fluxclim: empty time record")
	}
	if step <= 0 {
		return -1, fmt.Errorf("fluxclim: invalid time step %v", step)
	}
	d := t.Sub(times[0])
	if d%step != 0 {
		return -1, fmt.Errorf("fluxclim: time %v is not on the %v record step", t, step)
	}
	i := int(d / step)
	if i < 0 || i >= len(times) || !times[i].Equal(t) {
		return -1, fmt.Errorf("fluxclim: time %v not found in record (%v to %v)",
			t, times[0], times[len(times)-1])
	}
	return i, nil
}

// checkTimes makes sure the time stamps are strictly increasing with
// a fixed step.
func checkTimes(times []time.Time, step time.Duration) error {
	if len(times) == 0 {
		return fmt.Errorf("fluxclim: empty time record")
	}
	if step <= 0 {
		return fmt.Errorf("fluxclim: invalid time step %v", step)
	}
	for i := 1; i < len(times); i++ {
		if d := times[i].Sub(times[i-1]); d != step {
			return fmt.Errorf("fluxclim: time stamps %v and %v are %v apart; "+
				"the record step is %v", times[i-1], times[i], d, step)
		}
	}
	return nil
}
