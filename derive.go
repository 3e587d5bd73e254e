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
	"strings"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/atmos/acm2"
	"github.com/ctessum/unit"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// Labels of the series read from a SeriesSource.
const (
	LabelWs     = "Ws"     // along-wind speed [m/s]
	LabelL      = "L"      // Monin-Obukhov length [m]
	LabelSigmaV = "SigmaV" // cross-wind velocity standard deviation [m/s]
	LabelVSd    = "V_Sd"   // standard deviation of the v wind component [m/s]
	LabelUstar  = "ustar"  // friction velocity [m/s]
	LabelWd     = "Wd"     // wind direction [degrees]
	LabelZ0     = "z0"     // roughness length [m]
	LabelHabl   = "Habl"   // boundary layer height [m]
	LabelFh     = "Fh"     // sensible heat flux [W/m2]
	LabelTa     = "Ta"     // air temperature [C]
	LabelPs     = "ps"     // surface pressure [kPa]
)

// Provenance is the series attribute recording where the values came from.
const Provenance = "provenance"

// SiteRoughnessAttr is the site attribute holding a constant roughness
// length [m].
const SiteRoughnessAttr = "roughness_length"

const (
	vonKarman = 0.4
	rd        = 287.04 // gas constant for dry air [J/kg/K]
)

// MicrometInputSet holds the micrometeorological inputs needed to
// calculate a footprint, one value per time step in the record.
type MicrometInputSet struct {
	Ws, L, SigmaV, Ustar, Wd, Z0, Habl *Series
	Times                              []time.Time
}

// Inputs returns the input series in a fixed order.
func (m *MicrometInputSet) Inputs() []*Series {
	return []*Series{m.Ws, m.L, m.SigmaV, m.Ustar, m.Wd, m.Z0, m.Habl}
}

// DeriveConfig holds options for filling in missing footprint inputs.
type DeriveConfig struct {
	// Zm is the measurement height above the zero-plane displacement [m].
	Zm float64

	// Z0 is a constant roughness length [m]. Zero means it is not set.
	Z0 float64

	// MinZ0 is the lowest allowed solved roughness length [m].
	MinZ0 float64

	// SigmaVFallback is an expression of input series labels used to
	// estimate SigmaV when it is not measured.
	SigmaVFallback string

	// Habl is the boundary layer height [m] used by models that do not
	// need it.
	Habl float64

	// Pressure [kPa] to use where surface pressure is missing.
	Pressure float64

	// CheckUnits specifies whether series units attributes should be
	// checked.
	CheckUnits bool
}

// DefaultDeriveConfig returns the default configuration.
func DefaultDeriveConfig() *DeriveConfig {
	return &DeriveConfig{
		MinZ0:          0.0001,
		SigmaVFallback: "0.5 * Ws",
		Habl:           1000,
		Pressure:       101.325,
	}
}

var expectedUnits = map[string]unit.Dimensions{
	LabelWs:     unit.MeterPerSecond,
	LabelL:      {unit.LengthDim: 1},
	LabelSigmaV: unit.MeterPerSecond,
	LabelVSd:    unit.MeterPerSecond,
	LabelUstar:  unit.MeterPerSecond,
	LabelWd:     unit.Dimless,
	LabelZ0:     {unit.LengthDim: 1},
	LabelHabl:   {unit.LengthDim: 1},
	LabelFh:     {unit.MassDim: 1, unit.TimeDim: -3},
}

var unitNames = map[string]unit.Dimensions{
	"m":       {unit.LengthDim: 1},
	"m/s":     unit.MeterPerSecond,
	"m s-1":   unit.MeterPerSecond,
	"m s^-1":  unit.MeterPerSecond,
	"degrees": unit.Dimless,
	"deg":     unit.Dimless,
	"degree":  unit.Dimless,
	"1":       unit.Dimless,
	"w/m2":    {unit.MassDim: 1, unit.TimeDim: -3},
	"w/m^2":   {unit.MassDim: 1, unit.TimeDim: -3},
	"w m-2":   {unit.MassDim: 1, unit.TimeDim: -3},
}

// checkUnits makes sure the units attribute of s, if present, matches
// the expected dimensions.
func checkUnits(s *Series) error {
	want, ok := expectedUnits[s.Label]
	if !ok {
		return nil
	}
	u, ok := s.Attr["units"]
	if !ok || u == "" {
		return nil
	}
	d, ok := unitNames[strings.ToLower(strings.TrimSpace(u))]
	if !ok {
		return fmt.Errorf("fluxclim: series %s has unrecognized units %q", s.Label, u)
	}
	if err := unit.New(1, d).Check(want); err != nil {
		return fmt.Errorf("fluxclim: series %s: %v", s.Label, err)
	}
	return nil
}

type deriver struct {
	src   SeriesSource
	n     int
	cfg   *DeriveConfig
	log   logrus.FieldLogger
	cache map[string]*Series
}

func (d *deriver) get(label string) (*Series, error) {
	if s, ok := d.cache[label]; ok {
		return s, nil
	}
	s, err := d.src.Series(label, 0, d.n)
	if err != nil {
		return nil, err
	}
	if d.cfg.CheckUnits {
		if err := checkUnits(s); err != nil {
			return nil, err
		}
	}
	d.cache[label] = s
	return s, nil
}

// measured returns a copy of the named series with its provenance set.
func (d *deriver) measured(label string) (*Series, error) {
	s, err := d.get(label)
	if err != nil {
		return nil, err
	}
	o := NewSeries(label, s.Values, s.Attr)
	copy(o.Valid, s.Valid)
	o.Attr[Provenance] = "measured"
	return o, nil
}

// Prepare gathers the footprint inputs for model kind from src, deriving
// any that are not measured. Inputs that can neither be found nor derived
// cause an error.
func Prepare(src SeriesSource, kind ModelKind, cfg *DeriveConfig, log logrus.FieldLogger) (*MicrometInputSet, error) {
	if cfg == nil {
		cfg = DefaultDeriveConfig()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	times := src.Times()
	if len(times) == 0 {
		return nil, fmt.Errorf("fluxclim: input record is empty")
	}
	d := &deriver{src: src, n: len(times), cfg: cfg, log: log, cache: make(map[string]*Series)}
	m := &MicrometInputSet{Times: times}

	var err error
	for _, r := range []struct {
		label string
		dst   **Series
	}{
		{LabelWs, &m.Ws},
		{LabelUstar, &m.Ustar},
		{LabelWd, &m.Wd},
	} {
		if !src.Has(r.label) {
			return nil, fmt.Errorf("fluxclim: required input %s is missing", r.label)
		}
		if *r.dst, err = d.measured(r.label); err != nil {
			return nil, err
		}
	}

	if m.Habl, err = d.habl(kind); err != nil {
		return nil, err
	}
	if m.L, err = d.obukhovLength(m.Ustar); err != nil {
		return nil, err
	}
	if m.SigmaV, err = d.sigmaV(); err != nil {
		return nil, err
	}
	if m.Z0, err = d.roughness(m.Ws, m.Ustar, m.L); err != nil {
		return nil, err
	}
	for _, s := range m.Inputs() {
		log.WithFields(logrus.Fields{
			"input":      s.Label,
			"provenance": s.Attr[Provenance],
			"valid":      s.NumValid(),
		}).Debug("prepared footprint input")
	}
	return m, nil
}

func (d *deriver) habl(kind ModelKind) (*Series, error) {
	switch kind {
	case KormannMeixner:
		return ConstantSeries(LabelHabl, d.cfg.Habl, d.n, map[string]string{
			"units":    "m",
			Provenance: "synthetic",
		}), nil
	case Kljun:
		if !d.src.Has(LabelHabl) {
			return nil, fmt.Errorf("fluxclim: the %s model requires boundary layer height (%s); "+
				"import it into the input file first", kind, LabelHabl)
		}
		return d.measured(LabelHabl)
	default:
		return nil, fmt.Errorf("fluxclim: unknown footprint model %v", kind)
	}
}

// obukhovLength returns the measured Monin-Obukhov length or calculates
// it from the sensible heat flux, air temperature, and pressure.
func (d *deriver) obukhovLength(ustar *Series) (*Series, error) {
	if d.src.Has(LabelL) {
		return d.measured(LabelL)
	}
	if !d.src.Has(LabelFh) || !d.src.Has(LabelTa) {
		return nil, fmt.Errorf("fluxclim: Monin-Obukhov length (%s) is missing and cannot be "+
			"calculated without %s and %s", LabelL, LabelFh, LabelTa)
	}
	fh, err := d.get(LabelFh)
	if err != nil {
		return nil, err
	}
	ta, err := d.get(LabelTa)
	if err != nil {
		return nil, err
	}
	var ps *Series
	if d.src.Has(LabelPs) {
		if ps, err = d.get(LabelPs); err != nil {
			return nil, err
		}
	}
	l := NewSeries(LabelL, make([]float64, d.n), map[string]string{
		"units":    "m",
		Provenance: "derived:" + LabelFh + "," + LabelTa + "," + LabelUstar,
	})
	for i := range l.Values {
		if !fh.Valid[i] || !ta.Valid[i] || !ustar.Valid[i] {
			l.Values[i], l.Valid[i] = MissingValue, false
			continue
		}
		p := d.cfg.Pressure
		if ps != nil && ps.Valid[i] {
			p = ps.Values[i]
		}
		t := ta.Values[i] + 273.15
		rho := p * 1000 / (rd * t)
		// acm2 takes the heat flux as positive toward the surface.
		v := acm2.ObukhovLen(-fh.Values[i], rho, t, ustar.Values[i])
		l.Values[i] = v
		l.Valid[i] = !math.IsNaN(v) && !math.IsInf(v, 0)
	}
	return l, nil
}

// sigmaV returns the measured cross-wind velocity standard deviation,
// the standard deviation of the v wind component, or an estimate
// calculated from the fallback expression.
func (d *deriver) sigmaV() (*Series, error) {
	if d.src.Has(LabelSigmaV) {
		return d.measured(LabelSigmaV)
	}
	if d.src.Has(LabelVSd) {
		s, err := d.measured(LabelVSd)
		if err != nil {
			return nil, err
		}
		s.Label = LabelSigmaV
		s.Attr[Provenance] = "derived:" + LabelVSd
		return s, nil
	}
	expr, err := govaluate.NewEvaluableExpression(d.cfg.SigmaVFallback)
	if err != nil {
		return nil, fmt.Errorf("fluxclim: parsing SigmaV fallback expression %q: %v",
			d.cfg.SigmaVFallback, err)
	}
	vars := expr.Vars()
	in := make([]*Series, len(vars))
	for i, v := range vars {
		if !d.src.Has(v) {
			return nil, fmt.Errorf("fluxclim: SigmaV fallback expression %q uses missing input %s",
				d.cfg.SigmaVFallback, v)
		}
		if in[i], err = d.get(v); err != nil {
			return nil, err
		}
	}
	s := NewSeries(LabelSigmaV, make([]float64, d.n), map[string]string{
		"units":    "m/s",
		Provenance: "estimate:" + d.cfg.SigmaVFallback,
	})
	params := make(map[string]interface{}, len(vars))
	for i := range s.Values {
		ok := true
		for j, v := range vars {
			ok = ok && in[j].Valid[i]
			params[v] = in[j].Values[i]
		}
		if !ok {
			s.Values[i], s.Valid[i] = MissingValue, false
			continue
		}
		r, err := expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("fluxclim: evaluating SigmaV fallback expression: %v", err)
		}
		v, err := cast.ToFloat64E(r)
		if err != nil {
			return nil, fmt.Errorf("fluxclim: SigmaV fallback expression result: %v", err)
		}
		s.Values[i] = v
		s.Valid[i] = !math.IsNaN(v) && !math.IsInf(v, 0)
	}
	d.log.WithField("expression", d.cfg.SigmaVFallback).
		Warn("SigmaV is not measured; using estimate")
	return s, nil
}

// roughness returns the roughness length from, in order of preference,
// measurements, the site attributes, the configuration, or the wind
// profile.
func (d *deriver) roughness(ws, ustar, l *Series) (*Series, error) {
	if d.src.Has(LabelZ0) {
		return d.measured(LabelZ0)
	}
	if a, ok := d.src.Meta().Attributes[SiteRoughnessAttr]; ok {
		z0, err := cast.ToFloat64E(strings.TrimSpace(a))
		if err != nil {
			return nil, fmt.Errorf("fluxclim: parsing site attribute %s: %v", SiteRoughnessAttr, err)
		}
		if z0 > 0 {
			return ConstantSeries(LabelZ0, z0, d.n, map[string]string{
				"units":    "m",
				Provenance: "constant:site",
			}), nil
		}
	}
	if d.cfg.Z0 > 0 {
		return ConstantSeries(LabelZ0, d.cfg.Z0, d.n, map[string]string{
			"units":    "m",
			Provenance: "constant:configuration",
		}), nil
	}
	if d.cfg.Zm <= 0 {
		return nil, fmt.Errorf("fluxclim: roughness length cannot be solved with measurement height %g", d.cfg.Zm)
	}
	z0 := NewSeries(LabelZ0, make([]float64, d.n), map[string]string{
		"units":    "m",
		Provenance: "derived:wind profile",
	})
	for i := range z0.Values {
		z0.Values[i] = d.cfg.MinZ0
		if !ws.Valid[i] || !ustar.Valid[i] || !l.Valid[i] {
			z0.Valid[i] = false
			continue
		}
		z0.Values[i], z0.Valid[i] = RoughnessLength(d.cfg.Zm, l.Values[i], ws.Values[i], ustar.Values[i], d.cfg.MinZ0)
	}
	return z0, nil
}

// PsiM is the Dyer (1974) integrated stability correction for momentum
// at stability parameter zeta = z/L.
func PsiM(zeta float64) float64 {
	if zeta >= 0 {
		return -5 * zeta
	}
	x := math.Pow(1-16*zeta, 0.25)
	return 2*math.Log((1+x)/2) + math.Log((1+x*x)/2) - 2*math.Atan(x) + math.Pi/2
}

// RoughnessLength solves the diabatic wind profile
//	U = ustar/k * (ln(zm/z0) - PsiM(zm/L) + PsiM(z0/L))
// for the roughness length z0 [m] by fixed-point iteration. The result is
// never less than floor and never NaN. ok is false when no physically
// meaningful roughness length (0 < z0 < zm) could be found.
func RoughnessLength(zm, L, U, ustar, floor float64) (z0 float64, ok bool) {
	if ustar <= 0 || zm <= 0 || U <= 0 || L == 0 || math.IsNaN(zm+L+U+ustar) {
		return floor, false
	}
	base := vonKarman*U/ustar + PsiM(zm/L)
	z0 = zm * math.Exp(-base)
	for i := 0; i < 50; i++ {
		if math.IsNaN(z0) || math.IsInf(z0, 0) || z0 <= 0 {
			break
		}
		next := zm * math.Exp(-(base - PsiM(z0/L)))
		if math.Abs(next-z0) <= 1e-9*math.Max(z0, floor) {
			z0 = next
			break
		}
		z0 = next
	}
	ok = true
	switch {
	case math.IsNaN(z0):
		return floor, false
	case z0 >= zm:
		return floor, false
	case z0 < floor:
		return floor, true
	}
	return z0, ok
}
