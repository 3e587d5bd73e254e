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

// Package fluxclim calculates flux-footprint climatologies from
// eddy-covariance tower measurements.
package fluxclim

import (
	"errors"
	"fmt"
	"strings"
)

// Version gives the version number.
const Version = "1.2.0"

// Cadence specifies how the record is split into climatology windows.
type Cadence int

// These are the available averaging cadences.
const (
	Single Cadence = iota
	Special
	Hourly
	Daily
	Monthly
	Annual
)

var cadenceNames = map[Cadence]string{
	Single:  "single",
	Special: "special",
	Hourly:  "hourly",
	Daily:   "daily",
	Monthly: "monthly",
	Annual:  "annual",
}

func (c Cadence) String() string {
	if s, ok := cadenceNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Cadence(%d)", int(c))
}

// ParseCadence returns the cadence matching name, ignoring case.
func ParseCadence(name string) (Cadence, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for c, s := range cadenceNames {
		if s == n {
			return c, nil
		}
	}
	return -1, fmt.Errorf("fluxclim: unknown climatology cadence %q", name)
}

// ModelKind identifies a footprint parameterization.
type ModelKind int

const (
	// Kljun is the Kljun et al. (2015) flux footprint prediction model.
	Kljun ModelKind = iota
	// KormannMeixner is the Kormann & Meixner (2001) analytical model.
	KormannMeixner
)

func (m ModelKind) String() string {
	switch m {
	case Kljun:
		return "kljun"
	case KormannMeixner:
		return "kormei"
	default:
		return fmt.Sprintf("ModelKind(%d)", int(m))
	}
}

// ParseModelKind returns the model kind matching name ("kljun" or "kormei").
func ParseModelKind(name string) (ModelKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "kljun":
		return Kljun, nil
	case "kormei", "kormann-meixner", "kormannmeixner":
		return KormannMeixner, nil
	}
	return -1, fmt.Errorf("fluxclim: unknown footprint model %q", name)
}

// ErrNoValidData is returned when a window has no observation for which
// all footprint inputs are valid.
var ErrNoValidData = errors.New("fluxclim: no valid data in window")
