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
)

// SyncedInputs holds the footprint inputs for the time steps in a
// window at which all of the inputs are valid.
type SyncedInputs struct {
	Window Window

	Ws, L, SigmaV, Ustar, Wd, Z0, Habl []float64

	// N is the number of valid time steps.
	N int
}

// Extract selects the time steps in w at which every footprint input is
// valid and finite. If there are none, the returned error wraps
// ErrNoValidData.
func Extract(w Window, in *MicrometInputSet) (*SyncedInputs, error) {
	series := in.Inputs()
	for _, s := range series {
		if s == nil {
			return nil, fmt.Errorf("fluxclim: footprint input set is incomplete")
		}
		if w.Start < 0 || w.End > s.Len() || w.Start >= w.End {
			return nil, fmt.Errorf("fluxclim: window %v is outside of the %d-step record of %s",
				w, s.Len(), s.Label)
		}
	}
	mask := make([]bool, w.Len())
	n := 0
	for i := range mask {
		ok := true
		for _, s := range series {
			v := s.Values[w.Start+i]
			if !s.Valid[w.Start+i] || math.IsNaN(v) || math.IsInf(v, 0) {
				ok = false
				break
			}
		}
		mask[i] = ok
		if ok {
			n++
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoValidData, w.Label)
	}
	compress := func(s *Series) []float64 {
		o := make([]float64, 0, n)
		for i, ok := range mask {
			if ok {
				o = append(o, s.Values[w.Start+i])
			}
		}
		return o
	}
	return &SyncedInputs{
		Window: w,
		Ws:     compress(in.Ws),
		L:      compress(in.L),
		SigmaV: compress(in.SigmaV),
		Ustar:  compress(in.Ustar),
		Wd:     compress(in.Wd),
		Z0:     compress(in.Z0),
		Habl:   compress(in.Habl),
		N:      n,
	}, nil
}
