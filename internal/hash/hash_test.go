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

package hash

import (
	"math"
	"testing"
)

type config struct {
	Name  string
	Value float64
	Attr  map[string]string
	Next  *config
}

func TestSum(t *testing.T) {
	a := config{Name: "a", Value: math.NaN(), Attr: map[string]string{"x": "1", "y": "2", "z": "3"}}
	b := config{Name: "a", Value: math.NaN(), Attr: map[string]string{"z": "3", "y": "2", "x": "1"}}
	if Sum(a, 1) != Sum(b, 1) {
		t.Error("equal values should have equal sums")
	}
	b.Next = &config{Name: "b"}
	if Sum(a, 1) == Sum(b, 1) {
		t.Error("different values should have different sums")
	}
	if Sum(a, 1) == Sum(a, 2) {
		t.Error("different values should have different sums")
	}
	if len(Sum(a)) != 16 {
		t.Errorf("want 16 characters but have %d", len(Sum(a)))
	}
}
