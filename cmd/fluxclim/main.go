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

// Command fluxclim is a command-line interface for the FluxClim footprint
// climatology calculator.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/fluxclim/fluxclimutil"
)

func main() {
	if err := fluxclimutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
