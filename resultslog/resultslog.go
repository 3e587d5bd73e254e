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

// Package resultslog holds sinks for the area of interest contributions
// calculated during a footprint climatology run.
package resultslog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spatialmodel/fluxclim"
)

// New returns a results log writing to filename. The format is chosen
// from the file extension: ".xlsx" for Excel or ".sqlite"/".db" for
// SQLite.
func New(filename string) (fluxclim.ResultsLog, error) {
	filename = os.ExpandEnv(filename)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return NewXLSX(filename)
	case ".sqlite", ".sqlite3", ".db":
		return NewSQLite(filename)
	default:
		return nil, fmt.Errorf("resultslog: unsupported results file type %q; use .xlsx or .sqlite",
			filepath.Ext(filename))
	}
}
