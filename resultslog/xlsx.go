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

package resultslog

import (
	"fmt"
	"time"

	"github.com/spatialmodel/fluxclim"
	"github.com/tealeg/xlsx"
)

// SheetName is the name of the worksheet holding the results.
const SheetName = "Contributions"

var xlsxHeader = []string{"Window start", "Window", "Area", "Contribution (%)"}

// XLSX is a results log that is saved as an Excel workbook when it is
// closed.
type XLSX struct {
	filename string
	file     *xlsx.File
	sheet    *xlsx.Sheet
}

// NewXLSX creates a results log to be saved to filename.
func NewXLSX(filename string) (*XLSX, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("resultslog: %v", err)
	}
	row := sheet.AddRow()
	for _, h := range xlsxHeader {
		row.AddCell().SetString(h)
	}
	return &XLSX{filename: filename, file: f, sheet: sheet}, nil
}

// Record fulfils the fluxclim.ResultsLog interface.
func (x *XLSX) Record(r fluxclim.ContributionRecord) error {
	row := x.sheet.AddRow()
	row.AddCell().SetString(r.WindowStart.Format(time.RFC3339))
	row.AddCell().SetString(r.Window)
	row.AddCell().SetString(r.Area)
	row.AddCell().SetFloat(r.Percent)
	return nil
}

// Close saves the workbook.
func (x *XLSX) Close() error {
	if err := x.file.Save(x.filename); err != nil {
		return fmt.Errorf("resultslog: saving %s: %v", x.filename, err)
	}
	return nil
}
