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
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/spatialmodel/fluxclim"
	"github.com/tealeg/xlsx"
)

var testRecords = []fluxclim.ContributionRecord{
	{WindowStart: time.Date(2016, 6, 1, 0, 30, 0, 0, time.UTC), Window: "2016-06-01", Area: "west", Percent: 72.5},
	{WindowStart: time.Date(2016, 6, 1, 0, 30, 0, 0, time.UTC), Window: "2016-06-01", Area: "east", Percent: 27.5},
	{WindowStart: time.Date(2016, 6, 2, 0, 30, 0, 0, time.UTC), Window: "2016-06-02", Area: "west", Percent: 40},
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "fluxclim_resultslog")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestXLSX(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	filename := filepath.Join(dir, "results.xlsx")

	r, err := New(filename)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range testRecords {
		if err := r.Record(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := xlsx.OpenFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	sheet, ok := f.Sheet[SheetName]
	if !ok {
		t.Fatalf("missing sheet %s", SheetName)
	}
	if len(sheet.Rows) != len(testRecords)+1 {
		t.Fatalf("want %d rows but have %d", len(testRecords)+1, len(sheet.Rows))
	}
	if h := sheet.Rows[0].Cells[2].String(); h != "Area" {
		t.Errorf("header: %s", h)
	}
	row := sheet.Rows[2]
	if a := row.Cells[2].String(); a != "east" {
		t.Errorf("area: want east but have %s", a)
	}
	v, err := strconv.ParseFloat(row.Cells[3].Value, 64)
	if err != nil {
		t.Fatal(err)
	}
	if v != 27.5 {
		t.Errorf("want 27.5 but have %g", v)
	}
}

func TestSQLite(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	filename := filepath.Join(dir, "results.sqlite")

	r, err := NewSQLite(filename)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range testRecords[:2] {
		if err := r.Record(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening appends to the existing table.
	r, err = NewSQLite(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if err := r.Record(testRecords[2]); err != nil {
		t.Fatal(err)
	}
	have, err := r.Records()
	if err != nil {
		t.Fatal(err)
	}
	if len(have) != len(testRecords) {
		t.Fatalf("want %d records but have %d", len(testRecords), len(have))
	}
	for i, want := range testRecords {
		h := have[i]
		if !h.WindowStart.Equal(want.WindowStart) || h.Window != want.Window ||
			h.Area != want.Area || h.Percent != want.Percent {
			t.Errorf("record %d: want %+v but have %+v", i, want, h)
		}
	}
}

func TestNewUnsupported(t *testing.T) {
	if _, err := New("results.csv"); err == nil {
		t.Error("expected an error")
	}
}
