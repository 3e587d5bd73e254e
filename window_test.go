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
	"reflect"
	"testing"
	"time"
)

func testTimes(start time.Time, step time.Duration, n int) []time.Time {
	t := make([]time.Time, n)
	for i := range t {
		t[i] = start.Add(time.Duration(i) * step)
	}
	return t
}

// checkCoverage makes sure every time step is in exactly one window.
func checkCoverage(t *testing.T, w []Window, n int) {
	t.Helper()
	if len(w) == 0 {
		t.Fatal("no windows")
	}
	if w[0].Start != 0 {
		t.Errorf("first window starts at %d", w[0].Start)
	}
	for i, ww := range w {
		if ww.Start >= ww.End {
			t.Errorf("window %d is empty: [%d, %d)", i, ww.Start, ww.End)
		}
		if i > 0 && ww.Start != w[i-1].End {
			t.Errorf("window %d starts at %d but window %d ends at %d", i, ww.Start, i-1, w[i-1].End)
		}
	}
	if last := w[len(w)-1].End; last != n {
		t.Errorf("last window ends at %d; want %d", last, n)
	}
}

func TestSegmentCoverage(t *testing.T) {
	type test struct {
		cadence Cadence
		start   time.Time
		step    time.Duration
		n       int
	}
	for name, tt := range map[string]test{
		"hourly":       {Hourly, time.Date(2016, 1, 1, 0, 30, 0, 0, time.UTC), 30 * time.Minute, 100},
		"daily":        {Daily, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), 30 * time.Minute, 48*5 + 7},
		"daily_offset": {Daily, time.Date(2016, 1, 1, 13, 30, 0, 0, time.UTC), 30 * time.Minute, 48*4 + 11},
		"daily_hourly": {Daily, time.Date(2016, 2, 27, 5, 0, 0, 0, time.UTC), time.Hour, 24 * 6},
		"monthly":      {Monthly, time.Date(2016, 1, 15, 0, 0, 0, 0, time.UTC), time.Hour, 24 * 75},
		"monthly_1am":  {Monthly, time.Date(2016, 1, 1, 1, 0, 0, 0, time.UTC), time.Hour, 24 * 366},
		"annual":       {Annual, time.Date(2014, 7, 1, 0, 0, 0, 0, time.UTC), 24 * time.Hour, 365 * 3},
	} {
		t.Run(name, func(t *testing.T) {
			times := testTimes(tt.start, tt.step, tt.n)
			w, err := Segment(tt.cadence, times, tt.step, SegmentOptions{})
			if err != nil {
				t.Fatal(err)
			}
			checkCoverage(t, w, tt.n)
		})
	}
}

func TestSegmentDaily(t *testing.T) {
	t.Run("one day", func(t *testing.T) {
		times := testTimes(time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), 30*time.Minute, 48)
		w, err := Segment(Daily, times, 30*time.Minute, SegmentOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if len(w) != 1 || w[0].Start != 0 || w[0].End != 48 {
			t.Errorf("want 1 window [0, 48) but have %v", w)
		}
	})
	t.Run("full days", func(t *testing.T) {
		// Time stamps mark the end of the averaging period.
		times := testTimes(time.Date(2016, 1, 1, 0, 30, 0, 0, time.UTC), 30*time.Minute, 48*3)
		w, err := Segment(Daily, times, 30*time.Minute, SegmentOptions{})
		if err != nil {
			t.Fatal(err)
		}
		var labels []string
		for i, ww := range w {
			labels = append(labels, ww.Label)
			if ww.Len() != 48 {
				t.Errorf("window %d has %d steps; want 48", i, ww.Len())
			}
		}
		want := []string{"2016-01-01", "2016-01-02", "2016-01-03"}
		if !reflect.DeepEqual(labels, want) {
			t.Errorf("want %v but have %v", want, labels)
		}
		if !w[2].EndTime.Equal(time.Date(2016, 1, 4, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("last window ends at %v", w[2].EndTime)
		}
	})
	t.Run("partial ends", func(t *testing.T) {
		// Starts at noon on the 1st and ends at noon on the 4th.
		times := testTimes(time.Date(2016, 1, 1, 12, 0, 0, 0, time.UTC), time.Hour, 24*3+1)
		w, err := Segment(Daily, times, time.Hour, SegmentOptions{})
		if err != nil {
			t.Fatal(err)
		}
		checkCoverage(t, w, len(times))
		if len(w) != 2 {
			t.Fatalf("want 2 windows but have %d: %v", len(w), w)
		}
		if w[0].Label != "2016-01-02" || w[1].Label != "2016-01-03" {
			t.Errorf("labels: %s, %s", w[0].Label, w[1].Label)
		}
	})
}

func TestSegmentSingleSpecial(t *testing.T) {
	step := 30 * time.Minute
	times := testTimes(time.Date(2016, 1, 1, 0, 30, 0, 0, time.UTC), step, 100)

	t.Run("single", func(t *testing.T) {
		w, err := Segment(Single, times, step, SegmentOptions{Start: times[10]})
		if err != nil {
			t.Fatal(err)
		}
		if len(w) != 1 || w[0].Start != 10 || w[0].End != 11 {
			t.Errorf("want [10, 11) but have %v", w)
		}
	})
	t.Run("single no start", func(t *testing.T) {
		if _, err := Segment(Single, times, step, SegmentOptions{}); err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("special default", func(t *testing.T) {
		w, err := Segment(Special, times, step, SegmentOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if len(w) != 1 || w[0].Start != 0 || w[0].End != 100 {
			t.Errorf("want [0, 100) but have %v", w)
		}
	})
	t.Run("special bounds", func(t *testing.T) {
		w, err := Segment(Special, times, step, SegmentOptions{Start: times[5], End: times[20]})
		if err != nil {
			t.Fatal(err)
		}
		if len(w) != 1 || w[0].Start != 5 || w[0].End != 21 {
			t.Errorf("want [5, 21) but have %v", w)
		}
	})
	t.Run("special reversed", func(t *testing.T) {
		if _, err := Segment(Special, times, step, SegmentOptions{Start: times[20], End: times[5]}); err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("missing time", func(t *testing.T) {
		_, err := Segment(Single, times, step, SegmentOptions{Start: times[3].Add(time.Minute)})
		if err == nil {
			t.Error("expected an error")
		}
	})
}

func TestSegmentErrors(t *testing.T) {
	step := time.Hour
	times := testTimes(time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), step, 10)
	if _, err := Segment(Cadence(99), times, step, SegmentOptions{}); err == nil {
		t.Error("unknown cadence should cause an error")
	}
	times[5] = times[5].Add(time.Minute)
	if _, err := Segment(Daily, times, step, SegmentOptions{}); err == nil {
		t.Error("uneven time steps should cause an error")
	}
	if _, err := Segment(Daily, nil, step, SegmentOptions{}); err == nil {
		t.Error("empty record should cause an error")
	}
}

func TestParseCadence(t *testing.T) {
	for s, want := range map[string]Cadence{
		"Single": Single, "special": Special, "HOURLY": Hourly,
		"daily": Daily, "Monthly": Monthly, " annual ": Annual,
	} {
		c, err := ParseCadence(s)
		if err != nil {
			t.Errorf("%s: %v", s, err)
		}
		if c != want {
			t.Errorf("%s: want %v but have %v", s, want, c)
		}
	}
	if _, err := ParseCadence("weekly"); err == nil {
		t.Error("expected an error")
	}
}

func TestIndexOf(t *testing.T) {
	step := 30 * time.Minute
	times := testTimes(time.Date(2016, 1, 1, 0, 30, 0, 0, time.UTC), step, 10)
	i, err := IndexOf(times, times[7], step)
	if err != nil {
		t.Fatal(err)
	}
	if i != 7 {
		t.Errorf("want 7 but have %d", i)
	}
	if _, err := IndexOf(times, times[9].Add(step), step); err == nil {
		t.Error("time after the record should cause an error")
	}
}

func TestSegmentPeriodEnding(t *testing.T) {
	start := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, tt := range map[string]struct {
		n      int
		labels []string
		lens   []int
	}{
		"no closing stamp": {48 * 3, []string{"2016-01-01", "2016-01-02"}, []int{49, 95}},
		"closing stamp":    {48*3 + 1, []string{"2016-01-01", "2016-01-02", "2016-01-03"}, []int{49, 48, 48}},
	} {
		t.Run(name, func(t *testing.T) {
			w, err := Segment(Daily, testTimes(start, 30*time.Minute, tt.n), 30*time.Minute, SegmentOptions{})
			if err != nil {
				t.Fatal(err)
			}
			checkCoverage(t, w, tt.n)
			if len(w) != len(tt.labels) {
				t.Fatalf("want %d windows but have %d", len(tt.labels), len(w))
			}
			for i := range w {
				if w[i].Label != tt.labels[i] || w[i].Len() != tt.lens[i] {
					t.Errorf("window %d: want %s with %d samples but have %s with %d",
						i, tt.labels[i], tt.lens[i], w[i].Label, w[i].Len())
				}
			}
		})
	}
}
