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
	"time"
)

// Window is a range of time steps over which a single footprint
// climatology is calculated.
type Window struct {
	Start, End int // Time step indices; Start is inclusive, End is exclusive.
	Label      string

	// StartTime and EndTime are the time stamps of the first and last
	// time steps in the window.
	StartTime, EndTime time.Time
}

// Len returns the number of time steps in w.
func (w Window) Len() int { return w.End - w.Start }

func (w Window) String() string {
	return fmt.Sprintf("%s [%s, %s]", w.Label,
		w.StartTime.Format(time.RFC3339), w.EndTime.Format(time.RFC3339))
}

// SegmentOptions holds optional explicit bounds for the Single and
// Special cadences. Zero times mean "not set".
type SegmentOptions struct {
	Start, End time.Time
}

// Segment splits the record with time stamps times and fixed step into
// windows according to cadence. For the Hourly, Daily, Monthly, and Annual
// cadences, every time step belongs to exactly one window.
//
// Time stamps mark the end of each averaging period, so a sample stamped
// at midnight closes the previous day. A partial period at either end of
// the record is folded into its neighbor. For example, three days of
// half-hourly data stamped 00:00 through 23:30 give two daily windows:
// the first sample is folded into the first day, and the last day, which
// lacks its closing 00:00 stamp, is folded into the second.
func Segment(cadence Cadence, times []time.Time, step time.Duration, opts SegmentOptions) ([]Window, error) {
	if err := checkTimes(times, step); err != nil {
		return nil, err
	}
	switch cadence {
	case Single:
		if opts.Start.IsZero() {
			return nil, fmt.Errorf("fluxclim: a start date is required for the %s cadence", cadence)
		}
		i, err := IndexOf(times, opts.Start, step)
		if err != nil {
			return nil, err
		}
		return []Window{newWindow(times, i, i+1, times[i].Format(time.RFC3339))}, nil
	case Special:
		start, end := 0, len(times)-1
		var err error
		if !opts.Start.IsZero() {
			if start, err = IndexOf(times, opts.Start, step); err != nil {
				return nil, err
			}
		}
		if !opts.End.IsZero() {
			if end, err = IndexOf(times, opts.End, step); err != nil {
				return nil, err
			}
		}
		if end < start {
			return nil, fmt.Errorf("fluxclim: end date %v is before start date %v",
				times[end], times[start])
		}
		label := times[start].Format(time.RFC3339) + "/" + times[end].Format(time.RFC3339)
		return []Window{newWindow(times, start, end+1, label)}, nil
	case Hourly:
		w := make([]Window, len(times))
		for i := range times {
			w[i] = newWindow(times, i, i+1, times[i].Format(time.RFC3339))
		}
		return w, nil
	case Daily, Monthly, Annual:
		return calendarWindows(cadence, times, step), nil
	default:
		return nil, fmt.Errorf("fluxclim: unknown climatology cadence %v", cadence)
	}
}

func newWindow(times []time.Time, start, end int, label string) Window {
	return Window{
		Start:     start,
		End:       end,
		Label:     label,
		StartTime: times[start],
		EndTime:   times[end-1],
	}
}

// periodStart returns the start of the calendar period containing t.
func periodStart(c Cadence, t time.Time) time.Time {
	switch c {
	case Daily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case Annual:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	default:
		panic(fmt.Errorf("fluxclim: no calendar period for cadence %v", c))
	}
}

func nextPeriod(c Cadence, p time.Time) time.Time {
	switch c {
	case Daily:
		return p.AddDate(0, 0, 1)
	case Monthly:
		return p.AddDate(0, 1, 0)
	default:
		return p.AddDate(1, 0, 0)
	}
}

func periodLabel(c Cadence, p time.Time) string {
	switch c {
	case Daily:
		return p.Format("2006-01-02")
	case Monthly:
		return p.Format("2006-01")
	default:
		return p.Format("2006")
	}
}

// calendarWindows groups time steps by calendar period. Time stamps mark
// the end of their averaging interval, so each time step belongs to the
// period containing t-step. Incomplete periods at the beginning and end of
// the record are merged into their neighbors.
func calendarWindows(c Cadence, times []time.Time, step time.Duration) []Window {
	type group struct {
		start, end int
		period     time.Time
	}
	var groups []group
	for i, t := range times {
		p := periodStart(c, t.Add(-step))
		if len(groups) == 0 || !groups[len(groups)-1].period.Equal(p) {
			groups = append(groups, group{start: i, end: i + 1, period: p})
			continue
		}
		groups[len(groups)-1].end = i + 1
	}

	if len(groups) > 1 {
		first := groups[0]
		if !times[first.start].Add(-step).Equal(first.period) {
			groups[1].start = first.start
			groups = groups[1:]
		}
	}
	if len(groups) > 1 {
		last := groups[len(groups)-1]
		if !times[last.end-1].Equal(nextPeriod(c, last.period)) {
			groups[len(groups)-2].end = last.end
			groups = groups[:len(groups)-1]
		}
	}

	w := make([]Window, len(groups))
	for i, g := range groups {
		w[i] = newWindow(times, g.start, g.end, periodLabel(c, g.period))
	}
	return w
}
