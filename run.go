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
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/fluxclim/internal/hash"
)

// WindowState describes the outcome of processing a window.
type WindowState string

// These are the possible window states.
const (
	WindowOK WindowState = "ok"

	// WindowNoData means that no observation in the window had valid
	// values for all footprint inputs.
	WindowNoData WindowState = "no_valid_data"

	// WindowModelFailed means that the footprint model returned an error.
	WindowModelFailed WindowState = "model_failed"

	// WindowNormalizedOnly means that the cumulative transform could not
	// be fit and the normalized field was stored instead.
	WindowNormalizedOnly WindowState = "normalized_only"
)

// WindowStatus records what happened to a window during a run.
type WindowStatus struct {
	Index      int
	Label      string
	Start, End time.Time
	N          int
	State      WindowState
	Reason     string `toml:",omitempty"`

	// Contributions maps area of interest names to the percentage of the
	// window's footprint within them.
	Contributions map[string]float64 `toml:",omitempty"`
}

// ContributionRecord is one row of the results log.
type ContributionRecord struct {
	WindowStart time.Time
	Window      string
	Area        string
	Percent     float64
}

// ResultsLog receives area of interest contributions as windows are
// processed.
type ResultsLog interface {
	Record(r ContributionRecord) error
	Close() error
}

// Exporter receives each successfully calculated window field, for
// example for plotting.
type Exporter interface {
	Export(w Window, f *FootprintField) error
}

// Climatology holds the configuration for a footprint climatology run.
type Climatology struct {
	Source  SeriesSource
	Model   FootprintModel
	Cadence Cadence

	// Start and End are optional window bounds for the Single and Special
	// cadences.
	Start, End time.Time

	Domain      *Domain
	Derive      *DeriveConfig
	PostProcess PostProcessConfig
	AOIs        []*AreaOfInterest

	// Results and Exporter are optional.
	Results  ResultsLog
	Exporter Exporter

	Log logrus.FieldLogger
}

// Result holds the output of a run.
type Result struct {
	Grid    *ClimatologyGrid
	Status  []WindowStatus
	Inputs  *MicrometInputSet
	Site    SiteMeta
	Model   ModelKind
	Cadence Cadence

	// ConfigHash identifies the configuration of the run. Runs with the
	// same site, model, windows, and options have the same hash.
	ConfigHash string
}

// Run calculates the footprint climatology of each window. Errors in
// the configuration or inputs stop the run before any window is
// processed; problems with individual windows are recorded in the
// returned window statuses instead.
func (c *Climatology) Run() (*Result, error) {
	log := c.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if c.Source == nil || c.Model == nil || c.Domain == nil {
		return nil, fmt.Errorf("fluxclim: climatology requires an input source, model, and domain")
	}
	if err := c.Domain.Check(); err != nil {
		return nil, err
	}
	site := c.Source.Meta()
	dom := *c.Domain
	if site.Latitude != 0 || site.Longitude != 0 {
		if dom.Latitude == 0 && dom.Longitude == 0 {
			dom.Latitude, dom.Longitude = site.Latitude, site.Longitude
		}
	}
	windows, err := Segment(c.Cadence, c.Source.Times(), site.TimeStep,
		SegmentOptions{Start: c.Start, End: c.End})
	if err != nil {
		return nil, err
	}
	derive := c.Derive
	if derive == nil {
		derive = DefaultDeriveConfig()
	}
	if derive.Zm == 0 {
		d := *derive
		d.Zm = dom.Zm()
		derive = &d
	}
	inputs, err := Prepare(c.Source, c.Model.Kind(), derive, log)
	if err != nil {
		return nil, err
	}
	pp := c.PostProcess
	if pp.Floor == 0 && pp.Width == 0 {
		def := DefaultPostProcessConfig()
		pp.Floor, pp.Width = def.Floor, def.Width
	}

	configHash := hash.Sum(site.SiteName, c.Model.Kind(), c.Cadence, windows,
		dom, *derive, pp, c.AOIs)

	grid := NewClimatologyGrid(&dom, windows)
	status := make([]WindowStatus, len(windows))
	log.WithFields(logrus.Fields{
		"site":    site.SiteName,
		"model":   c.Model.Kind(),
		"cadence": c.Cadence,
		"windows": len(windows),
		"config":  configHash,
	}).Info("calculating footprint climatology")

	for i, w := range windows {
		status[i] = WindowStatus{Index: i, Label: w.Label, Start: w.StartTime, End: w.EndTime}
		wlog := log.WithFields(logrus.Fields{
			"window": w.Label,
			"start":  w.StartTime,
			"end":    w.EndTime,
		})
		f, st := c.window(w, &dom, inputs, pp, wlog)
		st.Index, st.Label, st.Start, st.End = status[i].Index, status[i].Label, status[i].Start, status[i].End
		status[i] = st
		if err := grid.Append(i, f); err != nil {
			return nil, err
		}
		if f == nil {
			continue
		}
		if len(c.AOIs) > 0 {
			status[i].Contributions = Contributions(f, c.AOIs)
		}
		for _, a := range c.AOIs {
			if c.Results == nil {
				break
			}
			if err := c.Results.Record(ContributionRecord{
				WindowStart: w.StartTime,
				Window:      w.Label,
				Area:        a.Name,
				Percent:     status[i].Contributions[a.Name],
			}); err != nil {
				return nil, fmt.Errorf("fluxclim: writing results log: %v", err)
			}
		}
		if c.Exporter != nil {
			if err := c.Exporter.Export(w, f); err != nil {
				return nil, fmt.Errorf("fluxclim: exporting window %s: %v", w.Label, err)
			}
		}
	}
	if _, err := grid.Finalize(); err != nil {
		return nil, err
	}
	return &Result{
		Grid:       grid,
		Status:     status,
		Inputs:     inputs,
		Site:       site,
		Model:      c.Model.Kind(),
		Cadence:    c.Cadence,
		ConfigHash: configHash,
	}, nil
}

// window calculates the post-processed footprint for a single window.
func (c *Climatology) window(w Window, dom *Domain, inputs *MicrometInputSet, pp PostProcessConfig, log logrus.FieldLogger) (*FootprintField, WindowStatus) {
	in, err := Extract(w, inputs)
	if err != nil {
		if errors.Is(err, ErrNoValidData) {
			log.Warn("no valid data in window; skipping")
			return nil, WindowStatus{State: WindowNoData, Reason: err.Error()}
		}
		log.WithError(err).Warn("skipping window")
		return nil, WindowStatus{State: WindowModelFailed, Reason: err.Error()}
	}
	f, err := Dispatch(c.Model, in, dom, log)
	if err != nil {
		state := WindowModelFailed
		if errors.Is(err, ErrNoValidData) {
			state = WindowNoData
		}
		log.WithError(err).Warn("no footprint for window")
		return nil, WindowStatus{N: 0, State: state, Reason: err.Error()}
	}
	st := WindowStatus{N: f.N, State: WindowOK}
	if !PostProcess(f, pp, log) {
		st.State = WindowNormalizedOnly
		st.Reason = "cumulative transform could not be fit"
	}
	return f, st
}

// Skipped returns the number of windows without a footprint.
func (r *Result) Skipped() int {
	n := 0
	for _, s := range r.Status {
		if s.State == WindowNoData || s.State == WindowModelFailed {
			n++
		}
	}
	return n
}

// provenance is the record of a run written by WriteProvenance.
type provenance struct {
	Version    string
	Site       string
	Model      string
	Cadence    string
	ConfigHash string
	Created    time.Time
	Inputs     map[string]string
	Windows    []WindowStatus
}

// WriteProvenance writes a TOML record of the inputs and per-window
// outcomes of the run to w.
func (r *Result) WriteProvenance(w io.Writer) error {
	p := provenance{
		Version:    Version,
		Site:       r.Site.SiteName,
		Model:      r.Model.String(),
		Cadence:    r.Cadence.String(),
		ConfigHash: r.ConfigHash,
		Created:    time.Now().UTC().Truncate(time.Second),
		Inputs:     make(map[string]string),
		Windows:    r.Status,
	}
	if r.Inputs != nil {
		for _, s := range r.Inputs.Inputs() {
			p.Inputs[s.Label] = s.Attr[Provenance]
		}
	}
	if err := toml.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("fluxclim: writing provenance: %v", err)
	}
	return nil
}
