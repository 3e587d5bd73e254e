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

package fluxclimutil

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/fluxclim"
	"github.com/spatialmodel/fluxclim/climplot"
	"github.com/spatialmodel/fluxclim/resultslog"
	"github.com/spf13/cast"
)

// newLogger returns a logger that writes to standard output and to
// logFile.
func newLogger(logFile, level string) (*logrus.Logger, io.Closer, error) {
	f, err := os.Create(logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("fluxclim: problem creating log file: %v", err)
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("fluxclim: invalid LogLevel: %v", err)
	}
	l := logrus.New()
	l.Out = io.MultiWriter(os.Stdout, f)
	l.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	}
	l.Level = lvl
	return l, f, nil
}

// Climatology creates a footprint climatology run from the
// configuration in cfg and the input series in src.
func Climatology(cfg *viper.Viper, src fluxclim.SeriesSource, log logrus.FieldLogger) (*fluxclim.Climatology, error) {
	kind, err := fluxclim.ParseModelKind(cfg.GetString("Model"))
	if err != nil {
		return nil, err
	}
	model, err := Model(kind)
	if err != nil {
		return nil, err
	}
	cadence, err := fluxclim.ParseCadence(cfg.GetString("Cadence"))
	if err != nil {
		return nil, err
	}
	start, err := parseTime(cfg.GetString("StartDate"))
	if err != nil {
		return nil, err
	}
	end, err := parseTime(cfg.GetString("EndDate"))
	if err != nil {
		return nil, err
	}
	domain, err := DomainConfig(cfg)
	if err != nil {
		return nil, err
	}
	derive, err := DeriveConfig(cfg)
	if err != nil {
		return nil, err
	}
	pp, err := PostProcessConfig(cfg)
	if err != nil {
		return nil, err
	}
	aois, err := AreasOfInterest(cfg)
	if err != nil {
		return nil, err
	}
	return &fluxclim.Climatology{
		Source:      src,
		Model:       model,
		Cadence:     cadence,
		Start:       start,
		End:         end,
		Domain:      domain,
		Derive:      derive,
		PostProcess: pp,
		AOIs:        aois,
		Log:         log,
	}, nil
}

// Run calculates a footprint climatology as specified by cfg and writes
// the output files.
func Run(cfg *viper.Viper) error {
	outputFile, err := checkOutputFile(cfg.GetString("OutputFile"))
	if err != nil {
		return err
	}
	log, logCloser, err := newLogger(checkSiblingFile(cfg.GetString("LogFile"), outputFile, ".log"),
		cfg.GetString("LogLevel"))
	if err != nil {
		return err
	}
	defer logCloser.Close()

	inputFile := cfg.GetString("InputFile")
	if inputFile == "" {
		return fmt.Errorf("fluxclim: InputFile must be specified")
	}
	src, f, err := fluxclim.OpenNCSource(inputFile)
	if err != nil {
		return err
	}
	defer f.Close()
	src.RejectQCFlags = cast.ToIntSlice(cfg.Get("Derive.RejectQCFlags"))

	c, err := Climatology(cfg, src, log)
	if err != nil {
		return err
	}
	if r := cfg.GetString("ResultsFile"); r != "" {
		if c.Results, err = resultslog.New(r); err != nil {
			return err
		}
	}
	if d := cfg.GetString("PlotDir"); d != "" {
		e, err := climplot.NewPNGExporter(d, src.Meta().SiteName)
		if err != nil {
			return err
		}
		c.Exporter = e
	}

	result, runErr := c.Run()
	if c.Results != nil {
		if err := c.Results.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		log.WithError(runErr).Error("footprint climatology failed")
		return runErr
	}

	if err := writeOutputs(cfg, outputFile, result); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"windows": len(result.Status),
		"skipped": result.Skipped(),
		"output":  outputFile,
	}).Info("footprint climatology complete")
	return nil
}

func writeOutputs(cfg *viper.Viper, outputFile string, r *fluxclim.Result) error {
	w, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("fluxclim: creating output file: %v", err)
	}
	if err := r.Grid.WriteNetCDF(w, map[string]string{
		"site_name":   r.Site.SiteName,
		"model":       r.Model.String(),
		"cadence":     r.Cadence.String(),
		"config_hash": r.ConfigHash,
	}); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	p, err := os.Create(checkSiblingFile(cfg.GetString("ProvenanceFile"), outputFile, "_provenance.toml"))
	if err != nil {
		return fmt.Errorf("fluxclim: creating provenance file: %v", err)
	}
	if err := r.WriteProvenance(p); err != nil {
		p.Close()
		return err
	}
	if err := p.Close(); err != nil {
		return err
	}

	if in := cfg.GetString("InputsFile"); in != "" {
		w, err := os.Create(os.ExpandEnv(in))
		if err != nil {
			return fmt.Errorf("fluxclim: creating inputs file: %v", err)
		}
		defer w.Close()
		if err := fluxclim.WriteInputs(w, r.Inputs, r.Site); err != nil {
			return err
		}
	}
	return nil
}
