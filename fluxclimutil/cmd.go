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

// Package fluxclimutil holds the command-line interface and configuration
// handling for FluxClim.
package fluxclimutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/fluxclim"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to FluxClim.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputFile",
			usage: `
              InputFile is the path to the NetCDF file holding the tower
              time series. It must have a "time" variable in days since
              1800-01-01, the global attributes "latitude" and "longitude",
              and variables named Ws, ustar, Wd, and optionally L, SigmaV,
              V_Sd, z0, Habl, Fh, Ta, and ps. It can include environment
              variables.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where the NetCDF footprint climatology
              grid should be written. It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "fluxclim_output.nc",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can
              include environment variables. If LogFile is left blank, the
              logfile will be saved in the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the lowest level of log messages to be written.
              Options are debug, info, warning, and error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ProvenanceFile",
			usage: `
              ProvenanceFile is the path where a TOML record of the input
              sources and the outcome of each window is written. If left
              blank, it is saved next to the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "InputsFile",
			usage: `
              InputsFile is an optional path where the footprint inputs,
              including any derived inputs, are written in NetCDF format.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Model",
			usage: `
              Model specifies the footprint model. Options are "kljun"
              (Kljun et al., 2015) and "kormei" (Kormann and Meixner, 2001).`,
			shorthand:  "m",
			defaultVal: "kljun",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Cadence",
			usage: `
              Cadence specifies how the record is split into climatology
              windows. Options are single, special, hourly, daily, monthly,
              and annual.`,
			shorthand:  "c",
			defaultVal: "special",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "StartDate",
			usage: `
              StartDate is the time stamp of the first time step to be
              included for the single and special cadences, for example
              "2016-01-01 00:30". For the special cadence, the default is the
              start of the record.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "EndDate",
			usage: `
              EndDate is the time stamp of the last time step to be
              included for the special cadence. The default is the end of
              the record.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Domain.Xmin",
			usage: `
              Domain.Xmin is the western edge of the footprint grid
              relative to the tower [m].`,
			defaultVal: -1000.,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Domain.Xmax",
			usage: `
              Domain.Xmax is the eastern edge of the footprint grid
              relative to the tower [m].`,
			defaultVal: 1000.,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Domain.Ymin",
			usage: `
              Domain.Ymin is the southern edge of the footprint grid
              relative to the tower [m].`,
			defaultVal: -1000.,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Domain.Ymax",
			usage: `
              Domain.Ymax is the northern edge of the footprint grid
              relative to the tower [m].`,
			defaultVal: 1000.,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Domain.Nx",
			usage: `
              Domain.Nx is the number of grid cells in the east-west
              direction.`,
			defaultVal: 200,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Domain.Ny",
			usage: `
              Domain.Ny is the number of grid cells in the north-south
              direction.`,
			defaultVal: 200,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Domain.TowerHeight",
			usage: `
              Domain.TowerHeight is the height of the flux measurements
              above the ground [m].`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Domain.CanopyHeight",
			usage: `
              Domain.CanopyHeight is the height of the vegetation canopy
              [m]. The zero-plane displacement is taken to be two thirds of
              the canopy height.`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Derive.Z0",
			usage: `
              Derive.Z0 is a constant roughness length [m] to use when
              roughness length is not in the input file or the site
              attributes. If it is 0, the roughness length is calculated
              from the wind profile.`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Derive.MinZ0",
			usage: `
              Derive.MinZ0 is the lowest allowed roughness length [m] when it
              is calculated from the wind profile.`,
			defaultVal: 0.0001,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Derive.SigmaVFallback",
			usage: `
              Derive.SigmaVFallback is an expression used to estimate the
              cross-wind velocity standard deviation when neither SigmaV
              nor V_Sd is in the input file. Input variable names can be
              used in the expression.`,
			defaultVal: "0.5 * Ws",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Derive.Pressure",
			usage: `
              Derive.Pressure is the surface pressure [kPa] to use where it
              is missing from the input file.`,
			defaultVal: 101.325,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Derive.CheckUnits",
			usage: `
              Derive.CheckUnits specifies whether the units attributes of
              the input variables should be checked.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Derive.RejectQCFlags",
			usage: `
              Derive.RejectQCFlags lists the values of the <variable>_QCFlag
              input variables that mark an observation as invalid.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PostProcess.Cumulative",
			usage: `
              PostProcess.Cumulative specifies whether the normalized
              footprints should be converted to cumulative contribution
              fields.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PostProcess.Floor",
			usage: `
              PostProcess.Floor is the lowest normalized footprint value
              included in the cumulative transform.`,
			defaultVal: 0.05,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PostProcess.Width",
			usage: `
              PostProcess.Width is the width of the isoline bands used to
              fit the cumulative transform.`,
			defaultVal: 0.05,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "AOI.Polygons",
			usage: `
              AOI.Polygons maps area of interest names to lists of [x, y]
              vertices in meters relative to the tower, for example
              {"field": "[[0,0],[100,0],[100,100],[0,100]]"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "AOI.Shapefile",
			usage: `
              AOI.Shapefile is the path to a shapefile of areas of interest
              in meters relative to the tower. It can include environment
              variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "AOI.NameField",
			usage: `
              AOI.NameField is the AOI.Shapefile attribute holding the area
              names.`,
			defaultVal: "name",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "AOI.GeoJSON",
			usage: `
              AOI.GeoJSON lists GeoJSON polygon files, each holding one area
              of interest named after the file.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ResultsFile",
			usage: `
              ResultsFile is an optional path where area of interest
              contributions are logged. The format is chosen by the file
              extension: .xlsx or .sqlite.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PlotDir",
			usage: `
              PlotDir is an optional directory where a PNG image of each
              window's footprint is saved.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("FLUXCLIM")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
			case bool:
				set.Bool(option.name, option.defaultVal.(bool), option.usage)
			case int:
				set.Int(option.name, option.defaultVal.(int), option.usage)
			case []int:
				set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
			case float64:
				set.Float64(option.name, option.defaultVal.(float64), option.usage)
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				set.String(option.name, b.String(), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("fluxclim: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "fluxclim",
	Short: "A flux footprint climatology calculator.",
	Long: `FluxClim calculates flux footprint climatologies from eddy covariance
tower measurements. Use the subcommands specified below to access the model
functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'FLUXCLIM_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of FluxClim.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("FluxClim v%s\n", fluxclim.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Calculate a footprint climatology.",
	Long: `run calculates the flux footprint climatology of each window of the
input record and saves the results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(Cfg)
	},
	DisableAutoGenTag: true,
}
