/*
Copyright © 2019 the ugrid authors.
This file is part of ugrid.

ugrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ugrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ugrid.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package ugridutil contains the command-line interface and the
// processing pipeline for ugrid.
package ugridutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/ugrid"
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
	// Options are the configuration options available to ugrid.
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
			name: "envfile",
			usage: `
              envfile specifies a file of KEY=value lines that are loaded
              into the environment before the configuration is read.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "StartDate",
			usage: `
              StartDate is the first time to process, for example
              2014-03-21T00.`,
			defaultVal: "2014-03-21T00",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "EndDate",
			usage: `
              EndDate is the time at which to stop processing (exclusive),
              for example 2014-03-25T00.`,
			defaultVal: "2014-03-25T00",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Step",
			usage: `
              Step is the time between consecutive model output files,
              for example 6h.`,
			defaultVal: ugrid.DefaultStep.String(),
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "URLTemplate",
			usage: `
              URLTemplate is the location of the model output files. The
              wildcards [YYYY], [MM], [DD], [HH], [YYYYMM] and [YYYYMMDD]
              are replaced by the date of each file. Locations that do not
              start with http:// or https:// are read as local NetCDF files.`,
			defaultVal: ugrid.DefaultURLTemplate,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Model",
			usage: `
              Model is the model family, which determines the variable
              names and the element winding order. Built-in models are
              FVCOM and SELFE.`,
			shorthand:  "m",
			defaultVal: "FVCOM",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ProfileFile",
			usage: `
              ProfileFile is an optional TOML file or URL with additional model
              profiles in [profile.NAME] tables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "BBox.North",
			usage: `
              BBox.North is the northern edge of the subset [degrees].`,
			defaultVal: 29.7,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "BBox.South",
			usage: `
              BBox.South is the southern edge of the subset [degrees].`,
			defaultVal: 28.1,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "BBox.West",
			usage: `
              BBox.West is the western edge of the subset [degrees].`,
			defaultVal: -96.9,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "BBox.East",
			usage: `
              BBox.East is the eastern edge of the subset [degrees].`,
			defaultVal: -94.1,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "DataDir",
			usage: `
              DataDir is the directory holding the boundary files and
              receiving the output files.`,
			shorthand:  "d",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "BoundaryFile",
			usage: `
              BoundaryFile is the boundary file of the full model grid,
              relative to DataDir.`,
			defaultVal: "ngofs.bry",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "SubsetBoundaryFile",
			usage: `
              SubsetBoundaryFile is the boundary file of the subset grid,
              relative to DataDir. It is created if it does not exist or
              was made for a different bounding box.`,
			defaultVal: "ngofs_gb.bry",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "BoundaryGeoJSON",
			usage: `
              BoundaryGeoJSON, if set, is a file relative to DataDir where
              a newly created subset boundary is also written as GeoJSON.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), boundaryCmd.Flags()},
		},
		{
			name: "OutputPrefix",
			usage: `
              OutputPrefix is the text in the source file name after which
              the output file name starts.`,
			defaultVal: ugrid.DefaultOutputPrefix,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Level",
			usage: `
              Level is the vertical layer read from 3-D velocity fields.
              Layer 0 is the surface for FVCOM.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MaxBlock",
			usage: `
              MaxBlock is the largest number of locations requested at once.
              0 means no limit.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Retries",
			usage: `
              Retries is the number of times a failed remote request is
              retried with exponential backoff.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Timeout",
			usage: `
              Timeout is the time limit for each remote request, for example
              2m. 0, the default, means no limit.`,
			defaultVal: "0",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the logging verbosity: debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("UGRID")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
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
	Root.AddCommand(urlsCmd)
	Root.AddCommand(boundaryCmd)
	Root.AddCommand(runCmd)
}

// setConfig loads the environment file and then the configuration file,
// if there are any.
func setConfig() error {
	if envpath := Cfg.GetString("envfile"); envpath != "" {
		if err := godotenv.Load(envpath); err != nil {
			return fmt.Errorf("ugridutil: problem reading environment file: %v", err)
		}
	}
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("ugridutil: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "ugrid",
	Short: "Subset unstructured ocean model grids for GNOME.",
	Long: `ugrid downloads unstructured-grid ocean model output (FVCOM family models
such as NOAA NGOFS) from OPeNDAP servers or local NetCDF files, subsets it to a
bounding box, and writes GNOME triangular grid files with surface currents.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'UGRID_var' where 'var' is the
name of the variable to be set, with '.' replaced by '_'.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of ugrid.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("ugrid v%s\n", ugrid.Version)
	},
	DisableAutoGenTag: true,
}

var urlsCmd = &cobra.Command{
	Use:   "urls",
	Short: "Print the source file locations.",
	Long: `urls prints the location of each model output file between StartDate
and EndDate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := LoadConfig(ctx, Cfg)
		if err != nil {
			return err
		}
		urls, err := cfg.URLs()
		if err != nil {
			return err
		}
		for _, u := range urls {
			cmd.Println(u)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var boundaryCmd = &cobra.Command{
	Use:   "boundary",
	Short: "Create the subset boundary file.",
	Long: `boundary reads the grid of the first source file, finds the nodes and
elements within the bounding box, and makes sure that the subset boundary file
exists and matches the bounding box.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := LoadConfig(ctx, Cfg)
		if err != nil {
			return err
		}
		log := newLogger(cmd.OutOrStderr(), cfg.LogLevel)
		_, err = Boundary(ctx, cfg, log)
		return err
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Subset the model output.",
	Long: `run processes each model output file between StartDate and EndDate
and writes one GNOME grid file per source file to DataDir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := LoadConfig(ctx, Cfg)
		if err != nil {
			return err
		}
		log := newLogger(cmd.OutOrStderr(), cfg.LogLevel)
		return Run(ctx, cfg, log)
	},
	DisableAutoGenTag: true,
}
