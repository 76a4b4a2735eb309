/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/ecopia-map/geo_transformer/internal/config"
	"github.com/ecopia-map/geo_transformer/internal/geometry"
	"github.com/ecopia-map/geo_transformer/internal/placer"
	"github.com/ecopia-map/geo_transformer/pkg"
	"github.com/ecopia-map/geo_transformer/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/geo_transformer/tools"
)

const VERSION = "0.3.0"

const logo = `
                     _                        __
  __ _  ___  ___    | |_ _ __ __ _ _ __  ___ / _| ___  _ __ _ __ ___   ___ _ __
 / _  |/ _ \/ _ \   | __| '__/ _  | '_ \/ __| |_ / _ \| '__| '_   _ \ / _ \ '__|
| (_| |  __/ (_) |  | |_| | | (_| | | | \__ \  _| (_) | |  | | | | | |  __/ |
 \__, |\___|\___/    \__|_|  \__,_|_| |_|___/_|  \___/|_|  |_| |_| |_|\___|_|
 |___/  WGS84 / UTM / local scene coordinates, YYYY
`

func main() {
	log.SetPrefix("[geo_transformer] ")
	log.SetFlags(log.LUTC | log.Ldate | log.Lmicroseconds | log.Lshortfile)
	defer glog.Flush()

	flagsGlobal := tools.ParseFlagsGlobal()
	log.Println(tools.FmtJSONString(flagsGlobal))

	if *flagsGlobal.Help {
		showHelp()
		return
	}
	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		log.Fatal("Please specify a subcommand [place|convert].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandPlace:
		mainCommandPlace(args)
	case tools.CommandConvert:
		mainCommandConvert(args)
	default:
		log.Fatalf("Unrecognized command [%q]. Command must be one of [place|convert]", cmd)
	}
}

func mainCommandPlace(args []string) {
	flags := tools.ParseFlagsForCommandPlace(args)
	if !setupCommand(&flags.SceneFlags) {
		return
	}

	cfg := loadConfig(&flags.SceneFlags)
	opts := sceneOptions(cfg, &flags.SceneFlags)
	opts.Command = tools.CommandPlace
	opts.PlaceOptions = &placer.PlaceOptions{
		ObjectName: pickString(&flags.SceneFlags, "object", *flags.ObjectName, cfg.Demo.ObjectName),
		Geodetic: geometry.NewGeodeticCoordinate(
			pickFloat(&flags.SceneFlags, "lat", *flags.Latitude, cfg.Demo.Geodetic.Latitude),
			pickFloat(&flags.SceneFlags, "lon", *flags.Longitude, cfg.Demo.Geodetic.Longitude),
			pickFloat(&flags.SceneFlags, "alt", *flags.Altitude, cfg.Demo.Geodetic.Altitude),
		),
		Projected: geometry.NewProjectedCoordinate(
			pickFloat(&flags.SceneFlags, "east", *flags.East, cfg.Demo.UTM.East),
			pickFloat(&flags.SceneFlags, "north", *flags.North, cfg.Demo.UTM.North),
			pickFloat(&flags.SceneFlags, "utm-alt", *flags.UTMAlt, cfg.Demo.UTM.Altitude),
		),
	}

	if msg, res := validateSceneOptions(opts); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}
	if opts.PlaceOptions.ObjectName == "" {
		log.Fatal("Error parsing input parameters: object name cannot be empty")
	}

	algorithmManager, err := std_algorithm_manager.NewAlgorithmManager(opts)
	if err != nil {
		log.Fatal("Error while setting up the transformer: ", err)
	}

	start := time.Now()
	err = pkg.NewPlacer(algorithmManager).RunPlacer(opts)
	algorithmManager.Cleanup()
	timeTrack(start, "placement")

	if err != nil {
		glog.Flush()
		log.Fatal("Error while placing: ", err)
	}
	tools.LogOutput("Placement Completed")
}

func mainCommandConvert(args []string) {
	flags := tools.ParseFlagsForCommandConvert(args)
	if !setupCommand(&flags.SceneFlags) {
		return
	}

	cfg := loadConfig(&flags.SceneFlags)
	opts := sceneOptions(cfg, &flags.SceneFlags)
	opts.Command = tools.CommandConvert
	opts.ConvertOptions = &placer.ConvertOptions{
		Input:            *flags.Input,
		Output:           *flags.Output,
		FolderProcessing: *flags.FolderProcessing,
		Recursive:        *flags.RecursiveFolderProcessing,
		Direction:        placer.ParseDirection(*flags.Direction),
		Workers:          *flags.Workers,
	}

	if msg, res := validateSceneOptions(opts); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}
	if msg, res := validateOptionsForCommandConvert(opts.ConvertOptions); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	algorithmManager, err := std_algorithm_manager.NewAlgorithmManager(opts)
	if err != nil {
		log.Fatal("Error while setting up the transformer: ", err)
	}

	start := time.Now()
	err = pkg.NewConverter(tools.NewStandardFileFinder(), algorithmManager).RunConverter(opts)
	algorithmManager.Cleanup()
	timeTrack(start, "conversion")

	if err != nil {
		glog.Flush()
		log.Fatal("Error while converting: ", err)
	}
	tools.LogOutput("Conversion Completed")
}

// Applies help, version, silent and timestamp flags. Returns false if the command should not run.
func setupCommand(flags *tools.SceneFlags) bool {
	if *flags.Help {
		showHelp()
		return false
	}

	if *flags.Version {
		printVersion()
		return false
	}

	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}
	return true
}

func loadConfig(flags *tools.SceneFlags) *config.Config {
	path := *flags.Config
	if path == "" {
		path = filepath.Join(tools.GetRootFolder(), "config.yaml")
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	return cfg
}

// Merges config file and environment values with the flags given on the command line, flags win
func sceneOptions(cfg *config.Config, flags *tools.SceneFlags) *placer.PlacerOptions {
	anchor := cfg.Anchor()

	return &placer.PlacerOptions{
		Scene:      pickString(flags, "scene", *flags.Scene, cfg.Scene.Name),
		Zone:       pickInt(flags, "zone", *flags.Zone, cfg.Scene.Zone),
		Hemisphere: geometry.ParseHemisphere(pickString(flags, "hemisphere", *flags.Hemisphere, cfg.Scene.Hemisphere)),
		Anchor: geometry.NewProjectedCoordinate(
			pickFloat(flags, "anchor-east", *flags.AnchorEast, anchor.East),
			pickFloat(flags, "anchor-north", *flags.AnchorNorth, anchor.North),
			pickFloat(flags, "anchor-alt", *flags.AnchorAltitude, anchor.Altitude),
		),
		Bound:         float32(pickFloat(flags, "bound", *flags.Bound, float64(cfg.Scene.Bound))),
		ProjCacheSize: pickInt(flags, "proj-cache-size", *flags.ProjCacheSize, cfg.Projection.CacheSize),
		Silent:        *flags.Silent,
	}
}

func pickString(flags *tools.SceneFlags, name string, flagValue string, configValue string) string {
	if flags.IsSet(name) {
		return flagValue
	}
	return configValue
}

func pickInt(flags *tools.SceneFlags, name string, flagValue int, configValue int) int {
	if flags.IsSet(name) {
		return flagValue
	}
	return configValue
}

func pickFloat(flags *tools.SceneFlags, name string, flagValue float64, configValue float64) float64 {
	if flags.IsSet(name) {
		return flagValue
	}
	return configValue
}

// Validates the scene options provided to the command line tool
func validateSceneOptions(opts *placer.PlacerOptions) (string, bool) {
	if opts.Scene == "" {
		return "scene name cannot be empty", false
	}

	if _, err := opts.ReferenceSystem(); err != nil {
		return err.Error(), false
	}

	if !(opts.Bound > 0) {
		return "bound must be a positive value", false
	}

	if opts.ProjCacheSize <= 0 {
		return "proj-cache-size must be a positive value", false
	}

	return "", true
}

// Validates the convert options checking that the input file/folder exists
func validateOptionsForCommandConvert(opts *placer.ConvertOptions) (string, bool) {
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		return "Input file/folder not found", false
	}

	if opts.Direction == "" {
		return "direction should be one of utm-to-local, geo-to-local, local-to-utm, local-to-geo", false
	}

	return "", true
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("geo_transformer converts coordinates between WGS84 latitude/longitude, WGS84/UTM and a bounded local scene frame anchored at a UTM point")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Subcommands: place, convert. Use <subcommand> -help for their flags.")
	fmt.Println("Command line flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
