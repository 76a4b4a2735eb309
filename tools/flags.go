package tools

import (
	"flag"
	"log"
)

const (
	CommandPlace   = "place"
	CommandConvert = "convert"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

// Flags shared by every command describing the scene the transformer is built for
type SceneFlags struct {
	Config         *string  `json:"config"`
	Scene          *string  `json:"scene"`
	Zone           *int     `json:"zone"`
	Hemisphere     *string  `json:"hemisphere"`
	AnchorEast     *float64 `json:"anchor_east"`
	AnchorNorth    *float64 `json:"anchor_north"`
	AnchorAltitude *float64 `json:"anchor_alt"`
	Bound          *float64 `json:"bound"`
	ProjCacheSize  *int     `json:"proj_cache_size"`
	Silent         *bool
	LogTimestamp   *bool
	Help           *bool
	Version        *bool

	// long names of the flags given on the command line
	explicit map[string]bool
}

// Reports whether the flag with the given long name was set on the command line
func (f *SceneFlags) IsSet(name string) bool {
	return f.explicit[name]
}

type FlagsForCommandPlace struct {
	SceneFlags
	ObjectName *string  `json:"object"`
	Latitude   *float64 `json:"lat"`
	Longitude  *float64 `json:"lon"`
	Altitude   *float64 `json:"alt"`
	East       *float64 `json:"east"`
	North      *float64 `json:"north"`
	UTMAlt     *float64 `json:"utm_alt"`
}

type FlagsForCommandConvert struct {
	SceneFlags
	Input                     *string `json:"input"`
	Output                    *string `json:"output"`
	FolderProcessing          *bool
	RecursiveFolderProcessing *bool
	Direction                 *string `json:"direction"`
	Workers                   *int    `json:"workers"`
}

// FlagSet remembering which shorthand belongs to which long flag name
type flagCommand struct {
	*flag.FlagSet
	shortHands map[string]string
}

func newFlagCommand(name string) *flagCommand {
	return &flagCommand{
		FlagSet:    flag.NewFlagSet(name, flag.ExitOnError),
		shortHands: map[string]string{},
	}
}

func (fc *flagCommand) explicitFlags() map[string]bool {
	explicit := map[string]bool{}
	fc.Visit(func(f *flag.Flag) {
		if long, ok := fc.shortHands[f.Name]; ok {
			explicit[long] = true
			return
		}
		explicit[f.Name] = true
	})
	return explicit
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	// -v belongs to glog verbosity on the global flag set
	version := defineBoolFlag("version", "", false, "Displays the version of geo_transformer.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func defineSceneFlags(flagCommand *flagCommand) SceneFlags {
	return SceneFlags{
		Config:         defineStringFlagCommand(flagCommand, "config", "c", "", "Path of the YAML scene config. Defaults to config.yaml next to the executable."),
		Scene:          defineStringFlagCommand(flagCommand, "scene", "", "default", "Name the transformer is registered under."),
		Zone:           defineIntFlagCommand(flagCommand, "zone", "z", 32, "WGS84/UTM zone of the anchor, between 1 and 60."),
		Hemisphere:     defineStringFlagCommand(flagCommand, "hemisphere", "", "north", "Hemisphere of the UTM zone, 'north' or 'south'. Unknown values are treated as north."),
		AnchorEast:     defineFloat64FlagCommand(flagCommand, "anchor-east", "", 566600, "UTM easting mapped to the local frame origin."),
		AnchorNorth:    defineFloat64FlagCommand(flagCommand, "anchor-north", "", 5933000, "UTM northing mapped to the local frame origin."),
		AnchorAltitude: defineFloat64FlagCommand(flagCommand, "anchor-alt", "", 0, "Altitude mapped to the local frame origin."),
		Bound:          defineFloat64FlagCommand(flagCommand, "bound", "b", 100, "Max absolute offset from the anchor on every local axis, in the unit of the anchor. Offsets equal or beyond the bound are refused."),
		ProjCacheSize:  defineIntFlagCommand(flagCommand, "proj-cache-size", "", 120, "Max number of PROJ projections kept open."),
		Silent:         defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages."),
		LogTimestamp:   defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages."),
		Help:           defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help."),
		Version:        defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of geo_transformer."),
	}
}

func ParseFlagsForCommandPlace(args []string) FlagsForCommandPlace {
	log.Println(FmtJSONString(args))

	flagCommand := newFlagCommand("command-place")

	sceneFlags := defineSceneFlags(flagCommand)
	objectName := defineStringFlagCommand(flagCommand, "object", "o", "marker", "Name of the scene object to place.")
	latitude := defineFloat64FlagCommand(flagCommand, "lat", "", 53.5417104602435, "Latitude in decimal degrees of the geodetic placement.")
	longitude := defineFloat64FlagCommand(flagCommand, "lon", "", 10.0051097859429, "Longitude in decimal degrees of the geodetic placement.")
	altitude := defineFloat64FlagCommand(flagCommand, "alt", "", 4.25, "Altitude of the geodetic placement.")
	east := defineFloat64FlagCommand(flagCommand, "east", "e", 566605, "UTM easting of the UTM placement.")
	north := defineFloat64FlagCommand(flagCommand, "north", "n", 5933004, "UTM northing of the UTM placement.")
	utmAlt := defineFloat64FlagCommand(flagCommand, "utm-alt", "", 3, "Altitude of the UTM placement.")

	flagCommand.Parse(args)
	sceneFlags.explicit = flagCommand.explicitFlags()

	return FlagsForCommandPlace{
		SceneFlags: sceneFlags,
		ObjectName: objectName,
		Latitude:   latitude,
		Longitude:  longitude,
		Altitude:   altitude,
		East:       east,
		North:      north,
		UTMAlt:     utmAlt,
	}
}

func ParseFlagsForCommandConvert(args []string) FlagsForCommandConvert {
	log.Println(FmtJSONString(args))

	flagCommand := newFlagCommand("command-convert")

	sceneFlags := defineSceneFlags(flagCommand)
	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input point file/folder.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output file. Results are written to stdout if empty.")
	folderProcessing := defineBoolFlagCommand(flagCommand, "folder", "f", false, "Enables processing of all .txt, .csv and .xyz files from input folder. Input must be a folder if specified")
	recursiveFolderProcessing := defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for point files inside the subfolders")
	direction := defineStringFlagCommand(flagCommand, "direction", "d", "utm-to-local", "Conversion to apply, one of 'utm-to-local', 'geo-to-local', 'local-to-utm', 'local-to-geo'. Geodetic points are latitude, longitude, altitude.")
	workers := defineIntFlagCommand(flagCommand, "workers", "w", 0, "Number of conversion goroutines. Defaults to one per CPU.")

	flagCommand.Parse(args)
	sceneFlags.explicit = flagCommand.explicitFlags()

	return FlagsForCommandConvert{
		SceneFlags:                sceneFlags,
		Input:                     input,
		Output:                    output,
		FolderProcessing:          folderProcessing,
		RecursiveFolderProcessing: recursiveFolderProcessing,
		Direction:                 direction,
		Workers:                   workers,
	}
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flagCommand, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
		flagCommand.shortHands[shortHand] = name
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flagCommand, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
		flagCommand.shortHands[shortHand] = name
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flagCommand, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
		flagCommand.shortHands[shortHand] = name
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flagCommand, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
		flagCommand.shortHands[shortHand] = name
	}
	return &output
}
