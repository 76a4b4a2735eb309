package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ecopia-map/geo_transformer/internal/geometry"
)

// Config holds the scene setup read from the YAML config file and the environment.
type Config struct {
	Scene      SceneConfig      `yaml:"scene"`
	Projection ProjectionConfig `yaml:"projection"`
	Demo       DemoConfig       `yaml:"demo"`

	path string
}

type SceneConfig struct {
	Name       string      `yaml:"name"`
	Zone       int         `yaml:"zone"`
	Hemisphere string      `yaml:"hemisphere"` // "north" or "south"
	Anchor     PointConfig `yaml:"anchor"`     // UTM point of the local frame origin
	Bound      float32     `yaml:"bound"`      // max offset from the anchor per local axis
}

type PointConfig struct {
	East     float64 `yaml:"east"`
	North    float64 `yaml:"north"`
	Altitude float64 `yaml:"altitude"`
}

type GeodeticConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Altitude  float64 `yaml:"altitude"`
}

type ProjectionConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// DemoConfig holds the sample coordinates used by the place command.
type DemoConfig struct {
	ObjectName string         `yaml:"object_name"`
	Geodetic   GeodeticConfig `yaml:"geodetic"`
	UTM        PointConfig    `yaml:"utm"`
}

// DefaultConfig returns the Hamburg demo scene in WGS84/UTM zone 32N.
func DefaultConfig() *Config {
	return &Config{
		Scene: SceneConfig{
			Name:       "default",
			Zone:       32,
			Hemisphere: "north",
			Anchor: PointConfig{
				East:     566600,
				North:    5933000,
				Altitude: 0,
			},
			Bound: 100,
		},
		Projection: ProjectionConfig{
			CacheSize: 120,
		},
		Demo: DemoConfig{
			ObjectName: "marker",
			Geodetic: GeodeticConfig{
				Latitude:  53.5417104602435,
				Longitude: 10.0051097859429,
				Altitude:  4.25,
			},
			UTM: PointConfig{
				East:     566605,
				North:    5933004,
				Altitude: 3,
			},
		},
	}
}

// LoadConfig reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file falls back to defaults, a malformed one is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	if path != "" {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[config] no config at %s, using defaults", path)
		} else if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		} else {
			log.Printf("[config] loaded from %s", path)
		}
	}

	// .env next to the config file first, then the working directory. Real env vars take precedence.
	envPaths := []string{".env"}
	if path != "" {
		envPaths = append([]string{filepath.Join(filepath.Dir(path), ".env")}, envPaths...)
	}
	for _, ep := range envPaths {
		if _, err := os.Stat(ep); err != nil {
			continue
		}
		if err := loadDotEnv(ep); err != nil {
			return nil, err
		}
		log.Printf("[config] loaded .env from %s", ep)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv sets the variables of a .env file that are unset or empty in the environment.
// godotenv.Load keeps any existing key, empty ones included.
func loadDotEnv(path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	for key, value := range values {
		if os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("load %s: set %s: %w", path, key, err)
		}
	}
	return nil
}

// applyEnvOverrides reads environment variables and overrides config values.
// Supported: GEO_SCENE, GEO_ZONE, GEO_HEMISPHERE, GEO_ANCHOR_EAST, GEO_ANCHOR_NORTH,
// GEO_ANCHOR_ALTITUDE, GEO_BOUND, GEO_PROJ_CACHE_SIZE
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("GEO_SCENE"); v != "" {
		c.Scene.Name = v
	}
	if v := os.Getenv("GEO_HEMISPHERE"); v != "" {
		c.Scene.Hemisphere = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"GEO_ZONE", &c.Scene.Zone},
		{"GEO_PROJ_CACHE_SIZE", &c.Projection.CacheSize},
	}
	for _, o := range ints {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parse %s=%q: %w", o.key, v, err)
			}
			*o.dst = n
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"GEO_ANCHOR_EAST", &c.Scene.Anchor.East},
		{"GEO_ANCHOR_NORTH", &c.Scene.Anchor.North},
		{"GEO_ANCHOR_ALTITUDE", &c.Scene.Anchor.Altitude},
	}
	for _, o := range floats {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("parse %s=%q: %w", o.key, v, err)
			}
			*o.dst = f
		}
	}

	if v := strings.TrimSpace(os.Getenv("GEO_BOUND")); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("parse GEO_BOUND=%q: %w", v, err)
		}
		c.Scene.Bound = float32(f)
	}
	return nil
}

func (c *Config) ReferenceSystem() (geometry.ReferenceSystem, error) {
	return geometry.NewReferenceSystem(c.Scene.Zone, geometry.ParseHemisphere(c.Scene.Hemisphere))
}

func (c *Config) Anchor() geometry.ProjectedCoordinate {
	return geometry.NewProjectedCoordinate(c.Scene.Anchor.East, c.Scene.Anchor.North, c.Scene.Anchor.Altitude)
}

// Save writes the config to its YAML file.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}

func (c *Config) Path() string {
	return c.path
}
