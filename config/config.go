// Package config loads inkrec settings from a YAML file with environment
// overrides.
package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/juruen/inkrec/log"
	"github.com/juruen/inkrec/preprocess"
	"github.com/juruen/inkrec/raster"
	"github.com/juruen/inkrec/stroke"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	defaultConfigFile = "config.yaml"
	appName           = "inkrec"
	DefaultModelPath  = "assets/math_recognition.tflite"
	DefaultAddr       = "127.0.0.1:8080"

	EnvConfig    = "INKREC_CONFIG"
	EnvModel     = "INKREC_MODEL"
	EnvPictures  = "INKREC_PICTURES"
	EnvAddr      = "INKREC_ADDR"
	EnvJWTSecret = "INKREC_JWT_SECRET"
)

type Canvas struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Background stroke.RGB `yaml:"background"`
}

type Pen struct {
	Color stroke.RGB `yaml:"color"`
	Width float64    `yaml:"width"`
}

type Config struct {
	Canvas      Canvas   `yaml:"canvas"`
	Pen         Pen      `yaml:"pen"`
	PicturesDir string   `yaml:"pictures_dir"`
	ModelPath   string   `yaml:"model_path"`
	InputSize   int      `yaml:"input_size"`
	Filter      string   `yaml:"filter"`
	Classes     int      `yaml:"classes"`
	Labels      []string `yaml:"labels,omitempty"`
	BatchSize   int64    `yaml:"batch_size"`
	Threads     int      `yaml:"threads"`
	Addr        string   `yaml:"addr"`
	JWTSecret   string   `yaml:"jwt_secret,omitempty"`
}

func Default() Config {
	return Config{
		Canvas: Canvas{
			Width:      raster.DefaultWidth,
			Height:     raster.DefaultHeight,
			Background: stroke.White,
		},
		Pen: Pen{
			Color: stroke.DefaultPen.Color,
			Width: stroke.DefaultPen.Width,
		},
		PicturesDir: defaultPicturesDir(),
		ModelPath:   DefaultModelPath,
		InputSize:   preprocess.DefaultSize,
		Filter:      "bilinear",
		Classes:     10,
		Labels:      []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"},
		BatchSize:   3,
		Addr:        DefaultAddr,
	}
}

func defaultPicturesDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName, "Pictures")
	}
	return filepath.Join(dir, "."+appName, "Pictures")
}

// ConfigPath returns INKREC_CONFIG if set, else config.yaml under the
// user config directory.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "can't locate config dir")
		}
		return filepath.Join(home, "."+appName, defaultConfigFile), nil
	}
	return filepath.Join(dir, appName, defaultConfigFile), nil
}

// Load reads path over the defaults. A missing file is not an error.
// Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	content, err := ioutil.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		log.Trace.Printf("config %s not found, using defaults", path)
	case err != nil:
		return cfg, errors.Wrapf(err, "can't read config %s", path)
	default:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "can't parse config %s", path)
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvModel); v != "" {
		c.ModelPath = v
	}
	if v := os.Getenv(EnvPictures); v != "" {
		c.PicturesDir = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.JWTSecret = v
	}
}

func (c Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return errors.Errorf("canvas size %dx%d must be positive", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Pen.Width <= 0 {
		return errors.Errorf("pen width %v must be positive", c.Pen.Width)
	}
	if c.InputSize <= 0 {
		return errors.Errorf("input_size %d must be positive", c.InputSize)
	}
	if c.Classes < 0 {
		return errors.Errorf("classes %d must not be negative", c.Classes)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size %d must be positive", c.BatchSize)
	}
	if c.PicturesDir == "" {
		return errors.New("pictures_dir is required")
	}
	if _, err := preprocess.ParseFilter(c.Filter); err != nil {
		return err
	}
	return nil
}

// Save writes c to path, creating the parent directory.
func Save(c Config, path string) error {
	content, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "can't encode config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "can't create config dir")
	}
	return errors.Wrap(ioutil.WriteFile(path, content, 0600), "can't write config")
}

func (c Config) RasterOptions() raster.Options {
	return raster.Options{
		Width:      c.Canvas.Width,
		Height:     c.Canvas.Height,
		Background: c.Canvas.Background,
	}
}

func (c Config) PreprocessOptions() preprocess.Options {
	f, err := preprocess.ParseFilter(c.Filter)
	if err != nil {
		f = preprocess.DefaultOptions.Filter
	}
	return preprocess.Options{Size: c.InputSize, Filter: f}
}

func (c Config) StrokePen() stroke.Pen {
	return stroke.Pen{Color: c.Pen.Color, Width: c.Pen.Width}
}

// Label names class i, falling back to its index.
func (c Config) Label(i int) string {
	if i >= 0 && i < len(c.Labels) {
		return c.Labels[i]
	}
	if i < 0 {
		return ""
	}
	return strconv.Itoa(i)
}
