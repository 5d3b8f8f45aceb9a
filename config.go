package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Shader     string `toml:"shader"`
	Monitor    int    `toml:"monitor"`
	FullScreen bool   `toml:"fullscreen"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Debug      bool   `toml:"debug"`
	Watch      bool   `toml:"watch"`
	FPS        int    `toml:"fps"`
	Control    string `toml:"control"`
	LogLevel   string `toml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Monitor:    -1,
		FullScreen: true,
		Width:      1280,
		Height:     800,
		Watch:      true,
		FPS:        60,
		LogLevel:   "info",
	}
}

// LoadFile overrides fields of c with the ones present in the TOML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return fmt.Errorf("%s: %s", path, serr.String())
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if !c.FullScreen && (c.Width <= 0 || c.Height <= 0) {
		return fmt.Errorf("invalid window size: %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid fps: %d", c.FPS)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c Config) WindowSize() image.Point {
	return image.Pt(c.Width, c.Height)
}

func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// WatchShader reports whether the shader file should be reloaded on change.
func (c Config) WatchShader() bool {
	return c.Debug && c.Watch && c.Shader != ""
}

func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return lvl, nil
}
