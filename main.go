package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c, err := parseConfig(os.Args[1:])
	if err == flag.ErrHelp {
		return
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	lvl, _ := c.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))

	if err := run(ctx, c); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c Config) error {
	return New(c).Run(ctx)
}

// parseConfig builds the config from defaults, an optional TOML file and flags,
// in that order of precedence.
func parseConfig(args []string) (Config, error) {
	def := DefaultConfig()
	fs := flag.NewFlagSet("shaderframe", flag.ContinueOnError)
	var (
		fConfig  = fs.String("config", "", "TOML config file")
		fShader  = fs.String("shader", def.Shader, "fragment shader file (embedded effect if empty)")
		fMonitor = fs.Int("monitor", def.Monitor, "monitor index")
		fFull    = fs.Bool("full", def.FullScreen, "full screen")
		fWidth   = fs.Int("width", def.Width, "window width")
		fHeight  = fs.Int("height", def.Height, "window height")
		fDebug   = fs.Bool("debug", def.Debug, "enable GL debug output and shader reload")
		fWatch   = fs.Bool("watch", def.Watch, "reload the shader file on change (debug only)")
		fFPS     = fs.Int("fps", def.FPS, "frames per second")
		fControl = fs.String("control", def.Control, "address of the control API (disabled if empty)")
		fLog     = fs.String("log", def.LogLevel, "log level")
	)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	c := def
	if *fConfig != "" {
		if err := c.LoadFile(*fConfig); err != nil {
			return Config{}, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "shader":
			c.Shader = *fShader
		case "monitor":
			c.Monitor = *fMonitor
		case "full":
			c.FullScreen = *fFull
		case "width":
			c.Width = *fWidth
		case "height":
			c.Height = *fHeight
		case "debug":
			c.Debug = *fDebug
		case "watch":
			c.Watch = *fWatch
		case "fps":
			c.FPS = *fFPS
		case "control":
			c.Control = *fControl
		case "log":
			c.LogLevel = *fLog
		}
	})
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

//go:embed shaders/empty.vert
var vertShader string

//go:embed shaders/quad.geom
var geomShader string

//go:embed shaders/default.frag
var defaultFragShader string
