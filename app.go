package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/go-gl/gl/all-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func New(c Config) *App {
	return &App{conf: c}
}

type App struct {
	conf    Config
	close   []func()
	lis     net.Listener
	reloads chan reloadReq
	stats   frameStats
	rel     *reloader

	win   *glfw.Window
	start time.Time

	vertArr uint32
	vert    uint32
	geom    uint32
	prog    *program
}

func (a *App) onClose(fnc func()) {
	a.close = append(a.close, fnc)
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		for i := len(a.close) - 1; i >= 0; i-- {
			a.close[i]()
		}
		a.close = nil
	}()
	a.onClose(cancel)

	a.reloads = make(chan reloadReq, 4)
	a.stats.shader = a.conf.Shader
	a.rel = &reloader{path: a.conf.Shader, build: a, stats: &a.stats}

	fragSrc, err := fragSource(a.conf.Shader)
	if err != nil {
		return err
	}
	if err := a.startListener(); err != nil {
		return err
	}

	runtime.LockOSThread()
	a.onClose(runtime.UnlockOSThread)

	if err := glfw.Init(); err != nil {
		return err
	}
	a.onClose(glfw.Terminate)

	if err := a.initWindow(); err != nil {
		return err
	}
	if err := a.initGL(); err != nil {
		return err
	}
	a.initVertArr()
	if err := a.compileShaders(fragSrc); err != nil {
		return err
	}
	if err := a.startWatcher(ctx); err != nil {
		return err
	}
	a.startServer(ctx)
	return a.loop(ctx)
}

func (a *App) initWindow() error {
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.DoubleBuffer, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.AutoIconify, glfw.False)
	if a.conf.Debug {
		glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	}

	var monitor *glfw.Monitor
	if a.conf.Monitor < 0 {
		monitor = glfw.GetPrimaryMonitor()
	} else {
		monitors := glfw.GetMonitors()
		if a.conf.Monitor >= len(monitors) {
			return fmt.Errorf("no monitor found")
		}
		monitor = monitors[a.conf.Monitor]
	}

	var winMonitor *glfw.Monitor
	winSize := a.conf.WindowSize()
	if a.conf.FullScreen {
		if monitor == nil {
			return fmt.Errorf("no monitor found")
		}
		winMonitor = monitor
		mode := monitor.GetVideoMode()
		winSize = image.Pt(mode.Width, mode.Height)
	}

	win, err := glfw.CreateWindow(winSize.X, winSize.Y, "Shader Frame", winMonitor, nil)
	if err != nil {
		return err
	}
	a.onClose(win.Destroy)

	win.SetKeyCallback(a.keyPress)
	a.win = win
	return nil
}

func (a *App) keyPress(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyEscape:
		w.SetShouldClose(true)
	case glfw.KeyR, glfw.KeyF5:
		if a.conf.Debug {
			// Called from PollEvents on the render thread, so the
			// reload is applied directly.
			a.rel.handle(reloadReq{reason: "key"})
		}
	}
}

func (a *App) initGL() error {
	a.win.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return fmt.Errorf("OpenGL init failed: %w", err)
	}
	slog.Info("OpenGL initialized", "vers", gl.GoStr(gl.GetString(gl.VERSION)))

	if a.conf.Debug {
		gl.Enable(gl.DEBUG_OUTPUT)
		gl.DebugMessageCallback(glDebugMsg, nil)
	}
	return nil
}

func (a *App) initVertArr() {
	gl.GenVertexArrays(1, &a.vertArr)
	gl.BindVertexArray(a.vertArr)
	a.onClose(func() {
		gl.DeleteVertexArrays(1, &a.vertArr)
	})
	glCheckErr()
}

func (a *App) compileShaders(fragSrc string) error {
	vert, err := compileShader(gl.VERTEX_SHADER, vertShader)
	if err != nil {
		return err
	}
	a.onClose(func() {
		gl.DeleteShader(vert)
	})
	a.vert = vert

	geom, err := compileShader(gl.GEOMETRY_SHADER, geomShader)
	if err != nil {
		return err
	}
	a.onClose(func() {
		gl.DeleteShader(geom)
	})
	a.geom = geom

	prog, err := newProgram(vert, geom, fragSrc)
	if err != nil {
		return err
	}
	a.onClose(func() {
		a.prog.delete()
	})
	gl.UseProgram(prog.id)
	a.prog = prog
	return nil
}

// rebuild links a new program with fragSrc. The current program is kept if
// compilation or linking fails.
func (a *App) rebuild(fragSrc string) error {
	prog, err := newProgram(a.vert, a.geom, fragSrc)
	if err != nil {
		return err
	}
	a.prog.delete()
	a.prog = prog
	gl.UseProgram(prog.id)
	return nil
}

func (a *App) startWatcher(ctx context.Context) error {
	if !a.conf.WatchShader() {
		return nil
	}
	sw, err := newShaderWatcher(a.conf.Shader)
	if err != nil {
		return fmt.Errorf("cannot watch shader: %w", err)
	}
	a.onClose(func() {
		sw.Close()
	})
	go sw.run(ctx, a.reloads)
	slog.Info("watching shader", "path", sw.path)
	return nil
}

func (a *App) startListener() error {
	if a.conf.Control == "" {
		return nil
	}
	l, err := net.Listen("tcp", a.conf.Control)
	if err != nil {
		return err
	}
	a.lis = l
	a.onClose(func() {
		l.Close()
	})
	return nil
}

func (a *App) startServer(ctx context.Context) {
	if a.lis == nil {
		return
	}
	hsrv := &http.Server{
		Handler: (&server{
			closed:  ctx.Done(),
			reloads: a.reloads,
			stats:   &a.stats,
		}).handler(),
	}
	go func() {
		if err := hsrv.Serve(a.lis); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to serve api", "err", err)
		}
	}()
	a.onClose(func() {
		hsrv.Close()
	})
	slog.Info("control api started", "addr", a.lis.Addr().String())
}

func (a *App) render() {
	width, height := a.win.GetFramebufferSize()
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(a.prog.id)
	gl.BindVertexArray(a.vertArr)
	a.prog.setUniforms(width, height, float32(time.Since(a.start).Seconds()))
	gl.DrawArrays(gl.POINTS, 0, 1)
	if a.conf.Debug {
		glCheckErr()
	}
	a.stats.frame(image.Pt(width, height))
}

func (a *App) loop(ctx context.Context) error {
	done := ctx.Done()
	gl.ClearColor(0, 0, 0, 1)
	a.start = time.Now()

	ticker := time.NewTicker(a.conf.FrameInterval())
	defer ticker.Stop()
	for {
		if a.win.ShouldClose() {
			return nil
		}
		select {
		case <-done:
			return nil
		case req := <-a.reloads:
			a.rel.handle(req)
			continue
		case <-ticker.C:
		}
		a.render()
		a.win.SwapBuffers()
		glfw.PollEvents()
	}
}
